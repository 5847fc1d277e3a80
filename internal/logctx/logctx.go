package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the web-service call carried by the context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if cd, ok := ctx.Value(callDataKey{}).(*CallData); ok {
		r.AddAttrs(slog.Group("call",
			slog.String("id", cd.CallID),
			slog.String("function", cd.Function),
			slog.Int("params", cd.Params),
			slog.String("server", cd.Server),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// Wrap returns a logger whose handler is decorated by Handler. Wrapping an
// already wrapped logger is a no-op.
func Wrap(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if _, ok := l.Handler().(Handler); ok {
		return l
	}
	return slog.New(Handler{Handler: l.Handler()})
}

type callDataKey struct{}

// CallData identifies one web-service call.
type CallData struct {
	CallID   string
	Function string
	Params   int
	Server   string
}

func WithCallData(ctx context.Context, data *CallData) context.Context {
	return context.WithValue(ctx, callDataKey{}, data)
}

func CallDataFrom(ctx context.Context) (*CallData, bool) {
	cd, ok := ctx.Value(callDataKey{}).(*CallData)
	return cd, ok
}
