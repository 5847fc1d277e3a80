package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandler_AddsCallGroup(t *testing.T) {
	var buf bytes.Buffer
	log := Wrap(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithCallData(context.Background(), &CallData{CallID: "c1", Function: "core_course_get_courses", Params: 2, Server: "moodle.example"})
	log.InfoContext(ctx, "sent")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	call, ok := rec["call"].(map[string]any)
	if !ok {
		t.Fatalf("missing call group in %v", rec)
	}
	if call["id"] != "c1" || call["function"] != "core_course_get_courses" || call["params"] != float64(2) {
		t.Fatalf("unexpected call group %v", call)
	}
}

func TestHandler_NoCallData(t *testing.T) {
	var buf bytes.Buffer
	log := Wrap(slog.New(slog.NewJSONHandler(&buf, nil))).With("k", "v")
	log.Info("plain")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if _, ok := rec["call"]; ok {
		t.Fatalf("unexpected call group")
	}
	if rec["k"] != "v" {
		t.Fatalf("With attrs lost: %v", rec)
	}
}

func TestWrap_Idempotent(t *testing.T) {
	l := Wrap(nil)
	if Wrap(l) != l {
		t.Fatalf("Wrap should not double-wrap")
	}
	if _, ok := CallDataFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no call data")
	}
}
