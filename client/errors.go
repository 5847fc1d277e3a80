package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedContentType is returned when the server answers with a
	// media type other than JSON.
	ErrUnexpectedContentType = errors.New("client: unexpected content type")
	// ErrUnexpectedAnswer is returned when a void call gets a body, or a
	// regular call gets the void answer where data was required.
	ErrUnexpectedAnswer = errors.New("client: unexpected answer")
)

// HTTPError reports a non-200 HTTP status.
type HTTPError struct {
	StatusCode int
	Status     string
	Function   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("client: %s: http status %s", e.Function, e.Status)
}

// ExceptionError is the error object the server returns, with HTTP 200, when a
// function fails (invalid token, missing capability, invalid parameter...).
type ExceptionError struct {
	Function  string
	Exception string
	ErrorCode string
	Message   string
	DebugInfo string
}

func (e *ExceptionError) Error() string {
	msg := fmt.Sprintf("client: %s: %s (%s): %s", e.Function, e.Exception, e.ErrorCode, e.Message)
	if e.DebugInfo != "" {
		msg += ": " + e.DebugInfo
	}
	return msg
}
