package client

import (
	"errors"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ReplyError is a server reply that did not match the exchange in progress.
type ReplyError struct {
	Line string
}

func (e *ReplyError) Error() string {
	return "unexpected server reply: " + e.Line
}

// Message strips the ERROR:/Error: prefix the server uses.
func (e *ReplyError) Message() string {
	for _, p := range []string{"ERROR:", "Error: ", "DENIED:"} {
		if rest, ok := strings.CutPrefix(e.Line, p); ok {
			return rest
		}
	}
	return e.Line
}
