package recipeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies why a request failed.
type ErrorKind int

const (
	// KindTransport covers unreachable services and malformed responses.
	KindTransport ErrorKind = iota
	// KindService is a non-2xx response.
	KindService
	// KindInvalid is a request rejected before it was sent.
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RequestError is the only error type returned by Client.
type RequestError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	msg := e.Detail
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	switch e.Kind {
	case KindService:
		if msg == "" {
			msg = strings.ToLower(http.StatusText(e.StatusCode))
		}
		return fmt.Sprintf("%s failed: %s (HTTP %d)", e.Op, msg, e.StatusCode)
	case KindInvalid:
		return fmt.Sprintf("%s failed: invalid request: %s", e.Op, msg)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, msg)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// errorDetail pulls a message out of an error body. The service answers
// with {"detail": "..."} or, for validation failures, a list of objects
// carrying "msg".
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
