package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrValidation matches 400/422 responses.
	ErrValidation = errors.New("validation failed")
	// ErrTransport matches failures where no response was received.
	ErrTransport = errors.New("transport failure")
)

// Error is a non-2xx response.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
	// Fields holds per-field validation messages exactly as the server sent
	// them.
	Fields map[string][]string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// TransportError wraps network failures and context cancellation.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// parseError turns an error body into an *Error. The backend answers with
// {"error": "..."}, {"detail": "..."} or a field -> messages map.
func parseError(status int, method, path string, body []byte) *Error {
	e := &Error{Status: status, Method: method, Path: path}
	if len(body) == 0 {
		return e
	}
	var raw map[string]any
	if err := sonic.ConfigStd.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}
	for _, k := range []string{"error", "detail", "message"} {
		if s, ok := raw[k].(string); ok && s != "" {
			e.Message = s
			delete(raw, k)
			break
		}
	}
	for field, v := range raw {
		switch x := v.(type) {
		case string:
			e.addField(field, x)
		case []any:
			for _, item := range x {
				if s, ok := item.(string); ok {
					e.addField(field, s)
				}
			}
		}
	}
	if e.Message == "" && len(e.Fields) > 0 {
		e.Message = e.fieldSummary()
	}
	return e
}

func (e *Error) addField(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *Error) fieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}
