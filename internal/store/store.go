// Package store keeps the client's in-memory copy of server data and
// mediates every change through the API.
//
// Card moves are optimistic: the local state changes first, the request
// follows, and a failure restores the pre-move lists before refetching
// them from the server. Everything else is request-then-merge: nothing
// changes locally until the server has answered.
package store

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/api"
)

var (
	// ErrNotFound means the board, list or card is not in local state.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the current user's role does not allow the
	// operation. The server decides for real; this only saves a request.
	ErrForbidden = errors.New("forbidden")
	// ErrOutOfRange is returned for list positions outside the board.
	ErrOutOfRange = errors.New("index out of range")
)

// FetchError is returned when loading a board fails. Prior state is kept.
type FetchError struct {
	BoardID int
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load board %d: %v", e.BoardID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorHook sees every API error before the store reports it. The session
// controller uses it to sign out on 401.
type ErrorHook func(error) error

type Option func(*reporter)

func WithAlerts(c *alert.Center) Option {
	return func(r *reporter) { r.alerts = c }
}

func WithLogger(l log.FieldLogger) Option {
	return func(r *reporter) { r.log = l }
}

func WithErrorHook(h ErrorHook) Option {
	return func(r *reporter) { r.hook = h }
}

// reporter turns failures into log lines and alerts.
type reporter struct {
	alerts *alert.Center
	log    log.FieldLogger
	hook   ErrorHook
}

func newReporter(opts []Option) reporter {
	r := reporter{log: log.StandardLogger()}
	for _, o := range opts {
		o(&r)
	}
	if r.alerts == nil {
		r.alerts = alert.New()
	}
	return r
}

// Alerts exposes the alert center failures are pushed to.
func (r *reporter) Alerts() *alert.Center { return r.alerts }

func (r *reporter) handle(err error) error {
	if err == nil || r.hook == nil {
		return err
	}
	return r.hook(err)
}

// fail runs err through the hook, logs it and raises an error alert.
func (r *reporter) fail(op string, fields log.Fields, err error) error {
	err = r.handle(err)
	r.log.WithFields(fields).WithError(err).Warn(op + " failed")
	r.alerts.Push(alert.Error, userMessage(op, err))
	return err
}

func userMessage(op string, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, api.ErrTransport):
		return "Could not reach the server while trying to " + op + "."
	case errors.Is(err, context.Canceled):
		return op + " was cancelled."
	}
	return "Failed to " + op + "."
}
