// Package session keeps the per-browser state (lists plus one-shot flash
// messages) between requests.
package session

import (
	"context"
	"errors"
	"net/http"

	"todolists/internal/model"
	"todolists/internal/store"
)

// ErrInvalid marks a session cookie that failed verification or decoding.
// Callers should start over with New() rather than fail the request.
var ErrInvalid = errors.New("invalid session")

type Session struct {
	store.State

	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`

	// ID is only used by server-side backends.
	ID string `json:"-"`
}

func New() *Session {
	return &Session{State: store.State{Lists: []model.List{}}}
}

// Flash returns the pending messages and clears them so they render once.
func (s *Session) Flash() (errMsg, success string) {
	errMsg, success = s.Error, s.Success
	s.Error, s.Success = "", ""
	return errMsg, success
}

type Backend interface {
	Load(ctx context.Context, r *http.Request) (*Session, error)
	Save(ctx context.Context, w http.ResponseWriter, s *Session) error
	Close() error
}
