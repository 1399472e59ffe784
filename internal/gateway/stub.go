package gateway

import (
	"context"

	"github.com/google/uuid"
)

var _ Gateway = (*Stub)(nil)

// Stub is an in-process gateway for development and tests. Sessions
// redirect to RedirectBase/<session-id>; the caller simulates the provider
// by hitting the reconcile endpoint with a success or cancel flag.
type Stub struct {
	RedirectBase string
	// Err, when set, is returned from every call.
	Err error
}

// CreateSession returns a deterministic fake session.
func (s *Stub) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	id := "sess_" + uuid.New().String()
	return &Session{ID: id, RedirectURL: s.RedirectBase + "/pay/" + req.OrderID}, nil
}

// CreateIntent returns a deterministic fake intent.
func (s *Stub) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	id := "pi_" + uuid.New().String()
	return &Intent{ID: id, ClientSecret: id + "_secret_" + req.OrderID}, nil
}
