package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownSession = errors.New("unknown checkout session")

type sandboxSession struct {
	req  CheckoutRequest
	paid bool
}

// Sandbox is an in-process gateway for development: sessions live in memory
// and are paid by visiting their redirect URL (see Complete).
type Sandbox struct {
	baseURL string

	mu       sync.Mutex
	sessions map[string]*sandboxSession
}

func NewSandbox(publicBaseURL string) *Sandbox {
	return &Sandbox{
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		sessions: make(map[string]*sandboxSession),
	}
}

func (s *Sandbox) CreateCheckout(_ context.Context, req CheckoutRequest) (Session, error) {
	if req.Amount <= 0 {
		return Session{}, fmt.Errorf("checkout amount must be greater than 0, got %v", req.Amount)
	}
	if req.PayerEmail == "" {
		return Session{}, errors.New("payer email is required")
	}
	id := "cs_test_" + uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &sandboxSession{req: req}
	s.mu.Unlock()

	return Session{ID: id, RedirectURL: s.baseURL + "/payments/sandbox/" + id}, nil
}

func (s *Sandbox) Verify(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, ErrUnknownSession
	}
	return sess.paid, nil
}

// Complete marks the session paid and returns the URL the payer goes back to
func (s *Sandbox) Complete(sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrUnknownSession
	}
	sess.paid = true
	return sess.req.SuccessURL, nil
}
