package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tbxark/formwizard/assist"
	"github.com/tbxark/formwizard/wizard"
)

var ErrDraftUnavailable = errors.New("draft store unavailable")

const (
	clientCookie = "intake_client"
	clientHeader = "X-Client-ID"
)

// ControllerFactory builds the controller of one client. The client id is
// meant to become the draft key so a returning client gets the draft back.
type ControllerFactory func(ctx context.Context, clientID string) *wizard.Controller

type session struct {
	controller *wizard.Controller
	history    *assist.Transcript
	lastSeen   time.Time
}

// Sessions keeps one controller per client id.
type Sessions struct {
	mu      sync.Mutex
	byID    map[string]*session
	factory ControllerFactory
	now     func() time.Time
}

func NewSessions(factory ControllerFactory) *Sessions {
	return &Sessions{
		byID:    map[string]*session{},
		factory: factory,
		now:     time.Now,
	}
}

// get returns the session of clientID, creating it on first use. The draft is
// loaded outside s.mu and detached from the request. A session whose draft
// failed to load is never kept.
func (s *Sessions) get(ctx context.Context, clientID string) (*session, error) {
	if sess := s.touch(clientID); sess != nil {
		return sess, nil
	}

	controller := s.factory(context.WithoutCancel(ctx), clientID)
	if err := controller.LoadError(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[clientID]
	if !ok {
		sess = &session{controller: controller, history: assist.NewTranscript(0)}
		s.byID[clientID] = sess
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *Sessions) touch(clientID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[clientID]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess
}

// Evict drops sessions idle for longer than ttl. Their drafts stay in the
// store and are restored on the next request.
func (s *Sessions) Evict(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	n := 0
	for id, sess := range s.byID {
		if sess.lastSeen.Before(cutoff) {
			delete(s.byID, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// clientID returns the caller's id from the header or cookie, issuing a new
// cookie when neither carries a valid uuid.
func clientID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get(clientHeader); isUUID(id) {
		return id
	}
	if c, err := r.Cookie(clientCookie); err == nil && isUUID(c.Value) {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
	return id
}

func isUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
