package services

import (
	"context"
	"sync"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
)

// UserLookup resolves the current user; (nil, nil) means signed out.
type UserLookup func(ctx context.Context, userID string) (*models.User, error)

type authListener struct {
	session string
	fn      func(*models.User)
}

// AuthStateHub fans sign-in and sign-out events out to listeners. Each
// per-user listener belongs to one session (the token id it connected
// with), so signing one device out leaves the others connected.
type AuthStateHub struct {
	lookup UserLookup

	mu     sync.RWMutex
	next   uint64
	byUser map[string]map[uint64]authListener
	global map[uint64]func(string, *models.User)
}

func NewAuthStateHub(lookup UserLookup) *AuthStateHub {
	return &AuthStateHub{
		lookup: lookup,
		byUser: make(map[string]map[uint64]authListener),
		global: make(map[uint64]func(string, *models.User)),
	}
}

// Subscribe calls fn with the user's current state, then on every change
// that concerns session.
func (h *AuthStateHub) Subscribe(ctx context.Context, userID, session string, fn func(*models.User)) func() {
	h.mu.Lock()
	h.next++
	id := h.next
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[uint64]authListener)
	}
	h.byUser[userID][id] = authListener{session: session, fn: fn}
	h.mu.Unlock()

	var current *models.User
	if h.lookup != nil {
		u, err := h.lookup(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Auth state lookup failed")
		}
		current = u
	}
	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.byUser[userID], id)
			if len(h.byUser[userID]) == 0 {
				delete(h.byUser, userID)
			}
		})
	}
}

// OnChange registers fn for every user's changes.
func (h *AuthStateHub) OnChange(fn func(userID string, user *models.User)) func() {
	h.mu.Lock()
	h.next++
	id := h.next
	h.global[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.global, id)
			h.mu.Unlock()
		})
	}
}

func (h *AuthStateHub) SignedIn(user *models.User) {
	h.Publish(user.ID, "", user)
}

// SignedOut ends session for userID. An empty session signs out every
// session of the user.
func (h *AuthStateHub) SignedOut(userID, session string) {
	h.Publish(userID, session, nil)
}

// Publish notifies the listeners of session (all of the user's when empty),
// then the global ones, outside the lock.
func (h *AuthStateHub) Publish(userID, session string, user *models.User) {
	h.mu.RLock()
	var perUser []func(*models.User)
	for _, l := range h.byUser[userID] {
		if session == "" || l.session == session {
			perUser = append(perUser, l.fn)
		}
	}
	var global []func(string, *models.User)
	for _, fn := range h.global {
		global = append(global, fn)
	}
	h.mu.RUnlock()

	for _, fn := range perUser {
		fn(user)
	}
	for _, fn := range global {
		fn(userID, user)
	}
}
