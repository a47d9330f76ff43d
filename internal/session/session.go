// Package session holds the process's single authenticated actor and
// mediates every identity-changing operation through the identity
// provider.  The model is deliberately single-seat: this core serves
// one browser and one actor at a time, and the session is the port of
// that contract.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/zendo/dispatch/internal/identity"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/store"
)

// Store is the session state.  All methods are safe for concurrent
// use.  Loading reports true only between construction and the end of
// the initial Restore, never again afterwards.
type Store struct {
	mu       sync.Mutex
	current  *model.User
	token    string
	loading  bool
	provider identity.Provider
	kv       store.KV
}

// New returns an unauthenticated session in the loading state; call
// Restore once at startup to leave it.
func New(provider identity.Provider, kv store.KV) *Store {
	return &Store{provider: provider, kv: kv, loading: true}
}

// Restore attempts to resume a persisted session.  If a token and a
// parsable user record are present the actor is set optimistically
// before the token is verified with the provider.  Any failure along
// the way (missing data, corrupt record, verification error) purges
// the persisted credential and leaves the session unauthenticated.
// Restore itself never fails: a broken session is simply a fresh one.
func (s *Store) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, err := s.kv.Get(ctx, store.KeyToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("session: read token failed: %v", err)
		}
		return
	}
	rawUser, err := s.kv.Get(ctx, store.KeyUser)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("session: read user failed: %v", err)
		}
		s.purge(ctx)
		return
	}
	var user model.User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		log.Printf("session: discarding corrupt user record: %v", err)
		s.purge(ctx)
		return
	}

	// Optimistic phase: trust the cache while the provider answers.
	s.mu.Lock()
	s.current = &user
	s.token = string(token)
	s.mu.Unlock()

	if _, err := s.provider.Verify(ctx, string(token)); err != nil {
		log.Printf("session: stored token rejected: %v", err)
		s.purge(ctx)
		s.mu.Lock()
		s.current = nil
		s.token = ""
		s.mu.Unlock()
	}
}

// Login authenticates with email and secret.  On success the actor
// and token are set and persisted; on failure the error is returned
// and the session is untouched.
func (s *Store) Login(ctx context.Context, email, secret string) error {
	resp, err := s.provider.Login(ctx, email, secret)
	if err != nil {
		return err
	}
	s.adopt(ctx, resp)
	return nil
}

// Register creates a new identity from the profile.  Same contract as
// Login.
func (s *Store) Register(ctx context.Context, profile identity.Profile) error {
	resp, err := s.provider.Register(ctx, profile)
	if err != nil {
		return err
	}
	s.adopt(ctx, resp)
	return nil
}

// FederatedLogin authenticates through a third-party provider.  The
// role hint only takes effect when the identity has no role of its
// own, i.e. this is effectively a registration path.
func (s *Store) FederatedLogin(ctx context.Context, provider string, roleHint model.Role) error {
	resp, err := s.provider.FederatedLogin(ctx, provider, roleHint)
	if err != nil {
		return err
	}
	s.adopt(ctx, resp)
	return nil
}

// Logout clears the actor and persisted credential immediately.  The
// provider is notified in the background; its answer is not awaited
// and does not affect the outcome.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.token = ""
	s.mu.Unlock()
	s.purge(ctx)
	go func() {
		if err := s.provider.Logout(context.Background()); err != nil {
			log.Printf("session: provider logout failed: %v", err)
		}
	}()
}

// CurrentActor returns the authenticated actor, if any.
func (s *Store) CurrentActor() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.User{}, false
	}
	return *s.current, true
}

// Token returns the current session token, empty when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether an actor is present.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.CurrentActor()
	return ok
}

// IsLoading reports whether the initial Restore is still running.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// adopt installs a successful authentication and persists it.
func (s *Store) adopt(ctx context.Context, resp identity.AuthResponse) {
	user := resp.User
	s.mu.Lock()
	s.current = &user
	s.token = resp.Token
	s.mu.Unlock()

	if err := s.kv.Set(ctx, store.KeyToken, []byte(resp.Token)); err != nil {
		log.Printf("session: persist token failed: %v", err)
	}
	if b, err := json.Marshal(user); err == nil {
		if err := s.kv.Set(ctx, store.KeyUser, b); err != nil {
			log.Printf("session: persist user failed: %v", err)
		}
	}
}

// purge removes the persisted credential and actor record.
func (s *Store) purge(ctx context.Context) {
	if err := s.kv.Delete(ctx, store.KeyToken); err != nil {
		log.Printf("session: clear token failed: %v", err)
	}
	if err := s.kv.Delete(ctx, store.KeyUser); err != nil {
		log.Printf("session: clear user failed: %v", err)
	}
}
