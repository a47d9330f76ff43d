package session_test

import (
	"context"
	"testing"

	"github.com/zendo/dispatch/internal/identity"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/session"
	"github.com/zendo/dispatch/internal/store"
)

const testSecret = "test-secret"

func newSession(t *testing.T) (*session.Store, store.KV) {
	t.Helper()
	kv := store.NewMemory()
	provider := identity.NewMock(testSecret, 15, 4, 0, kv)
	return session.New(provider, kv), kv
}

func TestLoginPersistsSession(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()

	if err := s.Login(ctx, "marie@example.com", "whatever"); err != nil {
		t.Fatalf("login: %v", err)
	}
	user, ok := s.CurrentActor()
	if !ok || user.Name != "Marie" || user.Role != model.RoleClient {
		t.Fatalf("actor = %+v ok=%v", user, ok)
	}
	if !s.IsAuthenticated() {
		t.Fatalf("not authenticated after login")
	}
	if _, err := kv.Get(ctx, store.KeyToken); err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if _, err := kv.Get(ctx, store.KeyUser); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()

	if err := s.Login(ctx, "bad@error.com", "x"); err == nil {
		t.Fatalf("expected login failure")
	}
	if s.IsAuthenticated() {
		t.Fatalf("authenticated after failed login")
	}
	if _, err := kv.Get(ctx, store.KeyToken); err != store.ErrNotFound {
		t.Fatalf("token written on failure: %v", err)
	}
}

func TestRestoreResumesSession(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()
	if err := s.Login(ctx, "paul@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A new process over the same store resumes the session.
	provider := identity.NewMock(testSecret, 15, 4, 0, kv)
	resumed := session.New(provider, kv)
	if !resumed.IsLoading() {
		t.Fatalf("not loading before restore")
	}
	resumed.Restore(ctx)
	if resumed.IsLoading() {
		t.Fatalf("still loading after restore")
	}
	user, ok := resumed.CurrentActor()
	if !ok || user.Name != "Paul" {
		t.Fatalf("restore lost the actor: %+v ok=%v", user, ok)
	}
}

// A persisted token with a corrupt user record must end unauthenticated
// with both keys purged.
func TestRestoreCorruptUserPurges(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()
	kv.Set(ctx, store.KeyToken, []byte("some-token"))
	kv.Set(ctx, store.KeyUser, []byte("{corrupt"))

	s.Restore(ctx)

	if s.IsAuthenticated() {
		t.Fatalf("authenticated after corrupt restore")
	}
	if s.IsLoading() {
		t.Fatalf("still loading after restore")
	}
	if _, err := kv.Get(ctx, store.KeyToken); err != store.ErrNotFound {
		t.Fatalf("token not purged: %v", err)
	}
	if _, err := kv.Get(ctx, store.KeyUser); err != store.ErrNotFound {
		t.Fatalf("user not purged: %v", err)
	}
}

// A cached session whose token the provider rejects is purged too.
func TestRestoreRejectedTokenPurges(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()
	kv.Set(ctx, store.KeyToken, []byte("not-a-jwt"))
	kv.Set(ctx, store.KeyUser, []byte(`{"id":"u_1","name":"Ghost","role":"CLIENT"}`))

	s.Restore(ctx)

	if s.IsAuthenticated() {
		t.Fatalf("authenticated with rejected token")
	}
	if _, err := kv.Get(ctx, store.KeyToken); err != store.ErrNotFound {
		t.Fatalf("token not purged: %v", err)
	}
}

func TestRestoreWithoutStoredSession(t *testing.T) {
	s, _ := newSession(t)
	s.Restore(context.Background())
	if s.IsAuthenticated() || s.IsLoading() {
		t.Fatalf("unexpected state after empty restore")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	s, kv := newSession(t)
	ctx := context.Background()
	if err := s.Register(ctx, identity.Profile{
		Name: "Nina", Email: "nina@example.com", Secret: "secret1", Role: model.RoleArtisan,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Logout(ctx)

	if s.IsAuthenticated() {
		t.Fatalf("authenticated after logout")
	}
	if s.Token() != "" {
		t.Fatalf("token survived logout")
	}
	if _, err := kv.Get(ctx, store.KeyToken); err != store.ErrNotFound {
		t.Fatalf("token not cleared: %v", err)
	}
	if _, err := kv.Get(ctx, store.KeyUser); err != store.ErrNotFound {
		t.Fatalf("user not cleared: %v", err)
	}
}

func TestFederatedLoginAppliesRoleHint(t *testing.T) {
	s, _ := newSession(t)
	if err := s.FederatedLogin(context.Background(), "google", model.RoleArtisan); err != nil {
		t.Fatalf("federated login: %v", err)
	}
	user, _ := s.CurrentActor()
	if user.Role != model.RoleArtisan || user.Name != "Alexandre Martin" {
		t.Fatalf("unexpected federated actor: %+v", user)
	}
}
