package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/store"
	"github.com/zendo/dispatch/internal/utils"
)

// Mock fabricates identities instead of consulting a real backend: any
// email authenticates after a simulated network delay, the display
// name is derived from the address, and an email containing "artisan"
// yields an ARTISAN actor.  Tokens are real HS256 JWTs so Verify does
// genuine validation.
//
// One behaviour goes beyond pure fabrication: Register persists the
// profile (with a bcrypt-hashed secret) in the key-value store, and a
// later Login for that email must present the matching secret.
type Mock struct {
	secret     string
	ttlMin     int
	bcryptCost int
	delay      time.Duration
	kv         store.KV

	mu sync.Mutex // guards the profiles snapshot read-modify-write
}

// storedProfile is the persisted registration record, keyed by email.
type storedProfile struct {
	User       model.User `json:"user"`
	SecretHash string     `json:"secretHash"`
}

// NewMock returns a provider signing tokens with secret.  The delay is
// applied to every operation (half for the cheap verify/logout calls,
// double for federated logins standing in for an OAuth redirect).
func NewMock(secret string, ttlMin, bcryptCost int, delay time.Duration, kv store.KV) *Mock {
	return &Mock{secret: secret, ttlMin: ttlMin, bcryptCost: bcryptCost, delay: delay, kv: kv}
}

// Login authenticates an email/secret pair.  Emails containing
// "@error" always fail, which gives manual testing a deterministic way
// to exercise the failure path.  A previously registered email must
// present its registered secret; any other email is fabricated into a
// fresh user.
func (m *Mock) Login(ctx context.Context, email, secret string) (AuthResponse, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return AuthResponse{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.Contains(email, "@error") {
		return AuthResponse{}, ErrInvalidCredentials
	}
	if p, ok := m.lookupProfile(ctx, email); ok {
		if !utils.VerifySecret(p.SecretHash, secret) {
			return AuthResponse{}, ErrInvalidCredentials
		}
		return m.issue(p.User)
	}
	return m.issue(fabricateUser(email))
}

// Register creates an identity from the full profile and persists it
// so the email becomes a real credential for later logins.
func (m *Mock) Register(ctx context.Context, profile Profile) (AuthResponse, error) {
	if err := m.wait(ctx, m.delay); err != nil {
		return AuthResponse{}, err
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" || profile.Secret == "" {
		return AuthResponse{}, ErrInvalidCredentials
	}
	role := profile.Role
	if !role.Valid() {
		role = model.RoleClient
	}
	user := model.User{
		ID:        "u_" + uuid.NewString(),
		Name:      profile.Name,
		Email:     email,
		Phone:     profile.Phone,
		Role:      role,
		AvatarURL: avatarURL(profile.Name),
		CreatedAt: time.Now().UTC(),
	}
	hash, err := utils.HashSecret(profile.Secret, m.bcryptCost)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("hash secret: %w", err)
	}
	m.saveProfile(ctx, email, storedProfile{User: user, SecretHash: hash})
	return m.issue(user)
}

// FederatedLogin simulates a third-party OAuth flow for "google" or
// "apple", returning that provider's canned identity with the role
// hint applied (CLIENT when the hint is empty or unknown).
func (m *Mock) FederatedLogin(ctx context.Context, provider string, roleHint model.Role) (AuthResponse, error) {
	if err := m.wait(ctx, 2*m.delay); err != nil {
		return AuthResponse{}, err
	}
	role := roleHint
	if !role.Valid() {
		role = model.RoleClient
	}
	var user model.User
	switch provider {
	case "google":
		user = model.User{
			ID:        "u_google_" + uuid.NewString(),
			Name:      "Alexandre Martin",
			Email:     "alex.martin@gmail.com",
			Role:      role,
			AvatarURL: "https://lh3.googleusercontent.com/a/default-user=s96-c",
			CreatedAt: time.Now().UTC(),
		}
	case "apple":
		user = model.User{
			ID:        "u_apple_" + uuid.NewString(),
			Name:      "Utilisateur Apple",
			Email:     "privaterelay@appleid.com",
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
	default:
		return AuthResponse{}, ErrUnknownProvider
	}
	return m.issue(user)
}

// Verify checks the token's signature and expiry and returns the
// identity encoded in its claims.
func (m *Mock) Verify(ctx context.Context, token string) (model.User, error) {
	if err := m.wait(ctx, m.delay/2); err != nil {
		return model.User{}, err
	}
	userID, role, err := utils.ParseAccessToken(m.secret, token)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}
	return model.User{ID: userID, Role: model.Role(role)}, nil
}

// Logout acknowledges the session end.  The mock has nothing to
// revoke.
func (m *Mock) Logout(ctx context.Context) error {
	return m.wait(ctx, m.delay/2)
}

func (m *Mock) issue(user model.User) (AuthResponse, error) {
	access, err := utils.NewAccessToken(m.secret, user.ID, string(user.Role), m.ttlMin)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken()
	if err != nil {
		return AuthResponse{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return AuthResponse{Token: access.Token, RefreshToken: refresh, User: user}, nil
}

// wait blocks for the simulated round trip or until ctx is cancelled.
func (m *Mock) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mock) lookupProfile(ctx context.Context, email string) (storedProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles := m.loadProfilesLocked(ctx)
	p, ok := profiles[email]
	return p, ok
}

func (m *Mock) saveProfile(ctx context.Context, email string, p storedProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles := m.loadProfilesLocked(ctx)
	profiles[email] = p
	b, err := json.Marshal(profiles)
	if err != nil {
		log.Printf("identity: marshal profiles failed: %v", err)
		return
	}
	if err := m.kv.Set(ctx, store.KeyProfiles, b); err != nil {
		log.Printf("identity: persist profiles failed: %v", err)
	}
}

func (m *Mock) loadProfilesLocked(ctx context.Context) map[string]storedProfile {
	profiles := make(map[string]storedProfile)
	b, err := m.kv.Get(ctx, store.KeyProfiles)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("identity: load profiles failed: %v", err)
		}
		return profiles
	}
	if err := json.Unmarshal(b, &profiles); err != nil {
		log.Printf("identity: discarding corrupt profiles: %v", err)
		return make(map[string]storedProfile)
	}
	return profiles
}

// fabricateUser builds a plausible identity from nothing but an email
// address: the local part becomes the display name and the role is
// inferred from an "artisan" keyword.
func fabricateUser(email string) model.User {
	namePart := email
	if at := strings.Index(email, "@"); at > 0 {
		namePart = email[:at]
	}
	name := strings.ToUpper(namePart[:1]) + namePart[1:]
	role := model.RoleClient
	if strings.Contains(email, "artisan") {
		role = model.RoleArtisan
	}
	return model.User{
		ID:        "u_" + uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     "+33612345678",
		Role:      role,
		AvatarURL: avatarURL(name),
		CreatedAt: time.Now().UTC(),
	}
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=06b6d4&color=fff"
}
