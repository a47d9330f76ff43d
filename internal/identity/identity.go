// Package identity defines the identity provider the session store
// authenticates against, and the mock implementation that fabricates
// users behind simulated latency.
package identity

import (
	"context"
	"errors"

	"github.com/zendo/dispatch/internal/model"
)

// Sentinel failures the provider reports.  The session store turns
// these into user-facing messages; nothing here is fatal.
var (
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrUnknownProvider    = errors.New("identity: unknown federated provider")
)

// AuthResponse is what a successful authentication yields: a signed
// access token, an opaque refresh token and the actor record.
type AuthResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	User         model.User `json:"user"`
}

// Profile is the registration payload.
type Profile struct {
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Phone  string     `json:"phone"`
	Secret string     `json:"secret"`
	Role   model.Role `json:"role"`
}

// Provider is the external identity collaborator.  Every operation
// blocks for the provider's round trip and honours context
// cancellation; all failures come back as error values.
type Provider interface {
	Login(ctx context.Context, email, secret string) (AuthResponse, error)
	Register(ctx context.Context, profile Profile) (AuthResponse, error)
	FederatedLogin(ctx context.Context, provider string, roleHint model.Role) (AuthResponse, error)
	Verify(ctx context.Context, token string) (model.User, error)
	Logout(ctx context.Context) error
}
