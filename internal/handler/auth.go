package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/identity"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/session"
)

// AuthHandler exposes the session store over HTTP.  The session holds
// at most one actor; these endpoints are the HTTP rendering of the
// login/register/logout operations the presentation layer calls.
type AuthHandler struct {
	Sessions *session.Store
}

func NewAuthHandler(s *session.Store) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type socialReq struct {
	Provider string `json:"provider" validate:"required,oneof=google apple"`
	Role     string `json:"role"`
}

type authResp struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Register creates a new identity and opens the session for it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password (min 6) required"})
	}
	profile := identity.Profile{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  strings.TrimSpace(req.Phone),
		Secret: req.Password,
		Role:   model.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
	}
	if err := h.Sessions.Register(c.Request().Context(), profile); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusCreated, h.sessionResp())
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.Sessions.Login(c.Request().Context(), email, req.Password); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, h.sessionResp())
}

// Social authenticates through a federated provider.  The role field
// is a hint used only when the identity carries no role of its own.
func (h *AuthHandler) Social(c echo.Context) error {
	var req socialReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider must be google or apple"})
	}
	roleHint := model.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err := h.Sessions.FederatedLogin(c.Request().Context(), req.Provider, roleHint); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, h.sessionResp())
}

// Logout closes the session.  Always succeeds from the caller's
// perspective; the provider is notified in the background.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated actor.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := h.Sessions.CurrentActor()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) sessionResp() authResp {
	user, _ := h.Sessions.CurrentActor()
	return authResp{User: user, Token: h.Sessions.Token()}
}

// authError translates identity failures into responses.  Provider
// failures never crash a request; they become a message the client
// can show.
func authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, identity.ErrUnknownProvider):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown provider"})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "identity provider unavailable"})
	}
}
