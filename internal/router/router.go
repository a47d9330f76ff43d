// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/handler"
	"github.com/zendo/dispatch/internal/middleware"
	"github.com/zendo/dispatch/internal/model"
)

// RegisterRoutes registers routes that require no authentication:
// the health check, the onboarding flag and the address lookups used
// before a session exists.  The address lookups sit behind the
// response cache; their answers depend only on the query and proxy a
// rate-limited public API.
func RegisterRoutes(e *echo.Echo, intro *handler.IntroHandler, addr *handler.AddressHandler, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/intro", intro.Get)
	e.POST("/v1/intro", intro.Complete)
	e.GET("/v1/addresses/search", addr.Search, cache)
	e.GET("/v1/addresses/reverse", addr.Reverse, cache)
}

// RegisterAuth registers the session endpoints.  Register, login,
// social and logout are open; /v1/me requires a valid access token in
// the usual sense but answers from the session store, so it stays on
// the open group and reports 401 itself when no session exists.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/social", a.Social)
	g.POST("/logout", a.Logout)
	e.GET("/v1/me", a.Me)
}

// RegisterInterventions registers the ledger endpoints behind JWT
// authentication.  Any authenticated role may create, read, complete
// or cancel; accepting a job is reserved for artisans.
func RegisterInterventions(e *echo.Echo, h *handler.InterventionHandler, jwtSecret string) {
	g := e.Group("/v1/interventions")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(string(model.RoleClient), string(model.RoleArtisan), string(model.RoleAdmin)))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/active", h.Active)
	g.GET("/:id", h.Get)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)

	accept := g.Group("/:id/accept")
	accept.Use(middleware.RequireRole(string(model.RoleArtisan)))
	accept.POST("", h.Accept)
}
