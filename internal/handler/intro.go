package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/store"
)

// IntroHandler manages the one-shot onboarding flag: the client shows
// the intro flow until the flag is set and never again after.
type IntroHandler struct {
	KV store.KV
}

func NewIntroHandler(kv store.KV) *IntroHandler {
	return &IntroHandler{KV: kv}
}

// Get handles GET /v1/intro.
func (h *IntroHandler) Get(c echo.Context) error {
	b, err := h.KV.Get(c.Request().Context(), store.KeyIntroDone)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.Logger().Warnf("read intro flag failed: %v", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"completed": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": string(b) == "true"})
}

// Complete handles POST /v1/intro, marking the intro as seen.
func (h *IntroHandler) Complete(c echo.Context) error {
	if err := h.KV.Set(c.Request().Context(), store.KeyIntroDone, []byte("true")); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persist failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": true})
}
