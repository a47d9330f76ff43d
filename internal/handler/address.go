package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/geocode"
)

// AddressHandler proxies the address API for the client's
// autocomplete and map features.  Lookup failures degrade to an empty
// result rather than an error page.
type AddressHandler struct {
	Geo *geocode.Client
}

func NewAddressHandler(geo *geocode.Client) *AddressHandler {
	return &AddressHandler{Geo: geo}
}

// Search handles GET /v1/addresses/search?q=.  Short queries return
// an empty list without hitting the upstream API.
func (h *AddressHandler) Search(c echo.Context) error {
	candidates, err := h.Geo.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		c.Logger().Warnf("address search failed: %v", err)
		return c.JSON(http.StatusOK, []geocode.Candidate{})
	}
	if candidates == nil {
		candidates = []geocode.Candidate{}
	}
	return c.JSON(http.StatusOK, candidates)
}

// Reverse handles GET /v1/addresses/reverse?lat=&lng=.
func (h *AddressHandler) Reverse(c echo.Context) error {
	lat, err1 := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng required"})
	}
	cand, err := h.Geo.Reverse(c.Request().Context(), lat, lng)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResult) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no address found"})
		}
		c.Logger().Warnf("reverse lookup failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "address service unavailable"})
	}
	return c.JSON(http.StatusOK, cand)
}
