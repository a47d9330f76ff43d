package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/config"
)

func cacheCtx(t *testing.T, e *echo.Echo, target string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/addresses/search")
	return c
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`[{"label":"8 Boulevard du Port"}]`)

	payload, err := encodeCached(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodeCached(payload)
	if !ok {
		t.Fatalf("decode rejected a valid payload")
	}
	if status != http.StatusOK || string(gotBody) != string(body) {
		t.Fatalf("round trip: status=%d body=%q", status, gotBody)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("header lost: %+v", gotHdr)
	}

	// Truncated payloads must be rejected, not misread.
	if _, _, _, ok := decodeCached(payload[:6]); ok {
		t.Fatalf("decode accepted a truncated payload")
	}
	if _, _, _, ok := decodeCached(nil); ok {
		t.Fatalf("decode accepted an empty payload")
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "zendo:cache", KeyStrategy: "route_query"}

	withQ := cacheKey(cfg, cacheCtx(t, e, "/v1/addresses/search?q=paris"))
	otherQ := cacheKey(cfg, cacheCtx(t, e, "/v1/addresses/search?q=lyon"))
	if withQ == otherQ {
		t.Fatalf("route_query ignored the query string")
	}
	if !strings.HasPrefix(withQ, "zendo:cache:") {
		t.Fatalf("key %q missing prefix", withQ)
	}
	if strings.Contains(withQ, "paris") {
		t.Fatalf("raw query leaked into key %q", withQ)
	}

	cfg.KeyStrategy = "route"
	if cacheKey(cfg, cacheCtx(t, e, "/v1/addresses/search?q=paris")) != cacheKey(cfg, cacheCtx(t, e, "/v1/addresses/search?q=lyon")) {
		t.Fatalf("route strategy varied with the query")
	}
}

func TestRecordingWriterCapsBuffer(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &recordingWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}

	if _, err := rw.Write([]byte("0123456789")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !rw.overflowed() {
		t.Fatalf("10 bytes under an 8 byte limit not flagged")
	}
	// The client still receives the full body.
	if rec.Body.String() != "0123456789" {
		t.Fatalf("client body truncated: %q", rec.Body)
	}
}

func TestResponseCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	mw := NewResponseCache(config.CacheConfig{Enabled: false, TTL: time.Minute}, nil)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/addresses/search?q=paris", nil), rec)
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatalf("disabled cache blocked the handler")
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Fatalf("disabled cache set X-Cache: %q", rec.Header().Get("X-Cache"))
	}
}
