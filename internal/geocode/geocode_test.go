package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zendo/dispatch/internal/geocode"
)

const searchFixture = `{
  "features": [
    {
      "properties": {"label": "8 Boulevard du Port 80000 Amiens", "city": "Amiens", "postcode": "80000", "score": 0.97},
      "geometry": {"coordinates": [2.29009, 49.897443]}
    },
    {
      "properties": {"label": "8 Rue du Port 80000 Amiens", "city": "Amiens", "postcode": "80000", "score": 0.61},
      "geometry": {"coordinates": [2.28, 49.89]}
    }
  ]
}`

func TestSearch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := geocode.NewWithBase(srv.URL)
	candidates, err := c.Search(context.Background(), "8 bd du port")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/search/" || gotQuery != "8 bd du port" {
		t.Fatalf("request path=%q q=%q", gotPath, gotQuery)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates", len(candidates))
	}
	first := candidates[0]
	if first.Label != "8 Boulevard du Port 80000 Amiens" || first.City != "Amiens" {
		t.Fatalf("first candidate: %+v", first)
	}
	// GeoJSON is lon-first; the candidate must unswap it.
	if first.Lat != 49.897443 || first.Lng != 2.29009 {
		t.Fatalf("coordinates not unswapped: %+v", first)
	}
}

func TestSearchShortQuerySkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("short query reached the network")
	}))
	defer srv.Close()

	c := geocode.NewWithBase(srv.URL)
	candidates, err := c.Search(context.Background(), "ab")
	if err != nil || candidates != nil {
		t.Fatalf("short query: %v %v", candidates, err)
	}
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse/" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := geocode.NewWithBase(srv.URL)
	cand, err := c.Reverse(context.Background(), 49.897443, 2.29009)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if cand.City != "Amiens" {
		t.Fatalf("candidate: %+v", cand)
	}
}

func TestReverseNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	c := geocode.NewWithBase(srv.URL)
	if _, err := c.Reverse(context.Background(), 0, 0); err != geocode.ErrNoResult {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := geocode.NewWithBase(srv.URL)
	if _, err := c.Search(context.Background(), "paris"); err == nil {
		t.Fatalf("expected error on upstream failure")
	}
}
