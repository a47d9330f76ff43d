package matcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/zendo/dispatch/internal/catalog"
	"github.com/zendo/dispatch/internal/ledger"
	"github.com/zendo/dispatch/internal/matcher"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/store"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	Ledger  *ledger.Ledger
	Matcher *matcher.Matcher
}

func newEnv(t *testing.T) env {
	t.Helper()
	lg := ledger.New(store.NewMemory())
	lg.Now = func() time.Time { return created }
	m := matcher.New(lg, catalog.Default(), 2*time.Second, 5*time.Second)
	return env{Ledger: lg, Matcher: m}
}

// A request searching for longer than the threshold is resolved on
// the next sweep: EN_ROUTE, a matching artisan, an estimate in range.
func TestSweepResolvesStaleRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.Ledger.Create(ctx, "u1", model.ServicePlumbing, "leak", nil)

	e.Matcher.Now = func() time.Time { return created.Add(6 * time.Second) }
	e.Matcher.Sweep(ctx)

	inv, _ := e.Ledger.GetByID(id)
	if inv.Status != model.StatusEnRoute {
		t.Fatalf("status = %s, want EN_ROUTE", inv.Status)
	}
	if inv.ArtisanID != "a1" {
		t.Fatalf("artisanId = %q, want the plumbing specialist a1", inv.ArtisanID)
	}
	if inv.PriceEstimate < 80 || inv.PriceEstimate >= 130 {
		t.Fatalf("estimate %.2f outside [80, 130)", inv.PriceEstimate)
	}
}

func TestSweepLeavesFreshRequests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.Ledger.Create(ctx, "u1", model.ServiceHVAC, "ac", nil)

	e.Matcher.Now = func() time.Time { return created.Add(4 * time.Second) }
	e.Matcher.Sweep(ctx)

	if inv, _ := e.Ledger.GetByID(id); inv.Status != model.StatusSearching {
		t.Fatalf("fresh request resolved early: %s", inv.Status)
	}
}

// Without a specialty match the sweep falls back to the first catalog
// entry rather than leaving the request hanging.
func TestSweepFallsBackWithoutSpecialist(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.Ledger.Create(ctx, "u1", model.ServiceLocksmith, "locked out", nil)

	e.Matcher.Now = func() time.Time { return created.Add(10 * time.Second) }
	e.Matcher.Sweep(ctx)

	inv, _ := e.Ledger.GetByID(id)
	if inv.Status != model.StatusEnRoute || inv.ArtisanID != "a1" {
		t.Fatalf("fallback failed: status=%s artisan=%q", inv.Status, inv.ArtisanID)
	}
}

func TestSweepSkipsResolvedRequests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.Ledger.Create(ctx, "u1", model.ServicePlumbing, "leak", nil)
	e.Ledger.Accept(ctx, id, "u_artisan")

	e.Matcher.Now = func() time.Time { return created.Add(time.Minute) }
	e.Matcher.Sweep(ctx)

	inv, _ := e.Ledger.GetByID(id)
	if inv.ArtisanID != "u_artisan" {
		t.Fatalf("sweep overwrote a manual accept: %+v", inv)
	}
	if inv.PriceEstimate != 0 {
		t.Fatalf("sweep priced an already accepted request: %.2f", inv.PriceEstimate)
	}
}

func TestOnMatchCallback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, _ := e.Ledger.Create(ctx, "u1", model.ServiceElectricity, "sparks", nil)

	var gotInv model.Intervention
	var gotArtisan model.Artisan
	e.Matcher.OnMatch = func(inv model.Intervention, a model.Artisan) {
		gotInv, gotArtisan = inv, a
	}
	e.Matcher.Now = func() time.Time { return created.Add(6 * time.Second) }
	e.Matcher.Sweep(ctx)

	if gotInv.ID != id || gotArtisan.ID != "a2" {
		t.Fatalf("callback got inv=%q artisan=%q", gotInv.ID, gotArtisan.ID)
	}
	if gotInv.PriceEstimate == 0 {
		t.Fatalf("callback saw unpriced intervention")
	}
}

// Stop on a matcher that was never started must return immediately
// instead of waiting on a loop that does not exist.
func TestStopWithoutStart(t *testing.T) {
	m := matcher.New(ledger.New(store.NewMemory()), catalog.Default(), time.Second, time.Second)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop blocked on an unstarted matcher")
	}
}

// Stop must tear the loop down without leaking the ticker goroutine;
// a second Stop must not panic.
func TestStartStop(t *testing.T) {
	lg := ledger.New(store.NewMemory())
	m := matcher.New(lg, catalog.Default(), 10*time.Millisecond, time.Millisecond)
	m.Start()
	time.Sleep(30 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		m.Stop()
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return")
	}
}
