// Package matcher runs the background sweep that stands in for a real
// dispatch backend: any intervention still SEARCHING after the
// threshold is auto-assigned an artisan from the catalog and priced.
package matcher

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zendo/dispatch/internal/catalog"
	"github.com/zendo/dispatch/internal/ledger"
	"github.com/zendo/dispatch/internal/model"
)

// Price estimates are drawn uniformly from [priceBase, priceBase+priceSpread).
const (
	priceBase   = 80.0
	priceSpread = 50.0
)

// Matcher sweeps the ledger on a fixed interval.  It keeps no state of
// its own between ticks; everything it needs lives in the ledger.  A
// sweep may race a user-initiated accept on the same intervention, and
// the ledger's last-write-wins policy settles it.
type Matcher struct {
	ledger    *ledger.Ledger
	catalog   catalog.Catalog
	interval  time.Duration
	threshold time.Duration

	// OnMatch, when set, is invoked after each auto-match.  The server
	// uses it to publish dispatch events; it runs on the sweep
	// goroutine so implementations should not block.
	OnMatch func(model.Intervention, model.Artisan)

	// Now is the clock used to measure how long a request has been
	// searching.  Tests override it.
	Now func() time.Time

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New returns a matcher sweeping lg every interval, resolving requests
// that have searched longer than threshold.
func New(lg *ledger.Ledger, cat catalog.Catalog, interval, threshold time.Duration) *Matcher {
	return &Matcher{
		ledger:    lg,
		catalog:   cat,
		interval:  interval,
		threshold: threshold,
		Now:       func() time.Time { return time.Now().UTC() },
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop.  Call Stop to tear it down; leaking
// the loop would leave a timer mutating shared state with no consumer.
func (m *Matcher) Start() {
	m.started.Store(true)
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(context.Background())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for the in-flight tick, if any,
// to finish.  Safe to call more than once, and a no-op on a matcher
// that was never started.
func (m *Matcher) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	if !m.started.Load() {
		return
	}
	<-m.done
}

// Sweep performs one pass over the ledger.  Exported so tests can
// drive the matcher without waiting on the ticker.
func (m *Matcher) Sweep(ctx context.Context) {
	now := m.Now()
	for _, inv := range m.ledger.ListAll() {
		if inv.Status != model.StatusSearching {
			continue
		}
		if now.Sub(inv.CreatedAt) <= m.threshold {
			continue
		}
		artisan, ok := m.catalog.FindBySpecialty(inv.ServiceType)
		if !ok {
			all := m.catalog.All()
			if len(all) == 0 {
				log.Printf("matcher: no artisan available for %s request %s", inv.ServiceType, inv.ID)
				continue
			}
			artisan = all[0]
		}
		estimate := priceBase + rand.Float64()*priceSpread
		m.ledger.Resolve(ctx, inv.ID, artisan.ID, estimate)
		if m.OnMatch != nil {
			if matched, ok := m.ledger.GetByID(inv.ID); ok {
				m.OnMatch(matched, artisan)
			}
		}
	}
}
