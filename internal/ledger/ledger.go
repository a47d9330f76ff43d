// Package ledger owns the authoritative collection of interventions.
// The ledger is append-and-mutate only: requests are created, pushed
// through their lifecycle and kept forever as history; nothing is ever
// deleted.  The full collection is snapshotted to the key-value store
// on every mutation and reloaded whole at startup.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/store"
)

// ErrNotAuthenticated is returned by Create when no client identity is
// supplied.  It is the only validation failure the ledger reports;
// mutations addressing an unknown id are silent no-ops.
var ErrNotAuthenticated = errors.New("ledger: not authenticated")

// defaultLocation is used when a request arrives without coordinates.
var defaultLocation = model.Location{Lat: 48.8566, Lng: 2.3522, Address: "Paris, France"}

// Ledger holds every intervention in the simulated world, most recent
// first.  All methods are safe for concurrent use: user-triggered
// mutations and the matching simulator's sweep both land here, and the
// mutex makes each read-modify-write atomic.  When both sides touch
// the same intervention in the same window, the later mutation wins;
// there is no conflict detection.
type Ledger struct {
	mu            sync.Mutex
	interventions []model.Intervention
	kv            store.KV

	// Now is the clock used for creation and completion stamps.
	// Tests override it to control elapsed-time behaviour.
	Now func() time.Time
}

// New returns an empty ledger persisting into kv.
func New(kv store.KV) *Ledger {
	return &Ledger{kv: kv, Now: func() time.Time { return time.Now().UTC() }}
}

// Load replaces the in-memory state with the persisted snapshot.  An
// absent or unreadable snapshot leaves the ledger empty: recovery from
// a corrupt snapshot is a fresh start, the same posture session restore
// takes with a corrupt user record.
func (l *Ledger) Load(ctx context.Context) error {
	b, err := l.kv.Get(ctx, store.KeyInterventions)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	var snapshot []model.Intervention
	if err := json.Unmarshal(b, &snapshot); err != nil {
		log.Printf("ledger: discarding corrupt snapshot: %v", err)
		return nil
	}
	l.mu.Lock()
	l.interventions = snapshot
	l.mu.Unlock()
	return nil
}

// Create records a new intervention in SEARCHING state and returns its
// id.  The clientID must be a logged-in actor's id; a missing location
// falls back to the default.
func (l *Ledger) Create(ctx context.Context, clientID string, serviceType model.ServiceType, description string, loc *model.Location) (string, error) {
	if clientID == "" {
		return "", ErrNotAuthenticated
	}
	location := defaultLocation
	if loc != nil {
		location = *loc
	}
	inv := model.Intervention{
		ID:          "inv_" + uuid.NewString(),
		ClientID:    clientID,
		ServiceType: serviceType,
		Description: description,
		Photos:      []string{},
		Status:      model.StatusSearching,
		Location:    location,
		CreatedAt:   l.Now(),
	}
	l.mu.Lock()
	l.interventions = append([]model.Intervention{inv}, l.interventions...)
	l.persistLocked(ctx)
	l.mu.Unlock()
	return inv.ID, nil
}

// Accept assigns an artisan and moves the intervention EN_ROUTE.  The
// write is unconditional: repeating the call is idempotent, and if the
// simulator matched the request a beat earlier the manual accept
// overwrites it.  An unknown id does nothing.
func (l *Ledger) Accept(ctx context.Context, id, artisanID string) {
	l.mutate(ctx, id, func(inv *model.Intervention) {
		inv.Status = model.StatusEnRoute
		inv.ArtisanID = artisanID
	})
}

// Resolve is the simulator's entry point: like Accept but it also
// stamps the generated price estimate.
func (l *Ledger) Resolve(ctx context.Context, id, artisanID string, estimate float64) {
	l.mutate(ctx, id, func(inv *model.Intervention) {
		inv.Status = model.StatusEnRoute
		inv.ArtisanID = artisanID
		inv.PriceEstimate = estimate
	})
}

// Complete marks the intervention COMPLETED and stamps CompletedAt.
// No prior-status check is made: completion from any state is allowed.
func (l *Ledger) Complete(ctx context.Context, id string) {
	now := l.Now()
	l.mutate(ctx, id, func(inv *model.Intervention) {
		inv.Status = model.StatusCompleted
		inv.CompletedAt = &now
	})
}

// Cancel marks the intervention CANCELLED, from any state.
func (l *Ledger) Cancel(ctx context.Context, id string) {
	l.mutate(ctx, id, func(inv *model.Intervention) {
		inv.Status = model.StatusCancelled
	})
}

// GetByID returns a copy of the intervention, or false if the id is
// unknown.
func (l *Ledger) GetByID(id string) (model.Intervention, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inv := range l.interventions {
		if inv.ID == id {
			return inv, true
		}
	}
	return model.Intervention{}, false
}

// ListAll returns a copy of the full ledger, most recent first.
func (l *Ledger) ListAll() []model.Intervention {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Intervention, len(l.interventions))
	copy(out, l.interventions)
	return out
}

// mutate applies fn to the intervention with the given id under the
// lock and persists the snapshot.  Unknown ids are silent no-ops and
// do not trigger a persist.
func (l *Ledger) mutate(ctx context.Context, id string, fn func(*model.Intervention)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.interventions {
		if l.interventions[i].ID == id {
			fn(&l.interventions[i])
			l.persistLocked(ctx)
			return
		}
	}
}

// persistLocked serializes the whole ledger to the key-value store.
// Persistence is best effort: failures are logged, never surfaced to
// the mutation's caller.  Callers must hold the mutex.
func (l *Ledger) persistLocked(ctx context.Context) {
	b, err := json.Marshal(l.interventions)
	if err != nil {
		log.Printf("ledger: marshal snapshot failed: %v", err)
		return
	}
	if err := l.kv.Set(ctx, store.KeyInterventions, b); err != nil {
		log.Printf("ledger: persist snapshot failed: %v", err)
	}
}
