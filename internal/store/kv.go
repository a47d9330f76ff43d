// Package store provides the local key-value store the dispatch core
// persists into.  The whole application state lives under a handful of
// well-known keys: the session token, the cached user record, the full
// intervention ledger snapshot and the one-shot intro flag.  Values are
// opaque byte slices; callers own serialization.
package store

import (
	"context"
	"errors"
)

// Well-known keys.  The store is a fixed, flat namespace; consumers
// must not invent keys outside this set.
const (
	KeyToken         = "zendo:token"
	KeyUser          = "zendo:user"
	KeyInterventions = "zendo:interventions"
	KeyIntroDone     = "zendo:intro_done"
	KeyProfiles      = "zendo:profiles"
)

// ErrNotFound is returned by Get when the key has no value.  Callers
// treating an absent key as "fresh start" should test for it with
// errors.Is rather than comparing messages.
var ErrNotFound = errors.New("store: key not found")

// KV is the persistence contract.  Set overwrites unconditionally;
// Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
