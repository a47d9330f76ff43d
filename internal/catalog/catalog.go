// Package catalog exposes the fixed set of artisans the matching
// simulator draws from.  In this core artisans are not created through
// the auth lifecycle; they are seed data standing in for a real fleet.
package catalog

import (
	"time"

	"github.com/zendo/dispatch/internal/model"
)

// Catalog is the queryable artisan set.  The matcher depends on this
// interface so tests can substitute their own fleet.
type Catalog interface {
	// All returns every artisan in the catalog.
	All() []model.Artisan
	// FindBySpecialty returns the first artisan whose specialty
	// matches, or false when none does.
	FindBySpecialty(s model.ServiceType) (model.Artisan, bool)
}

// Static is a Catalog over a fixed slice.
type Static struct {
	artisans []model.Artisan
}

// NewStatic returns a catalog over the given artisans.
func NewStatic(artisans []model.Artisan) *Static {
	return &Static{artisans: artisans}
}

// Default returns the built-in demo fleet.
func Default() *Static {
	now := time.Now().UTC()
	return NewStatic([]model.Artisan{
		{
			User: model.User{
				ID:        "a1",
				Name:      "Jean Michel",
				Email:     "jean.michel@example.com",
				Phone:     "+33612345678",
				Role:      model.RoleArtisan,
				AvatarURL: "https://picsum.photos/100/100?random=1",
				CreatedAt: now,
			},
			Level:         model.LevelElite,
			Availability:  model.AvailabilityOnline,
			Rating:        4.9,
			JobsCompleted: 342,
			Specialty:     model.ServicePlumbing,
			Location:      model.Coordinate{Lat: 48.8566, Lng: 2.3522},
		},
		{
			User: model.User{
				ID:        "a2",
				Name:      "Sarah Connor",
				Email:     "sarah.connor@example.com",
				Phone:     "+33698765432",
				Role:      model.RoleArtisan,
				AvatarURL: "https://picsum.photos/100/100?random=2",
				CreatedAt: now,
			},
			Level:         model.LevelProPlus,
			Availability:  model.AvailabilityBusy,
			Rating:        4.7,
			JobsCompleted: 120,
			Specialty:     model.ServiceElectricity,
			Location:      model.Coordinate{Lat: 48.8606, Lng: 2.3376},
		},
	})
}

func (c *Static) All() []model.Artisan {
	out := make([]model.Artisan, len(c.artisans))
	copy(out, c.artisans)
	return out
}

func (c *Static) FindBySpecialty(s model.ServiceType) (model.Artisan, bool) {
	for _, a := range c.artisans {
		if a.Specialty == s {
			return a, true
		}
	}
	return model.Artisan{}, false
}
