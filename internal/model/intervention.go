package model

import "time"

// ServiceType is one of the fixed service categories a client can
// request work in.  The matcher prefers artisans whose specialty
// equals the requested type.
type ServiceType string

const (
	ServicePlumbing    ServiceType = "PLUMBING"
	ServiceElectricity ServiceType = "ELECTRICITY"
	ServiceLocksmith   ServiceType = "LOCKSMITH"
	ServiceHVAC        ServiceType = "HVAC"
)

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	switch s {
	case ServicePlumbing, ServiceElectricity, ServiceLocksmith, ServiceHVAC:
		return true
	}
	return false
}

// InterventionStatus is the lifecycle state of a service request.
//
// Only a subset of the vocabulary is reachable through the current
// operations: requests start SEARCHING, move to EN_ROUTE via a manual
// accept or a simulator match, and end COMPLETED or CANCELLED.
// ACCEPTED, IN_PROGRESS and PAID are declared for forward compatibility
// with a fuller lifecycle and are counted as "active" (or terminal, for
// PAID) where relevant, but no operation in this core produces them.
type InterventionStatus string

const (
	StatusSearching  InterventionStatus = "SEARCHING"
	StatusAccepted   InterventionStatus = "ACCEPTED"
	StatusEnRoute    InterventionStatus = "EN_ROUTE"
	StatusInProgress InterventionStatus = "IN_PROGRESS"
	StatusCompleted  InterventionStatus = "COMPLETED"
	StatusPaid       InterventionStatus = "PAID"
	StatusCancelled  InterventionStatus = "CANCELLED"
)

// Active reports whether the status counts as in-flight for the
// purposes of the derived "active intervention" view.
func (s InterventionStatus) Active() bool {
	switch s {
	case StatusSearching, StatusAccepted, StatusEnRoute, StatusInProgress:
		return true
	}
	return false
}

// Location is a coordinate pair plus the human-readable address the
// client entered.  Immutable after the intervention is created.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Intervention is a client's request for a tradesperson, tracked from
// creation through matching to completion or cancellation.  Interventions
// are never deleted; terminal ones remain in the ledger as history.
//
// Field immutability follows the lifecycle: ClientID, ServiceType,
// Description, Photos, Location and CreatedAt are fixed at creation;
// ArtisanID is set at most once when a match lands (last write wins if
// a manual accept races the simulator); CompletedAt is set exactly once
// by completion.
type Intervention struct {
	ID            string             `json:"id"`
	ClientID      string             `json:"clientId"`
	ArtisanID     string             `json:"artisanId,omitempty"`
	ServiceType   ServiceType        `json:"serviceType"`
	Description   string             `json:"description"`
	Photos        []string           `json:"photos"`
	Status        InterventionStatus `json:"status"`
	PriceEstimate float64            `json:"priceEstimate,omitempty"`
	PriceFinal    float64            `json:"priceFinal,omitempty"`
	Location      Location           `json:"location"`
	CreatedAt     time.Time          `json:"createdAt"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
}
