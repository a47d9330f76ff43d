// Package queue defines the message payloads exchanged over the
// message broker and the background consumer that records them.
package queue

// InterventionMatchedEvent is published when an intervention is
// assigned an artisan, whether by the matching simulator or a manual
// accept.  It carries enough for downstream consumers to notify or
// log without reading the ledger.
type InterventionMatchedEvent struct {
	InterventionID string  `json:"intervention_id"`
	ClientID       string  `json:"client_id"`
	ArtisanID      string  `json:"artisan_id"`
	ArtisanName    string  `json:"artisan_name"`
	ServiceType    string  `json:"service_type"`
	PriceEstimate  float64 `json:"price_estimate"`
	Address        string  `json:"address"`
	MatchedAt      string  `json:"matched_at"`
}

// InterventionCompletedEvent is published when an intervention reaches
// the COMPLETED state.
type InterventionCompletedEvent struct {
	InterventionID string `json:"intervention_id"`
	ClientID       string `json:"client_id"`
	ArtisanID      string `json:"artisan_id"`
	ServiceType    string `json:"service_type"`
	CompletedAt    string `json:"completed_at"`
}
