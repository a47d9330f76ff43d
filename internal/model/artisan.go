package model

// ArtisanLevel is the tier an artisan has reached on the platform.
type ArtisanLevel string

const (
	LevelStandard ArtisanLevel = "STANDARD"
	LevelProPlus  ArtisanLevel = "PRO_PLUS"
	LevelElite    ArtisanLevel = "ELITE"
)

// Availability reflects whether an artisan can currently take work.
type Availability string

const (
	AvailabilityOnline  Availability = "ONLINE"
	AvailabilityBusy    Availability = "BUSY"
	AvailabilityOffline Availability = "OFFLINE"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Artisan is a User specialised for performing service work.  In this
// core artisans come from the static catalog rather than the auth
// lifecycle, so the struct embeds User for identity fields and adds
// the dispatch-relevant attributes the matcher selects on.
type Artisan struct {
	User
	Level         ArtisanLevel `json:"level"`
	Availability  Availability `json:"availability"`
	Rating        float64      `json:"rating"`
	JobsCompleted int          `json:"jobsCompleted"`
	Specialty     ServiceType  `json:"specialty"`
	Location      Coordinate   `json:"location"`
}
