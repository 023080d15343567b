package models

import (
	"time"

	"github.com/google/uuid"
)

// LoadPosting represents a row in the load board feed. Postings are
// immutable once written except for the OPEN -> ASSIGNED status transition.
type LoadPosting struct {
	ID                uuid.UUID `json:"id" db:"id"`
	BrokerID          uuid.UUID `json:"broker_id" db:"broker_id"`
	OriginCity        string    `json:"origin_city" db:"origin_city"`
	OriginState       string    `json:"origin_state" db:"origin_state"`
	OriginLatitude    float64   `json:"origin_latitude" db:"origin_latitude"`
	OriginLongitude   float64   `json:"origin_longitude" db:"origin_longitude"`
	DestinationCity   string    `json:"destination_city" db:"destination_city"`
	DestinationState  string    `json:"destination_state" db:"destination_state"`
	DistanceMiles     float64   `json:"distance_miles" db:"distance_miles"`
	RatePerMile       float64   `json:"rate_per_mile" db:"rate_per_mile"`
	TotalRate         float64   `json:"total_rate" db:"total_rate"`
	EquipmentRequired string    `json:"equipment_required" db:"equipment_required"`
	WeightLbs         float64   `json:"weight_lbs" db:"weight_lbs"`
	Status            string    `json:"status" db:"status"`
	PostedAt          time.Time `json:"posted_at" db:"posted_at"`
}

// LoadStatus represents load posting status values
type LoadStatus string

const (
	LoadOpen     LoadStatus = "OPEN"
	LoadAssigned LoadStatus = "ASSIGNED"
)

// IsOpen returns true if the load is still available for assignment
func (l *LoadPosting) IsOpen() bool {
	return l.Status == string(LoadOpen)
}
