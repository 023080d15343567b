package models

import (
	"time"

	"github.com/google/uuid"
)

// Carrier represents a row in the carrier registry. Each carrier stands in
// for one dispatchable driver when recommendation pairs are enumerated.
type Carrier struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CarrierName   string    `json:"carrier_name" db:"carrier_name"`
	HomeLatitude  float64   `json:"home_latitude" db:"home_latitude"`
	HomeLongitude float64   `json:"home_longitude" db:"home_longitude"`
	EquipmentType string    `json:"equipment_type" db:"equipment_type"`
	FleetSize     int       `json:"fleet_size" db:"fleet_size"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CarrierStatus represents carrier status values
type CarrierStatus string

const (
	CarrierActive   CarrierStatus = "ACTIVE"
	CarrierInactive CarrierStatus = "INACTIVE"
)

// Equipment type values seen in carrier and load data
const (
	EquipmentDryVan   = "DRY_VAN"
	EquipmentReefer   = "REEFER"
	EquipmentFlatbed  = "FLATBED"
	EquipmentStepDeck = "STEP_DECK"
)
