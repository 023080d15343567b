package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation represents one scored (carrier, load) pair in the lookup
// table. BrokerID is nil for pairs whose load or broker profile could not be
// resolved during the batch run; such rows carry the fallback score.
// Broker columns are denormalized from the golden record at scoring time so
// consumers read one row per pair.
type Recommendation struct {
	CarrierID        uuid.UUID  `json:"carrier_id" db:"carrier_id"`
	LoadID           uuid.UUID  `json:"load_id" db:"load_id"`
	BrokerID         *uuid.UUID `json:"broker_id" db:"broker_id"`
	Score            float64    `json:"score" db:"score"`
	MatchCategory    string     `json:"match_category" db:"match_category"`
	OriginCity       string     `json:"origin_city" db:"origin_city"`
	OriginState      string     `json:"origin_state" db:"origin_state"`
	DestinationCity  string     `json:"destination_city" db:"destination_city"`
	DestinationState string     `json:"destination_state" db:"destination_state"`
	TotalRate        float64    `json:"total_rate" db:"total_rate"`
	EquipmentRequired string    `json:"equipment_required" db:"equipment_required"`
	DistanceMiles    float64    `json:"distance_miles" db:"distance_miles"`
	BrokerName       string     `json:"broker_name" db:"broker_name"`
	CreditScore      int        `json:"credit_score" db:"credit_score"`
	RiskCategory     string     `json:"risk_category" db:"risk_category"`
	CompositeScore   int        `json:"composite_score" db:"composite_score"`
	ComputedAt       time.Time  `json:"computed_at" db:"computed_at"`
}

// Match categories published on the recommendation table
const (
	MatchStrong  = "STRONG"
	MatchGood    = "GOOD"
	MatchMedium  = "MEDIUM"
	MatchWeak    = "WEAK"
	MatchNoMatch = "NO_MATCH"
)
