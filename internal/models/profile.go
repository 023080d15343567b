package models

import (
	"time"

	"github.com/google/uuid"
)

// BrokerProfile is the golden record: one consolidated row per registry
// broker combining identity, payment velocity, lane coverage, geospatial
// diversity, weather context and the derived risk fields. The whole table
// is replaced atomically on every refresh; RefreshedAt carries the snapshot
// timestamp shared by all rows of one refresh.
type BrokerProfile struct {
	BrokerID          uuid.UUID  `json:"broker_id" db:"broker_id"`
	BrokerName        string     `json:"broker_name" db:"broker_name"`
	MCNumber          string     `json:"mc_number" db:"mc_number"`
	HQState           string     `json:"hq_state" db:"hq_state"`
	CreditScore       int        `json:"credit_score" db:"credit_score"`
	FactoringType     string     `json:"factoring_type" db:"factoring_type"`
	Status            string     `json:"status" db:"status"`
	FraudFlag         bool       `json:"fraud_flag" db:"fraud_flag"`
	DisputeCount      int        `json:"dispute_count" db:"dispute_count"`
	RelationshipStart *time.Time `json:"relationship_start" db:"relationship_start"`

	// Payment velocity aggregates from the invoice ledger
	TotalInvoices     int     `json:"total_invoices" db:"total_invoices"`
	TotalAmount       float64 `json:"total_amount" db:"total_amount"`
	AvgInvoiceAmount  float64 `json:"avg_invoice_amount" db:"avg_invoice_amount"`
	AvgDaysToPay      float64 `json:"avg_days_to_pay" db:"avg_days_to_pay"`
	LateInvoices      int     `json:"late_invoices" db:"late_invoices"`
	DisputedInvoices  int     `json:"disputed_invoices" db:"disputed_invoices"`
	OutstandingAmount float64 `json:"outstanding_amount" db:"outstanding_amount"`

	// Lane aggregates from the invoice ledger
	UniqueLanes        int     `json:"unique_lanes" db:"unique_lanes"`
	PrimaryOrigin      string  `json:"primary_origin" db:"primary_origin"`
	PrimaryDestination string  `json:"primary_destination" db:"primary_destination"`
	AvgHaulMiles       float64 `json:"avg_haul_miles" db:"avg_haul_miles"`

	// Geospatial aggregates from load postings
	OriginCellDiversity int `json:"origin_cell_diversity" db:"origin_cell_diversity"`
	LaneDensity         int `json:"lane_density" db:"lane_density"`

	// Weather context at the primary origin city
	WeatherRisk string  `json:"weather_risk" db:"weather_risk"`
	AvgTempF    float64 `json:"avg_temp_f" db:"avg_temp_f"`
	MaxWindMPH  float64 `json:"max_wind_mph" db:"max_wind_mph"`

	// Derived risk fields
	CompositeScore int    `json:"composite_score" db:"composite_score"`
	RiskCategory   string `json:"risk_category" db:"risk_category"`

	RefreshedAt time.Time `json:"refreshed_at" db:"refreshed_at"`
}

// Risk categories published on the golden record, ordered by severity
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// IsHighRisk returns true when the profile's category zeroes recommendation
// scores
func (p *BrokerProfile) IsHighRisk() bool {
	return p.RiskCategory == RiskHigh || p.RiskCategory == RiskCritical
}
