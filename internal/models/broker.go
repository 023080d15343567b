package models

import (
	"time"

	"github.com/google/uuid"
)

// Broker represents a row in the broker registry
type Broker struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	MCNumber          string    `json:"mc_number" db:"mc_number"`
	HQState           string    `json:"hq_state" db:"hq_state"`
	CreditScore       int       `json:"credit_score" db:"credit_score"`
	FactoringType     string    `json:"factoring_type" db:"factoring_type"`
	Status            string    `json:"status" db:"status"`
	FraudFlag         bool      `json:"fraud_flag" db:"fraud_flag"`
	DisputeCount      int       `json:"dispute_count" db:"dispute_count"`
	RelationshipStart *time.Time `json:"relationship_start" db:"relationship_start"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// BrokerStatus represents broker registry status values
type BrokerStatus string

const (
	BrokerActive    BrokerStatus = "ACTIVE"
	BrokerSuspended BrokerStatus = "SUSPENDED"
	BrokerInactive  BrokerStatus = "INACTIVE"
)

// FactoringType values seen in the registry
const (
	FactoringRecourse    = "RECOURSE"
	FactoringNonRecourse = "NON_RECOURSE"
)

// IsActive returns true if the broker is currently active
func (b *Broker) IsActive() bool {
	return b.Status == string(BrokerActive)
}
