package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice represents a row in the factoring invoice ledger. BrokerID may
// reference a broker that no longer exists in the registry; the pipeline
// tolerates dangling references.
type Invoice struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	BrokerID        uuid.UUID  `json:"broker_id" db:"broker_id"`
	CarrierID       *uuid.UUID `json:"carrier_id" db:"carrier_id"`
	Amount          float64    `json:"amount" db:"amount"`
	IssueDate       time.Time  `json:"issue_date" db:"issue_date"`
	PaymentDate     *time.Time `json:"payment_date" db:"payment_date"`
	Status          string     `json:"status" db:"status"`
	OriginCity      string     `json:"origin_city" db:"origin_city"`
	DestinationCity string     `json:"destination_city" db:"destination_city"`
	DistanceMiles   float64    `json:"distance_miles" db:"distance_miles"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// InvoiceStatus represents invoice lifecycle values
type InvoiceStatus string

const (
	InvoicePaid        InvoiceStatus = "PAID"
	InvoiceOutstanding InvoiceStatus = "OUTSTANDING"
	InvoiceDisputed    InvoiceStatus = "DISPUTED"
)

// DaysToPay returns the calendar days between issue and payment, or
// (0, false) when the invoice has not been paid.
func (i *Invoice) DaysToPay() (float64, bool) {
	if i.PaymentDate == nil {
		return 0, false
	}
	return i.PaymentDate.Sub(i.IssueDate).Hours() / 24, true
}

// IsPaid returns true if the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.Status == string(InvoicePaid)
}
