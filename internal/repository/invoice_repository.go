package repository

import (
	"fmt"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// invoiceRepository implements InvoiceRepository
type invoiceRepository struct {
	db dbExecutor
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db dbExecutor) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// GetAll retrieves the full invoice ledger. Ordered by id so aggregate
// passes see a stable sequence.
func (r *invoiceRepository) GetAll() ([]models.Invoice, error) {
	query := `
		SELECT id, broker_id, carrier_id, amount, issue_date, payment_date,
			   status, origin_city, destination_city, distance_miles, created_at
		FROM invoices
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var invoice models.Invoice
		err := rows.Scan(
			&invoice.ID, &invoice.BrokerID, &invoice.CarrierID, &invoice.Amount,
			&invoice.IssueDate, &invoice.PaymentDate, &invoice.Status,
			&invoice.OriginCity, &invoice.DestinationCity,
			&invoice.DistanceMiles, &invoice.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, nil
}

// GetByBrokerID retrieves all invoices for one broker
func (r *invoiceRepository) GetByBrokerID(brokerID uuid.UUID) ([]models.Invoice, error) {
	query := `
		SELECT id, broker_id, carrier_id, amount, issue_date, payment_date,
			   status, origin_city, destination_city, distance_miles, created_at
		FROM invoices
		WHERE broker_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var invoice models.Invoice
		err := rows.Scan(
			&invoice.ID, &invoice.BrokerID, &invoice.CarrierID, &invoice.Amount,
			&invoice.IssueDate, &invoice.PaymentDate, &invoice.Status,
			&invoice.OriginCity, &invoice.DestinationCity,
			&invoice.DistanceMiles, &invoice.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, nil
}

// Create creates a new invoice
func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}

	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO invoices (
			id, broker_id, carrier_id, amount, issue_date, payment_date,
			status, origin_city, destination_city, distance_miles, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(query,
		invoice.ID, invoice.BrokerID, invoice.CarrierID, invoice.Amount,
		invoice.IssueDate, invoice.PaymentDate, invoice.Status,
		invoice.OriginCity, invoice.DestinationCity,
		invoice.DistanceMiles, invoice.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}
