package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// brokerRepository implements BrokerRepository
type brokerRepository struct {
	db dbExecutor
}

// NewBrokerRepository creates a new broker repository
func NewBrokerRepository(db dbExecutor) BrokerRepository {
	return &brokerRepository{db: db}
}

// GetByID retrieves a broker by ID
func (r *brokerRepository) GetByID(id uuid.UUID) (*models.Broker, error) {
	query := `
		SELECT id, name, mc_number, hq_state, credit_score, factoring_type,
			   status, fraud_flag, dispute_count, relationship_start,
			   created_at, updated_at
		FROM brokers WHERE id = $1
	`

	broker := &models.Broker{}
	err := r.db.QueryRow(query, id).Scan(
		&broker.ID, &broker.Name, &broker.MCNumber, &broker.HQState,
		&broker.CreditScore, &broker.FactoringType, &broker.Status,
		&broker.FraudFlag, &broker.DisputeCount, &broker.RelationshipStart,
		&broker.CreatedAt, &broker.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("broker not found")
		}
		return nil, fmt.Errorf("failed to get broker: %w", err)
	}

	return broker, nil
}

// GetByMCNumber retrieves a broker by motor carrier number
func (r *brokerRepository) GetByMCNumber(mcNumber string) (*models.Broker, error) {
	query := `
		SELECT id, name, mc_number, hq_state, credit_score, factoring_type,
			   status, fraud_flag, dispute_count, relationship_start,
			   created_at, updated_at
		FROM brokers WHERE mc_number = $1
	`

	broker := &models.Broker{}
	err := r.db.QueryRow(query, mcNumber).Scan(
		&broker.ID, &broker.Name, &broker.MCNumber, &broker.HQState,
		&broker.CreditScore, &broker.FactoringType, &broker.Status,
		&broker.FraudFlag, &broker.DisputeCount, &broker.RelationshipStart,
		&broker.CreatedAt, &broker.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("broker with MC number %s not found", mcNumber)
		}
		return nil, fmt.Errorf("failed to get broker: %w", err)
	}

	return broker, nil
}

// GetAll retrieves every registry broker. Ordered by id so materialization
// passes see a stable sequence.
func (r *brokerRepository) GetAll() ([]models.Broker, error) {
	query := `
		SELECT id, name, mc_number, hq_state, credit_score, factoring_type,
			   status, fraud_flag, dispute_count, relationship_start,
			   created_at, updated_at
		FROM brokers
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brokers: %w", err)
	}
	defer rows.Close()

	var brokers []models.Broker
	for rows.Next() {
		var broker models.Broker
		err := rows.Scan(
			&broker.ID, &broker.Name, &broker.MCNumber, &broker.HQState,
			&broker.CreditScore, &broker.FactoringType, &broker.Status,
			&broker.FraudFlag, &broker.DisputeCount, &broker.RelationshipStart,
			&broker.CreatedAt, &broker.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broker: %w", err)
		}
		brokers = append(brokers, broker)
	}

	return brokers, nil
}

// Create creates a new broker
func (r *brokerRepository) Create(broker *models.Broker) error {
	if broker.ID == uuid.Nil {
		broker.ID = uuid.New()
	}

	now := time.Now()
	broker.CreatedAt = now
	broker.UpdatedAt = now

	query := `
		INSERT INTO brokers (
			id, name, mc_number, hq_state, credit_score, factoring_type,
			status, fraud_flag, dispute_count, relationship_start,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.Exec(query,
		broker.ID, broker.Name, broker.MCNumber, broker.HQState,
		broker.CreditScore, broker.FactoringType, broker.Status,
		broker.FraudFlag, broker.DisputeCount, broker.RelationshipStart,
		broker.CreatedAt, broker.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create broker: %w", err)
	}

	return nil
}

// Update updates an existing broker
func (r *brokerRepository) Update(broker *models.Broker) error {
	broker.UpdatedAt = time.Now()

	query := `
		UPDATE brokers SET
			name = $2, mc_number = $3, hq_state = $4, credit_score = $5,
			factoring_type = $6, status = $7, fraud_flag = $8,
			dispute_count = $9, relationship_start = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		broker.ID, broker.Name, broker.MCNumber, broker.HQState,
		broker.CreditScore, broker.FactoringType, broker.Status,
		broker.FraudFlag, broker.DisputeCount, broker.RelationshipStart,
		broker.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update broker: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("broker not found")
	}

	return nil
}
