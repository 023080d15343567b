package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// carrierRepository implements CarrierRepository
type carrierRepository struct {
	db dbExecutor
}

// NewCarrierRepository creates a new carrier repository
func NewCarrierRepository(db dbExecutor) CarrierRepository {
	return &carrierRepository{db: db}
}

// GetByID retrieves a carrier by ID
func (r *carrierRepository) GetByID(id uuid.UUID) (*models.Carrier, error) {
	query := `
		SELECT id, carrier_name, home_latitude, home_longitude,
			   equipment_type, fleet_size, status, created_at
		FROM carriers WHERE id = $1
	`

	carrier := &models.Carrier{}
	err := r.db.QueryRow(query, id).Scan(
		&carrier.ID, &carrier.CarrierName, &carrier.HomeLatitude,
		&carrier.HomeLongitude, &carrier.EquipmentType, &carrier.FleetSize,
		&carrier.Status, &carrier.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("carrier not found")
		}
		return nil, fmt.Errorf("failed to get carrier: %w", err)
	}

	return carrier, nil
}

// GetActive retrieves all ACTIVE carriers. Ordered by id so the pair
// enumeration is stable across rebuilds.
func (r *carrierRepository) GetActive() ([]models.Carrier, error) {
	query := `
		SELECT id, carrier_name, home_latitude, home_longitude,
			   equipment_type, fleet_size, status, created_at
		FROM carriers
		WHERE status = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, string(models.CarrierActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active carriers: %w", err)
	}
	defer rows.Close()

	var carriers []models.Carrier
	for rows.Next() {
		var carrier models.Carrier
		err := rows.Scan(
			&carrier.ID, &carrier.CarrierName, &carrier.HomeLatitude,
			&carrier.HomeLongitude, &carrier.EquipmentType, &carrier.FleetSize,
			&carrier.Status, &carrier.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, carrier)
	}

	return carriers, nil
}

// GetAll retrieves every carrier regardless of status
func (r *carrierRepository) GetAll() ([]models.Carrier, error) {
	query := `
		SELECT id, carrier_name, home_latitude, home_longitude,
			   equipment_type, fleet_size, status, created_at
		FROM carriers
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query carriers: %w", err)
	}
	defer rows.Close()

	var carriers []models.Carrier
	for rows.Next() {
		var carrier models.Carrier
		err := rows.Scan(
			&carrier.ID, &carrier.CarrierName, &carrier.HomeLatitude,
			&carrier.HomeLongitude, &carrier.EquipmentType, &carrier.FleetSize,
			&carrier.Status, &carrier.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, carrier)
	}

	return carriers, nil
}

// Create creates a new carrier
func (r *carrierRepository) Create(carrier *models.Carrier) error {
	if carrier.ID == uuid.Nil {
		carrier.ID = uuid.New()
	}

	if carrier.CreatedAt.IsZero() {
		carrier.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO carriers (
			id, carrier_name, home_latitude, home_longitude,
			equipment_type, fleet_size, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.Exec(query,
		carrier.ID, carrier.CarrierName, carrier.HomeLatitude,
		carrier.HomeLongitude, carrier.EquipmentType, carrier.FleetSize,
		carrier.Status, carrier.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create carrier: %w", err)
	}

	return nil
}
