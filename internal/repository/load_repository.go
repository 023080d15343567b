package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// loadRepository implements LoadRepository
type loadRepository struct {
	db dbExecutor
}

// NewLoadRepository creates a new load posting repository
func NewLoadRepository(db dbExecutor) LoadRepository {
	return &loadRepository{db: db}
}

// GetByID retrieves a load posting by ID
func (r *loadRepository) GetByID(id uuid.UUID) (*models.LoadPosting, error) {
	query := `
		SELECT id, broker_id, origin_city, origin_state, origin_latitude,
			   origin_longitude, destination_city, destination_state,
			   distance_miles, rate_per_mile, total_rate, equipment_required,
			   weight_lbs, status, posted_at
		FROM load_postings WHERE id = $1
	`

	posting := &models.LoadPosting{}
	err := r.db.QueryRow(query, id).Scan(
		&posting.ID, &posting.BrokerID, &posting.OriginCity,
		&posting.OriginState, &posting.OriginLatitude, &posting.OriginLongitude,
		&posting.DestinationCity, &posting.DestinationState,
		&posting.DistanceMiles, &posting.RatePerMile, &posting.TotalRate,
		&posting.EquipmentRequired, &posting.WeightLbs, &posting.Status,
		&posting.PostedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("load posting not found")
		}
		return nil, fmt.Errorf("failed to get load posting: %w", err)
	}

	return posting, nil
}

// GetOpen retrieves all OPEN load postings. Ordered by id so the pair
// enumeration is stable across rebuilds.
func (r *loadRepository) GetOpen() ([]models.LoadPosting, error) {
	query := `
		SELECT id, broker_id, origin_city, origin_state, origin_latitude,
			   origin_longitude, destination_city, destination_state,
			   distance_miles, rate_per_mile, total_rate, equipment_required,
			   weight_lbs, status, posted_at
		FROM load_postings
		WHERE status = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, string(models.LoadOpen))
	if err != nil {
		return nil, fmt.Errorf("failed to query open load postings: %w", err)
	}
	defer rows.Close()

	var postings []models.LoadPosting
	for rows.Next() {
		var posting models.LoadPosting
		err := rows.Scan(
			&posting.ID, &posting.BrokerID, &posting.OriginCity,
			&posting.OriginState, &posting.OriginLatitude, &posting.OriginLongitude,
			&posting.DestinationCity, &posting.DestinationState,
			&posting.DistanceMiles, &posting.RatePerMile, &posting.TotalRate,
			&posting.EquipmentRequired, &posting.WeightLbs, &posting.Status,
			&posting.PostedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load posting: %w", err)
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// GetAll retrieves every load posting regardless of status. The geospatial
// aggregates run over the full board, not just open loads.
func (r *loadRepository) GetAll() ([]models.LoadPosting, error) {
	query := `
		SELECT id, broker_id, origin_city, origin_state, origin_latitude,
			   origin_longitude, destination_city, destination_state,
			   distance_miles, rate_per_mile, total_rate, equipment_required,
			   weight_lbs, status, posted_at
		FROM load_postings
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query load postings: %w", err)
	}
	defer rows.Close()

	var postings []models.LoadPosting
	for rows.Next() {
		var posting models.LoadPosting
		err := rows.Scan(
			&posting.ID, &posting.BrokerID, &posting.OriginCity,
			&posting.OriginState, &posting.OriginLatitude, &posting.OriginLongitude,
			&posting.DestinationCity, &posting.DestinationState,
			&posting.DistanceMiles, &posting.RatePerMile, &posting.TotalRate,
			&posting.EquipmentRequired, &posting.WeightLbs, &posting.Status,
			&posting.PostedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load posting: %w", err)
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// Create creates a new load posting
func (r *loadRepository) Create(posting *models.LoadPosting) error {
	if posting.ID == uuid.Nil {
		posting.ID = uuid.New()
	}

	if posting.PostedAt.IsZero() {
		posting.PostedAt = time.Now()
	}

	query := `
		INSERT INTO load_postings (
			id, broker_id, origin_city, origin_state, origin_latitude,
			origin_longitude, destination_city, destination_state,
			distance_miles, rate_per_mile, total_rate, equipment_required,
			weight_lbs, status, posted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := r.db.Exec(query,
		posting.ID, posting.BrokerID, posting.OriginCity, posting.OriginState,
		posting.OriginLatitude, posting.OriginLongitude,
		posting.DestinationCity, posting.DestinationState,
		posting.DistanceMiles, posting.RatePerMile, posting.TotalRate,
		posting.EquipmentRequired, posting.WeightLbs, posting.Status,
		posting.PostedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create load posting: %w", err)
	}

	return nil
}
