package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// recommendationColumnCount is the number of columns in one inserted row
const recommendationColumnCount = 17

// recommendationRepository implements RecommendationRepository
type recommendationRepository struct {
	db dbExecutor
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db dbExecutor) RecommendationRepository {
	return &recommendationRepository{db: db}
}

// ReplaceAll deletes every stored recommendation and inserts the new set in
// multi-row batches. Run inside WithTransaction; readers keep seeing the
// prior table until the surrounding transaction commits.
func (r *recommendationRepository) ReplaceAll(recs []models.Recommendation, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	if _, err := r.db.Exec(`DELETE FROM recommendations`); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		if err := r.insertBatch(recs[start:end]); err != nil {
			return fmt.Errorf("failed to insert recommendation batch at offset %d: %w", start, err)
		}
	}

	return nil
}

// insertBatch inserts one multi-row VALUES batch
func (r *recommendationRepository) insertBatch(batch []models.Recommendation) error {
	valueClauses := make([]string, len(batch))
	args := make([]interface{}, 0, len(batch)*recommendationColumnCount)
	argIndex := 1

	for i := range batch {
		rec := &batch[i]

		placeholders := make([]string, recommendationColumnCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", argIndex)
			argIndex++
		}
		valueClauses[i] = "(" + strings.Join(placeholders, ", ") + ")"

		args = append(args,
			rec.CarrierID, rec.LoadID, rec.BrokerID, rec.Score, rec.MatchCategory,
			rec.OriginCity, rec.OriginState, rec.DestinationCity, rec.DestinationState,
			rec.TotalRate, rec.EquipmentRequired, rec.DistanceMiles,
			rec.BrokerName, rec.CreditScore, rec.RiskCategory, rec.CompositeScore,
			rec.ComputedAt,
		)
	}

	query := `
		INSERT INTO recommendations (
			carrier_id, load_id, broker_id, score, match_category,
			origin_city, origin_state, destination_city, destination_state,
			total_rate, equipment_required, distance_miles,
			broker_name, credit_score, risk_category, composite_score,
			computed_at
		) VALUES ` + strings.Join(valueClauses, ", ")

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert recommendations: %w", err)
	}

	return nil
}

// GetByCarrier retrieves stored recommendations for one carrier, best
// matches first
func (r *recommendationRepository) GetByCarrier(carrierID uuid.UUID, filters RecommendationFilters) ([]models.Recommendation, error) {
	query := `
		SELECT carrier_id, load_id, broker_id, score, match_category,
			   origin_city, origin_state, destination_city, destination_state,
			   total_rate, equipment_required, distance_miles,
			   broker_name, credit_score, risk_category, composite_score,
			   computed_at
		FROM recommendations
		WHERE carrier_id = $1
	`

	args := []interface{}{carrierID}
	argIndex := 2

	if filters.MinScore != nil {
		query += fmt.Sprintf(" AND score >= $%d", argIndex)
		args = append(args, *filters.MinScore)
		argIndex++
	}

	if filters.Category != "" {
		query += fmt.Sprintf(" AND match_category = $%d", argIndex)
		args = append(args, filters.Category)
		argIndex++
	}

	query += " ORDER BY score DESC, load_id"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		err := rows.Scan(
			&rec.CarrierID, &rec.LoadID, &rec.BrokerID, &rec.Score,
			&rec.MatchCategory,
			&rec.OriginCity, &rec.OriginState, &rec.DestinationCity,
			&rec.DestinationState,
			&rec.TotalRate, &rec.EquipmentRequired, &rec.DistanceMiles,
			&rec.BrokerName, &rec.CreditScore, &rec.RiskCategory,
			&rec.CompositeScore, &rec.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// GetPair retrieves one stored (carrier, load) recommendation
func (r *recommendationRepository) GetPair(carrierID, loadID uuid.UUID) (*models.Recommendation, error) {
	query := `
		SELECT carrier_id, load_id, broker_id, score, match_category,
			   origin_city, origin_state, destination_city, destination_state,
			   total_rate, equipment_required, distance_miles,
			   broker_name, credit_score, risk_category, composite_score,
			   computed_at
		FROM recommendations
		WHERE carrier_id = $1 AND load_id = $2
	`

	rec := &models.Recommendation{}
	err := r.db.QueryRow(query, carrierID, loadID).Scan(
		&rec.CarrierID, &rec.LoadID, &rec.BrokerID, &rec.Score,
		&rec.MatchCategory,
		&rec.OriginCity, &rec.OriginState, &rec.DestinationCity,
		&rec.DestinationState,
		&rec.TotalRate, &rec.EquipmentRequired, &rec.DistanceMiles,
		&rec.BrokerName, &rec.CreditScore, &rec.RiskCategory,
		&rec.CompositeScore, &rec.ComputedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("recommendation for pair (%s, %s) not found", carrierID, loadID)
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

// Count returns the number of stored recommendations
func (r *recommendationRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM recommendations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}
