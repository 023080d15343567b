package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// profileRepository implements ProfileRepository
type profileRepository struct {
	db dbExecutor
}

// NewProfileRepository creates a new broker profile repository
func NewProfileRepository(db dbExecutor) ProfileRepository {
	return &profileRepository{db: db}
}

// ReplaceAll deletes every published profile and inserts the new snapshot.
// Run inside WithTransaction; readers keep seeing the prior snapshot until
// the surrounding transaction commits.
func (r *profileRepository) ReplaceAll(profiles []models.BrokerProfile) error {
	if _, err := r.db.Exec(`DELETE FROM broker_profiles`); err != nil {
		return fmt.Errorf("failed to clear broker profiles: %w", err)
	}

	query := `
		INSERT INTO broker_profiles (
			broker_id, broker_name, mc_number, hq_state, credit_score,
			factoring_type, status, fraud_flag, dispute_count, relationship_start,
			total_invoices, total_amount, avg_invoice_amount, avg_days_to_pay,
			late_invoices, disputed_invoices, outstanding_amount,
			unique_lanes, primary_origin, primary_destination, avg_haul_miles,
			origin_cell_diversity, lane_density,
			weather_risk, avg_temp_f, max_wind_mph,
			composite_score, risk_category, refreshed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23,
			$24, $25, $26,
			$27, $28, $29
		)
	`

	for i := range profiles {
		p := &profiles[i]
		_, err := r.db.Exec(query,
			p.BrokerID, p.BrokerName, p.MCNumber, p.HQState, p.CreditScore,
			p.FactoringType, p.Status, p.FraudFlag, p.DisputeCount, p.RelationshipStart,
			p.TotalInvoices, p.TotalAmount, p.AvgInvoiceAmount, p.AvgDaysToPay,
			p.LateInvoices, p.DisputedInvoices, p.OutstandingAmount,
			p.UniqueLanes, p.PrimaryOrigin, p.PrimaryDestination, p.AvgHaulMiles,
			p.OriginCellDiversity, p.LaneDensity,
			p.WeatherRisk, p.AvgTempF, p.MaxWindMPH,
			p.CompositeScore, p.RiskCategory, p.RefreshedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert profile for broker %s: %w", p.BrokerID, err)
		}
	}

	return nil
}

// GetByBrokerID retrieves one published profile
func (r *profileRepository) GetByBrokerID(brokerID uuid.UUID) (*models.BrokerProfile, error) {
	query := `
		SELECT broker_id, broker_name, mc_number, hq_state, credit_score,
			   factoring_type, status, fraud_flag, dispute_count, relationship_start,
			   total_invoices, total_amount, avg_invoice_amount, avg_days_to_pay,
			   late_invoices, disputed_invoices, outstanding_amount,
			   unique_lanes, primary_origin, primary_destination, avg_haul_miles,
			   origin_cell_diversity, lane_density,
			   weather_risk, avg_temp_f, max_wind_mph,
			   composite_score, risk_category, refreshed_at
		FROM broker_profiles WHERE broker_id = $1
	`

	profile := &models.BrokerProfile{}
	err := r.db.QueryRow(query, brokerID).Scan(
		&profile.BrokerID, &profile.BrokerName, &profile.MCNumber,
		&profile.HQState, &profile.CreditScore, &profile.FactoringType,
		&profile.Status, &profile.FraudFlag, &profile.DisputeCount,
		&profile.RelationshipStart,
		&profile.TotalInvoices, &profile.TotalAmount, &profile.AvgInvoiceAmount,
		&profile.AvgDaysToPay, &profile.LateInvoices, &profile.DisputedInvoices,
		&profile.OutstandingAmount,
		&profile.UniqueLanes, &profile.PrimaryOrigin, &profile.PrimaryDestination,
		&profile.AvgHaulMiles,
		&profile.OriginCellDiversity, &profile.LaneDensity,
		&profile.WeatherRisk, &profile.AvgTempF, &profile.MaxWindMPH,
		&profile.CompositeScore, &profile.RiskCategory, &profile.RefreshedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile for broker %s not found", brokerID)
		}
		return nil, fmt.Errorf("failed to get broker profile: %w", err)
	}

	return profile, nil
}

// GetAll retrieves published profiles with filters
func (r *profileRepository) GetAll(filters ProfileFilters) ([]models.BrokerProfile, error) {
	query := `
		SELECT broker_id, broker_name, mc_number, hq_state, credit_score,
			   factoring_type, status, fraud_flag, dispute_count, relationship_start,
			   total_invoices, total_amount, avg_invoice_amount, avg_days_to_pay,
			   late_invoices, disputed_invoices, outstanding_amount,
			   unique_lanes, primary_origin, primary_destination, avg_haul_miles,
			   origin_cell_diversity, lane_density,
			   weather_risk, avg_temp_f, max_wind_mph,
			   composite_score, risk_category, refreshed_at
		FROM broker_profiles
	`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	// Apply filters
	if len(filters.RiskCategories) > 0 {
		placeholders := make([]string, len(filters.RiskCategories))
		for i, category := range filters.RiskCategories {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, category)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("risk_category IN (%s)", strings.Join(placeholders, ",")))
	}

	if filters.MinScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("composite_score >= $%d", argIndex))
		args = append(args, *filters.MinScore)
		argIndex++
	}

	if filters.HQState != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("hq_state = $%d", argIndex))
		args = append(args, filters.HQState)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY composite_score DESC, broker_id"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query broker profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.BrokerProfile
	for rows.Next() {
		var profile models.BrokerProfile
		err := rows.Scan(
			&profile.BrokerID, &profile.BrokerName, &profile.MCNumber,
			&profile.HQState, &profile.CreditScore, &profile.FactoringType,
			&profile.Status, &profile.FraudFlag, &profile.DisputeCount,
			&profile.RelationshipStart,
			&profile.TotalInvoices, &profile.TotalAmount, &profile.AvgInvoiceAmount,
			&profile.AvgDaysToPay, &profile.LateInvoices, &profile.DisputedInvoices,
			&profile.OutstandingAmount,
			&profile.UniqueLanes, &profile.PrimaryOrigin, &profile.PrimaryDestination,
			&profile.AvgHaulMiles,
			&profile.OriginCellDiversity, &profile.LaneDensity,
			&profile.WeatherRisk, &profile.AvgTempF, &profile.MaxWindMPH,
			&profile.CompositeScore, &profile.RiskCategory, &profile.RefreshedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broker profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LastRefreshed returns the snapshot timestamp of the published table, or
// the zero time when no snapshot has ever been published. Every row of one
// snapshot carries the same refreshed_at, so MAX is the snapshot time.
func (r *profileRepository) LastRefreshed() (time.Time, error) {
	query := `SELECT MAX(refreshed_at) FROM broker_profiles`

	var refreshedAt sql.NullTime
	if err := r.db.QueryRow(query).Scan(&refreshedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to get last refresh time: %w", err)
	}

	if !refreshedAt.Valid {
		return time.Time{}, nil
	}

	return refreshedAt.Time, nil
}

// Count returns the number of published profiles
func (r *profileRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM broker_profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count broker profiles: %w", err)
	}
	return count, nil
}
