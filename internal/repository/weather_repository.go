package repository

import (
	"fmt"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	db dbExecutor
}

// NewWeatherRepository creates a new weather repository
func NewWeatherRepository(db dbExecutor) WeatherRepository {
	return &weatherRepository{db: db}
}

// GetLatestByCity returns the most recent observation per city. The feed
// appends rows over time; DISTINCT ON keeps the newest per city_name, with
// id as the tie-break so equal timestamps pick the same row every run.
func (r *weatherRepository) GetLatestByCity() (map[string]models.WeatherObservation, error) {
	query := `
		SELECT DISTINCT ON (city_name)
			   id, city_name, observed_at, avg_temp_f, max_wind_mph,
			   precipitation_in, risk_level
		FROM weather_observations
		ORDER BY city_name, observed_at DESC, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather observations: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]models.WeatherObservation)
	for rows.Next() {
		var obs models.WeatherObservation
		err := rows.Scan(
			&obs.ID, &obs.CityName, &obs.ObservedAt, &obs.AvgTempF,
			&obs.MaxWindMPH, &obs.PrecipitationIn, &obs.RiskLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather observation: %w", err)
		}
		latest[obs.CityName] = obs
	}

	return latest, nil
}

// Create creates a new weather observation
func (r *weatherRepository) Create(obs *models.WeatherObservation) error {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}

	query := `
		INSERT INTO weather_observations (
			id, city_name, observed_at, avg_temp_f, max_wind_mph,
			precipitation_in, risk_level
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.Exec(query,
		obs.ID, obs.CityName, obs.ObservedAt, obs.AvgTempF,
		obs.MaxWindMPH, obs.PrecipitationIn, obs.RiskLevel,
	)

	if err != nil {
		return fmt.Errorf("failed to create weather observation: %w", err)
	}

	return nil
}
