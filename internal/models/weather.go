package models

import (
	"time"

	"github.com/google/uuid"
)

// WeatherObservation represents a row in the external weather context feed.
// The feed appends observations over time; consumers take the latest row
// per city.
type WeatherObservation struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CityName        string    `json:"city_name" db:"city_name"`
	ObservedAt      time.Time `json:"observed_at" db:"observed_at"`
	AvgTempF        float64   `json:"avg_temp_f" db:"avg_temp_f"`
	MaxWindMPH      float64   `json:"max_wind_mph" db:"max_wind_mph"`
	PrecipitationIn float64   `json:"precipitation_in" db:"precipitation_in"`
	RiskLevel       string    `json:"risk_level" db:"risk_level"`
}

// Weather risk levels emitted by the context feed
const (
	WeatherRiskLow    = "LOW"
	WeatherRiskMedium = "MEDIUM"
	WeatherRiskHigh   = "HIGH"
	// WeatherRiskNone is stored when no context row exists for a broker's
	// primary origin city.
	WeatherRiskNone = "NONE"
)
