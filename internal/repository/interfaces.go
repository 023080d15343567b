package repository

import (
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/google/uuid"
)

// BrokerRepository defines the interface for broker registry access
type BrokerRepository interface {
	GetByID(id uuid.UUID) (*models.Broker, error)
	GetByMCNumber(mcNumber string) (*models.Broker, error)
	GetAll() ([]models.Broker, error)
	Create(broker *models.Broker) error
	Update(broker *models.Broker) error
}

// CarrierRepository defines the interface for carrier registry access
type CarrierRepository interface {
	GetByID(id uuid.UUID) (*models.Carrier, error)
	GetActive() ([]models.Carrier, error)
	GetAll() ([]models.Carrier, error)
	Create(carrier *models.Carrier) error
}

// InvoiceRepository defines the interface for the factoring invoice ledger
type InvoiceRepository interface {
	GetAll() ([]models.Invoice, error)
	GetByBrokerID(brokerID uuid.UUID) ([]models.Invoice, error)
	Create(invoice *models.Invoice) error
}

// LoadRepository defines the interface for the load board feed
type LoadRepository interface {
	GetByID(id uuid.UUID) (*models.LoadPosting, error)
	GetOpen() ([]models.LoadPosting, error)
	GetAll() ([]models.LoadPosting, error)
	Create(posting *models.LoadPosting) error
}

// WeatherRepository defines the interface for the weather context feed
type WeatherRepository interface {
	// GetLatestByCity returns the most recent observation per city.
	GetLatestByCity() (map[string]models.WeatherObservation, error)
	Create(obs *models.WeatherObservation) error
}

// ProfileRepository defines the interface for the golden-record table
type ProfileRepository interface {
	// ReplaceAll deletes every row and inserts the given profiles. Callers
	// run it inside WithTransaction so readers never see a partial snapshot.
	ReplaceAll(profiles []models.BrokerProfile) error
	GetByBrokerID(brokerID uuid.UUID) (*models.BrokerProfile, error)
	GetAll(filters ProfileFilters) ([]models.BrokerProfile, error)
	// LastRefreshed returns the snapshot timestamp of the published table,
	// or the zero time when no snapshot has ever been published.
	LastRefreshed() (time.Time, error)
	Count() (int, error)
}

// RecommendationRepository defines the interface for the pairwise lookup table
type RecommendationRepository interface {
	// ReplaceAll deletes every row and inserts the given recommendations in
	// batches. Callers run it inside WithTransaction.
	ReplaceAll(recs []models.Recommendation, batchSize int) error
	GetByCarrier(carrierID uuid.UUID, filters RecommendationFilters) ([]models.Recommendation, error)
	GetPair(carrierID, loadID uuid.UUID) (*models.Recommendation, error)
	Count() (int, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Broker         BrokerRepository
	Carrier        CarrierRepository
	Invoice        InvoiceRepository
	Load           LoadRepository
	Weather        WeatherRepository
	Profile        ProfileRepository
	Recommendation RecommendationRepository
	User           UserRepository
	Tx             TransactionManager
}

// ProfileFilters defines filters for querying the golden record
type ProfileFilters struct {
	RiskCategories []string
	MinScore       *int
	HQState        string
	Limit          int
	Offset         int
}

// RecommendationFilters defines filters for querying stored recommendations
type RecommendationFilters struct {
	MinScore *float64
	Category string
	Limit    int
}
