package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// Hand-rolled repository mocks backed by slices and maps. Setting err on a
// mock makes every method fail with it, which is how the fail-closed tests
// simulate an unreachable source table.

// MockBrokerRepository implements repository.BrokerRepository
type MockBrokerRepository struct {
	brokers []models.Broker
	err     error
}

func (m *MockBrokerRepository) GetByID(id uuid.UUID) (*models.Broker, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.brokers {
		if m.brokers[i].ID == id {
			b := m.brokers[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("broker not found")
}

func (m *MockBrokerRepository) GetByMCNumber(mcNumber string) (*models.Broker, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.brokers {
		if m.brokers[i].MCNumber == mcNumber {
			b := m.brokers[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("broker not found")
}

func (m *MockBrokerRepository) GetAll() ([]models.Broker, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.brokers, nil
}

func (m *MockBrokerRepository) Create(broker *models.Broker) error {
	if m.err != nil {
		return m.err
	}
	m.brokers = append(m.brokers, *broker)
	return nil
}

func (m *MockBrokerRepository) Update(broker *models.Broker) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.brokers {
		if m.brokers[i].ID == broker.ID {
			m.brokers[i] = *broker
			return nil
		}
	}
	return fmt.Errorf("broker not found")
}

// MockCarrierRepository implements repository.CarrierRepository
type MockCarrierRepository struct {
	carriers []models.Carrier
	err      error
}

func (m *MockCarrierRepository) GetByID(id uuid.UUID) (*models.Carrier, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.carriers {
		if m.carriers[i].ID == id {
			c := m.carriers[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("carrier not found")
}

func (m *MockCarrierRepository) GetActive() ([]models.Carrier, error) {
	if m.err != nil {
		return nil, m.err
	}
	var active []models.Carrier
	for _, c := range m.carriers {
		if c.Status == string(models.CarrierActive) {
			active = append(active, c)
		}
	}
	return active, nil
}

func (m *MockCarrierRepository) GetAll() ([]models.Carrier, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.carriers, nil
}

func (m *MockCarrierRepository) Create(carrier *models.Carrier) error {
	if m.err != nil {
		return m.err
	}
	m.carriers = append(m.carriers, *carrier)
	return nil
}

// MockInvoiceRepository implements repository.InvoiceRepository
type MockInvoiceRepository struct {
	invoices []models.Invoice
	err      error
}

func (m *MockInvoiceRepository) GetAll() ([]models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoices, nil
}

func (m *MockInvoiceRepository) GetByBrokerID(brokerID uuid.UUID) ([]models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Invoice
	for _, inv := range m.invoices {
		if inv.BrokerID == brokerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *MockInvoiceRepository) Create(invoice *models.Invoice) error {
	if m.err != nil {
		return m.err
	}
	m.invoices = append(m.invoices, *invoice)
	return nil
}

// MockLoadRepository implements repository.LoadRepository
type MockLoadRepository struct {
	loads []models.LoadPosting
	err   error
}

func (m *MockLoadRepository) GetByID(id uuid.UUID) (*models.LoadPosting, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.loads {
		if m.loads[i].ID == id {
			l := m.loads[i]
			return &l, nil
		}
	}
	return nil, fmt.Errorf("load posting not found")
}

func (m *MockLoadRepository) GetOpen() ([]models.LoadPosting, error) {
	if m.err != nil {
		return nil, m.err
	}
	var open []models.LoadPosting
	for _, l := range m.loads {
		if l.Status == string(models.LoadOpen) {
			open = append(open, l)
		}
	}
	return open, nil
}

func (m *MockLoadRepository) GetAll() ([]models.LoadPosting, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.loads, nil
}

func (m *MockLoadRepository) Create(posting *models.LoadPosting) error {
	if m.err != nil {
		return m.err
	}
	m.loads = append(m.loads, *posting)
	return nil
}

// MockWeatherRepository implements repository.WeatherRepository
type MockWeatherRepository struct {
	byCity map[string]models.WeatherObservation
	err    error
}

func (m *MockWeatherRepository) GetLatestByCity() (map[string]models.WeatherObservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.byCity == nil {
		return map[string]models.WeatherObservation{}, nil
	}
	return m.byCity, nil
}

func (m *MockWeatherRepository) Create(obs *models.WeatherObservation) error {
	if m.err != nil {
		return m.err
	}
	if m.byCity == nil {
		m.byCity = make(map[string]models.WeatherObservation)
	}
	m.byCity[obs.CityName] = *obs
	return nil
}

// MockProfileRepository implements repository.ProfileRepository
type MockProfileRepository struct {
	profiles   []models.BrokerProfile
	err        error
	replaceErr error
	replaced   int
}

func (m *MockProfileRepository) ReplaceAll(profiles []models.BrokerProfile) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.profiles = append([]models.BrokerProfile(nil), profiles...)
	m.replaced++
	return nil
}

func (m *MockProfileRepository) GetByBrokerID(brokerID uuid.UUID) (*models.BrokerProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.profiles {
		if m.profiles[i].BrokerID == brokerID {
			p := m.profiles[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("broker profile not found")
}

func (m *MockProfileRepository) GetAll(filters repository.ProfileFilters) ([]models.BrokerProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles, nil
}

func (m *MockProfileRepository) LastRefreshed() (time.Time, error) {
	if m.err != nil {
		return time.Time{}, m.err
	}
	var latest time.Time
	for i := range m.profiles {
		if m.profiles[i].RefreshedAt.After(latest) {
			latest = m.profiles[i].RefreshedAt
		}
	}
	return latest, nil
}

func (m *MockProfileRepository) Count() (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.profiles), nil
}

// MockRecommendationRepository implements repository.RecommendationRepository
type MockRecommendationRepository struct {
	recs       []models.Recommendation
	batchSizes []int
	err        error
	replaceErr error
}

func (m *MockRecommendationRepository) ReplaceAll(recs []models.Recommendation, batchSize int) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.recs = append([]models.Recommendation(nil), recs...)
	m.batchSizes = append(m.batchSizes, batchSize)
	return nil
}

func (m *MockRecommendationRepository) GetByCarrier(carrierID uuid.UUID, filters repository.RecommendationFilters) ([]models.Recommendation, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Recommendation
	for _, r := range m.recs {
		if r.CarrierID == carrierID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRecommendationRepository) GetPair(carrierID, loadID uuid.UUID) (*models.Recommendation, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.recs {
		if m.recs[i].CarrierID == carrierID && m.recs[i].LoadID == loadID {
			r := m.recs[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("recommendation not found")
}

func (m *MockRecommendationRepository) Count() (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.recs), nil
}

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	users []models.User
	err   error
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockUserRepository) Create(user *models.User) error {
	if m.err != nil {
		return m.err
	}
	m.users = append(m.users, *user)
	return nil
}

func (m *MockUserRepository) Update(user *models.User) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.users {
		if m.users[i].ID == user.ID {
			m.users[i] = *user
			return nil
		}
	}
	return fmt.Errorf("user not found")
}

func (m *MockUserRepository) Delete(id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user not found")
}

// MockTransactionManager implements repository.TransactionManager by calling
// the function with the same mock repositories, no real transaction.
type MockTransactionManager struct {
	repos *repository.Repositories
	err   error
	calls int
}

func (m *MockTransactionManager) WithTransaction(fn func(repos *repository.Repositories) error) error {
	if m.err != nil {
		return m.err
	}
	m.calls++
	return fn(m.repos)
}

// mockRepos bundles one mock of every repository so tests can seed and
// inspect them directly.
type mockRepos struct {
	broker  *MockBrokerRepository
	carrier *MockCarrierRepository
	invoice *MockInvoiceRepository
	load    *MockLoadRepository
	weather *MockWeatherRepository
	profile *MockProfileRepository
	rec     *MockRecommendationRepository
	user    *MockUserRepository
	tx      *MockTransactionManager
	repos   *repository.Repositories
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		broker:  &MockBrokerRepository{},
		carrier: &MockCarrierRepository{},
		invoice: &MockInvoiceRepository{},
		load:    &MockLoadRepository{},
		weather: &MockWeatherRepository{},
		profile: &MockProfileRepository{},
		rec:     &MockRecommendationRepository{},
		user:    &MockUserRepository{},
		tx:      &MockTransactionManager{},
	}
	m.repos = &repository.Repositories{
		Broker:         m.broker,
		Carrier:        m.carrier,
		Invoice:        m.invoice,
		Load:           m.load,
		Weather:        m.weather,
		Profile:        m.profile,
		Recommendation: m.rec,
		User:           m.user,
		Tx:             m.tx,
	}
	m.tx.repos = m.repos
	return m
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret-key-for-services",
		RefreshIntervalMinutes: 5,
		GeoCellPrecision:       4,
		RecommendationBatch:    100,
	}
}
