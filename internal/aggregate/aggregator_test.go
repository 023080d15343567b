package aggregate

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/geo"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
)

var testBrokerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func paidInvoice(brokerID uuid.UUID, amount float64, daysToPay int) models.Invoice {
	issue := date(2026, time.January, 10)
	paid := issue.AddDate(0, 0, daysToPay)
	return models.Invoice{
		ID:          uuid.New(),
		BrokerID:    brokerID,
		Amount:      amount,
		IssueDate:   issue,
		PaymentDate: &paid,
		Status:      string(models.InvoicePaid),
	}
}

func newAggregator() *Aggregator {
	return NewAggregator(geo.NewGrid(geo.DefaultPrecision))
}

func TestAggregate_PaymentVelocity(t *testing.T) {
	invoices := []models.Invoice{
		paidInvoice(testBrokerID, 1000, 30),
		paidInvoice(testBrokerID, 2000, 50),
		{
			ID:        uuid.New(),
			BrokerID:  testBrokerID,
			Amount:    500,
			IssueDate: date(2026, time.February, 1),
			Status:    string(models.InvoiceOutstanding),
		},
		{
			ID:        uuid.New(),
			BrokerID:  testBrokerID,
			Amount:    750,
			IssueDate: date(2026, time.February, 5),
			Status:    string(models.InvoiceDisputed),
		},
	}

	results := newAggregator().Aggregate(invoices, nil)
	agg, ok := results[testBrokerID]
	if !ok {
		t.Fatal("Expected aggregates for broker")
	}

	if agg.TotalInvoices != 4 {
		t.Errorf("Expected 4 total invoices, got %d", agg.TotalInvoices)
	}
	if agg.TotalAmount != 4250 {
		t.Errorf("Expected total amount 4250, got %f", agg.TotalAmount)
	}
	if agg.AvgInvoiceAmount != 1062.5 {
		t.Errorf("Expected avg invoice amount 1062.5, got %f", agg.AvgInvoiceAmount)
	}
	if agg.AvgDaysToPay != 40 {
		t.Errorf("Expected avg days to pay 40, got %f", agg.AvgDaysToPay)
	}
	if agg.LateInvoices != 1 {
		t.Errorf("Expected 1 late invoice, got %d", agg.LateInvoices)
	}
	if agg.DisputedInvoices != 1 {
		t.Errorf("Expected 1 disputed invoice, got %d", agg.DisputedInvoices)
	}
	// Outstanding covers every row without a payment date, disputed included.
	if agg.OutstandingAmount != 1250 {
		t.Errorf("Expected outstanding amount 1250, got %f", agg.OutstandingAmount)
	}
}

func TestAggregate_LateThresholdIsStrict(t *testing.T) {
	testCases := []struct {
		name         string
		daysToPay    int
		expectedLate int
	}{
		{"Exactly 45 days is on time", 45, 0},
		{"46 days is late", 46, 1},
		{"44 days is on time", 44, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			invoices := []models.Invoice{paidInvoice(testBrokerID, 100, tc.daysToPay)}
			agg := newAggregator().Aggregate(invoices, nil)[testBrokerID]
			if agg.LateInvoices != tc.expectedLate {
				t.Errorf("Expected %d late invoices for %d days, got %d",
					tc.expectedLate, tc.daysToPay, agg.LateInvoices)
			}
		})
	}
}

func TestAggregate_NoPaidInvoices(t *testing.T) {
	invoices := []models.Invoice{
		{
			ID:        uuid.New(),
			BrokerID:  testBrokerID,
			Amount:    500,
			IssueDate: date(2026, time.February, 1),
			Status:    string(models.InvoiceOutstanding),
		},
	}

	agg := newAggregator().Aggregate(invoices, nil)[testBrokerID]
	if agg.AvgDaysToPay != 0 {
		t.Errorf("Expected avg days to pay 0 with no paid invoices, got %f", agg.AvgDaysToPay)
	}
}

func TestAggregate_MalformedInvoicesExcluded(t *testing.T) {
	invoices := []models.Invoice{
		paidInvoice(testBrokerID, 1000, 30),
		{
			// Negative amount
			ID:        uuid.New(),
			BrokerID:  testBrokerID,
			Amount:    -50,
			IssueDate: date(2026, time.January, 1),
			Status:    string(models.InvoiceOutstanding),
		},
		{
			// Missing issue date
			ID:       uuid.New(),
			BrokerID: testBrokerID,
			Amount:   200,
			Status:   string(models.InvoiceOutstanding),
		},
		{
			// Paid before issued
			ID:          uuid.New(),
			BrokerID:    testBrokerID,
			Amount:      300,
			IssueDate:   date(2026, time.March, 10),
			PaymentDate: datePtr(2026, time.March, 1),
			Status:      string(models.InvoicePaid),
		},
	}

	agg := newAggregator().Aggregate(invoices, nil)[testBrokerID]

	if agg.TotalInvoices != 1 {
		t.Errorf("Expected 1 valid invoice, got %d", agg.TotalInvoices)
	}
	if agg.TotalAmount != 1000 {
		t.Errorf("Expected total amount 1000, got %f", agg.TotalAmount)
	}
	if agg.MalformedRows != 3 {
		t.Errorf("Expected 3 malformed rows, got %d", agg.MalformedRows)
	}
}

func TestAggregate_LaneMetrics(t *testing.T) {
	mkInvoice := func(origin, dest string, miles float64) models.Invoice {
		inv := paidInvoice(testBrokerID, 100, 20)
		inv.OriginCity = origin
		inv.DestinationCity = dest
		inv.DistanceMiles = miles
		return inv
	}

	invoices := []models.Invoice{
		mkInvoice("Dallas", "Houston", 240),
		mkInvoice("Dallas", "Houston", 240),
		mkInvoice("Dallas", "Houston", 240),
		mkInvoice("Dallas", "Austin", 195),
		mkInvoice("Houston", "Austin", 165),
	}

	agg := newAggregator().Aggregate(invoices, nil)[testBrokerID]

	if agg.UniqueLanes != 3 {
		t.Errorf("Expected 3 unique lanes, got %d", agg.UniqueLanes)
	}
	if agg.PrimaryOrigin != "Dallas" {
		t.Errorf("Expected primary origin Dallas, got %q", agg.PrimaryOrigin)
	}
	if agg.PrimaryDestination != "Houston" {
		t.Errorf("Expected primary destination Houston, got %q", agg.PrimaryDestination)
	}
	expectedMiles := (240.0 + 240.0 + 240.0 + 195.0 + 165.0) / 5.0
	if agg.AvgHaulMiles != expectedMiles {
		t.Errorf("Expected avg haul miles %f, got %f", expectedMiles, agg.AvgHaulMiles)
	}
}

func TestAggregate_ModalCityTieBreaksLexicographically(t *testing.T) {
	mkInvoice := func(origin string) models.Invoice {
		inv := paidInvoice(testBrokerID, 100, 20)
		inv.OriginCity = origin
		inv.DestinationCity = "El Paso"
		return inv
	}

	// Two invoices each: the tie must resolve to Austin on every run.
	invoices := []models.Invoice{
		mkInvoice("Dallas"),
		mkInvoice("Austin"),
		mkInvoice("Dallas"),
		mkInvoice("Austin"),
	}

	for i := 0; i < 25; i++ {
		agg := newAggregator().Aggregate(invoices, nil)[testBrokerID]
		if agg.PrimaryOrigin != "Austin" {
			t.Fatalf("Run %d: expected tie to break to Austin, got %q", i, agg.PrimaryOrigin)
		}
	}
}

func TestAggregate_GeospatialDiversity(t *testing.T) {
	mkPosting := func(lat, lon float64, destState string) models.LoadPosting {
		return models.LoadPosting{
			ID:               uuid.New(),
			BrokerID:         testBrokerID,
			OriginLatitude:   lat,
			OriginLongitude:  lon,
			DestinationState: destState,
			Status:           string(models.LoadOpen),
		}
	}

	postings := []models.LoadPosting{
		mkPosting(32.7767, -96.7970, "TX"), // Dallas
		mkPosting(32.7844, -96.7785, "TX"), // Dallas again, same cell
		mkPosting(29.7604, -95.3698, "TX"), // Houston
		mkPosting(29.7604, -95.3698, "OK"), // Houston -> OK, new cell lane
		mkPosting(91.0, 0.0, "TX"),         // invalid coordinates
	}

	agg := newAggregator().Aggregate(nil, postings)[testBrokerID]

	if agg.OriginCellDiversity != 2 {
		t.Errorf("Expected 2 distinct origin cells, got %d", agg.OriginCellDiversity)
	}
	if agg.LaneDensity != 3 {
		t.Errorf("Expected 3 distinct cell lanes, got %d", agg.LaneDensity)
	}
	if agg.MalformedRows != 1 {
		t.Errorf("Expected 1 malformed posting, got %d", agg.MalformedRows)
	}
}

func TestAggregate_MultipleBrokers(t *testing.T) {
	otherID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	invoices := []models.Invoice{
		paidInvoice(testBrokerID, 1000, 30),
		paidInvoice(otherID, 400, 10),
		paidInvoice(otherID, 600, 20),
	}

	results := newAggregator().Aggregate(invoices, nil)

	if len(results) != 2 {
		t.Fatalf("Expected aggregates for 2 brokers, got %d", len(results))
	}
	if results[testBrokerID].TotalInvoices != 1 {
		t.Errorf("Expected 1 invoice for first broker, got %d", results[testBrokerID].TotalInvoices)
	}
	if results[otherID].TotalInvoices != 2 {
		t.Errorf("Expected 2 invoices for second broker, got %d", results[otherID].TotalInvoices)
	}
	if results[otherID].AvgDaysToPay != 15 {
		t.Errorf("Expected avg days 15 for second broker, got %f", results[otherID].AvgDaysToPay)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	invoices := []models.Invoice{
		paidInvoice(testBrokerID, 1000.33, 30),
		paidInvoice(testBrokerID, 2000.77, 50),
		paidInvoice(testBrokerID, 123.45, 12),
	}
	postings := []models.LoadPosting{
		{ID: uuid.New(), BrokerID: testBrokerID, OriginLatitude: 32.7767, OriginLongitude: -96.7970, DestinationState: "TX"},
	}

	first := newAggregator().Aggregate(invoices, postings)[testBrokerID]
	for i := 0; i < 10; i++ {
		again := newAggregator().Aggregate(invoices, postings)[testBrokerID]
		if *again != *first {
			t.Fatalf("Run %d: aggregates differ: %+v vs %+v", i, again, first)
		}
	}
}

func BenchmarkAggregate(b *testing.B) {
	invoices := make([]models.Invoice, 0, 1000)
	for i := 0; i < 1000; i++ {
		invoices = append(invoices, paidInvoice(testBrokerID, float64(100+i), 20+i%50))
	}

	agg := newAggregator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Aggregate(invoices, nil)
	}
}
