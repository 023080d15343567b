// Package aggregate computes per-broker rollups from the invoice ledger and
// the load posting feed. Everything here is pure in-memory computation: the
// materializer loads the source rows, this package folds them into one
// BrokerAggregates per broker id.
package aggregate

import (
	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/geo"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
)

// LatePaymentDays is the threshold beyond which a paid invoice counts as
// late. Strictly greater than: an invoice paid in exactly 45 days is on time.
const LatePaymentDays = 45.0

// BrokerAggregates holds the computed rollups for one broker id
type BrokerAggregates struct {
	BrokerID uuid.UUID

	// Payment velocity
	TotalInvoices     int
	TotalAmount       float64
	AvgInvoiceAmount  float64
	AvgDaysToPay      float64
	LateInvoices      int
	DisputedInvoices  int
	OutstandingAmount float64

	// Lanes
	UniqueLanes        int
	PrimaryOrigin      string
	PrimaryDestination string
	AvgHaulMiles       float64

	// Geospatial
	OriginCellDiversity int
	LaneDensity         int

	// MalformedRows counts source rows that were excluded: invoices with
	// garbage amounts or dates, postings with unusable coordinates.
	MalformedRows int
}

// Aggregator folds source rows into per-broker aggregates using one fixed
// geospatial grid.
type Aggregator struct {
	grid *geo.Grid
}

// NewAggregator creates an aggregator over the given grid
func NewAggregator(grid *geo.Grid) *Aggregator {
	return &Aggregator{grid: grid}
}

// accumulator carries the intermediate per-broker state while folding
type accumulator struct {
	agg          *BrokerAggregates
	daysSum      float64
	daysCount    int
	lanes        map[[2]string]struct{}
	originCounts map[string]int
	destCounts   map[string]int
	milesSum     float64
	milesCount   int
	originCells  map[string]struct{}
	cellLanes    map[[2]string]struct{}
}

// Aggregate computes rollups for every broker id that appears in the input
// rows. Input order does not affect the result: counts and sums fold over
// the slices as given (repositories return them in id order) and modal-city
// ties break to the lexicographically smallest name, so identical inputs
// always produce identical aggregates.
func (a *Aggregator) Aggregate(invoices []models.Invoice, postings []models.LoadPosting) map[uuid.UUID]*BrokerAggregates {
	accs := make(map[uuid.UUID]*accumulator)

	for i := range invoices {
		inv := &invoices[i]
		acc := a.accFor(accs, inv.BrokerID)

		if !validInvoice(inv) {
			acc.agg.MalformedRows++
			continue
		}

		acc.agg.TotalInvoices++
		acc.agg.TotalAmount += inv.Amount

		if inv.Status == string(models.InvoiceDisputed) {
			acc.agg.DisputedInvoices++
		}

		// Rows with a recorded payment date feed the velocity stats;
		// rows without one are outstanding regardless of status.
		if days, hasPayment := inv.DaysToPay(); hasPayment {
			acc.daysSum += days
			acc.daysCount++
			if days > LatePaymentDays {
				acc.agg.LateInvoices++
			}
		} else {
			acc.agg.OutstandingAmount += inv.Amount
		}

		if inv.OriginCity != "" && inv.DestinationCity != "" {
			acc.lanes[[2]string{inv.OriginCity, inv.DestinationCity}] = struct{}{}
		}
		if inv.OriginCity != "" {
			acc.originCounts[inv.OriginCity]++
		}
		if inv.DestinationCity != "" {
			acc.destCounts[inv.DestinationCity]++
		}
		if inv.DistanceMiles > 0 {
			acc.milesSum += inv.DistanceMiles
			acc.milesCount++
		}
	}

	for i := range postings {
		p := &postings[i]
		acc := a.accFor(accs, p.BrokerID)

		cell := a.grid.Cell(p.OriginLatitude, p.OriginLongitude)
		if cell == "" {
			acc.agg.MalformedRows++
			continue
		}
		acc.originCells[cell] = struct{}{}
		if p.DestinationState != "" {
			acc.cellLanes[[2]string{cell, p.DestinationState}] = struct{}{}
		}
	}

	results := make(map[uuid.UUID]*BrokerAggregates, len(accs))
	for id, acc := range accs {
		agg := acc.agg
		if agg.TotalInvoices > 0 {
			agg.AvgInvoiceAmount = agg.TotalAmount / float64(agg.TotalInvoices)
		}
		if acc.daysCount > 0 {
			agg.AvgDaysToPay = acc.daysSum / float64(acc.daysCount)
		}
		if acc.milesCount > 0 {
			agg.AvgHaulMiles = acc.milesSum / float64(acc.milesCount)
		}
		agg.UniqueLanes = len(acc.lanes)
		agg.PrimaryOrigin = modalCity(acc.originCounts)
		agg.PrimaryDestination = modalCity(acc.destCounts)
		agg.OriginCellDiversity = len(acc.originCells)
		agg.LaneDensity = len(acc.cellLanes)
		results[id] = agg
	}
	return results
}

func (a *Aggregator) accFor(accs map[uuid.UUID]*accumulator, id uuid.UUID) *accumulator {
	acc, ok := accs[id]
	if !ok {
		acc = &accumulator{
			agg:          &BrokerAggregates{BrokerID: id},
			lanes:        make(map[[2]string]struct{}),
			originCounts: make(map[string]int),
			destCounts:   make(map[string]int),
			originCells:  make(map[string]struct{}),
			cellLanes:    make(map[[2]string]struct{}),
		}
		accs[id] = acc
	}
	return acc
}

// validInvoice rejects ledger rows whose values would corrupt the
// aggregates: negative amounts, a missing issue date, or a payment date
// before the issue date.
func validInvoice(inv *models.Invoice) bool {
	if inv.Amount < 0 {
		return false
	}
	if inv.IssueDate.IsZero() {
		return false
	}
	if inv.PaymentDate != nil && inv.PaymentDate.Before(inv.IssueDate) {
		return false
	}
	return true
}

// modalCity returns the most frequent city; ties break to the
// lexicographically smallest name so repeated runs over the same rows pick
// the same city.
func modalCity(counts map[string]int) string {
	best := ""
	bestCount := 0
	for city, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || city < best)) {
			best = city
			bestCount = count
		}
	}
	return best
}
