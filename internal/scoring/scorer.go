// Package scoring holds the pure risk and match formulas. Nothing in here
// touches a database or a clock: the materializer and the recommendation
// engine feed it plain values and publish whatever comes back, which keeps
// batch scoring and the on-demand endpoint provably consistent.
package scoring

import (
	"math"
	"time"
)

// Composite score component weights. The composite is the sum of the four
// buckets capped at CompositeScoreMax: the worst possible broker triggers
// 40+25+30+10 = 105 and publishes 100.
const (
	CreditSevereWeight   = 40
	CreditWeakWeight     = 25
	CreditMarginalWeight = 10

	PaymentSlowWeight = 25
	PaymentLateWeight = 15

	FraudWeight = 30

	ContextHighWeight   = 10
	ContextMediumWeight = 5

	CompositeScoreMax = 100
)

// Credit score bucket boundaries
const (
	CreditSevereBelow   = 400
	CreditWeakBelow     = 550
	CreditMarginalBelow = 700
)

// Payment velocity thresholds in days. Both comparisons are strictly
// greater than: 45.0 and 60.0 exactly take the lower bucket.
const (
	PaymentLateDays = 45.0
	PaymentSlowDays = 60.0
)

// RiskScoreFloor is the minimum composite score published for profiles
// whose risk category is HIGH or CRITICAL. Dispute-driven HIGH categories
// would otherwise publish benign-looking composites.
const RiskScoreFloor = 50

// Risk category thresholds
const (
	DisputeCountHigh    = 5
	DisputedInvoicesHigh = 3
	CreditMediumBelow   = 500
)

// Risk categories, most severe first
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
)

// Context feed risk levels recognized by the context component
const (
	ContextHigh   = "HIGH"
	ContextMedium = "MEDIUM"
)

// ScoreInput carries the four inputs of the composite score
type ScoreInput struct {
	CreditScore  int
	AvgDaysToPay float64
	FraudFlag    bool
	WeatherRisk  string
}

// ScoreBreakdown itemizes the composite score per component
type ScoreBreakdown struct {
	CreditComponent  int `json:"credit_component"`
	PaymentComponent int `json:"payment_component"`
	FraudComponent   int `json:"fraud_component"`
	ContextComponent int `json:"context_component"`
	Total            int `json:"total"`
}

// CompositeScore computes the additive 0..100 risk score. It is a pure
// function of exactly the four ScoreInput fields; identical inputs always
// produce identical scores.
func CompositeScore(in ScoreInput) int {
	return Breakdown(in).Total
}

// Breakdown computes the composite score with its per-component split
func Breakdown(in ScoreInput) ScoreBreakdown {
	var b ScoreBreakdown

	switch {
	case in.CreditScore < CreditSevereBelow:
		b.CreditComponent = CreditSevereWeight
	case in.CreditScore < CreditWeakBelow:
		b.CreditComponent = CreditWeakWeight
	case in.CreditScore < CreditMarginalBelow:
		b.CreditComponent = CreditMarginalWeight
	}

	switch {
	case in.AvgDaysToPay > PaymentSlowDays:
		b.PaymentComponent = PaymentSlowWeight
	case in.AvgDaysToPay > PaymentLateDays:
		b.PaymentComponent = PaymentLateWeight
	}

	if in.FraudFlag {
		b.FraudComponent = FraudWeight
	}

	switch in.WeatherRisk {
	case ContextHigh:
		b.ContextComponent = ContextHighWeight
	case ContextMedium:
		b.ContextComponent = ContextMediumWeight
	}

	b.Total = b.CreditComponent + b.PaymentComponent + b.FraudComponent + b.ContextComponent
	if b.Total > CompositeScoreMax {
		b.Total = CompositeScoreMax
	}
	return b
}

// RiskInput carries the inputs of the category cascade
type RiskInput struct {
	FraudFlag        bool
	DisputeCount     int
	DisputedInvoices int
	CreditScore      int
	AvgDaysToPay     float64
}

// RiskCategory classifies a broker through the priority cascade. Exactly
// one category comes out; earlier rules always win.
func RiskCategory(in RiskInput) string {
	switch {
	case in.FraudFlag:
		return RiskCritical
	case in.DisputeCount >= DisputeCountHigh || in.DisputedInvoices >= DisputedInvoicesHigh:
		return RiskHigh
	case in.CreditScore < CreditMediumBelow || in.AvgDaysToPay > PaymentSlowDays:
		return RiskMedium
	default:
		return RiskLow
	}
}

// PublishedScore lifts the composite to the risk floor for HIGH and
// CRITICAL categories. The golden record stores this value; the raw
// composite stays available through Breakdown.
func PublishedScore(composite int, riskCategory string) int {
	if (riskCategory == RiskHigh || riskCategory == RiskCritical) && composite < RiskScoreFloor {
		return RiskScoreFloor
	}
	return composite
}

// Match formula weights and normalization caps
const (
	MatchCreditWeight  = 0.30
	MatchRiskWeight    = 0.30
	MatchRateWeight    = 0.20
	MatchPaymentWeight = 0.20

	CreditScoreCap   = 850.0
	RatePerMileCap   = 4.0
	PaymentDaysCap   = 90.0
	matchScoreDigits = 4
)

// Match category thresholds
const (
	MatchStrongMin = 0.8
	MatchGoodMin   = 0.6
	MatchMediumMin = 0.4
)

// Match categories
const (
	MatchStrong  = "STRONG"
	MatchGood    = "GOOD"
	MatchMedium  = "MEDIUM"
	MatchWeak    = "WEAK"
	MatchNoMatch = "NO_MATCH"
)

// MatchInput carries the inputs of the pairwise match formula
type MatchInput struct {
	RiskCategory   string
	CreditScore    int
	CompositeScore int
	AvgDaysToPay   float64
	RatePerMile    float64
}

// MatchBreakdown itemizes the match score per weighted component. For
// overridden pairs all components are zero and Overridden is set.
type MatchBreakdown struct {
	CreditComponent  float64 `json:"credit_component"`
	RiskComponent    float64 `json:"risk_component"`
	RateComponent    float64 `json:"rate_component"`
	PaymentComponent float64 `json:"payment_component"`
	Overridden       bool    `json:"overridden"`
	Score            float64 `json:"score"`
}

// MatchScore computes the pairwise recommendation score in [0, 1], rounded
// half away from zero to four decimals. HIGH and CRITICAL risk categories
// override everything to exactly 0.0.
func MatchScore(in MatchInput) float64 {
	return MatchScoreBreakdown(in).Score
}

// MatchScoreBreakdown computes the match score with its component split
func MatchScoreBreakdown(in MatchInput) MatchBreakdown {
	var b MatchBreakdown

	if in.RiskCategory == RiskHigh || in.RiskCategory == RiskCritical {
		b.Overridden = true
		return b
	}

	credit := math.Min(float64(in.CreditScore), CreditScoreCap) / CreditScoreCap
	b.CreditComponent = credit * MatchCreditWeight

	risk := math.Max(1.0-float64(in.CompositeScore)/100.0, 0)
	b.RiskComponent = risk * MatchRiskWeight

	rate := math.Min(in.RatePerMile/RatePerMileCap, 1.0)
	b.RateComponent = rate * MatchRateWeight

	payment := math.Max(1.0-in.AvgDaysToPay/PaymentDaysCap, 0)
	b.PaymentComponent = payment * MatchPaymentWeight

	score := b.CreditComponent + b.RiskComponent + b.RateComponent + b.PaymentComponent
	b.Score = roundTo(math.Min(score, 1.0), matchScoreDigits)
	return b
}

// MatchCategory maps a match score onto its label
func MatchCategory(score float64) string {
	switch {
	case score >= MatchStrongMin:
		return MatchStrong
	case score >= MatchGoodMin:
		return MatchGood
	case score >= MatchMediumMin:
		return MatchMedium
	case score > 0:
		return MatchWeak
	default:
		return MatchNoMatch
	}
}

// PairScore bundles a scored pair for the batch engine and the on-demand
// endpoint.
type PairScore struct {
	Score     float64        `json:"score"`
	Category  string         `json:"category"`
	Breakdown MatchBreakdown `json:"breakdown"`
	ScoredAt  time.Time      `json:"scored_at"`
}

// ScorePair computes score, category and breakdown in one call
func ScorePair(in MatchInput) PairScore {
	b := MatchScoreBreakdown(in)
	return PairScore{
		Score:     b.Score,
		Category:  MatchCategory(b.Score),
		Breakdown: b,
		ScoredAt:  time.Now().UTC(),
	}
}

// roundTo rounds half away from zero to the given number of decimals
func roundTo(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}
