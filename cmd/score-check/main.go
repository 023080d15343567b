package main

import (
	"fmt"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/scoring"
)

type brokerFixture struct {
	name  string
	score scoring.ScoreInput
	risk  scoring.RiskInput
}

func main() {
	fmt.Println("🎯 Loadstar Risk Scoring Check")
	fmt.Println("==============================")

	brokers := []brokerFixture{
		{
			name:  "Lone Star Logistics (established, pays on time)",
			score: scoring.ScoreInput{CreditScore: 720, AvgDaysToPay: 28, WeatherRisk: "LOW"},
			risk:  scoring.RiskInput{CreditScore: 720, AvgDaysToPay: 28},
		},
		{
			name:  "Bluebird Freight (thin credit, slow payer)",
			score: scoring.ScoreInput{CreditScore: 480, AvgDaysToPay: 63, WeatherRisk: "MEDIUM"},
			risk:  scoring.RiskInput{CreditScore: 480, AvgDaysToPay: 63},
		},
		{
			name:  "Crimson Freight (dispute pile-up)",
			score: scoring.ScoreInput{CreditScore: 800, AvgDaysToPay: 12},
			risk:  scoring.RiskInput{CreditScore: 800, AvgDaysToPay: 12, DisputeCount: 6},
		},
		{
			name:  "Shell Game Transport (fraud flagged)",
			score: scoring.ScoreInput{CreditScore: 350, AvgDaysToPay: 75, FraudFlag: true, WeatherRisk: "HIGH"},
			risk:  scoring.RiskInput{CreditScore: 350, AvgDaysToPay: 75, FraudFlag: true},
		},
	}

	for _, b := range brokers {
		printBrokerScore(b)
	}

	fmt.Println("\n🔹 Pairwise Match Check")
	fmt.Println("=======================")

	pair := scoring.MatchInput{
		RiskCategory:   scoring.RiskLow,
		CreditScore:    720,
		CompositeScore: 0,
		AvgDaysToPay:   30,
		RatePerMile:    3.0,
	}
	printPairScore("LOW risk broker, $3.00/mi dry van", pair)

	blocked := scoring.MatchInput{
		RiskCategory:   scoring.RiskHigh,
		CreditScore:    800,
		CompositeScore: 50,
		AvgDaysToPay:   12,
		RatePerMile:    3.5,
	}
	printPairScore("HIGH risk broker (override)", blocked)

	fmt.Println("\n✅ Scoring check complete")
}

func printBrokerScore(b brokerFixture) {
	breakdown := scoring.Breakdown(b.score)
	category := scoring.RiskCategory(b.risk)
	published := scoring.PublishedScore(breakdown.Total, category)

	fmt.Printf("\nBroker: %s\n", b.name)
	fmt.Printf("  Credit:   %d → +%d\n", b.score.CreditScore, breakdown.CreditComponent)
	fmt.Printf("  Payment:  %.0f days → +%d\n", b.score.AvgDaysToPay, breakdown.PaymentComponent)
	fmt.Printf("  Fraud:    %v → +%d\n", b.score.FraudFlag, breakdown.FraudComponent)
	fmt.Printf("  Weather:  %s → +%d\n", weatherLabel(b.score.WeatherRisk), breakdown.ContextComponent)
	fmt.Printf("  Composite: %d | Category: %s | Published: %d\n", breakdown.Total, category, published)
	if published != breakdown.Total {
		fmt.Printf("  ⚠️  Floor applied for %s risk\n", category)
	}
}

func printPairScore(label string, in scoring.MatchInput) {
	result := scoring.ScorePair(in)

	fmt.Printf("\nPair: %s\n", label)
	if result.Breakdown.Overridden {
		fmt.Printf("  ❌ Overridden to %.1f (%s)\n", result.Score, result.Category)
		return
	}
	fmt.Printf("  Credit component:  %.4f\n", result.Breakdown.CreditComponent)
	fmt.Printf("  Risk component:    %.4f\n", result.Breakdown.RiskComponent)
	fmt.Printf("  Rate component:    %.4f\n", result.Breakdown.RateComponent)
	fmt.Printf("  Payment component: %.4f\n", result.Breakdown.PaymentComponent)
	fmt.Printf("  ✅ Score: %.4f (%s) at %s\n", result.Score, result.Category, result.ScoredAt.Format(time.RFC3339))
}

func weatherLabel(risk string) string {
	if risk == "" {
		return "NONE"
	}
	return risk
}
