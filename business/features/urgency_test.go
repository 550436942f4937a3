package features

import (
	"math"
	"testing"
	"time"

	"smartPromo/domain"
	"smartPromo/pkg/config"
)

func expireAt(d time.Time) *time.Time { return &d }

func TestBuildUrgencyRowsAggregatesSaleHistory(t *testing.T) {
	today := day(t, "2025-06-01")
	products := []domain.Product{
		{ProductID: "P1", Margin: 10, MinShelfDays: 20},
		{ProductID: "P2", Margin: 5},
		{ProductID: "P3", Margin: 8, ExpireDate: expireAt(day(t, "2025-06-11"))},
	}
	transactions := []domain.Transaction{
		{ProductID: "P1", Date: day(t, "2025-05-01")},
		{ProductID: "P1", Date: day(t, "2025-05-01")},
		{ProductID: "P1", Date: day(t, "2025-05-05")},
		{ProductID: "P3", Date: day(t, "2025-05-10")}, // newest sale, reference date
	}

	rows := BuildUrgencyRows(products, transactions, today)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	byID := map[string]UrgencyRow{}
	for _, r := range rows {
		byID[r.Product.ProductID] = r
	}

	p1 := byID["P1"]
	if p1.TotalSales != 3 {
		t.Errorf("P1 total sales = %v, want 3", p1.TotalSales)
	}
	// 3 sales over 2 distinct days, damped by +1.
	if math.Abs(p1.DailyAvgSales-1.0) > 1e-12 {
		t.Errorf("P1 daily avg = %v, want 1", p1.DailyAvgSales)
	}
	// Measured against the newest transaction date (2025-05-10), not today.
	if p1.DaysSinceLastSale != 5 {
		t.Errorf("P1 days since last sale = %v, want 5", p1.DaysSinceLastSale)
	}
	// No expiry date: min shelf days stands in.
	if p1.DaysToExpiry != 20 {
		t.Errorf("P1 days to expiry = %v, want 20", p1.DaysToExpiry)
	}

	p2 := byID["P2"]
	if p2.DaysSinceLastSale != 999 {
		t.Errorf("P2 days since last sale = %v, want sentinel 999", p2.DaysSinceLastSale)
	}
	if p2.DaysToExpiry != 365 {
		t.Errorf("P2 days to expiry = %v, want fallback 365", p2.DaysToExpiry)
	}

	p3 := byID["P3"]
	if p3.DaysToExpiry != 10 {
		t.Errorf("P3 days to expiry = %v, want 10", p3.DaysToExpiry)
	}
}

func TestApplyUrgencyScoreNormalizesToHundred(t *testing.T) {
	weights := config.UrgencyWeights{Expiry: 0.6, Staleness: 0.3, Velocity: 0.1}

	rows := []UrgencyRow{
		{DaysToExpiry: 2, DaysSinceLastSale: 300, DailyAvgSales: 0.1}, // most urgent
		{DaysToExpiry: 100, DaysSinceLastSale: 50, DailyAvgSales: 2},
		{DaysToExpiry: 365, DaysSinceLastSale: 0, DailyAvgSales: 20}, // least urgent
	}

	ApplyUrgencyScore(rows, weights)

	if rows[0].Score != 100 {
		t.Errorf("most urgent score = %v, want 100", rows[0].Score)
	}
	if rows[2].Score != 0 {
		t.Errorf("least urgent score = %v, want 0", rows[2].Score)
	}
	if rows[1].Score <= 0 || rows[1].Score >= 100 {
		t.Errorf("middle score = %v, want strictly between 0 and 100", rows[1].Score)
	}
}

func TestApplyUrgencyScoreConstantInput(t *testing.T) {
	weights := config.UrgencyWeights{Expiry: 0.6, Staleness: 0.3, Velocity: 0.1}

	rows := []UrgencyRow{
		{DaysToExpiry: 30, DaysSinceLastSale: 10, DailyAvgSales: 1},
		{DaysToExpiry: 30, DaysSinceLastSale: 10, DailyAvgSales: 1},
	}

	ApplyUrgencyScore(rows, weights)

	for i, r := range rows {
		if r.Score != 0 {
			t.Errorf("row %d score = %v, want 0 for constant input", i, r.Score)
		}
	}
}

func TestMinMaxScalerBounds(t *testing.T) {
	values := []float64{-5, 0, 15}
	MinMaxScaler{Lo: 0, Hi: 100}.FitTransform(values)

	if values[0] != 0 || values[2] != 100 {
		t.Errorf("scaled = %v, want endpoints 0 and 100", values)
	}
	if values[1] != 25 {
		t.Errorf("middle = %v, want 25", values[1])
	}
}
