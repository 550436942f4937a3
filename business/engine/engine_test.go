package engine

import (
	"math"
	"testing"
	"time"

	"smartPromo/business/features"
	"smartPromo/business/treatment"
	"smartPromo/domain"
	"smartPromo/pkg/config"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func newTestEngine() *Engine {
	rules := config.DefaultRules()
	return NewEngine(rules, features.NewCalendar(rules.EventsCalendar))
}

func fptr(v float64) *float64 { return &v }

func TestRoundTo5Pct(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.145, 0.15},
		{0.12, 0.10},
		{0.13, 0.15},
		{0.01, 0.05}, // floored before rounding
		{0.0, 0.05},
		{0.50, 0.50},
	}

	for _, tc := range cases {
		if got := RoundTo5Pct(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("RoundTo5Pct(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	// Idempotent over the 5% grid.
	for pct := 5; pct <= 95; pct += 5 {
		v := float64(pct) / 100
		if got := RoundTo5Pct(v); math.Abs(got-v) > 1e-12 {
			t.Errorf("RoundTo5Pct(%v) = %v, not idempotent", v, got)
		}
	}
}

func TestMagnitudeDecisionTable(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name       string
		strategy   Strategy
		sellPrice  float64
		competitor *float64
		shelfDays  int
		want       float64
	}{
		{"bogo fixed", Strategy{Kind: KindBOGO}, 100, fptr(80), 10, 0.50},
		{"baseline zero", Strategy{Kind: KindNone}, 100, fptr(80), 10, 0.0},
		{"expiry vs competitor", Strategy{Kind: KindExpiry}, 100, fptr(80), 10, 0.25}, // 1-0.95*0.8=0.24 -> 0.25
		{"expiry no competitor", Strategy{Kind: KindExpiry}, 100, nil, 10, 0.25},
		{"event vs competitor", Strategy{Kind: KindEvent, Event: "Ramadan"}, 100, fptr(80), 10, 0.20}, // 1-0.98*0.8=0.216 -> 0.20
		{"event no competitor", Strategy{Kind: KindEvent, Event: "Ramadan"}, 100, nil, 10, 0.15},
		{"generic short shelf", Strategy{Kind: KindGeneric}, 100, nil, 5, 0.15},
		{"generic medium shelf", Strategy{Kind: KindGeneric}, 100, nil, 20, 0.10},
		{"generic long shelf", Strategy{Kind: KindGeneric}, 100, nil, 90, 0.05},
		{"competitor above own price floors at 5%", Strategy{Kind: KindExpiry}, 100, fptr(150), 10, 0.05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Magnitude(tc.strategy, tc.sellPrice, tc.competitor, tc.shelfDays)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Magnitude = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPromotionWindowAnchorsOnFridays(t *testing.T) {
	e := newTestEngine()

	// ref+30d lands in August 2025, whose 1st is itself a Friday: the window
	// must skip it and anchor on the 8th.
	ref := day(t, "2025-07-05")

	start, end := e.PromotionWindow(Strategy{Kind: KindExpiry}, ref, nil)
	if !start.Equal(day(t, "2025-08-08")) || !end.Equal(day(t, "2025-08-10")) {
		t.Errorf("expiry window = %v..%v, want 2025-08-08..2025-08-10", start, end)
	}

	start, end = e.PromotionWindow(Strategy{Kind: KindBOGO}, ref, nil)
	if !start.Equal(day(t, "2025-08-15")) || !end.Equal(day(t, "2025-08-17")) {
		t.Errorf("bogo window = %v..%v, want 2025-08-15..2025-08-17", start, end)
	}

	start, end = e.PromotionWindow(Strategy{Kind: KindGeneric}, ref, nil)
	if !start.Equal(day(t, "2025-08-22")) || !end.Equal(day(t, "2025-08-24")) {
		t.Errorf("generic window = %v..%v, want 2025-08-22..2025-08-24", start, end)
	}
}

func TestPromotionWindowRamadanSpecialCase(t *testing.T) {
	e := newTestEngine()

	upcoming := map[string]config.EventWindow{
		"Ramadan": {Start: day(t, "2025-02-28"), End: day(t, "2025-03-29")},
	}

	start, end := e.PromotionWindow(
		Strategy{Kind: KindEvent, Event: "Ramadan"},
		day(t, "2025-01-10"),
		upcoming,
	)

	if !start.Equal(day(t, "2025-02-21")) {
		t.Errorf("start = %v, want one week before Ramadan (2025-02-21)", start)
	}
	if !end.Equal(day(t, "2025-03-06")) {
		t.Errorf("end = %v, want two-week window end (2025-03-06)", end)
	}
}

func TestStrategyLabelRoundTrip(t *testing.T) {
	for _, label := range []string{LabelNone, LabelGeneric, LabelBOGO, LabelExpiry, LabelEvent} {
		s, err := StrategyFromLabel(label)
		if err != nil {
			t.Fatalf("StrategyFromLabel(%q): %v", label, err)
		}
		if s.Label() != label {
			t.Errorf("round trip %q -> %q", label, s.Label())
		}
	}

	if _, err := StrategyFromLabel("Diskon Misterius"); err == nil {
		t.Error("unknown label should be rejected")
	}

	qualified := Strategy{Kind: KindEvent, Event: "Ramadan"}
	if got := qualified.Label(); got != "Event Based (Ramadan)" {
		t.Errorf("qualified label = %q", got)
	}
}

func TestFinalizeFallbackChain(t *testing.T) {
	e := newTestEngine()

	// No transactions: no category lifts for any event. Chosen date is after
	// every calendar window, so nothing is upcoming and every event
	// placeholder must fall through the chain.
	now := day(t, "2026-06-01")

	products := []domain.Product{
		{ProductID: "P1", SKUCode: "SKU1", ProductName: "Yogurt Cup", ProductCategory: "Yogurt",
			SellPrice: 5000, ExpireDate: fexpire(day(t, "2026-06-20"))},
		{ProductID: "P2", SKUCode: "SKU2", ProductName: "Soda Botol", ProductCategory: "Soda",
			SellPrice: 6000, MinShelfDays: 180},
		{ProductID: "P3", SKUCode: "SKU3", ProductName: "Sabun Mandi", ProductCategory: "Sabun",
			SellPrice: 4000, MinShelfDays: 360},
	}

	recs := []treatment.ProductRecommendation{
		{ProductID: "P1", ProductName: "Yogurt Cup", Category: "Yogurt", Strategy: LabelEvent, AvgUplift: 3},
		{ProductID: "P2", ProductName: "Soda Botol", Category: "Soda", Strategy: LabelEvent, AvgUplift: 2},
		{ProductID: "P3", ProductName: "Sabun Mandi", Category: "Sabun", Strategy: LabelEvent, AvgUplift: 1},
	}

	out, err := e.Finalize(recs, products, nil, now)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d rows, want 3", len(out))
	}

	byID := map[string]domain.Recommendation{}
	for _, r := range out {
		byID[r.ProductID] = r
	}

	// Near expiry wins first.
	if byID["P1"].StrategyDetail != LabelExpiry {
		t.Errorf("P1 strategy = %q, want expiry fallback", byID["P1"].StrategyDetail)
	}
	// BOGO-eligible category next.
	if byID["P2"].StrategyDetail != LabelBOGO {
		t.Errorf("P2 strategy = %q, want BOGO fallback", byID["P2"].StrategyDetail)
	}
	if byID["P2"].DiscountFraction != 0.50 {
		t.Errorf("P2 discount = %v, want 0.50", byID["P2"].DiscountFraction)
	}
	// Everything else lands on the generic shelf-life discount.
	if byID["P3"].StrategyDetail != LabelGeneric {
		t.Errorf("P3 strategy = %q, want generic fallback", byID["P3"].StrategyDetail)
	}
	if byID["P3"].DiscountFraction != 0.05 {
		t.Errorf("P3 discount = %v, want 0.05 for long shelf life", byID["P3"].DiscountFraction)
	}

	// Output sorted by uplift descending.
	if out[0].ProductID != "P1" || out[2].ProductID != "P3" {
		t.Errorf("order = [%s %s %s], want uplift-descending", out[0].ProductID, out[1].ProductID, out[2].ProductID)
	}
}

func fexpire(d time.Time) *time.Time { return &d }

func TestAnalyzeEventCategoriesLift(t *testing.T) {
	e := newTestEngine()

	products := []domain.Product{
		{ProductID: "P1", ProductCategory: "Sirup"},
		{ProductID: "P2", ProductCategory: "Sabun"},
	}

	// Sirup sells 6x/day during Ramadan 2025 vs 2x/day on ordinary days:
	// lift 3.0 > 1.2. Sabun sells evenly: no lift.
	transactions := []domain.Transaction{}
	addSales := func(productID, date string, n int) {
		for i := 0; i < n; i++ {
			transactions = append(transactions, domain.Transaction{
				ProductID: productID, StoreID: "S1", Date: day(t, date),
			})
		}
	}
	addSales("P1", "2025-03-03", 6) // inside Ramadan_2025
	addSales("P1", "2025-04-07", 2) // ordinary Monday
	addSales("P2", "2025-03-03", 2)
	addSales("P2", "2025-04-07", 2)

	got := e.AnalyzeEventCategories(transactions, products)

	ramadan := got["Ramadan"]
	if len(ramadan) != 1 || ramadan[0] != "Sirup" {
		t.Errorf("Ramadan categories = %v, want [Sirup]", ramadan)
	}
}

func TestSummarize(t *testing.T) {
	recs := []domain.Recommendation{
		{ProductCategory: "Soda", StrategyDetail: LabelBOGO, DiscountFraction: 0.50, AvgUpliftProfit: 4},
		{ProductCategory: "Soda", StrategyDetail: LabelGeneric, DiscountFraction: 0.10, AvgUpliftProfit: 2},
		{ProductCategory: "Teh", StrategyDetail: LabelBOGO, DiscountFraction: 0.50, AvgUpliftProfit: 0},
	}

	got := Summarize(recs)

	if got.TotalProducts != 3 {
		t.Errorf("total = %d, want 3", got.TotalProducts)
	}
	if got.StrategyDistribution[LabelBOGO] != 2 || got.StrategyDistribution[LabelGeneric] != 1 {
		t.Errorf("strategy distribution = %v", got.StrategyDistribution)
	}
	if got.CategoryDistribution["Soda"] != 2 {
		t.Errorf("category distribution = %v", got.CategoryDistribution)
	}
	if math.Abs(got.AverageDiscount-1.10/3) > 1e-12 {
		t.Errorf("average discount = %v", got.AverageDiscount)
	}
	if got.TotalUplift != 6 || math.Abs(got.AverageUplift-2) > 1e-12 {
		t.Errorf("uplift totals = (%v, %v), want (6, 2)", got.TotalUplift, got.AverageUplift)
	}

	empty := Summarize(nil)
	if empty.TotalProducts != 0 || empty.AverageDiscount != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
