package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"smartPromo/business/features"
	"smartPromo/business/treatment"
	"smartPromo/domain"
	"smartPromo/pkg/config"
	"smartPromo/pkg/logger"
)

// Engine applies the deterministic business rules that turn a winning
// treatment into a concrete discount fraction and promotion window.
type Engine struct {
	rules config.Rules
	cal   features.Calendar
}

func NewEngine(rules config.Rules, cal features.Calendar) *Engine {
	return &Engine{rules: rules, cal: cal}
}

// RoundTo5Pct rounds a discount fraction to the nearest 5%, flooring at 5%
// before rounding so the result never drops below 0.05. Rounding is
// math.Round (half away from zero).
func RoundTo5Pct(x float64) float64 {
	if x < 0.05 {
		x = 0.05
	}
	return math.Round(x*100/5) * 5 / 100
}

// Magnitude is the discount decision table. First match wins:
// BOGO fixed 50%, baseline 0%, expiry/event priced against the competitor
// when one is known, otherwise shelf-life tiers.
func (e *Engine) Magnitude(s Strategy, sellPrice float64, competitorPrice *float64, shelfDays int) float64 {
	hasCompetitor := competitorPrice != nil && *competitorPrice > 0 && sellPrice > 0

	switch s.Kind {
	case KindBOGO:
		return 0.50
	case KindNone:
		return 0.0
	case KindExpiry:
		if hasCompetitor {
			return RoundTo5Pct(math.Max(0.05, 1-0.95**competitorPrice/sellPrice))
		}
		return 0.25
	case KindEvent:
		if hasCompetitor {
			return RoundTo5Pct(math.Max(0.05, 1-0.98**competitorPrice/sellPrice))
		}
		return 0.15
	default:
		switch {
		case shelfDays <= 7:
			return 0.15
		case shelfDays <= 30:
			return 0.10
		default:
			return 0.05
		}
	}
}

// AnalyzeEventCategories finds, per major calendar event, the categories
// whose average daily transaction count during the event exceeds their
// average during normal periods by the lift threshold. Purely data-driven:
// no category list is hardcoded here.
func (e *Engine) AnalyzeEventCategories(
	transactions []domain.Transaction,
	products []domain.Product,
) map[string][]string {
	categoryByProduct := make(map[string]string, len(products))
	for _, p := range products {
		categoryByProduct[p.ProductID] = p.ProductCategory
	}

	// Daily transaction counts per (event tag, category, day). Days without
	// sales for a category do not contribute to its average.
	type bucket struct {
		total float64
		days  map[string]float64
	}
	perEventCategory := map[string]map[string]*bucket{}

	for _, trx := range transactions {
		cat, ok := categoryByProduct[trx.ProductID]
		if !ok {
			continue
		}

		tag := e.cal.EventFor(trx.Date)
		day := trx.Date.Format("2006-01-02")

		cats, ok := perEventCategory[tag]
		if !ok {
			cats = map[string]*bucket{}
			perEventCategory[tag] = cats
		}
		b, ok := cats[cat]
		if !ok {
			b = &bucket{days: map[string]float64{}}
			cats[cat] = b
		}
		b.total++
		b.days[day]++
	}

	avgFor := func(tags []string) map[string]float64 {
		totals := map[string]float64{}
		dayCounts := map[string]int{}
		for _, tag := range tags {
			for cat, b := range perEventCategory[tag] {
				totals[cat] += b.total
				dayCounts[cat] += len(b.days)
			}
		}

		out := map[string]float64{}
		for cat, total := range totals {
			out[cat] = total / float64(dayCounts[cat])
		}
		return out
	}

	normalAvg := avgFor([]string{features.EventOrdinaryDay, features.EventWeekendPromo})

	result := map[string][]string{}
	for _, event := range e.rules.CalendarEventNames() {
		eventAvg := avgFor([]string{event})
		if len(eventAvg) == 0 {
			continue
		}

		qualified := []string{}
		for cat, avg := range eventAvg {
			normal := normalAvg[cat]
			if normal > 0 && avg > normal*e.rules.EventLiftThreshold {
				qualified = append(qualified, cat)
			}
		}
		sort.Strings(qualified)
		result[event] = qualified
	}

	return result
}

// Finalize runs the full business-rule stage: join product reference data,
// qualify event placeholders against upcoming events, resolve leftover
// placeholders through the fallback chain, attach discount magnitudes and
// promotion windows, and emit the persisted output rows sorted by uplift.
func (e *Engine) Finalize(
	recs []treatment.ProductRecommendation,
	products []domain.Product,
	transactions []domain.Transaction,
	now time.Time,
) ([]domain.Recommendation, error) {
	productsByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ProductID] = p
	}

	upcoming := e.cal.Upcoming(now, e.rules.EventLookaheadDays)
	upcomingOrder := make([]string, 0, len(upcoming))
	for name := range upcoming {
		upcomingOrder = append(upcomingOrder, name)
	}
	sort.Slice(upcomingOrder, func(i, j int) bool {
		return upcoming[upcomingOrder[i]].Start.Before(upcoming[upcomingOrder[j]].Start)
	})

	eventCategories := e.AnalyzeEventCategories(transactions, products)

	bogoEligible := make(map[string]struct{}, len(e.rules.BOGOCategories))
	for _, cat := range e.rules.BOGOCategories {
		bogoEligible[cat] = struct{}{}
	}

	fallbackCount := 0
	out := make([]domain.Recommendation, 0, len(recs))

	for _, rec := range recs {
		strategy, err := StrategyFromLabel(rec.Strategy)
		if err != nil {
			return nil, fmt.Errorf("finalize recommendations: %w", err)
		}

		product := productsByID[rec.ProductID]
		daysToExpiry := e.daysToExpiry(product, now)

		// Qualify the generic event placeholder with the first upcoming
		// event the product's category lifted for.
		if strategy.Kind == KindEvent {
			for _, event := range upcomingOrder {
				if containsString(eventCategories[event], rec.Category) {
					strategy.Event = event
					break
				}
			}
		}

		// Any placeholder left unresolved must land on something actionable:
		// near expiry first, BOGO-eligible categories second, shelf-life
		// discount last.
		if strategy.Kind == KindEvent && strategy.Event == "" {
			fallbackCount++
			switch {
			case daysToExpiry <= float64(e.rules.ExpiryFallbackDays):
				strategy = Strategy{Kind: KindExpiry}
			case containsKey(bogoEligible, rec.Category):
				strategy = Strategy{Kind: KindBOGO}
			default:
				strategy = Strategy{Kind: KindGeneric}
			}
		}

		shelfDays := product.MinShelfDays
		if shelfDays == 0 {
			shelfDays = 30
		}

		discount := e.Magnitude(strategy, product.SellPrice, product.CompetitorPrice, shelfDays)
		start, end := e.PromotionWindow(strategy, now, upcoming)

		out = append(out, domain.Recommendation{
			ProductID:        rec.ProductID,
			SKUCode:          product.SKUCode,
			ProductName:      rec.ProductName,
			ProductCategory:  rec.Category,
			StrategyDetail:   strategy.Label(),
			DiscountFraction: discount,
			StartDate:        start,
			EndDate:          end,
			AvgUpliftProfit:  rec.AvgUplift,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgUpliftProfit == out[j].AvgUpliftProfit {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].AvgUpliftProfit > out[j].AvgUpliftProfit
	})

	if fallbackCount > 0 {
		logger.Info("applied fallback logic", "products", fallbackCount)
	}

	return out, nil
}

// Summarize builds the aggregate object served next to the ranked list.
func Summarize(recs []domain.Recommendation) domain.RecommendationSummary {
	summary := domain.RecommendationSummary{
		TotalProducts:        len(recs),
		StrategyDistribution: map[string]int{},
		CategoryDistribution: map[string]int{},
	}

	for _, rec := range recs {
		summary.StrategyDistribution[rec.StrategyDetail]++
		summary.CategoryDistribution[rec.ProductCategory]++
		summary.AverageDiscount += rec.DiscountFraction
		summary.TotalUplift += rec.AvgUpliftProfit
	}

	if len(recs) > 0 {
		summary.AverageDiscount /= float64(len(recs))
		summary.AverageUplift = summary.TotalUplift / float64(len(recs))
	}

	return summary
}

func (e *Engine) daysToExpiry(p domain.Product, now time.Time) float64 {
	switch {
	case p.ExpireDate != nil:
		return math.Floor(p.ExpireDate.Sub(now).Hours() / 24)
	case p.MinShelfDays > 0:
		return float64(p.MinShelfDays)
	default:
		return 365
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
