package features

import (
	"math"
	"time"

	"smartPromo/domain"
	"smartPromo/pkg/config"
)

// Sentinel for products with no sale history at all.
const noSaleHistoryDays = 999

// Fallback shelf horizon when a product has neither an expiry date nor a
// minimum shelf-sale-days value.
const defaultDaysToExpiry = 365

// UrgencyRow holds the per-product features feeding the urgency model, plus
// the computed target score and, after inference, the model's prediction.
type UrgencyRow struct {
	Product domain.Product

	TotalSales        float64
	DailyAvgSales     float64
	DaysSinceLastSale float64
	DaysToExpiry      float64
	MarginHeadroom    float64

	RawScore       float64
	Score          float64
	PredictedScore float64
}

// Vector is the fixed urgency feature layout shared by training and
// inference. Changing the order here changes the model contract.
func (r UrgencyRow) Vector() []float64 {
	return []float64{
		r.Product.Margin,
		float64(r.Product.MinShelfDays),
		r.DailyAvgSales,
		r.DaysSinceLastSale,
		r.DaysToExpiry,
		r.MarginHeadroom,
	}
}

// BuildUrgencyRows aggregates sale history per product and derives the
// urgency features. Days-since-last-sale is measured against the newest
// transaction date in the dataset, not the wall clock, so a stale data dump
// does not mark the whole catalog as dormant.
func BuildUrgencyRows(products []domain.Product, transactions []domain.Transaction, today time.Time) []UrgencyRow {
	type saleStats struct {
		total    float64
		lastSale time.Time
		days     map[string]struct{}
	}

	stats := make(map[string]*saleStats, len(products))
	var referenceDate time.Time

	for _, trx := range transactions {
		st, ok := stats[trx.ProductID]
		if !ok {
			st = &saleStats{days: map[string]struct{}{}}
			stats[trx.ProductID] = st
		}

		st.total++
		st.days[trx.Date.Format("2006-01-02")] = struct{}{}
		if trx.Date.After(st.lastSale) {
			st.lastSale = trx.Date
		}
		if trx.Date.After(referenceDate) {
			referenceDate = trx.Date
		}
	}

	rows := make([]UrgencyRow, 0, len(products))
	for _, p := range products {
		row := UrgencyRow{Product: p}

		if st, ok := stats[p.ProductID]; ok {
			row.TotalSales = st.total
			// +1 damps low-volume noise and avoids division by zero.
			row.DailyAvgSales = st.total / float64(len(st.days)+1)
			row.DaysSinceLastSale = math.Floor(referenceDate.Sub(st.lastSale).Hours() / 24)
		} else {
			row.DaysSinceLastSale = noSaleHistoryDays
		}

		switch {
		case p.ExpireDate != nil:
			row.DaysToExpiry = math.Floor(p.ExpireDate.Sub(today).Hours() / 24)
		case p.MinShelfDays > 0:
			row.DaysToExpiry = float64(p.MinShelfDays)
		default:
			row.DaysToExpiry = defaultDaysToExpiry
		}

		row.MarginHeadroom = p.Margin - p.Margin*0.4

		rows = append(rows, row)
	}

	return rows
}

// ApplyUrgencyScore computes the weighted raw score per row and min-max
// normalizes it to [0,100] across the current product set. The normalization
// bounds are recomputed every run: the same product can score differently in
// runs with different catalogs, so scores are only comparable within a run.
func ApplyUrgencyScore(rows []UrgencyRow, weights config.UrgencyWeights) {
	if len(rows) == 0 {
		return
	}

	raw := make([]float64, len(rows))
	for i := range rows {
		expiryComponent := 1.0 / math.Max(rows[i].DaysToExpiry, 1)
		stalenessComponent := rows[i].DaysSinceLastSale
		velocityPenalty := rows[i].DailyAvgSales

		rows[i].RawScore = weights.Expiry*expiryComponent +
			weights.Staleness*stalenessComponent -
			weights.Velocity*velocityPenalty
		raw[i] = rows[i].RawScore
	}

	scaler := MinMaxScaler{Lo: 0, Hi: 100}
	scaler.FitTransform(raw)

	for i := range rows {
		rows[i].Score = raw[i]
	}
}
