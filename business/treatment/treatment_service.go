package treatment

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"smartPromo/business/features"
	"smartPromo/domain"
	"smartPromo/pkg/config"
	"smartPromo/pkg/logger"
	"smartPromo/pkg/regression"
)

var (
	// ErrModelNotTrained: inference requested before Train. Programmer error.
	ErrModelNotTrained = errors.New("treatment models not trained")

	// ErrNoTreatmentModels: every treatment fell below the minimum sample
	// count, leaving nothing to compare uplift against. Fatal for the run.
	ErrNoTreatmentModels = errors.New("no treatment had enough samples to train")
)

type Metrics struct {
	Samples int     `json:"samples"`
	MAE     float64 `json:"mae"`
	R2      float64 `json:"r2"`
}

// StoreRecommendation is the uplift decision for one (product, store) pair.
type StoreRecommendation struct {
	ProductID string
	StoreID   string
	Strategy  string
	Uplift    float64
}

// ProductRecommendation aggregates store-level decisions to one row per
// product: modal strategy, mean uplift.
type ProductRecommendation struct {
	ProductID   string
	ProductName string
	Category    string
	Strategy    string
	AvgUplift   float64
}

// Model is a T-Learner: one independent profit regressor per discount
// treatment observed in the data. The treatment set is discovered once at
// training time and pinned; inference only ever consults that mapping.
type Model struct {
	rules    config.Rules
	cal      features.Calendar
	baseline string

	newRegressor func() regression.Regressor

	models  map[string]regression.Regressor
	encoder *features.Encoder
}

func NewModel(rules config.Rules, cal features.Calendar, baseline string) *Model {
	return &Model{
		rules:        rules,
		cal:          cal,
		baseline:     baseline,
		newRegressor: func() regression.Regressor { return regression.NewRidge(1.0) },
	}
}

// Train partitions the master transaction table by treatment and fits one
// regressor per treatment with at least MinTreatmentSamples rows. Treatments
// below the minimum (or whose fit fails) are skipped and reported, never
// fatal. Metrics are on training data: this model ranks strategies, it does
// not make deployed risk decisions.
func (m *Model) Train(
	products []domain.Product,
	stores []domain.Store,
	transactions []domain.Transaction,
) (map[string]Metrics, error) {
	master := features.BuildMasterRows(transactions, products, stores, m.cal)
	if len(master) == 0 {
		return nil, fmt.Errorf("%w: empty master table", ErrNoTreatmentModels)
	}

	encoder := features.NewEncoder(master)

	byTreatment := map[string][]features.MasterRow{}
	for _, row := range master {
		byTreatment[row.DiscountType] = append(byTreatment[row.DiscountType], row)
	}

	labels := make([]string, 0, len(byTreatment))
	for label := range byTreatment {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	models := map[string]regression.Regressor{}
	metrics := map[string]Metrics{}

	for _, label := range labels {
		rows := byTreatment[label]
		if len(rows) < m.rules.MinTreatmentSamples {
			logger.Warn("skipping treatment with insufficient samples",
				"treatment", label,
				"samples", len(rows),
				"min_samples", m.rules.MinTreatmentSamples,
			)
			continue
		}

		X := encoder.Matrix(rows)
		y := make([]float64, len(rows))
		for i := range rows {
			y[i] = rows[i].Profit
		}

		reg := m.newRegressor()
		if err := reg.Fit(X, y); err != nil {
			logger.Warn("skipping treatment, training failed", "treatment", label, "error", err)
			continue
		}

		pred, err := reg.Predict(X)
		if err != nil {
			logger.Warn("skipping treatment, evaluation failed", "treatment", label, "error", err)
			continue
		}

		models[label] = reg
		metrics[label] = Metrics{
			Samples: len(rows),
			MAE:     regression.MAE(y, pred),
			R2:      regression.R2(y, pred),
		}

		logger.Info("treatment model trained",
			"treatment", label,
			"samples", len(rows),
			"mae", metrics[label].MAE,
		)
	}

	if len(models) == 0 {
		return nil, ErrNoTreatmentModels
	}

	m.models = models
	m.encoder = encoder

	return metrics, nil
}

// Treatments returns the trained treatment labels in the pinned (ascending)
// comparison order.
func (m *Model) Treatments() []string {
	labels := make([]string, 0, len(m.models))
	for label := range m.models {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// FeatureColumns exposes the training schema for persistence alongside the
// treatment set.
func (m *Model) FeatureColumns() []string {
	if m.encoder == nil {
		return nil
	}
	return m.encoder.Columns()
}

// PredictAllTreatments returns one predicted-profit column per trained
// treatment.
func (m *Model) PredictAllTreatments(X [][]float64) (map[string][]float64, error) {
	if len(m.models) == 0 {
		return nil, ErrModelNotTrained
	}

	out := make(map[string][]float64, len(m.models))
	for label, reg := range m.models {
		pred, err := reg.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("predict treatment %q: %w", label, err)
		}
		out[label] = pred
	}

	return out, nil
}

// CalculateUplift turns per-treatment predictions into one decision per row.
// Uplift is measured against the baseline column (all-zero when the baseline
// itself could not be trained). Ties are broken deterministically: treatments
// are compared in ascending label order and a later one must be strictly
// better to win. A best uplift below zero falls back to the baseline at
// uplift 0 — the baseline is always the floor.
func (m *Model) CalculateUplift(predictions map[string][]float64, n int) []StoreRecommendation {
	labels := make([]string, 0, len(predictions))
	for label := range predictions {
		if label == m.baseline {
			continue
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)

	baselinePred := predictions[m.baseline]

	out := make([]StoreRecommendation, n)
	for i := 0; i < n; i++ {
		baseline := 0.0
		if baselinePred != nil {
			baseline = baselinePred[i]
		}

		best := m.baseline
		bestUplift := 0.0
		first := true
		for _, label := range labels {
			uplift := predictions[label][i] - baseline
			if first || uplift > bestUplift {
				best = label
				bestUplift = uplift
				first = false
			}
		}

		if bestUplift < 0 {
			best = m.baseline
			bestUplift = 0
		}

		out[i] = StoreRecommendation{Strategy: best, Uplift: bestUplift}
	}

	return out
}

// GenerateRecommendations scores every (candidate, store) pair under the
// current event and aggregates to one row per product: the modal strategy
// across stores (ties resolved by store order) and the mean uplift, sorted by
// uplift descending.
func (m *Model) GenerateRecommendations(
	candidates []domain.Product,
	stores []domain.Store,
	currentEvent string,
) ([]ProductRecommendation, error) {
	if len(m.models) == 0 || m.encoder == nil {
		return nil, ErrModelNotTrained
	}
	if len(candidates) == 0 || len(stores) == 0 {
		return nil, nil
	}

	started := time.Now()

	rows := features.PrepareRecommendationRows(candidates, stores, currentEvent)
	X := m.encoder.Matrix(rows)

	predictions, err := m.PredictAllTreatments(X)
	if err != nil {
		return nil, err
	}

	decisions := m.CalculateUplift(predictions, len(rows))
	for i := range decisions {
		decisions[i].ProductID = rows[i].ProductID
		decisions[i].StoreID = rows[i].StoreID
	}

	productsByID := make(map[string]domain.Product, len(candidates))
	for _, p := range candidates {
		productsByID[p.ProductID] = p
	}

	// Rows are product-major with stores in ascending ID order, so the mode
	// tie-break (first strategy to reach the max count) is deterministic.
	type agg struct {
		counts     map[string]int
		mode       string
		modeCount  int
		upliftSum  float64
		storeCount int
	}

	order := []string{}
	aggs := map[string]*agg{}
	for _, d := range decisions {
		a, ok := aggs[d.ProductID]
		if !ok {
			a = &agg{counts: map[string]int{}}
			aggs[d.ProductID] = a
			order = append(order, d.ProductID)
		}

		a.counts[d.Strategy]++
		if a.counts[d.Strategy] > a.modeCount {
			a.mode = d.Strategy
			a.modeCount = a.counts[d.Strategy]
		}
		a.upliftSum += d.Uplift
		a.storeCount++
	}

	out := make([]ProductRecommendation, 0, len(order))
	for _, pid := range order {
		a := aggs[pid]
		p := productsByID[pid]
		out = append(out, ProductRecommendation{
			ProductID:   pid,
			ProductName: p.ProductName,
			Category:    p.ProductCategory,
			Strategy:    a.mode,
			AvgUplift:   a.upliftSum / float64(a.storeCount),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgUplift == out[j].AvgUplift {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].AvgUplift > out[j].AvgUplift
	})

	logger.Info("strategy recommendations generated",
		"products", len(out),
		"pairs", len(rows),
		"elapsed", time.Since(started).String(),
	)

	return out, nil
}
