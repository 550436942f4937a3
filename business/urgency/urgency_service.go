package urgency

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"smartPromo/business/features"
	"smartPromo/domain"
	"smartPromo/pkg/config"
	"smartPromo/pkg/logger"
	"smartPromo/pkg/regression"
)

var (
	// ErrInsufficientData: too few products survived feature construction to
	// train on. Fatal for the whole run.
	ErrInsufficientData = errors.New("insufficient samples for urgency model")

	// ErrModelNotTrained: predict called before train. Programmer error.
	ErrModelNotTrained = errors.New("urgency model not trained")
)

type Metrics struct {
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	TrainMAE     float64 `json:"train_mae"`
	TestMAE      float64 `json:"test_mae"`
	TrainR2      float64 `json:"train_r2"`
	TestR2       float64 `json:"test_r2"`
}

// Model regresses the computed urgency score on product features and selects
// promotion candidates under the slot quota.
type Model struct {
	rules config.Rules

	newRegressor func() regression.Regressor
	reg          regression.Regressor
}

func NewModel(rules config.Rules) *Model {
	return &Model{
		rules:        rules,
		newRegressor: func() regression.Regressor { return regression.NewRidge(1.0) },
	}
}

// Train builds urgency features, computes target scores, fits one regressor
// on a seeded split and reports held-out MAE/R2.
func (m *Model) Train(products []domain.Product, transactions []domain.Transaction, today time.Time) (Metrics, error) {
	rows := features.BuildUrgencyRows(products, transactions, today)
	features.ApplyUrgencyScore(rows, m.rules.UrgencyWeights)

	if len(rows) < m.rules.MinUrgencySamples {
		return Metrics{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(rows), m.rules.MinUrgencySamples)
	}

	trainIdx, testIdx := regression.TrainTestSplit(len(rows), m.rules.TestFraction, m.rules.RandomSeed)

	trainX, trainY := matrixFor(rows, trainIdx)
	testX, testY := matrixFor(rows, testIdx)

	reg := m.newRegressor()
	if err := reg.Fit(trainX, trainY); err != nil {
		return Metrics{}, fmt.Errorf("fit urgency model: %w", err)
	}

	trainPred, err := reg.Predict(trainX)
	if err != nil {
		return Metrics{}, fmt.Errorf("evaluate urgency model: %w", err)
	}
	testPred, err := reg.Predict(testX)
	if err != nil {
		return Metrics{}, fmt.Errorf("evaluate urgency model: %w", err)
	}

	m.reg = reg

	metrics := Metrics{
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
		TrainMAE:     regression.MAE(trainY, trainPred),
		TestMAE:      regression.MAE(testY, testPred),
		TrainR2:      regression.R2(trainY, trainPred),
		TestR2:       regression.R2(testY, testPred),
	}

	logger.Info("urgency model trained",
		"train_samples", metrics.TrainSamples,
		"test_samples", metrics.TestSamples,
		"test_mae", metrics.TestMAE,
		"test_r2", metrics.TestR2,
	)

	return metrics, nil
}

// PredictScores recomputes features with the same construction as training,
// scores every product and returns rows sorted by predicted score descending.
func (m *Model) PredictScores(products []domain.Product, transactions []domain.Transaction, today time.Time) ([]features.UrgencyRow, error) {
	if m.reg == nil {
		return nil, ErrModelNotTrained
	}

	rows := features.BuildUrgencyRows(products, transactions, today)
	if len(rows) == 0 {
		return nil, nil
	}

	X := make([][]float64, len(rows))
	for i := range rows {
		X[i] = rows[i].Vector()
	}

	pred, err := m.reg.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict urgency scores: %w", err)
	}

	for i := range rows {
		rows[i].PredictedScore = pred[i]
	}

	sortByPredictedScore(rows)
	return rows, nil
}

// TopCandidates selects at most totalSlots products above the score
// threshold, allocating slots proportionally per category so a few
// high-urgency categories cannot crowd out the rest.
func (m *Model) TopCandidates(scored []features.UrgencyRow, totalSlots int) []features.UrgencyRow {
	if totalSlots <= 0 {
		totalSlots = m.rules.TotalPromoSlots
	}

	candidates := make([]features.UrgencyRow, 0, len(scored))
	for _, row := range scored {
		if row.PredictedScore > m.rules.ScoreThreshold {
			candidates = append(candidates, row)
		}
	}

	// Work on a descending-score view so per-category head() picks the best.
	sortByPredictedScore(candidates)

	if len(candidates) <= totalSlots {
		return candidates
	}

	byCategory := map[string][]features.UrgencyRow{}
	for _, row := range candidates {
		cat := row.Product.ProductCategory
		byCategory[cat] = append(byCategory[cat], row)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	selected := make([]features.UrgencyRow, 0, totalSlots)
	used := map[string]struct{}{}

	for _, cat := range categories {
		rows := byCategory[cat]

		// Round-to-nearest (half away from zero, math.Round semantics),
		// floored at one slot per category that has any candidates. This
		// rounding choice shifts quota boundaries, so fixtures depend on it.
		quota := int(math.Round(float64(len(rows)) / float64(len(candidates)) * float64(totalSlots)))
		if quota < 1 {
			quota = 1
		}
		if quota > len(rows) {
			quota = len(rows)
		}

		for _, row := range rows[:quota] {
			selected = append(selected, row)
			used[row.Product.ProductID] = struct{}{}
		}
	}

	// Rounding shortfall: fill remaining slots with the best unselected
	// candidates regardless of category.
	for _, row := range candidates {
		if len(selected) >= totalSlots {
			break
		}
		if _, ok := used[row.Product.ProductID]; ok {
			continue
		}
		selected = append(selected, row)
		used[row.Product.ProductID] = struct{}{}
	}

	sortByPredictedScore(selected)

	// The per-category floor can overshoot when there are very many
	// categories; the slot quota is a hard cap.
	if len(selected) > totalSlots {
		selected = selected[:totalSlots]
	}

	return selected
}

func matrixFor(rows []features.UrgencyRow, idx []int) ([][]float64, []float64) {
	X := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, j := range idx {
		X[i] = rows[j].Vector()
		y[i] = rows[j].Score
	}
	return X, y
}

func sortByPredictedScore(rows []features.UrgencyRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PredictedScore == rows[j].PredictedScore {
			return rows[i].Product.ProductID < rows[j].Product.ProductID
		}
		return rows[i].PredictedScore > rows[j].PredictedScore
	})
}
