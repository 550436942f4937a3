package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"smartPromo/business/engine"
	"smartPromo/business/features"
	"smartPromo/business/treatment"
	"smartPromo/business/urgency"
	"smartPromo/domain"
	"smartPromo/pkg/config"
	"smartPromo/pkg/logger"
	"smartPromo/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrRunInProgress: a second trigger arrived while a run was executing. The
// pipeline retrains every model and rewrites the output table, so exactly one
// run may be in flight.
var ErrRunInProgress = errors.New("pipeline run already in progress")

type ProductRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
}

type StoreRepository interface {
	FindAll(ctx context.Context) ([]domain.Store, error)
}

type TransactionRepository interface {
	FindAll(ctx context.Context) ([]domain.Transaction, error)
}

type RecommendationRepository interface {
	ReplaceAll(ctx context.Context, recs []domain.Recommendation) error
}

type RunRepository interface {
	Create(ctx context.Context, run *domain.PipelineRun) error
	Update(ctx context.Context, run *domain.PipelineRun) error
	FindByID(ctx context.Context, id string) (domain.PipelineRun, error)
	FindLatest(ctx context.Context) (domain.PipelineRun, error)
}

type Cache interface {
	InvalidateAll(ctx context.Context) error
}

// Service orchestrates the full retrain-and-recommend sequence: urgency
// scoring, candidate selection, per-treatment profit models, uplift decisions
// and the business-rule pass, then swaps the persisted output.
type Service struct {
	rules config.Rules
	cal   features.Calendar

	productRepo ProductRepository
	storeRepo   StoreRepository
	trxRepo     TransactionRepository
	recoRepo    RecommendationRepository
	runRepo     RunRepository
	cache       Cache

	busy atomic.Bool
	now  func() time.Time
}

func NewService(
	rules config.Rules,
	cal features.Calendar,
	productRepo ProductRepository,
	storeRepo StoreRepository,
	trxRepo TransactionRepository,
	recoRepo RecommendationRepository,
	runRepo RunRepository,
	cache Cache,
) *Service {
	return &Service{
		rules:       rules,
		cal:         cal,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		trxRepo:     trxRepo,
		recoRepo:    recoRepo,
		runRepo:     runRepo,
		cache:       cache,
		now:         time.Now,
	}
}

// Trigger starts a pipeline run in the background and returns its ID
// immediately. Returns ErrRunInProgress when a run is already executing; the
// caller polls Status with the returned ID.
func (s *Service) Trigger(ctx context.Context) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}

	run := &domain.PipelineRun{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.busy.Store(false)
		return "", fmt.Errorf("failed to record pipeline run: %w", err)
	}

	// Detach from the request context: the run outlives the HTTP call that
	// triggered it.
	go func() {
		defer s.busy.Store(false)
		s.execute(context.Background(), run)
	}()

	return run.ID, nil
}

// Run executes the pipeline synchronously under the same single-flight guard.
// Used by CLI-style invocations and tests.
func (s *Service) Run(ctx context.Context) (domain.PipelineRun, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.PipelineRun{}, ErrRunInProgress
	}
	defer s.busy.Store(false)

	run := &domain.PipelineRun{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return domain.PipelineRun{}, fmt.Errorf("failed to record pipeline run: %w", err)
	}

	s.execute(ctx, run)

	if run.Status == domain.RunStatusFailed {
		return *run, errors.New(run.Error)
	}
	return *run, nil
}

func (s *Service) Status(ctx context.Context, runID string) (domain.PipelineRun, error) {
	return s.runRepo.FindByID(ctx, runID)
}

func (s *Service) LatestRun(ctx context.Context) (domain.PipelineRun, error) {
	return s.runRepo.FindLatest(ctx)
}

// Running reports whether a run is currently executing.
func (s *Service) Running() bool {
	return s.busy.Load()
}

func (s *Service) execute(ctx context.Context, run *domain.PipelineRun) {
	started := s.now()
	logger.Info("pipeline run started", "run_id", run.ID)

	err := s.runSteps(ctx, run)

	finished := s.now()
	run.FinishedAt = &finished
	run.DurationMS = finished.Sub(started).Milliseconds()

	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		logger.Error("pipeline run failed", "run_id", run.ID, "error", err)
	} else {
		run.Status = domain.RunStatusCompleted
		metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
		metrics.PipelineDuration.Observe(finished.Sub(started).Seconds())
		logger.Info("pipeline run completed",
			"run_id", run.ID,
			"duration_ms", run.DurationMS,
			"recommendations", run.RecommendationCount,
		)
	}

	if updateErr := s.runRepo.Update(ctx, run); updateErr != nil {
		logger.Error("failed to persist pipeline run result", "run_id", run.ID, "error", updateErr)
	}
}

func (s *Service) runSteps(ctx context.Context, run *domain.PipelineRun) error {
	today := s.now()

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	stores, err := s.storeRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load stores: %w", err)
	}
	transactions, err := s.trxRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	if len(products) == 0 || len(transactions) == 0 {
		return errors.New("no products or transactions to train on")
	}
	run.ProductCount = len(products)

	logger.Info("pipeline data loaded",
		"run_id", run.ID,
		"products", len(products),
		"stores", len(stores),
		"transactions", len(transactions),
	)

	// Stage one: urgency scoring and slot-constrained candidate selection.
	urgencyModel := urgency.NewModel(s.rules)
	if _, err := urgencyModel.Train(products, transactions, today); err != nil {
		return fmt.Errorf("train urgency model: %w", err)
	}

	scored, err := urgencyModel.PredictScores(products, transactions, today)
	if err != nil {
		return fmt.Errorf("score products: %w", err)
	}

	candidateRows := urgencyModel.TopCandidates(scored, s.rules.TotalPromoSlots)
	if len(candidateRows) == 0 {
		return errors.New("no products crossed the urgency threshold")
	}
	run.CandidateCount = len(candidateRows)
	metrics.CandidatesSelected.Set(float64(len(candidateRows)))

	candidates := make([]domain.Product, len(candidateRows))
	for i := range candidateRows {
		candidates[i] = candidateRows[i].Product
	}

	// Stage two: per-treatment profit models and uplift decisions.
	treatmentModel := treatment.NewModel(s.rules, s.cal, engine.LabelNone)
	if _, err := treatmentModel.Train(products, stores, transactions); err != nil {
		return fmt.Errorf("train treatment models: %w", err)
	}

	currentEvent := s.cal.EventFor(today)
	recs, err := treatmentModel.GenerateRecommendations(candidates, stores, currentEvent)
	if err != nil {
		return fmt.Errorf("generate recommendations: %w", err)
	}

	// Stage three: business rules turn winning treatments into concrete
	// discounts and promotion windows.
	eng := engine.NewEngine(s.rules, s.cal)
	final, err := eng.Finalize(recs, products, transactions, today)
	if err != nil {
		return fmt.Errorf("finalize recommendations: %w", err)
	}
	run.RecommendationCount = len(final)
	metrics.RecommendationsGenerated.Set(float64(len(final)))

	summary := engine.Summarize(final)
	run.Summary = datatypes.JSONMap{
		"total_products":        summary.TotalProducts,
		"strategy_distribution": summary.StrategyDistribution,
		"category_distribution": summary.CategoryDistribution,
		"average_discount":      summary.AverageDiscount,
		"total_uplift":          summary.TotalUplift,
		"average_uplift":        summary.AverageUplift,
	}

	if err := s.recoRepo.ReplaceAll(ctx, final); err != nil {
		return fmt.Errorf("persist recommendations: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			// Stale cache entries expire on their own TTL; not fatal.
			logger.Warn("failed to invalidate recommendation cache", "error", err)
		}
	}

	return nil
}
