package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"smartPromo/business/features"
	"smartPromo/domain"
	"smartPromo/pkg/config"
)

type fakeProductRepo struct{ items []domain.Product }

func (f *fakeProductRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	return f.items, nil
}

type fakeStoreRepo struct{ items []domain.Store }

func (f *fakeStoreRepo) FindAll(ctx context.Context) ([]domain.Store, error) {
	return f.items, nil
}

type fakeTrxRepo struct{ items []domain.Transaction }

func (f *fakeTrxRepo) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	return f.items, nil
}

type fakeRecoRepo struct {
	replaced [][]domain.Recommendation
	err      error
}

func (f *fakeRecoRepo) ReplaceAll(ctx context.Context, recs []domain.Recommendation) error {
	if f.err != nil {
		return f.err
	}
	f.replaced = append(f.replaced, recs)
	return nil
}

type fakeRunRepo struct {
	runs map[string]domain.PipelineRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: map[string]domain.PipelineRun{}}
}

func (f *fakeRunRepo) Create(ctx context.Context, run *domain.PipelineRun) error {
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeRunRepo) Update(ctx context.Context, run *domain.PipelineRun) error {
	if _, ok := f.runs[run.ID]; !ok {
		return errors.New("pipeline run not found")
	}
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeRunRepo) FindByID(ctx context.Context, id string) (domain.PipelineRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return domain.PipelineRun{}, errors.New("pipeline run not found")
	}
	return run, nil
}

func (f *fakeRunRepo) FindLatest(ctx context.Context) (domain.PipelineRun, error) {
	var latest domain.PipelineRun
	found := false
	for _, run := range f.runs {
		if !found || run.StartedAt.After(latest.StartedAt) {
			latest = run
			found = true
		}
	}
	if !found {
		return domain.PipelineRun{}, errors.New("no pipeline run recorded")
	}
	return latest, nil
}

// Rules tuned down so a handful of synthetic rows can train both models.
func testRules() config.Rules {
	rules := config.DefaultRules()
	rules.MinUrgencySamples = 3
	rules.MinTreatmentSamples = 5
	rules.ScoreThreshold = -1e9 // keep every product as a candidate
	return rules
}

func testDataset(t *testing.T) ([]domain.Product, []domain.Store, []domain.Transaction) {
	t.Helper()

	products := make([]domain.Product, 0, 6)
	for i := 0; i < 6; i++ {
		products = append(products, domain.Product{
			ProductID:       fmt.Sprintf("P%d", i),
			SKUCode:         fmt.Sprintf("SKU%d", i),
			ProductName:     fmt.Sprintf("Produk %d 100g", i),
			ProductCategory: "Soda",
			Brand:           "ABC",
			SellPrice:       5000 + float64(i)*500,
			Margin:          0.2 + float64(i)*0.02,
			MinShelfDays:    30 + i*10,
		})
	}

	stores := []domain.Store{
		{StoreID: "S1", ConsumerJobs: "pekerja_kantoran: 0.4", ConsumerHabits: "impulsif: 0.6"},
		{StoreID: "S2", ConsumerJobs: "pekerja_kantoran: 0.7", ConsumerHabits: "impulsif: 0.3"},
	}

	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	transactions := []domain.Transaction{}
	for _, p := range products {
		for d := 0; d < 4; d++ {
			date := base.AddDate(0, 0, d*3)
			// Baseline sales...
			transactions = append(transactions, domain.Transaction{
				ProductID: p.ProductID, StoreID: stores[d%2].StoreID, Date: date,
				PromoPrice: p.SellPrice, PurchaseCost: p.SellPrice * 0.7,
				DiscountType: "Tanpa Diskon",
			})
			// ...and BOGO sales with consistently better profit.
			transactions = append(transactions, domain.Transaction{
				ProductID: p.ProductID, StoreID: stores[(d+1)%2].StoreID, Date: date,
				PromoPrice: p.SellPrice * 1.2, PurchaseCost: p.SellPrice * 0.7,
				DiscountType: "BOGO",
			})
		}
	}

	return products, stores, transactions
}

func newTestService(t *testing.T) (*Service, *fakeRecoRepo, *fakeRunRepo) {
	t.Helper()

	rules := testRules()
	products, stores, transactions := testDataset(t)

	recoRepo := &fakeRecoRepo{}
	runRepo := newFakeRunRepo()

	svc := NewService(
		rules,
		features.NewCalendar(rules.EventsCalendar),
		&fakeProductRepo{items: products},
		&fakeStoreRepo{items: stores},
		&fakeTrxRepo{items: transactions},
		recoRepo,
		runRepo,
		nil,
	)
	svc.now = func() time.Time { return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC) }

	return svc, recoRepo, runRepo
}

func TestRunProducesRecommendations(t *testing.T) {
	svc, recoRepo, runRepo := newTestService(t)

	run, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", run.Status, run.Error)
	}
	if run.ProductCount != 6 {
		t.Errorf("product count = %d, want 6", run.ProductCount)
	}
	if run.CandidateCount != 6 {
		t.Errorf("candidate count = %d, want 6", run.CandidateCount)
	}
	if run.RecommendationCount != 6 {
		t.Errorf("recommendation count = %d, want 6", run.RecommendationCount)
	}

	if len(recoRepo.replaced) != 1 {
		t.Fatalf("ReplaceAll called %d times, want 1", len(recoRepo.replaced))
	}
	recs := recoRepo.replaced[0]
	if len(recs) != 6 {
		t.Fatalf("persisted %d recommendations, want 6", len(recs))
	}
	for _, rec := range recs {
		if rec.StrategyDetail == "" {
			t.Errorf("%s has empty strategy", rec.ProductID)
		}
		if rec.EndDate.Before(rec.StartDate) {
			t.Errorf("%s window ends before it starts", rec.ProductID)
		}
	}

	stored, err := runRepo.FindByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != domain.RunStatusCompleted {
		t.Errorf("stored status = %q, want completed", stored.Status)
	}
	if stored.Summary == nil {
		t.Error("stored run has no summary")
	}
}

func TestRunFailureKeepsPreviousOutput(t *testing.T) {
	svc, recoRepo, _ := newTestService(t)
	recoRepo.err = errors.New("db unavailable")

	run, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("Run should fail when persistence fails")
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("status = %q, want failed", run.Status)
	}
	if len(recoRepo.replaced) != 0 {
		t.Error("no output should have been written")
	}
	// The guard must be released for the next run.
	if svc.Running() {
		t.Error("service still marked busy after a failed run")
	}
}

func TestTriggerSingleFlight(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.busy.Store(true)
	if _, err := svc.Trigger(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	svc.busy.Store(false)
}

func TestRunWithEmptyDataFails(t *testing.T) {
	rules := testRules()
	svc := NewService(
		rules,
		features.NewCalendar(rules.EventsCalendar),
		&fakeProductRepo{},
		&fakeStoreRepo{},
		&fakeTrxRepo{},
		&fakeRecoRepo{},
		newFakeRunRepo(),
		nil,
	)

	run, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("Run should fail with no data")
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("status = %q, want failed", run.Status)
	}
}
