package postgres

import (
	"context"
	"errors"
	"fmt"
	"smartPromo/domain"

	"gorm.io/gorm"
)

type PipelineRunRepository struct {
	DB *gorm.DB
}

func NewPipelineRunRepository(db *gorm.DB) *PipelineRunRepository {
	return &PipelineRunRepository{
		DB: db,
	}
}

func (r *PipelineRunRepository) Create(ctx context.Context, run *domain.PipelineRun) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	return nil
}

func (r *PipelineRunRepository) Update(ctx context.Context, run *domain.PipelineRun) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.PipelineRun{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":               run.Status,
		"finished_at":          run.FinishedAt,
		"duration_ms":          run.DurationMS,
		"error":                run.Error,
		"product_count":        run.ProductCount,
		"candidate_count":      run.CandidateCount,
		"recommendation_count": run.RecommendationCount,
		"summary":              run.Summary,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update pipeline run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("pipeline run not found")
	}

	return nil
}

func (r *PipelineRunRepository) FindByID(ctx context.Context, id string) (domain.PipelineRun, error) {
	if err := ctx.Err(); err != nil {
		return domain.PipelineRun{}, fmt.Errorf("context error: %w", err)
	}

	var run domain.PipelineRun
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PipelineRun{}, errors.New("pipeline run not found")
		}
		return domain.PipelineRun{}, fmt.Errorf("failed to find pipeline run: %w", err)
	}

	return run, nil
}

func (r *PipelineRunRepository) FindLatest(ctx context.Context) (domain.PipelineRun, error) {
	if err := ctx.Err(); err != nil {
		return domain.PipelineRun{}, fmt.Errorf("context error: %w", err)
	}

	var run domain.PipelineRun
	err := r.DB.WithContext(ctx).Order("started_at desc").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PipelineRun{}, errors.New("no pipeline run recorded")
		}
		return domain.PipelineRun{}, fmt.Errorf("failed to find latest pipeline run: %w", err)
	}

	return run, nil
}
