package postgres

import (
	"context"
	"fmt"
	"smartPromo/domain"

	"gorm.io/gorm"
)

type RecommendationRepository struct {
	DB *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{
		DB: db,
	}
}

// ReplaceAll swaps the full recommendation set inside one transaction. A
// failed run never leaves a half-written table: the previous output stays
// readable until the new one commits.
func (r *RecommendationRepository) ReplaceAll(ctx context.Context, recs []domain.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Recommendation{}).Error; err != nil {
			return fmt.Errorf("failed to clear recommendations: %w", err)
		}
		if len(recs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(recs, 500).Error; err != nil {
			return fmt.Errorf("failed to insert recommendations: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace recommendations: %w", err)
	}

	return nil
}

// FindTop returns the best limit recommendations ordered by expected uplift.
func (r *RecommendationRepository) FindTop(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var recs []domain.Recommendation
	err := r.DB.WithContext(ctx).
		Order("avg_uplift_profit desc, product_id asc").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recommendations: %w", err)
	}

	return recs, nil
}

func (r *RecommendationRepository) FindByCategory(ctx context.Context, category string) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var recs []domain.Recommendation
	err := r.DB.WithContext(ctx).
		Where("product_category = ?", category).
		Order("avg_uplift_profit desc, product_id asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recommendations by category: %w", err)
	}

	return recs, nil
}

func (r *RecommendationRepository) FindAll(ctx context.Context) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var recs []domain.Recommendation
	err := r.DB.WithContext(ctx).
		Order("avg_uplift_profit desc, product_id asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recommendations: %w", err)
	}

	return recs, nil
}
