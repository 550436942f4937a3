package reco

import (
	"context"
	"errors"
	"fmt"

	"smartPromo/business/engine"
	"smartPromo/domain"
	"smartPromo/pkg/logger"
)

const defaultTopLimit = 30

type RecommendationRepository interface {
	FindTop(ctx context.Context, limit int) ([]domain.Recommendation, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Recommendation, error)
	FindAll(ctx context.Context) ([]domain.Recommendation, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	TopKey(limit int) string
	StatsKey() string
	CategoryKey(category string) string
}

// Service serves the persisted recommendation output through a cache. Reads
// never touch the models: the pipeline writes, this only reads.
type Service struct {
	recoRepo RecommendationRepository
	cache    Cache
}

func NewService(recoRepo RecommendationRepository, cache Cache) *Service {
	return &Service{
		recoRepo: recoRepo,
		cache:    cache,
	}
}

func (s *Service) TopRecommendations(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = defaultTopLimit
	}

	var recs []domain.Recommendation
	key := ""
	if s.cache != nil {
		key = s.cache.TopKey(limit)
		if err := s.cache.Get(ctx, key, &recs); err == nil {
			return recs, nil
		}
	}

	recs, err := s.recoRepo.FindTop(ctx, limit)
	if err != nil {
		logger.Error("failed to load top recommendations", err)
		return nil, err
	}

	s.cacheSet(ctx, key, recs)
	return recs, nil
}

func (s *Service) Stats(ctx context.Context) (domain.RecommendationSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecommendationSummary{}, fmt.Errorf("context error: %w", err)
	}

	var summary domain.RecommendationSummary
	key := ""
	if s.cache != nil {
		key = s.cache.StatsKey()
		if err := s.cache.Get(ctx, key, &summary); err == nil {
			return summary, nil
		}
	}

	recs, err := s.recoRepo.FindAll(ctx)
	if err != nil {
		logger.Error("failed to load recommendations for stats", err)
		return domain.RecommendationSummary{}, err
	}

	summary = engine.Summarize(recs)
	s.cacheSet(ctx, key, summary)
	return summary, nil
}

func (s *Service) ByCategory(ctx context.Context, category string) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if category == "" {
		return nil, errors.New("category is required")
	}

	var recs []domain.Recommendation
	key := ""
	if s.cache != nil {
		key = s.cache.CategoryKey(category)
		if err := s.cache.Get(ctx, key, &recs); err == nil {
			return recs, nil
		}
	}

	recs, err := s.recoRepo.FindByCategory(ctx, category)
	if err != nil {
		logger.Error("failed to load recommendations by category", err)
		return nil, err
	}

	s.cacheSet(ctx, key, recs)
	return recs, nil
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		// Serving from the database is always correct; caching is best effort.
		logger.Warn("failed to cache recommendation payload", "key", key, "error", err)
	}
}
