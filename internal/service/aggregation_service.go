package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
)

type resultRepository interface {
	Recompute(ctx context.Context, evaluationID string) (*models.EvaluationResult, error)
	Find(ctx context.Context, evaluationID string) (*models.EvaluationResult, error)
}

// AggregationService recomputes the materialized aggregate for an
// evaluation from durable rows. Recomputation is idempotent: the result
// depends only on the current evaluator and response rows, never on call
// order.
type AggregationService struct {
	results resultRepository
	cache   *CacheService
	logger  *zap.Logger
}

// NewAggregationService constructs the aggregation service.
func NewAggregationService(results resultRepository, cache *CacheService, logger *zap.Logger) *AggregationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{results: results, cache: cache, logger: logger}
}

func progressCacheKey(evaluationID string) string {
	return "evaluation:progress:" + evaluationID
}

// Recompute rebuilds and persists the aggregate, then invalidates the
// cached progress view for the evaluation.
func (s *AggregationService) Recompute(ctx context.Context, evaluationID string) (*models.EvaluationResult, error) {
	result, err := s.results.Recompute(ctx, evaluationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute results")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, progressCacheKey(evaluationID)); err != nil {
			s.logger.Warn("failed to invalidate progress cache", zap.String("evaluation_id", evaluationID), zap.Error(err))
		}
	}
	return result, nil
}

// Current returns the stored aggregate, recomputing it when no row exists
// yet (e.g. before the first submission).
func (s *AggregationService) Current(ctx context.Context, evaluationID string) (*models.EvaluationResult, error) {
	result, err := s.results.Find(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.Recompute(ctx, evaluationID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	return result, nil
}
