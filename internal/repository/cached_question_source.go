package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedQuestionSource keeps each level's rows in Redis for a TTL so the
// next/answer calls of a session don't hit the spreadsheet every time.
// Redis failures fall through to the wrapped source.
type CachedQuestionSource struct {
	next QuestionSource
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedQuestionSource wraps next with a Redis row cache.
func NewCachedQuestionSource(next QuestionSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedQuestionSource {
	return &CachedQuestionSource{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "question_cache").Logger(),
	}
}

// FetchRows serves level from cache, filling it on a miss.
func (s *CachedQuestionSource) FetchRows(ctx context.Context, level string) ([]model.QuestionRow, error) {
	key := config.CacheKey.LevelRowsKey(level)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []model.QuestionRow
		if jsonErr := json.Unmarshal(data, &rows); jsonErr == nil {
			return rows, nil
		}
		s.log.Warn().Str("level", level).Msg("Corrupt cached rows, refetching")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("level", level).Msg("Row cache read failed")
	}

	rows, err := s.next.FetchRows(ctx, level)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return rows, nil
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("level", level).Msg("Row cache write failed")
	}
	return rows, nil
}

// Invalidate drops the cached rows of level.
func (s *CachedQuestionSource) Invalidate(ctx context.Context, level string) error {
	return s.rdb.Del(ctx, config.CacheKey.LevelRowsKey(level)).Err()
}
