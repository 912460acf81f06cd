package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studioslot/internal/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "promotion:current"

var ErrInvalidPromotion = errors.New("promotion must end after it starts")

type Service interface {
	Current(ctx context.Context) (*Promotion, error)
	Create(ctx context.Context, req CreatePromotionRequest) (*Promotion, error)
}

// service reads the current promotion through a Redis cache. Cache errors
// fall back to the database.
type service struct {
	repo  Repository
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewService(repo Repository, rdb *redis.Client, ttl time.Duration) Service {
	return &service{repo: repo, redis: rdb, ttl: ttl, now: time.Now}
}

func (s *service) Current(ctx context.Context) (*Promotion, error) {
	raw, err := s.redis.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var p *Promotion
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		logger.WithContext(ctx).Warn("discarding unreadable promotion cache entry")
	case !errors.Is(err, redis.Nil):
		logger.WithContext(ctx).Warn("promotion cache read failed", "error", err)
	}

	now := s.now()
	p, err := s.repo.Current(ctx, now)
	if err != nil {
		return nil, err
	}

	ttl := s.ttl
	if p != nil {
		if left := p.ActiveUntil.Sub(now); left < ttl {
			ttl = left
		}
	}
	// nil is cached as JSON null so an empty slot is not re-queried
	data, _ := json.Marshal(p)
	if err := s.redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		logger.WithContext(ctx).Warn("promotion cache write failed", "error", err)
	}

	return p, nil
}

func (s *service) Create(ctx context.Context, req CreatePromotionRequest) (*Promotion, error) {
	if !req.ActiveUntil.After(req.ActiveFrom) {
		return nil, ErrInvalidPromotion
	}

	p, err := s.repo.Create(ctx, &Promotion{
		Title:       req.Title,
		Description: req.Description,
		ActiveFrom:  req.ActiveFrom.UTC(),
		ActiveUntil: req.ActiveUntil.UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		logger.WithContext(ctx).Warn("promotion cache invalidation failed", "error", err)
	}
	logger.WithContext(ctx).Info("promotion created", "promotion_id", p.ID, "title", p.Title)

	return p, nil
}
