// Package sharekey resolves opaque share tokens to clinician ids.
// Resolution is read-heavy and latency-sensitive (it sits on the
// conversation start path), so lookups go through a small in-process LRU
// and an optional Redis tier before touching the backing repository.
package sharekey

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// Repository is the backing source of share key mappings.
type Repository interface {
	Lookup(ctx context.Context, shareKey string) (doctorID string, err error)
}

const (
	memoryCacheSize = 1024
	redisKeyPrefix  = "sharekey:"
	redisTTL        = 15 * time.Minute
)

// Resolver resolves share keys with two cache tiers over a repository.
// Resolve never returns an error: any failure, including a missing key,
// reports ok=false and the caller falls back to its default attribution.
type Resolver struct {
	logger *logrus.Logger
	repo   Repository
	memory *lru.Cache[string, string]
	redis  *redis.Client
}

// NewResolver creates a resolver. redisClient may be nil, which skips
// the shared tier and leaves the in-process LRU only.
func NewResolver(logger *logrus.Logger, repo Repository, redisClient *redis.Client) *Resolver {
	memory, _ := lru.New[string, string](memoryCacheSize)
	return &Resolver{
		logger: logger,
		repo:   repo,
		memory: memory,
		redis:  redisClient,
	}
}

// Resolve maps a share key to its owning clinician id.
func (r *Resolver) Resolve(ctx context.Context, shareKey string) (string, bool) {
	if shareKey == "" {
		return "", false
	}

	if doctorID, ok := r.memory.Get(shareKey); ok {
		return doctorID, true
	}

	if doctorID, ok := r.fromRedis(ctx, shareKey); ok {
		r.memory.Add(shareKey, doctorID)
		return doctorID, true
	}

	doctorID, err := r.repo.Lookup(ctx, shareKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.WithFields(logrus.Fields{
				"share_key": shareKey,
				"error":     err,
			}).Warn("Share key lookup failed, falling back to default attribution")
		}
		return "", false
	}

	r.memory.Add(shareKey, doctorID)
	r.toRedis(ctx, shareKey, doctorID)

	return doctorID, true
}

func (r *Resolver) fromRedis(ctx context.Context, shareKey string) (string, bool) {
	if r.redis == nil {
		return "", false
	}

	doctorID, err := r.redis.Get(ctx, redisKeyPrefix+shareKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithField("error", err).Debug("Redis share key read failed")
		}
		return "", false
	}
	return doctorID, true
}

func (r *Resolver) toRedis(ctx context.Context, shareKey, doctorID string) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Set(ctx, redisKeyPrefix+shareKey, doctorID, redisTTL).Err(); err != nil {
		r.logger.WithField("error", err).Debug("Redis share key write failed")
	}
}
