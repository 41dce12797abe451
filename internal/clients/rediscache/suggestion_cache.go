package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/suggestions"
)

const defaultKeepPerUser = 50

// SuggestionCache keeps the most recent generated posts per user so clients
// can re-fetch past suggestions without re-running the pipeline.
type SuggestionCache interface {
	Append(ctx context.Context, userID uuid.UUID, event suggestions.Event) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]suggestions.Event, error)
	Close() error
}

type suggestionCache struct {
	log  *logger.Logger
	rdb  *redis.Client
	keep int64
	ttl  time.Duration
}

// New connects to Redis at REDIS_ADDR. SUGGESTION_CACHE_KEEP bounds the list
// length per user; SUGGESTION_CACHE_TTL_HOURS expires idle lists.
func New(log *logger.Logger) (SuggestionCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	keep := int64(defaultKeepPerUser)
	if raw := strings.TrimSpace(os.Getenv("SUGGESTION_CACHE_KEEP")); raw != "" {
		var n int64
		if _, err := fmt.Sscanf(raw, "%d", &n); err == nil && n > 0 {
			keep = n
		}
	}
	ttl := 72 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("SUGGESTION_CACHE_TTL_HOURS")); raw != "" {
		var n int64
		if _, err := fmt.Sscanf(raw, "%d", &n); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Hour
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &suggestionCache{
		log:  log.With("service", "SuggestionCache"),
		rdb:  rdb,
		keep: keep,
		ttl:  ttl,
	}, nil
}

func key(userID uuid.UUID) string {
	return "suggestions:recent:" + userID.String()
}

// Append stores post events only; warnings and errors are transient.
func (c *suggestionCache) Append(ctx context.Context, userID uuid.UUID, event suggestions.Event) error {
	if event.Post == nil {
		return nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	k := key(userID)
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, k, raw)
	pipe.LTrim(ctx, k, 0, c.keep-1)
	pipe.Expire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

func (c *suggestionCache) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]suggestions.Event, error) {
	if limit <= 0 || int64(limit) > c.keep {
		limit = int(c.keep)
	}
	raws, err := c.rdb.LRange(ctx, key(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	out := make([]suggestions.Event, 0, len(raws))
	for _, raw := range raws {
		var e suggestions.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			c.log.Warn("Dropping undecodable cached suggestion", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *suggestionCache) Close() error {
	return c.rdb.Close()
}
