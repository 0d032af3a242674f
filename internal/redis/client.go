package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"team-service/internal/config"
	"team-service/internal/repository"
)

// Key prefixes
const (
	SeatSummaryKeyPrefix = "seats:"
	SweepLockKey         = "lock:invitation-sweep"
)

// Client wraps the Redis client with application-specific methods
type Client struct {
	rdb     *redis.Client
	ttl     time.Duration
	log     *logrus.Logger
	localID string
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig, seatTTL time.Duration, log *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:     rdb,
		ttl:     seatTTL,
		log:     log,
		localID: uuid.New().String(),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetSeatSummary returns the cached seat summary for an organization, if any.
// Cache misses and Redis failures both read as a miss; callers fall through to
// the store.
func (c *Client) GetSeatSummary(ctx context.Context, orgID uuid.UUID) (*repository.SeatSummary, bool) {
	data, err := c.rdb.Get(ctx, SeatSummaryKeyPrefix+orgID.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("failed to read seat summary cache")
		return nil, false
	}

	var summary repository.SeatSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		c.log.WithError(err).Warn("corrupt seat summary cache entry")
		return nil, false
	}
	return &summary, true
}

// SetSeatSummary caches a seat summary with the configured short TTL
func (c *Client) SetSeatSummary(ctx context.Context, orgID uuid.UUID, summary *repository.SeatSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal seat summary")
		return
	}
	if err := c.rdb.Set(ctx, SeatSummaryKeyPrefix+orgID.String(), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("failed to cache seat summary")
	}
}

// InvalidateSeatSummary drops the cached summary after a seat-changing commit
func (c *Client) InvalidateSeatSummary(ctx context.Context, orgID uuid.UUID) {
	if err := c.rdb.Del(ctx, SeatSummaryKeyPrefix+orgID.String()).Err(); err != nil {
		c.log.WithError(err).Warn("failed to invalidate seat summary cache")
	}
}

// AcquireSweepLock takes the distributed sweep lock so only one replica runs
// the periodic sweep per interval. The sweep itself is idempotent; the lock
// just avoids redundant work.
func (c *Client) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, SweepLockKey, c.localID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return ok, nil
}

// releaseScript deletes the lock only while this replica still owns it, so a
// release that arrives after the TTL expired cannot drop another replica's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ReleaseSweepLock releases the sweep lock if this replica holds it
func (c *Client) ReleaseSweepLock(ctx context.Context) {
	if err := releaseScript.Run(ctx, c.rdb, []string{SweepLockKey}, c.localID).Err(); err != nil && err != redis.Nil {
		c.log.WithError(err).Warn("failed to release sweep lock")
	}
}
