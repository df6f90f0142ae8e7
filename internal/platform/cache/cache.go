// Package cache holds the redis backed helpers of the payment flow. Every
// method degrades to a no-op when redis is not configured; postgres stays
// the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
)

type Cache struct {
	rdb     *redis.Client
	lockTTL time.Duration
	log     *zap.SugaredLogger
}

func NewClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// New wraps rdb. A nil rdb yields a disabled cache.
func New(rdb *redis.Client, cfg *config.Config, log *zap.SugaredLogger) *Cache {
	ttl := TTLCallbackLock
	if cfg != nil && cfg.Reconcile.LockTTL > 0 {
		ttl = cfg.Reconcile.LockTTL
	}
	return &Cache{rdb: rdb, lockTTL: ttl, log: log}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// AcquireCallbackLock takes a short lived lock for one gateway reference so
// that concurrent deliveries do not verify twice. It reports true when the
// caller may proceed, including when redis is unavailable.
func (c *Cache) AcquireCallbackLock(ctx context.Context, refNum, owner string) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	ok, err := c.rdb.SetNX(ctx, fmt.Sprintf(KeyCallbackLock, refNum), owner, c.lockTTL).Result()
	if err != nil {
		return true, fmt.Errorf("acquire callback lock: %w", err)
	}
	return ok, nil
}

// releaseLock deletes KEYS[1] only while it still holds ARGV[1].
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseCallbackLock drops the lock if owner still holds it. A lock that
// expired and was taken by another delivery is left alone.
func (c *Cache) ReleaseCallbackLock(ctx context.Context, refNum, owner string) error {
	if !c.Enabled() {
		return nil
	}
	return releaseLock.Run(ctx, c.rdb, []string{fmt.Sprintf(KeyCallbackLock, refNum)}, owner).Err()
}

type OrderStatus struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cache) SetOrderStatus(ctx context.Context, orderID, status string) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(OrderStatus{Status: status, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}

// GetOrderStatus returns nil without error on a cache miss.
func (c *Cache) GetOrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	if !c.Enabled() {
		return nil, nil
	}
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s OrderStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func registerClose(lc fx.Lifecycle, c *Cache) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.Ping(ctx); err != nil {
				c.log.Warnw("redis ping failed, continuing without cache", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if !c.Enabled() {
				return nil
			}
			return c.rdb.Close()
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(New),
	fx.Invoke(registerClose),
)
