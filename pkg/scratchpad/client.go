package scratchpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urbanpizzeria/pos-backend/pkg/config"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

const keyNamespace = "pos"

// Named blobs the engine hands off between flows. Every write replaces the
// whole snapshot, so repeated writes are idempotent.
const (
	KeyDraftCart       = "draft_cart"
	KeyVarietyDraft    = "variety_draft"
	KeyActiveOrderType = "active_order_type"
)

// TicketQueueKey returns the blob name for one order type's ticket queue.
func TicketQueueKey(orderType string) string {
	return fmt.Sprintf("tickets:%s", orderType)
}

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the process-wide scratchpad used for cross-flow handoff.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps the scratchpad client and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "scratchpad connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// NewWithStore builds a client over an existing command surface (tests).
func NewWithStore(store cmdable) *Client {
	return &Client{store: store}
}

func namespacedKey(name string) string {
	return fmt.Sprintf("%s:scratch:%s", keyNamespace, name)
}

// GetJSON loads the named blob into dest. It reports false when the blob is
// absent, which is not an error.
func (c *Client) GetJSON(ctx context.Context, name string, dest any) (bool, error) {
	raw, err := c.store.Get(ctx, namespacedKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scratchpad get %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("scratchpad decode %s: %w", name, err)
	}
	return true, nil
}

// SetJSON replaces the named blob with the JSON encoding of value.
func (c *Client) SetJSON(ctx context.Context, name string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("scratchpad encode %s: %w", name, err)
	}
	if err := c.store.Set(ctx, namespacedKey(name), encoded, 0).Err(); err != nil {
		return fmt.Errorf("scratchpad set %s: %w", name, err)
	}
	return nil
}

// Remove deletes the named blobs.
func (c *Client) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = namespacedKey(name)
	}
	if err := c.store.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("scratchpad del: %w", err)
	}
	return nil
}

// SetNX exposes the raw set-if-absent primitive used by locks.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// Get exposes the raw read primitive used by locks.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.store.Get(ctx, key).Result()
}

// Del exposes the raw delete primitive used by locks.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.store.Del(ctx, keys...).Err()
}

// Ping verifies the scratchpad is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
