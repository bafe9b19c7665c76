package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ttlSnapshot    = 2 * time.Hour
	publishTimeout = 2 * time.Second

	// UpdatesChannel receives every snapshot as JSON.
	UpdatesChannel = "c4:session:updates"
)

// Publisher mirrors live session snapshots into Redis.
type Publisher struct {
	rdb     *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Publisher)

func WithTTL(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.ttl = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPublisher(rdb *redis.Client, opts ...Option) *Publisher {
	p := &Publisher{rdb: rdb, ttl: ttlSnapshot, timeout: publishTimeout, logger: obslog.L()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPublisherFromURL parses a redis:// URL and pings the server.
func NewPublisherFromURL(ctx context.Context, url string, opts ...Option) (*Publisher, error) {
	o, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(o)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewPublisher(rdb, opts...), nil
}

func keySession(id string) string { return "c4:session:" + strings.TrimSpace(id) }
func keyActive() string           { return "c4:sessions:active" }

// Publish stores snap under its session key with a TTL, maintains the active
// index and announces the update.
func (p *Publisher) Publish(ctx context.Context, snap session.Snapshot) error {
	if strings.TrimSpace(snap.SessionID) == "" {
		return errors.New("snapshot without session id")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, keySession(snap.SessionID), raw, p.ttl)
	if snap.State == session.StateEnded {
		pipe.SRem(ctx, keyActive(), snap.SessionID)
	} else {
		pipe.SAdd(ctx, keyActive(), snap.SessionID)
		pipe.Expire(ctx, keyActive(), p.ttl)
	}
	pipe.Publish(ctx, UpdatesChannel, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Observe publishes with a short timeout and only logs failures.
func (p *Publisher) Observe(ctx context.Context, snap session.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.Publish(ctx, snap); err != nil {
		p.logger.Warn("status_publish_failed", zap.String("session_id", snap.SessionID), zap.Error(err))
	}
}

// Load returns nil, nil when no snapshot is stored.
func (p *Publisher) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	raw, err := p.rdb.Get(ctx, keySession(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap session.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (p *Publisher) Active(ctx context.Context) ([]string, error) {
	return p.rdb.SMembers(ctx, keyActive()).Result()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
