package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var ErrEmptyURL = errors.New("notify url is empty")

const (
	EventOutcome      = "outcome"
	EventUnrecognized = "unrecognized"
)

// Meta identifies the session an event belongs to.
type Meta struct {
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id,omitempty"`
	Role      string `json:"role"`
}

// Event is the webhook payload.
type Event struct {
	Meta
	Type        string          `json:"type"`
	Result      protocol.Result `json:"result,omitempty"`
	Moves       int             `json:"moves"`
	Board       []string        `json:"board,omitempty"`
	Message     string          `json:"message,omitempty"`
	ImageBase64 string          `json:"image_base64,omitempty"`
	SentAt      time.Time       `json:"sent_at"`
}

// ImageFunc renders a PNG of the final board.
type ImageFunc func(b board.Board) ([]byte, error)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client posts session events to a webhook. It also serves as a session reporter.
type Client struct {
	url     string
	http    *fasthttp.Client
	headers HeaderProvider
	image   ImageFunc
	meta    Meta

	defaultTimeout time.Duration
	retryMax       int

	logger *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(n int) Option {
	return func(c *Client) { c.retryMax = n }
}

func WithImage(f ImageFunc) Option {
	return func(c *Client) { c.image = f }
}

func WithMeta(m Meta) Option {
	return func(c *Client) { c.meta = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}
	c := &Client{
		url:            url,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 4},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
		logger:         obslog.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Outcome posts the final result. Failures are logged, never returned.
func (c *Client) Outcome(ctx context.Context, result protocol.Result, final board.Board) {
	ev := Event{
		Meta:   c.meta,
		Type:   EventOutcome,
		Result: result,
		Moves:  final.Count(),
		Board:  final.Lines(),
	}
	if c.image != nil {
		png, err := c.image(final)
		if err != nil {
			c.logger.Warn("notify_image_failed", zap.Error(err))
		} else {
			ev.ImageBase64 = base64.StdEncoding.EncodeToString(png)
		}
	}
	if err := c.Send(ctx, ev); err != nil {
		c.logger.Warn("notify_outcome_failed", zap.String("result", string(result)), zap.Error(err))
	}
}

// Unrecognized forwards messages the agent could not classify, such as the game id.
func (c *Client) Unrecognized(ctx context.Context, raw string) {
	if err := c.Send(ctx, Event{Meta: c.meta, Type: EventUnrecognized, Message: raw}); err != nil {
		c.logger.Warn("notify_unrecognized_failed", zap.Error(err))
	}
}

func (c *Client) Send(ctx context.Context, ev Event) error {
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now().UTC()
	}
	return c.doJSON(ctx, fasthttp.MethodPost, ev)
}

func (c *Client) doJSON(ctx context.Context, method string, in any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req.SetBody(payload)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			err := fmt.Errorf("webhook error: status=%d body=%s", status, truncate(body, 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}
		c.logger.Debug("notify_sent", zap.Int("status", status), zap.Int("attempt", attempt))
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
