package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

var ErrNotConnected = errors.New("websocket not connected")

const defaultDialTimeout = 10 * time.Second

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type StateCallback func(state State)

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Client is a single-connection text-frame websocket client. A match cannot be
// resumed on a new socket, so it never reconnects.
type Client struct {
	url         string
	dialTimeout time.Duration
	header      http.Header

	conn  *websocket.Conn
	connM sync.RWMutex

	state  State
	stateM sync.RWMutex

	stateCbs []stateCallbackEntry
	cbM      sync.RWMutex
	nextCbID int

	// 0 disables keepalive pings. Pings need a concurrent Read to complete.
	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger *zap.Logger
}

type Option func(*Client)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

// WithHeader adds a handshake header. Blank keys or values are ignored.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			return
		}
		c.header.Set(key, value)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:         url,
		dialTimeout: defaultDialTimeout,
		header:      http.Header{},
		state:       StateDisconnected,
		stopCh:      make(chan struct{}),
		logger:      obslog.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string { return c.url }

func (c *Client) Connect(ctx context.Context) error {
	c.stateM.RLock()
	st := c.state
	c.stateM.RUnlock()
	if st == StateConnected || st == StateConnecting {
		return nil
	}
	if st == StateClosed {
		return ErrNotConnected
	}

	c.setState(StateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.header,
	})
	if err != nil {
		c.setState(StateFailed)
		c.logger.Warn("ws_dial_failed", zap.String("url", c.url), zap.Error(err))
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.connM.Lock()
	c.conn = conn
	c.connM.Unlock()
	c.setState(StateConnected)
	c.logger.Info("ws_connected", zap.String("url", c.url))

	if c.pingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return nil
}

// Read blocks until the next data frame arrives and returns its payload.
func (c *Client) Read(ctx context.Context) (string, error) {
	conn := c.current()
	if conn == nil {
		return "", ErrNotConnected
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		if !c.isStopping() {
			c.setState(StateDisconnected)
			c.logger.Warn("ws_read_failed", zap.Int("close_status", int(websocket.CloseStatus(err))), zap.Error(err))
		}
		return "", err
	}
	return string(data), nil
}

// Write sends msg as a single text frame.
func (c *Client) Write(ctx context.Context, msg string) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		c.logger.Warn("ws_write_failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) pingLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			conn := c.current()
			if conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					if c.isStopping() {
						return
					}
					c.logger.Warn("ws_ping_failed", zap.Error(err))
					c.setState(StateDisconnected)
					_ = c.closeConn(websocket.StatusGoingAway, "ping failure")
					return
				}
				continue
			}
			failures = 0
		}
	}
}

func (c *Client) State() State {
	c.stateM.RLock()
	defer c.stateM.RUnlock()
	return c.state
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextCbID++
	c.stateCbs = append(c.stateCbs, stateCallbackEntry{id: c.nextCbID, callback: cb})
	return c.nextCbID
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.stateCbs {
		if cb.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			break
		}
	}
}

func (c *Client) setState(state State) {
	c.stateM.Lock()
	if c.state == state {
		c.stateM.Unlock()
		return
	}
	c.state = state
	c.stateM.Unlock()

	c.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(c.stateCbs))
	copy(callbacks, c.stateCbs)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close sends a normal closure and waits for the ping loop to exit.
func (c *Client) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	err := c.closeConn(websocket.StatusNormalClosure, "game over")
	c.setState(StateClosed)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return err
	}
}

func (c *Client) current() *websocket.Conn {
	c.connM.RLock()
	defer c.connM.RUnlock()
	return c.conn
}

func (c *Client) closeConn(code websocket.StatusCode, reason string) error {
	c.connM.Lock()
	conn := c.conn
	c.conn = nil
	c.connM.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(code, reason)
}

func (c *Client) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}
