package wsconn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/engine"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
	"nhooyr.io/websocket"
)

var _ session.Conn = (*Client)(nil)

func newTestServer(t *testing.T, handler func(ctx context.Context, c *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer c.CloseNow()
		handler(r.Context(), c)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readText(ctx context.Context, c *websocket.Conn) (string, error) {
	typ, data, err := c.Read(ctx)
	if err != nil {
		return "", err
	}
	if typ != websocket.MessageText {
		return "", errors.New("expected text frame")
	}
	return string(data), nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestClient_TextExchange(t *testing.T) {
	played := make(chan string, 1)
	srv := newTestServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Write(ctx, websocket.MessageText, []byte("GAMESTART"))
		msg, err := readText(ctx, c)
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		played <- msg
		_ = c.Write(ctx, websocket.MessageText, []byte("WIN"))
		_ = c.Close(websocket.StatusNormalClosure, "done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &stateRecorder{}
	cl := New(wsURL(srv, "/create"), WithDialTimeout(2*time.Second))
	cl.OnStateChange(rec.record)

	if err := cl.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if cl.State() != StateConnected {
		t.Fatalf("state=%s", cl.State())
	}
	if msg, err := cl.Read(ctx); err != nil || msg != "GAMESTART" {
		t.Fatalf("Read=%q err=%v", msg, err)
	}
	if err := cl.Write(ctx, "PLAY:3"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := <-played; got != "PLAY:3" {
		t.Fatalf("server got %q", got)
	}
	if msg, err := cl.Read(ctx); err != nil || msg != "WIN" {
		t.Fatalf("Read=%q err=%v", msg, err)
	}

	_, err := cl.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure, got %v", err)
	}
	if cl.State() != StateDisconnected {
		t.Fatalf("state after peer close=%s", cl.State())
	}

	_ = cl.Close(ctx)
	want := []State{StateConnecting, StateConnected, StateDisconnected, StateClosed}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("states=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states=%v want %v", got, want)
		}
	}
}

func TestClient_NotConnected(t *testing.T) {
	cl := New("ws://127.0.0.1:1/create")
	if _, err := cl.Read(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Read: expected ErrNotConnected, got %v", err)
	}
	if err := cl.Write(context.Background(), "PLAY:0"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Write: expected ErrNotConnected, got %v", err)
	}
}

func TestClient_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv, "/join/nope")
	srv.Close()

	cl := New(url, WithDialTimeout(time.Second))
	if err := cl.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if cl.State() != StateFailed {
		t.Fatalf("state=%s", cl.State())
	}
}

func TestClient_HandshakeHeader(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("X-Agent")
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_ = c.CloseNow()
	}))
	t.Cleanup(srv.Close)

	cl := New(wsURL(srv, "/create"), WithHeader("X-Agent", "connect4"), WithHeader(" ", "ignored"))
	if err := cl.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cl.Close(context.Background())
	if h := <-got; h != "connect4" {
		t.Fatalf("header=%q", h)
	}
}

func TestClient_PingKeepsConnection(t *testing.T) {
	srv := newTestServer(t, func(ctx context.Context, c *websocket.Conn) {
		// keep reading so pongs are processed
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cl := New(wsURL(srv, "/create"), WithPingInterval(20*time.Millisecond))
	if err := cl.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	readCtx, stopRead := context.WithCancel(ctx)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_, _ = cl.Read(readCtx)
	}()

	time.Sleep(150 * time.Millisecond)
	if cl.State() != StateConnected {
		t.Fatalf("state=%s", cl.State())
	}
	stopRead()
	<-readDone
	_ = cl.Close(ctx)
}

type leftmostDecider struct{}

func (leftmostDecider) Decide(_ context.Context, b board.Board, _ board.Sides) (engine.Decision, error) {
	cols := b.LegalColumns()
	if len(cols) == 0 {
		return engine.Decision{}, engine.ErrNoLegalColumns
	}
	return engine.Decision{Column: cols[0]}, nil
}

func TestClient_DrivesSession(t *testing.T) {
	plays := make(chan string, 2)
	srv := newTestServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Write(ctx, websocket.MessageText, []byte("GAMESTART"))
		msg, err := readText(ctx, c)
		if err != nil {
			return
		}
		plays <- msg
		_ = c.Write(ctx, websocket.MessageText, []byte("OPPONENT:0"))
		msg, err = readText(ctx, c)
		if err != nil {
			return
		}
		plays <- msg
		_ = c.Write(ctx, websocket.MessageText, []byte("LOSS"))
		_ = c.Close(websocket.StatusNormalClosure, "done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cl := New(wsURL(srv, "/create"))
	if err := cl.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cl.Close(ctx)

	s := session.New(session.Config{Host: true}, leftmostDecider{})
	res, err := s.Run(ctx, cl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != protocol.ResultLoss {
		t.Fatalf("result=%s", res)
	}
	for i := 0; i < 2; i++ {
		if got := <-plays; got != "PLAY:0" {
			t.Fatalf("play #%d=%q", i, got)
		}
	}
}
