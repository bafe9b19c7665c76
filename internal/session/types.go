package session

import (
	"context"
	"errors"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/engine"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
)

// ErrChannelFailure marks a connection that failed before a terminal message arrived.
var ErrChannelFailure = errors.New("channel failure")

// State is the session lifecycle.
type State string

const (
	StateActive State = "ACTIVE"
	StateEnded  State = "ENDED"
)

// Config is fixed for the lifetime of a session.
type Config struct {
	Host   bool
	GameID string
}

func (c Config) Role() string {
	if c.Host {
		return "host"
	}
	return "joiner"
}

// Conn is a bidirectional text message channel.
type Conn interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, msg string) error
}

// Decider picks the next column for sides.Local.
type Decider interface {
	Decide(ctx context.Context, b board.Board, sides board.Sides) (engine.Decision, error)
}

// Reporter surfaces the match outcome and diagnostics to the operator.
type Reporter interface {
	Outcome(ctx context.Context, result protocol.Result, final board.Board)
	Unrecognized(ctx context.Context, raw string)
}

// Observer receives a snapshot after every state change.
type Observer interface {
	Observe(ctx context.Context, snap Snapshot)
}

// SendFunc transmits one outbound move.
type SendFunc func(ctx context.Context, p protocol.Play) error

// Snapshot is a read-only view of the session, serialisable for status publishing.
type Snapshot struct {
	SessionID  string          `json:"session_id"`
	GameID     string          `json:"game_id,omitempty"`
	Role       string          `json:"role"`
	LocalPiece string          `json:"local_piece"`
	State      State           `json:"state"`
	Moves      int             `json:"moves"`
	LastColumn int             `json:"last_column"`
	LastPiece  string          `json:"last_piece,omitempty"`
	Result     protocol.Result `json:"result,omitempty"`
	Board      []string        `json:"board"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type nopReporter struct{}

func (nopReporter) Outcome(context.Context, protocol.Result, board.Board) {}
func (nopReporter) Unrecognized(context.Context, string)                  {}
