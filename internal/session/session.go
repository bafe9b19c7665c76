package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"go.uber.org/zap"
)

// Session owns the live board for one match. It is not safe for concurrent use;
// Run drives it from a single goroutine.
type Session struct {
	id    string
	cfg   Config
	sides board.Sides

	board      board.Board
	state      State
	moves      int
	lastColumn int
	lastPiece  board.Cell
	result     protocol.Result

	decider  Decider
	reporter Reporter
	observer Observer
	logger   *zap.Logger
}

type Option func(*Session)

func WithReporter(r Reporter) Option {
	return func(s *Session) {
		if r != nil {
			s.reporter = r
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithID overrides the generated session id. Blank ids are ignored.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(cfg Config, decider Decider, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		sides:      board.SidesFor(cfg.Host),
		board:      board.EmptyBoard(),
		state:      StateActive,
		lastColumn: -1,
		decider:    decider,
		reporter:   nopReporter{},
		logger:     obslog.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id), zap.String("role", cfg.Role()))
	return s
}

func (s *Session) ID() string              { return s.id }
func (s *Session) State() State            { return s.state }
func (s *Session) Sides() board.Sides      { return s.sides }
func (s *Session) Board() board.Board      { return s.board }
func (s *Session) Moves() int              { return s.moves }
func (s *Session) Result() protocol.Result { return s.result }

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		GameID:     s.cfg.GameID,
		Role:       s.cfg.Role(),
		LocalPiece: s.sides.Local.String(),
		State:      s.state,
		Moves:      s.moves,
		LastColumn: s.lastColumn,
		Result:     s.result,
		Board:      s.board.Lines(),
		UpdatedAt:  time.Now(),
	}
	if s.lastPiece != board.Empty {
		snap.LastPiece = s.lastPiece.String()
	}
	return snap
}

// Run reads and handles messages until a terminal message arrives.
func (s *Session) Run(ctx context.Context, conn Conn) (protocol.Result, error) {
	s.logger.Info("session_start", zap.String("game_id", s.cfg.GameID), zap.String("local_piece", s.sides.Local.String()))
	s.observe(ctx)

	send := func(ctx context.Context, p protocol.Play) error {
		return conn.Write(ctx, protocol.Encode(p))
	}
	for s.state == StateActive {
		raw, err := conn.Read(ctx)
		if err != nil {
			s.logger.Warn("session_channel_failure", zap.Int("moves", s.moves), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrChannelFailure, err)
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			s.logger.Error("session_malformed_message", zap.String("raw", raw), zap.Error(err))
			return "", err
		}
		if err := s.Handle(ctx, msg, send); err != nil {
			return "", err
		}
	}
	s.logger.Info("session_end", zap.String("result", string(s.result)), zap.Int("moves", s.moves))
	return s.result, nil
}

// Handle applies one inbound message. Any outbound move is sent before it is
// applied to the local board, and both happen before Handle returns.
func (s *Session) Handle(ctx context.Context, msg protocol.Inbound, send SendFunc) error {
	if s.state == StateEnded {
		s.logger.Debug("session_message_after_end", zap.String("type", fmt.Sprintf("%T", msg)))
		return nil
	}

	switch m := msg.(type) {
	case protocol.GameStart:
		if !s.cfg.Host {
			return nil
		}
		return s.playOwnMove(ctx, send)

	case protocol.Opponent:
		if err := s.apply(m.Column, s.sides.Opponent); err != nil {
			return fmt.Errorf("apply opponent move: %w", err)
		}
		s.logger.Debug("session_opponent_move", zap.Int("column", m.Column), zap.Int("moves", s.moves))
		s.observe(ctx)
		if s.board.IsTerminal() {
			s.logger.Info("session_board_terminal", zap.Int("moves", s.moves))
			return nil
		}
		return s.playOwnMove(ctx, send)

	case protocol.Outcome:
		s.state = StateEnded
		s.result = m.Result
		s.reporter.Outcome(ctx, m.Result, s.board)
		s.observe(ctx)
		return nil

	case protocol.Ack:
		return nil

	case protocol.Unknown:
		s.logger.Info("session_unrecognized_message", zap.String("raw", m.Raw))
		s.reporter.Unrecognized(ctx, m.Raw)
		return nil

	default:
		return fmt.Errorf("%w: unsupported inbound %T", protocol.ErrMalformedMessage, msg)
	}
}

func (s *Session) playOwnMove(ctx context.Context, send SendFunc) error {
	d, err := s.decider.Decide(ctx, s.board, s.sides)
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}
	if err := send(ctx, protocol.Play{Column: d.Column}); err != nil {
		return fmt.Errorf("%w: send move: %w", ErrChannelFailure, err)
	}
	if err := s.apply(d.Column, s.sides.Local); err != nil {
		return fmt.Errorf("apply own move: %w", err)
	}
	fields := []zap.Field{zap.Int("column", d.Column), zap.Int("moves", s.moves), zap.Duration("elapsed", d.Elapsed)}
	if sc, ok := d.Score(d.Column); ok {
		fields = append(fields, zap.Float64("win_rate", sc.WinRate()))
	}
	s.logger.Info("session_play", fields...)
	s.observe(ctx)
	return nil
}

func (s *Session) apply(col int, piece board.Cell) error {
	if _, err := s.board.Play(col, piece); err != nil {
		return err
	}
	s.moves++
	s.lastColumn = col
	s.lastPiece = piece
	return nil
}

func (s *Session) observe(ctx context.Context) {
	if s.observer == nil {
		return
	}
	s.observer.Observe(ctx, s.Snapshot())
}
