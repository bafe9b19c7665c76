package engine

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/obslog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultRolloutsPerColumn = 5000

var ErrNoLegalColumns = errors.New("no legal columns")

// ColumnScore is the rollout tally for one candidate column.
type ColumnScore struct {
	Column   int
	Wins     int
	Rollouts int
}

func (s ColumnScore) WinRate() float64 {
	if s.Rollouts <= 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rollouts)
}

// Decision is the selector's answer for one position.
type Decision struct {
	Column   int
	Baseline int
	Scores   []ColumnScore
	Elapsed  time.Duration
}

// Score returns the tally for col, if it was evaluated.
func (d Decision) Score(col int) (ColumnScore, bool) {
	for _, s := range d.Scores {
		if s.Column == col {
			return s, true
		}
	}
	return ColumnScore{}, false
}

type Selector struct {
	rollouts int
	workers  int
	logger   *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

type Option func(*Selector)

func WithRollouts(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.rollouts = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithSeed(seed int64) Option {
	return func(s *Selector) { s.rand = rand.New(rand.NewSource(seed)) }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Selector) {
		if r != nil {
			s.rand = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		rollouts: DefaultRolloutsPerColumn,
		workers:  runtime.NumCPU(),
		logger:   obslog.L(),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) RolloutsPerColumn() int { return s.rollouts }

func (s *Selector) SetRandomSeed(seed int64) {
	s.randMu.Lock()
	s.rand = rand.New(rand.NewSource(seed))
	s.randMu.Unlock()
}

// ChooseColumn scores every legal column for acting and returns the one with
// the highest win rate. Ties keep the lower column.
func (s *Selector) ChooseColumn(b board.Board, acting board.Cell, sides board.Sides) (Decision, error) {
	start := time.Now()
	legal := b.LegalColumns()
	if len(legal) == 0 {
		return Decision{}, ErrNoLegalColumns
	}

	// seeds are drawn in column order before any goroutine starts
	s.randMu.Lock()
	baseline := legal[s.rand.Intn(len(legal))]
	seeds := make([]int64, len(legal))
	for i := range seeds {
		seeds[i] = s.rand.Int63()
	}
	s.randMu.Unlock()

	next := sides.Other(acting)
	scores := make([]ColumnScore, len(legal))

	var g errgroup.Group
	g.SetLimit(max(1, s.workers))
	for i, col := range legal {
		g.Go(func() error {
			candidate := b
			row, _ := candidate.LowestOpenRow(col)
			candidate.Drop(row, col, acting)

			r := rand.New(rand.NewSource(seeds[i]))
			wins := 0
			for n := 0; n < s.rollouts; n++ {
				if Simulate(candidate, next, sides, r).Wins(acting) {
					wins++
				}
			}
			scores[i] = ColumnScore{Column: col, Wins: wins, Rollouts: s.rollouts}
			return nil
		})
	}
	_ = g.Wait()

	chosen := baseline
	best := -1.0
	for _, sc := range scores {
		if rate := sc.WinRate(); rate > best {
			best = rate
			chosen = sc.Column
		}
	}

	d := Decision{Column: chosen, Baseline: baseline, Scores: scores, Elapsed: time.Since(start)}
	s.logger.Debug("engine_decision",
		zap.Int("column", chosen),
		zap.Int("baseline", baseline),
		zap.Float64("win_rate", best),
		zap.Float64s("rates", rates(scores)),
		zap.Int("rollouts_per_column", s.rollouts),
		zap.Duration("elapsed", d.Elapsed),
	)
	return d, nil
}

func rates(scores []ColumnScore) []float64 {
	out := make([]float64, len(scores))
	for i, sc := range scores {
		out[i] = sc.WinRate()
	}
	return out
}
