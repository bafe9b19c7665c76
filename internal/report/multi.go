package report

import (
	"context"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
)

// Reporters fans out to every non-nil reporter in order.
type Reporters []session.Reporter

func Multi(rs ...session.Reporter) Reporters {
	out := make(Reporters, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs Reporters) Outcome(ctx context.Context, result protocol.Result, final board.Board) {
	for _, r := range rs {
		r.Outcome(ctx, result, final)
	}
}

func (rs Reporters) Unrecognized(ctx context.Context, raw string) {
	for _, r := range rs {
		r.Unrecognized(ctx, raw)
	}
}

// Observers fans out snapshots to every non-nil observer in order.
type Observers []session.Observer

func MultiObserver(obs ...session.Observer) Observers {
	out := make(Observers, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (obs Observers) Observe(ctx context.Context, snap session.Snapshot) {
	for _, o := range obs {
		o.Observe(ctx, snap)
	}
}
