package engine

import (
	"context"
	"errors"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
)

var ErrDecisionInFlight = errors.New("decision already in flight")

// Worker runs selector batches off the caller's goroutine, one at a time.
type Worker struct {
	sel  *Selector
	slot chan struct{}
}

func NewWorker(sel *Selector) *Worker {
	if sel == nil {
		sel = NewSelector()
	}
	return &Worker{sel: sel, slot: make(chan struct{}, 1)}
}

type decisionResult struct {
	decision Decision
	err      error
}

// Decide picks a column for sides.Local. A second call while one is running
// fails with ErrDecisionInFlight. If ctx ends first the batch still runs to
// completion in the background and its result is dropped.
func (w *Worker) Decide(ctx context.Context, b board.Board, sides board.Sides) (Decision, error) {
	select {
	case w.slot <- struct{}{}:
	default:
		return Decision{}, ErrDecisionInFlight
	}

	done := make(chan decisionResult, 1)
	go func() {
		d, err := w.sel.ChooseColumn(b, sides.Local, sides)
		<-w.slot
		done <- decisionResult{decision: d, err: err}
	}()

	select {
	case res := <-done:
		return res.decision, res.err
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// Busy reports whether a decision is currently being computed.
func (w *Worker) Busy() bool { return len(w.slot) > 0 }
