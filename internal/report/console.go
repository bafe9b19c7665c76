package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/park285/connect4-montecarlo-bot/internal/msgcat"
	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
	"github.com/park285/connect4-montecarlo-bot/internal/session"
)

var outcomeColor = map[protocol.Result]string{
	protocol.ResultWin:        "#2ecc71",
	protocol.ResultLoss:       "#e74c3c",
	protocol.ResultDraw:       "#f1c40f",
	protocol.ResultTerminated: "#95a5a6",
}

// Console writes outcome lines and, optionally, the board after every move.
type Console struct {
	mu        sync.Mutex
	out       *termenv.Output
	cat       *msgcat.Catalog
	showBoard bool
}

type Option func(*consoleOptions)

type consoleOptions struct {
	color     bool
	showBoard bool
}

func WithColor(on bool) Option {
	return func(o *consoleOptions) { o.color = on }
}

func WithBoard(on bool) Option {
	return func(o *consoleOptions) { o.showBoard = on }
}

func NewConsole(w io.Writer, cat *msgcat.Catalog, opts ...Option) *Console {
	o := consoleOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	profile := termenv.Ascii
	if o.color {
		profile = termenv.ANSI256
	}
	return &Console{
		out:       termenv.NewOutput(w, termenv.WithProfile(profile)),
		cat:       cat,
		showBoard: o.showBoard,
	}
}

func (c *Console) Outcome(_ context.Context, result protocol.Result, final board.Board) {
	text := c.cat.OutcomeText(result)
	styled := c.out.String(text).Bold()
	if hex, ok := outcomeColor[result]; ok {
		styled = styled.Foreground(c.out.Color(hex))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.showBoard {
		c.writeBoard(final.Lines())
	}
	fmt.Fprintln(c.out, styled.String())
}

func (c *Console) Unrecognized(_ context.Context, raw string) {
	c.Println(c.cat.UnrecognizedText(raw))
}

// Observe prints each move as it is applied.
func (c *Console) Observe(_ context.Context, snap session.Snapshot) {
	if !c.showBoard || snap.LastColumn < 0 || snap.State != session.StateActive {
		return
	}
	text := c.cat.MoveText(snap.LastPiece == snap.LocalPiece, snap.LastColumn)

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
	c.writeBoard(snap.Board)
}

// Announce renders a catalog message as a plain line.
func (c *Console) Announce(key string, data any, fallback string) {
	c.Println(c.cat.Text(key, data, fallback))
}

func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

func (c *Console) writeBoard(lines []string) {
	pieceA := c.out.Color("#dc322f")
	pieceB := c.out.Color("#f1c40f")
	for _, line := range lines {
		var sb strings.Builder
		sb.WriteString("|")
		for i, ch := range line {
			if i > 0 {
				sb.WriteString(" ")
			}
			cell := string(ch)
			switch cell {
			case board.PieceA.String():
				sb.WriteString(c.out.String(cell).Foreground(pieceA).String())
			case board.PieceB.String():
				sb.WriteString(c.out.String(cell).Foreground(pieceB).String())
			default:
				sb.WriteString(cell)
			}
		}
		sb.WriteString("|")
		fmt.Fprintln(c.out, sb.String())
	}
	var labels strings.Builder
	labels.WriteString(" ")
	for col := 0; col < board.Cols; col++ {
		if col > 0 {
			labels.WriteString(" ")
		}
		fmt.Fprintf(&labels, "%d", col)
	}
	fmt.Fprintln(c.out, labels.String())
}
