package msgcat

import (
	"fmt"

	"github.com/park285/connect4-montecarlo-bot/internal/protocol"
)

var outcomeDefaults = map[protocol.Result]string{
	protocol.ResultWin:        "You Won!",
	protocol.ResultLoss:       "You Lost!",
	protocol.ResultDraw:       "Game Drawn!",
	protocol.ResultTerminated: "Game Terminated by Opponent!",
}

// OutcomeText is the line shown when the server ends the game.
// Unknown results render as their raw value.
func (c *Catalog) OutcomeText(result protocol.Result) string {
	fallback, ok := outcomeDefaults[result]
	if !ok {
		fallback = string(result)
	}
	return c.Text("outcome."+string(result), nil, fallback)
}

func (c *Catalog) UnrecognizedText(raw string) string {
	return c.Text("game.unrecognized", map[string]any{"Raw": raw}, "game id message: "+raw)
}

// MoveText describes a move just applied, either ours or the opponent's.
func (c *Catalog) MoveText(own bool, column int) string {
	data := map[string]any{"Column": column}
	if own {
		return c.Text("move.own", data, fmt.Sprintf("Playing column %d", column))
	}
	return c.Text("move.opponent", data, fmt.Sprintf("Opponent played column %d", column))
}
