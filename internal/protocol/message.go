package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
)

// ErrMalformedMessage marks a recognised command whose argument is missing or invalid.
var ErrMalformedMessage = errors.New("malformed message")

// Wire commands.
const (
	CmdGameStart  = "GAMESTART"
	CmdOpponent   = "OPPONENT"
	CmdWin        = "WIN"
	CmdLoss       = "LOSS"
	CmdDraw       = "DRAW"
	CmdTerminated = "TERMINATED"
	CmdAck        = "ACK"
	CmdPlay       = "PLAY"

	separator = ":"
)

// Result is the terminal classification sent by the server.
type Result string

const (
	ResultWin        Result = "won"
	ResultLoss       Result = "lost"
	ResultDraw       Result = "drawn"
	ResultTerminated Result = "terminated"
)

// Inbound is one decoded server message. The set of variants is closed.
type Inbound interface{ isInbound() }

type GameStart struct{}

type Opponent struct {
	Column int
}

type Outcome struct {
	Result Result
}

type Ack struct{}

// Unknown carries a message whose command is not recognised.
type Unknown struct {
	Raw string
}

func (GameStart) isInbound() {}
func (Opponent) isInbound()  {}
func (Outcome) isInbound()   {}
func (Ack) isInbound()       {}
func (Unknown) isInbound()   {}

// Play is the only outbound message.
type Play struct {
	Column int
}

// Decode parses a colon-delimited inbound message.
func Decode(raw string) (Inbound, error) {
	parts := strings.Split(strings.TrimSpace(raw), separator)
	switch parts[0] {
	case CmdGameStart:
		return GameStart{}, nil
	case CmdOpponent:
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("%w: %s without column", ErrMalformedMessage, CmdOpponent)
		}
		col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s column %q: %v", ErrMalformedMessage, CmdOpponent, parts[1], err)
		}
		if col < 0 || col >= board.Cols {
			return nil, fmt.Errorf("%w: %s column %d out of range", ErrMalformedMessage, CmdOpponent, col)
		}
		return Opponent{Column: col}, nil
	case CmdWin:
		return Outcome{Result: ResultWin}, nil
	case CmdLoss:
		return Outcome{Result: ResultLoss}, nil
	case CmdDraw:
		return Outcome{Result: ResultDraw}, nil
	case CmdTerminated:
		return Outcome{Result: ResultTerminated}, nil
	case CmdAck:
		return Ack{}, nil
	default:
		return Unknown{Raw: raw}, nil
	}
}

// Encode renders an outbound move as PLAY:<column>.
func Encode(p Play) string {
	return CmdPlay + separator + strconv.Itoa(p.Column)
}
