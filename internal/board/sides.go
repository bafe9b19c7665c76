package board

// Sides is the per-session assignment of piece identities.
type Sides struct {
	Local    Cell
	Opponent Cell
}

// SidesFor returns the assignment for a match creator (host) or joiner.
// The creator always plays PieceA.
func SidesFor(host bool) Sides {
	if host {
		return Sides{Local: PieceA, Opponent: PieceB}
	}
	return Sides{Local: PieceB, Opponent: PieceA}
}

// Other returns the identity that moves after p.
func (s Sides) Other(p Cell) Cell {
	if p == s.Local {
		return s.Opponent
	}
	return s.Local
}
