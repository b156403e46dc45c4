package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRunnerOffLane means a runner bit is not on any waypoint of its lane.
	ErrRunnerOffLane = errors.New("runner is not on its lane")
	// ErrUnknownPiece means a square is claimed by no known piece type.
	ErrUnknownPiece = errors.New("unknown piece")
	// ErrInvalidPosition is returned by Validate.
	ErrInvalidPosition = errors.New("invalid position")
)

// GameState reports whether a position is terminal.
type GameState uint8

const (
	InProgress GameState = iota
	WhiteWins
	BlackWins
)

// String returns the state name.
func (s GameState) String() string {
	switch s {
	case WhiteWins:
		return "WhiteWins"
	case BlackWins:
		return "BlackWins"
	default:
		return "InProgress"
	}
}

// Winner returns the winning color, or NoColor while in progress.
func (s GameState) Winner() Color {
	switch s {
	case WhiteWins:
		return White
	case BlackWins:
		return Black
	default:
		return NoColor
	}
}

// StartLayout is the initial placement.
const StartLayout = "c6/1p5/rrpbb2/nn1pppp/NN1PPPP/RRPBB2/1P5/C6"

// Position is the full piece placement for both sides. It is a plain value:
// assigning it copies the whole board.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][NumPieceTypes]Bitboard

	// Aggregates, always the union of Pieces.
	Occupied    [2]Bitboard
	AllOccupied Bitboard
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, err := ParseLayout(StartLayout)
	if err != nil {
		panic(err)
	}
	return pos
}

// Clone returns a value copy of the position.
func (p *Position) Clone() Position {
	return *p
}

// Child returns a copy of the position with m applied.
func (p *Position) Child(m Move) Position {
	child := *p
	child.Apply(m)
	return child
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}

	c := White
	if p.Occupied[White]&bb == 0 {
		c = Black
	}
	for pt := Pawn; pt <= Runner; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// RunnerSquare returns the square of c's runner, or NoSquare.
func (p *Position) RunnerSquare(c Color) Square {
	return p.Pieces[c][Runner].LSB()
}

// SetPiece places a piece, replacing whatever stood on the square.
// A runner is moved rather than duplicated.
func (p *Position) SetPiece(piece Piece, sq Square) {
	if piece == NoPiece || !sq.IsValid() {
		return
	}
	p.clearSquare(sq)
	c, pt := piece.Color(), piece.Type()
	if pt == Runner {
		p.Pieces[c][Runner] = SquareBB(sq)
	} else {
		p.Pieces[c][pt] |= SquareBB(sq)
	}
	p.updateOccupied()
}

// RemovePiece empties a square and returns what stood there.
func (p *Position) RemovePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	p.clearSquare(sq)
	p.updateOccupied()
	return piece
}

func (p *Position) clearSquare(sq Square) {
	mask := ^SquareBB(sq)
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Runner; pt++ {
			p.Pieces[c][pt] &= mask
		}
	}
}

// Apply plays m in place. Whatever occupies the destination is removed;
// legality is the caller's concern.
func (p *Position) Apply(m Move) {
	us := m.Piece.Color()
	pt := m.Piece.Type()
	if us >= NoColor {
		return
	}
	them := us.Other()
	from, to := SquareBB(m.From), SquareBB(m.To)

	p.Pieces[us][pt] = p.Pieces[us][pt]&^from | to
	for t := Pawn; t <= Runner; t++ {
		p.Pieces[them][t] &^= to
	}
	if pt == Runner {
		for t := Pawn; t < Runner; t++ {
			p.Pieces[us][t] &^= to
		}
		p.Pieces[us][Runner] = to
	}
	p.updateOccupied()
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty

	for pt := Pawn; pt <= Runner; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}

	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// State reports a win when a runner stands on its final waypoint.
func (p *Position) State(t *Tables) GameState {
	if p.Pieces[White][Runner] == t.SquareBB(t.LaneFinal(White)) {
		return WhiteWins
	}
	if p.Pieces[Black][Runner] == t.SquareBB(t.LaneFinal(Black)) {
		return BlackWins
	}
	return InProgress
}

// Count returns the number of pieces of a type for a color.
func (p *Position) Count(c Color, pt PieceType) int {
	return p.Pieces[c][pt].PopCount()
}

// Material returns the material balance from White's point of view.
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < Runner; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}

// Validate checks the structural invariants of the position.
func (p *Position) Validate(t *Tables) error {
	var seen Bitboard
	for c := White; c <= Black; c++ {
		var union Bitboard
		for pt := Pawn; pt <= Runner; pt++ {
			bb := p.Pieces[c][pt]
			if bb&^BoardMask != 0 {
				return fmt.Errorf("%w: %v %v on guard column", ErrInvalidPosition, c, pt)
			}
			if bb&seen != 0 {
				return fmt.Errorf("%w: overlapping pieces at %v", ErrInvalidPosition, (bb & seen).LSB())
			}
			seen |= bb
			union |= bb
		}
		if union != p.Occupied[c] {
			return fmt.Errorf("%w: %v occupancy out of date", ErrInvalidPosition, c)
		}
		runner := p.Pieces[c][Runner]
		if runner.PopCount() != 1 {
			return fmt.Errorf("%w: %v has %d runners", ErrInvalidPosition, c, runner.PopCount())
		}
		if t.LaneProgress(c, runner.LSB()) < 0 {
			return fmt.Errorf("%w: %v runner at %v", ErrRunnerOffLane, c, runner.LSB())
		}
	}
	if p.AllOccupied != p.Occupied[White]|p.Occupied[Black] {
		return fmt.Errorf("%w: combined occupancy out of date", ErrInvalidPosition)
	}
	return nil
}

// String renders the board, rank 8 at the top.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := Ranks - 1; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < Files; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   A B C D E F G\n")
	return sb.String()
}
