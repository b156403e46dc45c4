package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrMalformedMove is returned for move text that is not four
	// characters of the form A1B2.
	ErrMalformedMove = errors.New("malformed move")
	// ErrIllegalMove is returned when a well-formed move is not in the
	// generated move list.
	ErrIllegalMove = errors.New("illegal move")
)

// Move is a single piece relocation. Piece is informational: two moves
// are equal when their squares match.
type Move struct {
	Piece Piece
	From  Square
	To    Square
}

// NoMove represents an invalid or null move.
var NoMove = Move{Piece: NoPiece, From: NoSquare, To: NoSquare}

// NewMove creates a move for piece from one square to another.
func NewMove(piece Piece, from, to Square) Move {
	return Move{Piece: piece, From: from, To: to}
}

// Equal compares origin and destination only.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To
}

// IsNull reports whether m is NoMove.
func (m Move) IsNull() bool {
	return m.From == NoSquare || m.To == NoSquare
}

// Mirror flips both squares vertically, giving the move as seen from the
// opposite side of the board.
func (m Move) Mirror() Move {
	if m.IsNull() {
		return m
	}
	return Move{Piece: m.Piece, From: m.From.Mirror(), To: m.To.Mirror()}
}

// String returns the four character form, e.g. "D4D5".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	return m.From.String() + m.To.String()
}

// ParseMove parses four characters such as "d4d5". The result carries
// NoPiece; resolve it against a MoveList with Find.
func ParseMove(s string) (Move, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return NoMove, fmt.Errorf("%w: %q", ErrMalformedMove, s)
	}
	for i := 0; i < 4; i += 2 {
		if s[i] < 'A' || s[i] > 'G' || s[i+1] < '1' || s[i+1] > '8' {
			return NoMove, fmt.Errorf("%w: %q", ErrMalformedMove, s)
		}
	}
	from := NewSquare(int(s[0]-'A'), int(s[1]-'1'))
	to := NewSquare(int(s[2]-'A'), int(s[3]-'1'))
	return Move{Piece: NoPiece, From: from, To: to}, nil
}

// MoveList is an ordered list of generated moves.
type MoveList struct {
	moves []Move

	// RunnerIndex is the position of the runner move, or -1 if the
	// runner move was not generated.
	RunnerIndex int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{moves: make([]Move, 0, 48), RunnerIndex: -1}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves = append(ml.moves, m)
}

// addRunner appends the runner move and records its index.
func (ml *MoveList) addRunner(m Move) {
	ml.RunnerIndex = len(ml.moves)
	ml.moves = append(ml.moves, m)
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return len(ml.moves)
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves
}

// Contains returns true if the list contains a move with the same squares.
func (ml *MoveList) Contains(m Move) bool {
	_, ok := ml.Find(m.From, m.To)
	return ok
}

// Find returns the generated move between two squares.
func (ml *MoveList) Find(from, to Square) (Move, bool) {
	for _, m := range ml.moves {
		if m.From == from && m.To == to {
			return m, true
		}
	}
	return NoMove, false
}

// Runner returns the runner move if it was generated.
func (ml *MoveList) Runner() (Move, bool) {
	if ml.RunnerIndex < 0 || ml.RunnerIndex >= len(ml.moves) {
		return NoMove, false
	}
	return ml.moves[ml.RunnerIndex], true
}

// Strings returns the text form of every move.
func (ml *MoveList) Strings() []string {
	return lo.Map(ml.moves, func(m Move, _ int) string {
		return m.String()
	})
}
