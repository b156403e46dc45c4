// Package board implements the lane runner board using bitboards.
package board

import "fmt"

// Board dimensions.
const (
	Files = 7
	Ranks = 8
)

// Square is an index into the 8x8 bit grid: rank*8 + file.
// Only files A through G are playable.
type Square uint8

// Playable squares. The blank identifiers skip the guard column.
const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	_
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	_
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	_
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	_
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	_
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	_
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	_
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	_
	NoSquare Square = 64
)

// File returns the file (0 = A).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank (0 = rank 1).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// IsValid returns true if the square is on the playable board.
func (sq Square) IsValid() bool {
	return sq < NoSquare && sq.File() < Files
}

// Mirror flips the square vertically (rank r becomes rank 7-r).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// String returns the square in move-text form, e.g. "D4".
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'A'+sq.File(), '1'+sq.Rank())
}

// ParseSquare parses a two-character square such as "D4" or "d4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	file := int(upper(s[0]) - 'A')
	rank := int(s[1]) - '1'
	if file < 0 || file >= Files || rank < 0 || rank >= Ranks {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(file, rank), nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
