package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares, one bit per square.
// Bit 0 = A1, bit 6 = G1, bit 56 = A8. Bit 7 of every byte is the
// off-board guard column and is never set in a valid position.
type Bitboard uint64

// File masks (file H is the guard column).
const (
	FileA Bitboard = 0x0101010101010101
	FileB Bitboard = 0x0202020202020202
	FileC Bitboard = 0x0404040404040404
	FileD Bitboard = 0x0808080808080808
	FileE Bitboard = 0x1010101010101010
	FileF Bitboard = 0x2020202020202020
	FileG Bitboard = 0x4040404040404040
	FileH Bitboard = 0x8080808080808080
)

// Rank masks.
const (
	Rank1 Bitboard = 0x00000000000000FF
	Rank2 Bitboard = 0x000000000000FF00
	Rank3 Bitboard = 0x0000000000FF0000
	Rank4 Bitboard = 0x00000000FF000000
	Rank5 Bitboard = 0x000000FF00000000
	Rank6 Bitboard = 0x0000FF0000000000
	Rank7 Bitboard = 0x00FF000000000000
	Rank8 Bitboard = 0xFF00000000000000
)

const (
	Empty Bitboard = 0

	// BoardMask covers the 56 playable squares.
	BoardMask Bitboard = ^FileH

	// Pre-shift edge masks in the 8-wide bit space.
	NotFileA  Bitboard = ^FileA
	NotFileH  Bitboard = ^FileH
	NotFileAB Bitboard = ^(FileA | FileB)
	NotFileGH Bitboard = ^(FileG | FileH)
)

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&(1<<sq) != 0
}

// PopCount returns the number of set bits.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest set square, or NoSquare.
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// MSB returns the highest set square, or NoSquare.
func (b Bitboard) MSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(63 - bits.LeadingZeros64(uint64(b)))
}

// PopLSB removes and returns the least significant bit.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// North shifts one rank up. The guard column keeps the result on the board.
func (b Bitboard) North() Bitboard {
	return b << 8
}

// South shifts one rank down.
func (b Bitboard) South() Bitboard {
	return b >> 8
}

// Diagonal single steps. A piece stepping off the G or A file lands on
// the guard column, which BoardMask clears.

// NorthEast shifts toward G8.
func (b Bitboard) NorthEast() Bitboard {
	return (b << 9) & BoardMask
}

// NorthWest shifts toward A8.
func (b Bitboard) NorthWest() Bitboard {
	return (b << 7) & BoardMask
}

// SouthEast shifts toward G1.
func (b Bitboard) SouthEast() Bitboard {
	return (b >> 7) & BoardMask
}

// SouthWest shifts toward A1.
func (b Bitboard) SouthWest() Bitboard {
	return (b >> 9) & BoardMask
}

// Squares returns the set squares in ascending order.
func (b Bitboard) Squares() []Square {
	squares := make([]Square, 0, b.PopCount())
	for b != 0 {
		squares = append(squares, b.PopLSB())
	}
	return squares
}

// String draws the playable 7x8 area, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := Ranks - 1; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < Files; file++ {
			if b.IsSet(NewSquare(file, rank)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g\n")
	return sb.String()
}
