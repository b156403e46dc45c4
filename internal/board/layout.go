package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLayout is returned by ParseLayout.
var ErrInvalidLayout = errors.New("invalid layout")

// ParseLayout parses a placement string: eight rows separated by '/',
// rank 8 first, digits 1-7 for runs of empty squares, PNRBC for White
// and pnrbc for Black. A side may have at most one runner.
func ParseLayout(layout string) (*Position, error) {
	rows := strings.Split(strings.TrimSpace(layout), "/")
	if len(rows) != Ranks {
		return nil, fmt.Errorf("%w: need %d rows, got %d", ErrInvalidLayout, Ranks, len(rows))
	}

	pos := &Position{}
	for i, row := range rows {
		rank := Ranks - 1 - i
		file := 0

		for _, c := range row {
			if file >= Files {
				return nil, fmt.Errorf("%w: too many squares in rank %d", ErrInvalidLayout, rank+1)
			}

			if c >= '1' && c <= '7' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLayout, c, ErrUnknownPiece)
			}
			if piece.Type() == Runner && pos.Pieces[piece.Color()][Runner] != 0 {
				return nil, fmt.Errorf("%w: second %v runner", ErrInvalidLayout, piece.Color())
			}
			pos.SetPiece(piece, NewSquare(file, rank))
			file++
		}

		if file != Files {
			return nil, fmt.Errorf("%w: rank %d has %d squares", ErrInvalidLayout, rank+1, file)
		}
	}

	return pos, nil
}

// MustParseLayout is like ParseLayout but panics on error.
func MustParseLayout(layout string) *Position {
	pos, err := ParseLayout(layout)
	if err != nil {
		panic(err)
	}
	return pos
}

// Layout returns the placement string accepted by ParseLayout.
func (p *Position) Layout() string {
	var sb strings.Builder

	for rank := Ranks - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < Files; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	return sb.String()
}
