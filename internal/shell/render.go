package shell

import (
	"fmt"
	"strings"

	"github.com/hailam/lanerunner/internal/board"
)

// ANSI escapes used by the board view.
const (
	ansiReset     = "\033[0m"
	ansiWhiteLane = "\033[42m" // green background
	ansiBlackLane = "\033[44m" // blue background
	ansiBlack     = "\033[1;31m"
	ansiWhite     = "\033[1;37m"
)

// RenderBoard draws the board with Black at the top. With colour on, lane
// squares get a background and pieces are tinted by side.
func RenderBoard(t *board.Tables, pos *board.Position, colour bool) string {
	lane := [2]board.Bitboard{t.LaneSquares(board.White), t.LaneSquares(board.Black)}

	var sb strings.Builder
	sb.WriteString("   ------------- Black\n")
	for rank := board.Ranks - 1; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < board.Files; file++ {
			sq := board.NewSquare(file, rank)
			cell := "."
			if piece := pos.PieceAt(sq); piece != board.NoPiece {
				cell = piece.String()
				if colour && piece.Color() == board.White {
					cell = ansiWhite + cell + ansiReset
				} else if colour {
					cell = ansiBlack + cell + ansiReset
				}
			}
			if colour {
				switch {
				case lane[board.White].IsSet(sq):
					cell = ansiWhiteLane + cell + ansiReset
				case lane[board.Black].IsSet(sq):
					cell = ansiBlackLane + cell + ansiReset
				}
			}
			sb.WriteString(cell + " ")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ------------- White\n")
	sb.WriteString("   A B C D E F G\n")
	return sb.String()
}
