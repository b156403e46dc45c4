// Package engine implements the computer opponents for the lane runner game.
package engine

import (
	"fmt"

	"github.com/hailam/lanerunner/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 10
	KnightValue = 40
	RookValue   = 35
	BishopValue = 30

	// RunnerStepValue is awarded per waypoint the runner has advanced.
	RunnerStepValue = 200
)

// Piece values array for quick lookup, indexed by board.PieceType.
var pieceValues = [board.NumPieceTypes]int{PawnValue, KnightValue, RookValue, BishopValue, 0}

// Evaluate returns the static evaluation from White's point of view:
// positive favours White. A runner off its lane contributes nothing and
// is reported as an error wrapping board.ErrRunnerOffLane; the score is
// still usable.
func Evaluate(t *board.Tables, pos *board.Position) (int, error) {
	if stray := pos.AllOccupied &^ board.BoardMask; stray != 0 {
		return 0, fmt.Errorf("evaluate: piece on %d: %w", stray.LSB(), board.ErrUnknownPiece)
	}

	var err error
	var total [2]int
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt < board.Runner; pt++ {
			total[c] += pos.Count(c, pt) * pieceValues[pt]
		}

		runner := pos.Pieces[c][board.Runner]
		if runner == 0 {
			continue
		}
		progress := t.LaneProgress(c, runner.LSB())
		if progress < 0 {
			err = fmt.Errorf("evaluate: %v runner at %v: %w", c, runner.LSB(), board.ErrRunnerOffLane)
			continue
		}
		total[c] += progress * RunnerStepValue
	}

	return total[board.White] - total[board.Black], err
}

// IsWinScore reports whether score encodes a forced win for either side.
func IsWinScore(score int) bool {
	return score >= WinScore || score <= -WinScore
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score >= WinScore:
		return "White wins"
	case score <= -WinScore:
		return "Black wins"
	default:
		return fmt.Sprintf("%+d", score)
	}
}
