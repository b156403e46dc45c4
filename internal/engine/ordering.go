package engine

import (
	"slices"

	"github.com/hailam/lanerunner/internal/board"
)

// Move ordering priorities
const (
	RunnerScore  = 1000000 // A free runner step is tried first
	CaptureBase  = 100000  // Base score for captures
	KillerScore1 = 90000   // First killer move
	KillerScore2 = 80000   // Second killer move
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [board.NumPieceTypes][board.NumPieceTypes]int{
	//       P    N    R    B    C  (attacker)
	/* P */ {15, 11, 12, 13, 10},
	/* N */ {45, 41, 42, 43, 40},
	/* R */ {35, 31, 32, 33, 30},
	/* B */ {25, 21, 22, 23, 20},
	/* C */ {0, 0, 0, 0, 0}, // Runner can't be captured
}

// MoveOrderer sorts moves so alpha-beta sees likely cutoffs first.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	mo.Clear()
	return mo
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// Order returns the moves of ml sorted best first. ml is not modified.
func (mo *MoveOrderer) Order(pos *board.Position, ml *board.MoveList, ply int) []board.Move {
	type scored struct {
		move  board.Move
		score int
	}
	list := make([]scored, ml.Len())
	for i, m := range ml.Slice() {
		list[i] = scored{m, mo.scoreMove(pos, m, ply, i == ml.RunnerIndex)}
	}
	slices.SortStableFunc(list, func(a, b scored) int {
		return b.score - a.score
	})

	moves := make([]board.Move, len(list))
	for i, s := range list {
		moves[i] = s.move
	}
	return moves
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, runner bool) int {
	if runner {
		if pos.IsEmpty(m.To) {
			return RunnerScore
		}
		return 0
	}

	victim := pos.PieceAt(m.To)
	if victim != board.NoPiece {
		return CaptureBase + mvvLva[victim.Type()][m.Piece.Type()]
	}

	if ply < MaxPly {
		if mo.killers[ply][0].Equal(m) {
			return KillerScore1
		}
		if mo.killers[ply][1].Equal(m) {
			return KillerScore2
		}
	}
	return 0
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(pos *board.Position, m board.Move, ply int) {
	if ply >= MaxPly || !pos.IsEmpty(m.To) {
		return
	}
	if !mo.killers[ply][0].Equal(m) {
		mo.killers[ply][1] = mo.killers[ply][0]
		mo.killers[ply][0] = m
	}
}
