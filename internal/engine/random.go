package engine

import (
	"context"

	"lukechampine.com/frand"

	"github.com/hailam/lanerunner/internal/board"
)

// Random plays a uniformly random move.
type Random struct {
	tables *board.Tables
}

// NewRandom creates a random mover.
func NewRandom(t *board.Tables) *Random {
	return &Random{tables: t}
}

// Name implements Strategy.
func (r *Random) Name() string {
	return StrategyRandom
}

// BestMove implements Strategy.
func (r *Random) BestMove(_ context.Context, pos *board.Position, side board.Color) (Result, error) {
	if pos.State(r.tables) != board.InProgress {
		return Result{}, ErrGameOver
	}
	ml, err := pos.GenerateMoves(r.tables, side)
	if ml.Len() == 0 {
		return Result{}, ErrNoMoves
	}
	res := Result{Move: ml.Get(frand.Intn(ml.Len())), Nodes: 1}
	if err != nil {
		res.Faults++
	}
	return res, nil
}
