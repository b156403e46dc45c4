package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/lanerunner/internal/board"
)

// Search constants
const (
	Infinity = 1 << 30
	// WinScore is the base score of a decided game. The remaining depth
	// is added so faster wins score higher.
	WinScore = 100000
	MaxPly   = 64
)

// pollMask controls how often the clock is read.
const pollMask = 255

var (
	// ErrNoMoves is returned when the side to move has no move at all.
	ErrNoMoves = errors.New("no moves available")
	// ErrGameOver is returned when asked to move in a decided position.
	ErrGameOver = errors.New("game is over")
)

// Searcher performs an iterative-deepening alpha-beta search. White
// maximizes and Black minimizes; scores are always from White's side.
type Searcher struct {
	tables  *board.Tables
	limits  SearchLimits
	tm      *TimeManager
	orderer *MoveOrderer

	stopFlag atomic.Bool
	ctx      context.Context
	deadline time.Time
	stopped  bool
	nodes    uint64
	faults   int

	// OnInfo is called after every completed depth.
	OnInfo func(SearchInfo)
}

// NewSearcher creates a new searcher.
func NewSearcher(t *board.Tables, limits SearchLimits) *Searcher {
	return &Searcher{
		tables:  t,
		limits:  limits,
		tm:      NewTimeManager(),
		orderer: NewMoveOrderer(),
	}
}

// Name implements Strategy.
func (s *Searcher) Name() string {
	return "alphabeta"
}

// SetLimits replaces the limits used by the next search.
func (s *Searcher) SetLimits(limits SearchLimits) {
	s.limits = limits
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

func (s *Searcher) reset(ctx context.Context) {
	s.stopFlag.Store(false)
	s.ctx = ctx
	s.stopped = false
	s.nodes = 0
	s.faults = 0
	s.orderer.Clear()
	s.tm.Init(s.limits)
	s.deadline = s.tm.Deadline()
}

// BestMove searches pos for side and returns the best move found before
// the depth limit or deadline. Only fully completed depths replace the
// result of the previous depth; if even the first depth is cut short its
// partial best is returned so there is always a move.
func (s *Searcher) BestMove(ctx context.Context, pos *board.Position, side board.Color) (Result, error) {
	s.reset(ctx)

	if pos.State(s.tables) != board.InProgress {
		return Result{}, ErrGameOver
	}
	rootMoves, err := pos.GenerateMoves(s.tables, side)
	if err != nil {
		s.fault(err)
	}
	if rootMoves.Len() == 0 {
		return Result{}, ErrNoMoves
	}

	maxDepth := s.limits.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxPly {
		maxDepth = MaxPly
	}

	result := Result{Move: rootMoves.Get(0)}
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && (s.poll() || s.tm.PastOptimum()) {
			break
		}

		move, score := s.searchRoot(pos, side, rootMoves, depth)
		if s.stopped && depth > 1 {
			break
		}

		result.Move = move
		result.Score = score
		result.Depth = depth
		if s.stopped {
			// First depth only partly searched.
			result.Depth = 0
			break
		}

		log.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", s.nodes).
			Str("move", move.String()).
			Msg("depth completed")
		if s.OnInfo != nil {
			s.OnInfo(SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: s.nodes,
				Time:  s.tm.Elapsed(),
				Move:  move,
			})
		}

		if IsWinScore(score) {
			break
		}
	}

	result.Nodes = s.nodes
	result.Elapsed = s.tm.Elapsed()
	result.Faults = s.faults
	return result, nil
}

// searchRoot runs one full-width pass over the root moves.
func (s *Searcher) searchRoot(pos *board.Position, side board.Color, ml *board.MoveList, depth int) (board.Move, int) {
	alpha, beta := -Infinity, Infinity
	best, bestScore := board.NoMove, 0

	for i, m := range s.orderer.Order(pos, ml, 0) {
		child := pos.Child(m)
		score := s.alphaBeta(&child, side.Other(), depth-1, alpha, beta, 1)

		if i == 0 || (side == board.White && score > bestScore) || (side == board.Black && score < bestScore) {
			best, bestScore = m, score
		}

		if side == board.White {
			alpha = max(alpha, bestScore)
		} else {
			beta = min(beta, bestScore)
		}
		if s.stopped {
			break
		}
	}
	return best, bestScore
}

// alphaBeta returns the value of pos with side to move, from White's
// point of view, clamped to [alpha, beta].
func (s *Searcher) alphaBeta(pos *board.Position, side board.Color, depth, alpha, beta, ply int) int {
	s.nodes++

	switch pos.State(s.tables) {
	case board.WhiteWins:
		return WinScore + depth
	case board.BlackWins:
		return -(WinScore + depth)
	}

	if depth <= 0 || s.checkStop() {
		return s.evaluate(pos)
	}

	ml, err := pos.GenerateMoves(s.tables, side)
	if err != nil {
		s.fault(err)
	}
	if ml.Len() == 0 {
		return s.evaluate(pos)
	}

	for _, m := range s.orderer.Order(pos, ml, ply) {
		child := pos.Child(m)
		score := s.alphaBeta(&child, side.Other(), depth-1, alpha, beta, ply+1)

		if side == board.White {
			if score > alpha {
				alpha = score
			}
		} else if score < beta {
			beta = score
		}

		if alpha >= beta {
			s.orderer.UpdateKillers(pos, m, ply)
			break
		}
	}

	if side == board.White {
		return alpha
	}
	return beta
}

func (s *Searcher) evaluate(pos *board.Position) int {
	score, err := Evaluate(s.tables, pos)
	if err != nil {
		s.fault(err)
	}
	return score
}

// fault records an invariant violation met during search. The search
// carries on with the fallback value.
func (s *Searcher) fault(err error) {
	s.faults++
	log.Warn().Err(err).Msg("invariant violation during search")
}

// checkStop is called at every node and polls every pollMask+1 nodes.
func (s *Searcher) checkStop() bool {
	if s.stopped {
		return true
	}
	if s.nodes&pollMask != 0 {
		return false
	}
	return s.poll()
}

// poll checks the stop flag, the caller's context and the clock.
func (s *Searcher) poll() bool {
	switch {
	case s.stopFlag.Load():
		s.stopped = true
	case s.ctx != nil && s.ctx.Err() != nil:
		s.stopped = true
	case time.Now().After(s.deadline):
		s.stopped = true
	}
	return s.stopped
}

// String describes the searcher limits.
func (s *Searcher) String() string {
	return fmt.Sprintf("alphabeta(depth=%d, time=%v)", s.limits.MaxDepth, s.limits.MoveTime)
}
