package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hailam/lanerunner/internal/board"
)

// Strategy picks a move for side in pos.
type Strategy interface {
	Name() string
	BestMove(ctx context.Context, pos *board.Position, side board.Color) (Result, error)
}

// Result is the outcome of a move search.
type Result struct {
	Move    board.Move
	Score   int // White's point of view
	Depth   int // Deepest completed depth
	Nodes   uint64
	Elapsed time.Duration
	Faults  int // Invariant violations met and recovered from
}

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	MaxDepth int           // Maximum depth (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 3 ply, 500ms
	Medium                   // 5 ply, 2s
	Hard                     // 8 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {MaxDepth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {MaxDepth: 5, MoveTime: 2 * time.Second},
	Hard:   {MaxDepth: 8, MoveTime: 5 * time.Second},
}

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty parses easy, medium or hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Medium, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Strategy names accepted by NewStrategy.
const (
	StrategyAlphaBeta = "alphabeta"
	StrategyMCTS      = "mcts"
	StrategyRandom    = "random"
)

// NewStrategy builds the named strategy. exploration is only used by MCTS.
func NewStrategy(name string, t *board.Tables, limits SearchLimits, exploration float64) (Strategy, error) {
	switch strings.ToLower(name) {
	case StrategyAlphaBeta, "":
		return NewSearcher(t, limits), nil
	case StrategyMCTS:
		return NewMCTS(t, limits, exploration), nil
	case StrategyRandom:
		return NewRandom(t), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Engine is the computer player: a strategy plus the limits it runs with.
type Engine struct {
	tables     *board.Tables
	strategy   Strategy
	difficulty Difficulty
	limits     SearchLimits

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an alpha-beta engine at Medium difficulty.
func NewEngine(t *board.Tables) *Engine {
	e := &Engine{
		tables:     t,
		difficulty: Medium,
		limits:     DifficultySettings[Medium],
	}
	e.strategy = NewSearcher(t, e.limits)
	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
	if limits, ok := DifficultySettings[d]; ok {
		e.SetLimits(limits)
	}
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// SetLimits overrides the difficulty preset.
func (e *Engine) SetLimits(limits SearchLimits) {
	e.limits = limits
	switch s := e.strategy.(type) {
	case *Searcher:
		s.SetLimits(limits)
	case *MCTS:
		s.SetLimits(limits)
	}
}

// Limits returns the limits used by the next search.
func (e *Engine) Limits() SearchLimits {
	return e.limits
}

// SetStrategy swaps the move picker.
func (e *Engine) SetStrategy(s Strategy) {
	e.strategy = s
}

// Strategy returns the current move picker.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Search finds the best move for side.
func (e *Engine) Search(ctx context.Context, pos *board.Position, side board.Color) (Result, error) {
	if s, ok := e.strategy.(*Searcher); ok {
		s.OnInfo = e.OnInfo
	}
	return e.strategy.BestMove(ctx, pos, side)
}

// Stop stops the current search.
func (e *Engine) Stop() {
	if s, ok := e.strategy.(interface{ Stop() }); ok {
		s.Stop()
	}
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) (int, error) {
	return Evaluate(e.tables, pos)
}

// Perft counts leaf positions for move generator checks.
func (e *Engine) Perft(pos *board.Position, side board.Color, depth int) (uint64, error) {
	return pos.Perft(e.tables, side, depth)
}
