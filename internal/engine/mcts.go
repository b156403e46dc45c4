package engine

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/hailam/lanerunner/internal/board"
)

// DefaultExploration is the UCT exploration constant, 1/sqrt(2).
const DefaultExploration = 0.7071067811865475

// maxRolloutPlies bounds a random playout.
const maxRolloutPlies = 512

// defaultIterations caps playouts when there is no move time.
const defaultIterations = 2000

// MCTS is a Monte Carlo tree search using UCT selection and uniformly
// random playouts.
type MCTS struct {
	tables      *board.Tables
	limits      SearchLimits
	exploration float64

	// Iterations caps the number of playouts; 0 means until MoveTime.
	Iterations int
}

// NewMCTS creates a tree searcher. A non-positive exploration selects
// DefaultExploration.
func NewMCTS(t *board.Tables, limits SearchLimits, exploration float64) *MCTS {
	if exploration <= 0 {
		exploration = DefaultExploration
	}
	return &MCTS{tables: t, limits: limits, exploration: exploration}
}

// Name implements Strategy.
func (m *MCTS) Name() string {
	return StrategyMCTS
}

// Exploration returns the UCT exploration constant.
func (m *MCTS) Exploration() float64 {
	return m.exploration
}

// SetLimits replaces the limits used by the next search.
func (m *MCTS) SetLimits(limits SearchLimits) {
	m.limits = limits
}

type mctsNode struct {
	pos      board.Position
	side     board.Color // side to move here
	move     board.Move  // move that led here
	parent   *mctsNode
	children []*mctsNode
	untried  []board.Move

	// wins counts playouts won by the side that played move.
	wins   float64
	visits float64
}

func (m *MCTS) newNode(pos board.Position, side board.Color, move board.Move, parent *mctsNode) (*mctsNode, error) {
	n := &mctsNode{pos: pos, side: side, move: move, parent: parent}
	if pos.State(m.tables) != board.InProgress {
		return n, nil
	}
	ml, err := pos.GenerateMoves(m.tables, side)
	n.untried = ml.Slice()
	frand.Shuffle(len(n.untried), func(i, j int) {
		n.untried[i], n.untried[j] = n.untried[j], n.untried[i]
	})
	return n, err
}

// BestMove implements Strategy. The most visited root child wins. A nil
// ctx never cancels, as in Searcher.
func (m *MCTS) BestMove(ctx context.Context, pos *board.Position, side board.Color) (Result, error) {
	start := time.Now()
	if pos.State(m.tables) != board.InProgress {
		return Result{}, ErrGameOver
	}

	faults := 0
	root, err := m.newNode(*pos, side, board.NoMove, nil)
	if err != nil {
		faults++
	}
	if len(root.untried) == 0 {
		return Result{}, ErrNoMoves
	}

	iterations := m.Iterations
	if iterations <= 0 && m.limits.MoveTime <= 0 {
		iterations = defaultIterations
	}
	var deadline time.Time
	if m.limits.MoveTime > 0 {
		deadline = start.Add(m.limits.MoveTime)
	}

	var playouts uint64
	for iterations <= 0 || int(playouts) < iterations {
		if (ctx != nil && ctx.Err() != nil) || (!deadline.IsZero() && time.Now().After(deadline)) {
			break
		}

		leaf, err := m.treePolicy(root)
		if err != nil {
			faults++
		}
		winner, err := m.rollout(leaf)
		if err != nil {
			faults++
		}
		leaf.backpropagate(winner)
		playouts++
	}

	best := root.mostVisited()
	if best == nil {
		// No playout finished; fall back to any move.
		return Result{Move: root.untried[0], Elapsed: time.Since(start), Faults: faults}, nil
	}

	log.Debug().
		Uint64("playouts", playouts).
		Str("move", best.move.String()).
		Float64("winrate", best.wins/best.visits).
		Msg("mcts finished")

	return Result{
		Move:    best.move,
		Score:   winrateScore(best, side),
		Nodes:   playouts,
		Elapsed: time.Since(start),
		Faults:  faults,
	}, nil
}

// treePolicy descends through fully expanded nodes and expands one child.
func (m *MCTS) treePolicy(n *mctsNode) (*mctsNode, error) {
	for {
		if len(n.untried) > 0 {
			return m.expand(n)
		}
		if len(n.children) == 0 {
			return n, nil
		}
		n = n.bestChild(m.exploration)
	}
}

func (m *MCTS) expand(n *mctsNode) (*mctsNode, error) {
	last := len(n.untried) - 1
	move := n.untried[last]
	n.untried = n.untried[:last]

	child, err := m.newNode(n.pos.Child(move), n.side.Other(), move, n)
	n.children = append(n.children, child)
	return child, err
}

// rollout plays random moves from n until the game ends and returns the
// winner, or NoColor if the playout was cut off.
func (m *MCTS) rollout(n *mctsNode) (board.Color, error) {
	pos := n.pos
	side := n.side
	var firstErr error
	for range maxRolloutPlies {
		if st := pos.State(m.tables); st != board.InProgress {
			return st.Winner(), firstErr
		}
		ml, err := pos.GenerateMoves(m.tables, side)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ml.Len() == 0 {
			break
		}
		pos.Apply(ml.Get(frand.Intn(ml.Len())))
		side = side.Other()
	}
	return board.NoColor, firstErr
}

func (n *mctsNode) backpropagate(winner board.Color) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.visits++
		// The node's move was played by the side not to move here.
		if winner == cur.side.Other() {
			cur.wins++
		}
	}
}

func (n *mctsNode) bestChild(c float64) *mctsNode {
	var best *mctsNode
	bestValue := math.Inf(-1)
	logVisits := math.Log(n.visits)
	for _, child := range n.children {
		value := math.Inf(1)
		if child.visits > 0 {
			value = child.wins/child.visits + c*math.Sqrt(2*logVisits/child.visits)
		}
		if value > bestValue {
			best, bestValue = child, value
		}
	}
	return best
}

func (n *mctsNode) mostVisited() *mctsNode {
	var best *mctsNode
	for _, child := range n.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	if best != nil && best.visits == 0 {
		return nil
	}
	return best
}

// winrateScore maps the winrate of the chosen move onto the heuristic
// scale, from White's point of view.
func winrateScore(n *mctsNode, side board.Color) int {
	score := int((n.wins/n.visits - 0.5) * 2 * RunnerStepValue)
	if side == board.Black {
		return -score
	}
	return score
}
