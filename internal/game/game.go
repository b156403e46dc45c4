// Package game drives a lane runner game between a human and the
// computer, or between two computer players.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
)

var (
	// ErrNotYourTurn is returned when a side tries to move out of turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrGameOver is returned when a move is attempted after the game ended.
	ErrGameOver = errors.New("game is over")
)

// Game is a live game: the position, whose turn it is and who plays
// each side. A nil player is a human.
type Game struct {
	tables   *board.Tables
	players  [2]*engine.Engine
	first    board.Color
	position *board.Position
	toMove   board.Color

	moveHistory    []board.Move
	positionHashes []uint64
	startLayout    string
	started        time.Time

	gameOver   bool
	gameResult string
	winner     board.Color
}

// NewGame creates a game from the start layout. white and black are the
// computer players; pass nil for a human side.
func NewGame(t *board.Tables, white, black *engine.Engine, first board.Color) *Game {
	g := &Game{
		tables:  t,
		players: [2]*engine.Engine{white, black},
		first:   first,
	}
	g.NewGameAction()
	return g
}

// NewHumanGame creates the console game: the human plays White against
// eng playing Black.
func NewHumanGame(t *board.Tables, eng *engine.Engine, humanFirst bool) *Game {
	first := board.Black
	if humanFirst {
		first = board.White
	}
	return NewGame(t, nil, eng, first)
}

// NewGameAction resets the game to the start layout.
func (g *Game) NewGameAction() {
	g.reset(board.NewPosition(), g.first)
	log.Info().Str("first", g.first.String()).Msg("new game")
}

// SetPosition replaces the board with a layout and sets the side to move.
// History is cleared.
func (g *Game) SetPosition(layout string, toMove board.Color) error {
	pos, err := board.ParseLayout(layout)
	if err != nil {
		return err
	}
	if err := pos.Validate(g.tables); err != nil {
		return err
	}
	g.reset(pos, toMove)
	return nil
}

func (g *Game) reset(pos *board.Position, toMove board.Color) {
	g.position = pos
	g.toMove = toMove
	g.moveHistory = nil
	g.positionHashes = []uint64{pos.Hash()}
	g.startLayout = pos.Layout()
	g.started = time.Now()
	g.gameOver = false
	g.gameResult = ""
	g.winner = board.NoColor
	g.checkGameEnd()
}

// IsHuman reports whether c is played by a human.
func (g *Game) IsHuman(c board.Color) bool {
	return g.players[c] == nil
}

// HumanToMove reports whether the game waits for human input.
func (g *Game) HumanToMove() bool {
	return !g.gameOver && g.IsHuman(g.toMove)
}

// Player returns the engine playing c, or nil for a human.
func (g *Game) Player(c board.Color) *engine.Engine {
	return g.players[c]
}

// ValidMoves lists the moves of the side to move. An invariant error is
// returned alongside the moves that could still be generated.
func (g *Game) ValidMoves() (*board.MoveList, error) {
	return g.position.GenerateMoves(g.tables, g.toMove)
}

// Play applies a human move given as text such as "d3d4". On error the
// game is unchanged.
func (g *Game) Play(token string) (board.Move, error) {
	if g.gameOver {
		return board.NoMove, ErrGameOver
	}
	if !g.IsHuman(g.toMove) {
		return board.NoMove, fmt.Errorf("%w: %v is played by the computer", ErrNotYourTurn, g.toMove)
	}

	parsed, err := board.ParseMove(token)
	if err != nil {
		return board.NoMove, err
	}
	ml, err := g.ValidMoves()
	if err != nil {
		log.Warn().Err(err).Msg("move generation")
	}
	m, ok := ml.Find(parsed.From, parsed.To)
	if !ok {
		return board.NoMove, fmt.Errorf("%w: %v", board.ErrIllegalMove, parsed)
	}

	g.makeMove(m)
	return m, nil
}

// ComputerMove lets the engine of the side to move search and play.
func (g *Game) ComputerMove(ctx context.Context) (engine.Result, error) {
	if g.gameOver {
		return engine.Result{}, ErrGameOver
	}
	eng := g.players[g.toMove]
	if eng == nil {
		return engine.Result{}, fmt.Errorf("%w: %v is played by a human", ErrNotYourTurn, g.toMove)
	}

	res, err := eng.Search(ctx, g.position, g.toMove)
	if errors.Is(err, engine.ErrNoMoves) {
		g.endWithoutMoves()
		return res, err
	}
	if err != nil {
		return res, err
	}
	if res.Faults > 0 {
		log.Warn().Int("faults", res.Faults).Str("move", res.Move.String()).Msg("search recovered from faults")
	}

	g.makeMove(res.Move)
	return res, nil
}

// makeMove applies a move and hands the turn to the other side.
func (g *Game) makeMove(m board.Move) {
	g.position.Apply(m)
	g.moveHistory = append(g.moveHistory, m)
	g.positionHashes = append(g.positionHashes, g.position.Hash())
	g.toMove = g.toMove.Other()

	log.Debug().
		Str("move", m.String()).
		Str("mirror", m.Mirror().String()).
		Str("next", g.toMove.String()).
		Msg("move played")

	g.checkGameEnd()
}

// checkGameEnd checks if a runner has finished its lane or the side to
// move is stuck.
func (g *Game) checkGameEnd() {
	state := g.position.State(g.tables)
	if state == board.InProgress {
		if ml, _ := g.ValidMoves(); ml.Len() == 0 {
			g.endWithoutMoves()
		}
		return
	}
	g.gameOver = true
	g.winner = state.Winner()
	g.gameResult = fmt.Sprintf("Game over! The %s won.", g.participant(g.winner))
	log.Info().
		Str("winner", g.winner.String()).
		Int("plies", len(g.moveHistory)).
		Dur("duration", time.Since(g.started)).
		Msg("game finished")
}

func (g *Game) endWithoutMoves() {
	g.gameOver = true
	g.winner = board.NoColor
	g.gameResult = fmt.Sprintf("Game over! The %s has no moves left.", g.participant(g.toMove))
	log.Info().Str("side", g.toMove.String()).Msg("game stalled")
}

// participant names a side the way the console addresses it.
func (g *Game) participant(c board.Color) string {
	human := g.IsHuman(board.White) || g.IsHuman(board.Black)
	switch {
	case !human:
		return c.String()
	case g.IsHuman(c):
		return "player"
	default:
		return "computer"
	}
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position {
	pos := g.position.Clone()
	return &pos
}

// SideToMove returns the side whose turn it is.
func (g *Game) SideToMove() board.Color {
	return g.toMove
}

// State returns the board state of the current position.
func (g *Game) State() board.GameState {
	return g.position.State(g.tables)
}

// MoveHistory returns the moves played so far.
func (g *Game) MoveHistory() []board.Move {
	return g.moveHistory
}

// MoveStrings returns the history in move text.
func (g *Game) MoveStrings() []string {
	return lo.Map(g.moveHistory, func(m board.Move, _ int) string {
		return m.String()
	})
}

// PositionHashes returns the fingerprint of every position reached,
// starting with the initial one.
func (g *Game) PositionHashes() []uint64 {
	return g.positionHashes
}

// StartLayout returns the layout the game started from.
func (g *Game) StartLayout() string {
	return g.startLayout
}

// GameOver returns whether the game has ended.
func (g *Game) GameOver() bool {
	return g.gameOver
}

// Winner returns the winning side, or NoColor.
func (g *Game) Winner() board.Color {
	return g.winner
}

// GameResult returns the result text, empty while in progress.
func (g *Game) GameResult() string {
	return g.gameResult
}

// Duration returns the time since the game started.
func (g *Game) Duration() time.Duration {
	return time.Since(g.started)
}
