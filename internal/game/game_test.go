package game

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var tables = board.DefaultTables()

func shallowEngine() *engine.Engine {
	e := engine.NewEngine(tables)
	e.SetLimits(engine.SearchLimits{MaxDepth: 2})
	return e
}

func TestNewHumanGame(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)

	is.Equal(g.SideToMove(), board.White)
	is.True(g.HumanToMove())
	is.True(g.IsHuman(board.White))
	is.True(!g.IsHuman(board.Black))
	is.True(!g.GameOver())
	is.Equal(g.GameResult(), "")
	is.Equal(g.StartLayout(), board.StartLayout)
	is.Equal(len(g.PositionHashes()), 1)

	ml, err := g.ValidMoves()
	is.NoErr(err)
	is.Equal(ml.Len(), 14)
}

func TestPlayRejectsBadInput(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)

	_, err := g.Play("zz")
	is.True(errors.Is(err, board.ErrMalformedMove))

	_, err = g.Play("g1g8")
	is.True(errors.Is(err, board.ErrIllegalMove))

	_, err = g.Play("a1b2") // runner waits behind its own pawn
	is.True(errors.Is(err, board.ErrIllegalMove))

	is.Equal(g.Position().Layout(), board.StartLayout) // unchanged
	is.Equal(len(g.MoveHistory()), 0)
	is.Equal(g.SideToMove(), board.White)
}

func TestPlayAndComputerReply(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)

	m, err := g.Play(" c3C4 ")
	is.NoErr(err)
	is.Equal(m.Piece, board.WhitePawn) // resolved against the move list
	is.Equal(g.SideToMove(), board.Black)
	is.True(!g.HumanToMove())
	is.Equal(g.MoveStrings(), []string{"C3C4"})

	_, err = g.Play("c4c5")
	is.True(errors.Is(err, ErrNotYourTurn))

	res, err := g.ComputerMove(context.Background())
	is.NoErr(err)
	is.Equal(res.Move.Piece.Color(), board.Black)
	is.Equal(g.SideToMove(), board.White)
	is.Equal(len(g.MoveHistory()), 2)
	is.Equal(len(g.PositionHashes()), 3)

	_, err = g.ComputerMove(context.Background())
	is.True(errors.Is(err, ErrNotYourTurn))
}

func TestComputerMovesFirst(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), false)
	is.Equal(g.SideToMove(), board.Black)
	is.True(!g.HumanToMove())

	_, err := g.ComputerMove(context.Background())
	is.NoErr(err)
	is.True(g.HumanToMove())
}

func TestPlayerWins(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)
	is.NoErr(g.SetPosition("c6/1p5/7/7/5C1/7/7/R6", board.White))

	_, err := g.Play("f4g4")
	is.NoErr(err)
	is.True(g.GameOver())
	is.Equal(g.State(), board.WhiteWins)
	is.Equal(g.Winner(), board.White)
	is.Equal(g.GameResult(), "Game over! The player won.")

	_, err = g.Play("a1a2")
	is.True(errors.Is(err, ErrGameOver))
}

func TestComputerWins(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)
	is.NoErr(g.SetPosition("7/7/7/5c1/7/7/7/C6", board.Black))

	res, err := g.ComputerMove(context.Background())
	is.NoErr(err)
	is.Equal(res.Move.String(), "F5G5")
	is.Equal(g.Winner(), board.Black)
	is.Equal(g.GameResult(), "Game over! The computer won.")
}

func TestSetPositionErrors(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)

	err := g.SetPosition("c6/7/7", board.White)
	is.True(errors.Is(err, board.ErrInvalidLayout))

	err = g.SetPosition("c6/7/7/7/7/7/7/1C5", board.White)
	is.True(errors.Is(err, board.ErrRunnerOffLane))

	is.Equal(g.Position().Layout(), board.StartLayout)
}

func TestNewGameActionResets(t *testing.T) {
	is := is.New(t)
	g := NewHumanGame(tables, shallowEngine(), true)
	_, err := g.Play("c3c4")
	is.NoErr(err)

	g.NewGameAction()
	is.Equal(g.Position().Layout(), board.StartLayout)
	is.Equal(len(g.MoveHistory()), 0)
	is.Equal(g.SideToMove(), board.White)
}

func TestComputerVsComputer(t *testing.T) {
	is := is.New(t)
	white := engine.NewEngine(tables)
	white.SetStrategy(engine.NewRandom(tables))
	black := engine.NewEngine(tables)
	black.SetStrategy(engine.NewRandom(tables))

	g := NewGame(tables, white, black, board.White)
	is.True(!g.HumanToMove())

	for plies := 0; !g.GameOver(); plies++ {
		is.True(plies < 2000) // every move advances or captures
		_, err := g.ComputerMove(context.Background())
		is.NoErr(err)
	}
	is.True(g.Winner() != board.NoColor)
	is.Equal(g.GameResult(), "Game over! The "+g.Winner().String()+" won.")
	is.Equal(len(g.PositionHashes()), len(g.MoveHistory())+1)
}
