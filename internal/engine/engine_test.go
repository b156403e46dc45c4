package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/hailam/lanerunner/internal/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var tables = board.DefaultTables()

func TestSearchBasic(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	s := NewSearcher(tables, SearchLimits{MaxDepth: 3})

	res, err := s.BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.Equal(res.Depth, 3)
	is.Equal(res.Faults, 0)
	is.True(res.Nodes > 0)

	ml, err := pos.GenerateMoves(tables, board.White)
	is.NoErr(err)
	is.True(ml.Contains(res.Move))
	is.Equal(pos.Layout(), board.StartLayout) // root untouched
}

func TestSearchDeterministic(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	limits := SearchLimits{MaxDepth: 4}

	a, err := NewSearcher(tables, limits).BestMove(context.Background(), pos, board.Black)
	is.NoErr(err)
	b, err := NewSearcher(tables, limits).BestMove(context.Background(), pos, board.Black)
	is.NoErr(err)
	is.Equal(a.Move, b.Move)
	is.Equal(a.Score, b.Score)
}

// One move from a win: the runner step must be chosen and must outscore
// every other root move, which only wins a full move later.
func TestSearchTakesImmediateWin(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("c6/1p5/7/7/5C1/7/7/R6")
	s := NewSearcher(tables, SearchLimits{MaxDepth: 3, MoveTime: 10 * time.Second})
	win := board.NewMove(board.WhiteRunner, board.F4, board.G4)

	res, err := s.BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.True(res.Move.Equal(win))
	is.True(IsWinScore(res.Score))
	is.Equal(res.Depth, 1) // deepening stops once a win is proven

	child := pos.Child(res.Move)
	is.Equal(child.State(tables), board.WhiteWins)

	ml, err := pos.GenerateMoves(tables, board.White)
	is.NoErr(err)
	is.Equal(ml.Len(), 7)

	s.reset(context.Background())
	move, score := s.searchRoot(pos, board.White, ml, 3)
	is.True(move.Equal(win))
	is.Equal(score, WinScore+2)

	for _, m := range ml.Slice() {
		if m.Equal(win) {
			continue
		}
		c := pos.Child(m)
		sibling := s.alphaBeta(&c, board.Black, 2, -Infinity, Infinity, 1)
		is.Equal(sibling, WinScore) // wins two plies later
		is.True(sibling < score)
	}
}

func TestSearchBlackWin(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("7/7/7/5c1/7/7/7/C6")
	s := NewSearcher(tables, SearchLimits{MaxDepth: 2})

	res, err := s.BestMove(context.Background(), pos, board.Black)
	is.NoErr(err)
	is.Equal(res.Move.String(), "F5G5")
	is.Equal(res.Score, -WinScore)
}

func TestSearchBlocksLoss(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("7/p6/7/5c1/6P/7/7/C6")
	s := NewSearcher(tables, SearchLimits{MaxDepth: 2})

	res, err := s.BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.Equal(res.Move.String(), "G4G5")
	is.True(!IsWinScore(res.Score))
}

func TestSearchExpiredDeadlineStillReturnsMove(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	s := NewSearcher(tables, SearchLimits{MaxDepth: 10, MoveTime: time.Nanosecond})

	res, err := s.BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.True(res.Depth <= 1)
	ml, _ := pos.GenerateMoves(tables, board.White)
	is.True(ml.Contains(res.Move))
}

func TestSearchStopsNearDeadline(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	s := NewSearcher(tables, SearchLimits{MaxDepth: MaxPly, MoveTime: 20 * time.Millisecond})

	start := time.Now()
	res, err := s.BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.True(time.Since(start) < 250*time.Millisecond) // clock is polled every pollMask+1 nodes
	is.True(res.Depth < MaxPly)
}

func TestSearchCancelledContext(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos := board.NewPosition()
	res, err := NewSearcher(tables, SearchLimits{MaxDepth: 10}).BestMove(ctx, pos, board.Black)
	is.NoErr(err)
	is.True(!res.Move.IsNull())
	is.True(res.Depth <= 1)
}

func TestSearchReportsFaults(t *testing.T) {
	is := is.New(t)
	// White runner on B1 is off its lane.
	pos := board.MustParseLayout("c6/7/7/7/7/7/3P3/1C5")
	res, err := NewSearcher(tables, SearchLimits{MaxDepth: 2}).BestMove(context.Background(), pos, board.White)
	is.NoErr(err)
	is.True(res.Faults > 0)
	is.Equal(res.Move.String(), "D2D3")
}

func TestSearchFinishedGame(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("c6/7/7/7/6C/7/7/7")
	_, err := NewSearcher(tables, SearchLimits{MaxDepth: 2}).BestMove(context.Background(), pos, board.Black)
	is.True(errors.Is(err, ErrGameOver))
}

func TestSearchNoMoves(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("c6/7/7/7/7/2p4/2P4/7")
	for _, s := range []Strategy{
		NewSearcher(tables, SearchLimits{MaxDepth: 2}),
		NewMCTS(tables, SearchLimits{}, 0),
		NewRandom(tables),
	} {
		_, err := s.BestMove(context.Background(), pos, board.White)
		is.True(errors.Is(err, ErrNoMoves)) // every strategy reports no moves
	}
}

func TestOnInfoPerDepth(t *testing.T) {
	is := is.New(t)
	e := NewEngine(tables)
	e.SetLimits(SearchLimits{MaxDepth: 3})

	var depths []int
	e.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
	}
	_, err := e.Search(context.Background(), board.NewPosition(), board.White)
	is.NoErr(err)
	is.Equal(depths, []int{1, 2, 3})
}

func TestEvaluate(t *testing.T) {
	is := is.New(t)

	score, err := Evaluate(tables, board.NewPosition())
	is.NoErr(err)
	is.Equal(score, 0)

	// White runner three waypoints in, one extra White knight.
	pos := board.MustParseLayout("c6/7/7/7/3C3/7/N6/7")
	score, err = Evaluate(tables, pos)
	is.NoErr(err)
	is.Equal(score, 3*RunnerStepValue+KnightValue)

	pos = board.MustParseLayout("c6/rb5/7/7/7/7/P6/C6")
	score, err = Evaluate(tables, pos)
	is.NoErr(err)
	is.Equal(score, PawnValue-RookValue-BishopValue)

	pos = board.MustParseLayout("c6/7/7/7/7/7/7/1C5")
	score, err = Evaluate(tables, pos)
	is.True(errors.Is(err, board.ErrRunnerOffLane))
	is.Equal(score, 0)
}

func TestScoreToString(t *testing.T) {
	is := is.New(t)
	is.Equal(ScoreToString(WinScore+3), "White wins")
	is.Equal(ScoreToString(-WinScore), "Black wins")
	is.Equal(ScoreToString(-35), "-35")
	is.Equal(ScoreToString(200), "+200")
}

func TestMoveOrdering(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("c6/7/7/7/1n5/P6/7/C6")
	ml, err := pos.GenerateMoves(tables, board.White)
	is.NoErr(err)

	ordered := NewMoveOrderer().Order(pos, ml, 0)
	is.Equal(len(ordered), ml.Len())
	is.Equal(ordered[0].String(), "A1B2") // free runner step
	is.Equal(ordered[1].String(), "A3B4") // capture
}

func TestTimeManager(t *testing.T) {
	is := is.New(t)
	tm := NewTimeManager()

	tm.Init(SearchLimits{MoveTime: 100 * time.Millisecond})
	is.Equal(tm.MaximumTime(), 100*time.Millisecond)
	is.Equal(tm.OptimumTime(), 50*time.Millisecond)
	is.True(!tm.ShouldStop())

	tm.Init(SearchLimits{MaxDepth: 4})
	is.Equal(tm.MaximumTime(), time.Hour)
	is.True(!tm.PastOptimum())

	tm.Init(SearchLimits{MoveTime: time.Nanosecond})
	time.Sleep(time.Millisecond)
	is.True(tm.ShouldStop())
	is.True(time.Now().After(tm.Deadline()))
}

func TestDifficulty(t *testing.T) {
	is := is.New(t)
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		parsed, err := ParseDifficulty(d.String())
		is.NoErr(err)
		is.Equal(parsed, d)
	}
	_, err := ParseDifficulty("impossible")
	is.True(err != nil)

	e := NewEngine(tables)
	e.SetDifficulty(Hard)
	is.Equal(e.Difficulty(), Hard)
	is.Equal(e.Limits(), DifficultySettings[Hard])
}

func TestNewStrategy(t *testing.T) {
	is := is.New(t)
	for _, name := range []string{StrategyAlphaBeta, StrategyMCTS, StrategyRandom} {
		s, err := NewStrategy(name, tables, SearchLimits{MaxDepth: 2}, 0)
		is.NoErr(err)
		is.Equal(s.Name(), name)
	}
	_, err := NewStrategy("oracle", tables, SearchLimits{}, 0)
	is.True(err != nil)
}

func TestMCTSReturnsLegalMove(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	m := NewMCTS(tables, SearchLimits{}, 0)
	m.Iterations = 100

	res, err := m.BestMove(context.Background(), pos, board.Black)
	is.NoErr(err)
	is.Equal(res.Nodes, uint64(100))
	ml, _ := pos.GenerateMoves(tables, board.Black)
	is.True(ml.Contains(res.Move))
}

func TestMCTSSingleMove(t *testing.T) {
	is := is.New(t)
	pos := board.MustParseLayout("7/7/7/5c1/7/7/7/C6")
	m := NewMCTS(tables, SearchLimits{MoveTime: 50 * time.Millisecond}, 1.0)

	res, err := m.BestMove(context.Background(), pos, board.Black)
	is.NoErr(err)
	is.Equal(res.Move.String(), "F5G5")
}

func TestStrategiesAcceptNilContext(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	mcts := NewMCTS(tables, SearchLimits{}, 0)
	mcts.Iterations = 50

	var ctx context.Context // never cancelled
	for _, s := range []Strategy{
		NewSearcher(tables, SearchLimits{MaxDepth: 2}),
		mcts,
		NewRandom(tables),
	} {
		res, err := s.BestMove(ctx, pos, board.White)
		is.NoErr(err)
		is.True(res.Move != board.NoMove)
	}
}

func TestRandomReturnsLegalMove(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	r := NewRandom(tables)
	ml, _ := pos.GenerateMoves(tables, board.White)
	for range 20 {
		res, err := r.BestMove(context.Background(), pos, board.White)
		is.NoErr(err)
		is.True(ml.Contains(res.Move))
	}
}

func TestEnginePerft(t *testing.T) {
	is := is.New(t)
	n, err := NewEngine(tables).Perft(board.NewPosition(), board.White, 2)
	is.NoErr(err)
	is.Equal(n, uint64(202))
}
