package selfplay

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
	"github.com/hailam/lanerunner/internal/storage"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var tables = board.DefaultTables()

func TestRunRandomGames(t *testing.T) {
	is := is.New(t)
	store, err := storage.OpenInMemory()
	is.NoErr(err)
	defer store.Close()

	r := NewRunner(tables, store, Options{
		Games:   6,
		Workers: 3,
		White:   engine.StrategyRandom,
		Black:   engine.StrategyRandom,
	})
	outcomes, err := r.Run(context.Background())
	is.NoErr(err)
	is.Equal(len(outcomes), 6)

	for i, o := range outcomes {
		is.Equal(o.Game, i)
		is.True(o.Winner != board.NoColor) // random games always reach a lane end
		is.Equal(len(o.Moves), o.Plies)
		is.True(o.RecordID != "")

		rec, err := store.LoadGame(o.RecordID)
		is.NoErr(err)
		is.Equal(rec.Moves, o.Moves)
		is.Equal(rec.Winner, o.Winner.String())
		is.Equal(rec.StartLayout, board.StartLayout)
	}

	records, err := store.ListGames(0)
	is.NoErr(err)
	is.Equal(len(records), 6)

	s := Summarize(outcomes)
	is.Equal(s.Games, 6)
	is.Equal(s.WhiteWins+s.BlackWins, 6)
	is.Equal(s.Undecided, 0)
}

func TestRunAlphaBetaVsRandom(t *testing.T) {
	is := is.New(t)
	r := NewRunner(tables, nil, Options{
		Games:   2,
		Workers: 2,
		White:   engine.StrategyAlphaBeta,
		Black:   engine.StrategyRandom,
		Limits:  engine.SearchLimits{MaxDepth: 2},
	})
	outcomes, err := r.Run(context.Background())
	is.NoErr(err)
	for _, o := range outcomes {
		is.Equal(o.RecordID, "") // no store
		is.Equal(o.Faults, 0)
	}
}

func TestRunMaxPlies(t *testing.T) {
	is := is.New(t)
	r := NewRunner(tables, nil, Options{
		Games:    1,
		White:    engine.StrategyRandom,
		Black:    engine.StrategyRandom,
		MaxPlies: 4,
	})
	outcomes, err := r.Run(context.Background())
	is.NoErr(err)
	is.Equal(outcomes[0].Plies, 4)
	is.Equal(outcomes[0].Winner, board.NoColor)
	is.Equal(Summarize(outcomes).Undecided, 1)
}

func TestRunErrors(t *testing.T) {
	is := is.New(t)

	_, err := NewRunner(tables, nil, Options{Games: 2, White: "oracle"}).Run(context.Background())
	is.True(err != nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRunner(tables, nil, Options{Games: 2, White: engine.StrategyRandom, Black: engine.StrategyRandom}).Run(ctx)
	is.True(errors.Is(err, context.Canceled))
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	s := Summarize([]Outcome{
		{Winner: board.White, Plies: 10, Faults: 1, Duration: time.Second},
		{Winner: board.Black, Plies: 20, Duration: time.Second},
		{Winner: board.White, Plies: 30},
		{Winner: board.NoColor, Plies: 40, Faults: 2},
	})
	is.Equal(s.Games, 4)
	is.Equal(s.WhiteWins, 2)
	is.Equal(s.BlackWins, 1)
	is.Equal(s.Undecided, 1)
	is.Equal(s.AvgPlies, 25.0)
	is.Equal(s.Faults, 3)
	is.Equal(s.Elapsed, 2*time.Second)

	is.Equal(Summarize(nil).AvgPlies, 0.0)
}
