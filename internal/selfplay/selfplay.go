// Package selfplay plays batches of computer-vs-computer games in
// parallel and records their outcomes.
package selfplay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
	"github.com/hailam/lanerunner/internal/game"
	"github.com/hailam/lanerunner/internal/storage"
)

// DefaultMaxPlies stops a game that has not finished.
const DefaultMaxPlies = 2000

// Options configures a batch.
type Options struct {
	Games       int
	Workers     int
	White       string // strategy name
	Black       string
	Limits      engine.SearchLimits
	Exploration float64 // MCTS only
	MaxPlies    int
}

// Outcome is the result of one game.
type Outcome struct {
	Game     int
	Winner   board.Color // NoColor if undecided
	Plies    int
	Faults   int
	Duration time.Duration
	Moves    []string
	RecordID string // empty without storage
}

// Summary aggregates a batch.
type Summary struct {
	Games     int
	WhiteWins int
	BlackWins int
	Undecided int
	AvgPlies  float64
	Faults    int
	Elapsed   time.Duration // summed over games
}

func (s Summary) String() string {
	return fmt.Sprintf("games=%d white=%d black=%d undecided=%d avg_plies=%.1f faults=%d elapsed=%v",
		s.Games, s.WhiteWins, s.BlackWins, s.Undecided, s.AvgPlies, s.Faults, s.Elapsed.Round(time.Millisecond))
}

// Runner plays self-play batches. The tables and the store are shared by
// all workers; each game builds its own engines.
type Runner struct {
	tables *board.Tables
	store  *storage.Storage
	opts   Options
}

// NewRunner creates a runner. store may be nil to skip recording.
func NewRunner(t *board.Tables, store *storage.Storage, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = DefaultMaxPlies
	}
	if opts.White == "" {
		opts.White = engine.StrategyAlphaBeta
	}
	if opts.Black == "" {
		opts.Black = engine.StrategyAlphaBeta
	}
	return &Runner{tables: t, store: store, opts: opts}
}

// Run plays all games and returns their outcomes in game order. The first
// error cancels the remaining games.
func (r *Runner) Run(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, r.opts.Games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range r.opts.Games {
		g.Go(func() error {
			o, err := r.playOne(ctx, i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Runner) newEngine(name string) (*engine.Engine, error) {
	s, err := engine.NewStrategy(name, r.tables, r.opts.Limits, r.opts.Exploration)
	if err != nil {
		return nil, err
	}
	e := engine.NewEngine(r.tables)
	e.SetStrategy(s)
	e.SetLimits(r.opts.Limits)
	return e, nil
}

func (r *Runner) playOne(ctx context.Context, idx int) (Outcome, error) {
	white, err := r.newEngine(r.opts.White)
	if err != nil {
		return Outcome{}, err
	}
	black, err := r.newEngine(r.opts.Black)
	if err != nil {
		return Outcome{}, err
	}

	g := game.NewGame(r.tables, white, black, board.White)
	faults := 0
	for !g.GameOver() && len(g.MoveHistory()) < r.opts.MaxPlies {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		res, err := g.ComputerMove(ctx)
		if errors.Is(err, engine.ErrNoMoves) {
			break
		}
		if err != nil {
			return Outcome{}, err
		}
		faults += res.Faults
	}

	o := Outcome{
		Game:     idx,
		Winner:   g.Winner(),
		Plies:    len(g.MoveHistory()),
		Faults:   faults,
		Duration: g.Duration(),
		Moves:    g.MoveStrings(),
	}

	if r.store != nil {
		rec := &storage.GameRecord{
			White:       r.opts.White,
			Black:       r.opts.Black,
			StartLayout: g.StartLayout(),
			FinalLayout: g.Position().Layout(),
			Moves:       o.Moves,
			Duration:    o.Duration,
		}
		if o.Winner != board.NoColor {
			rec.Winner = o.Winner.String()
		}
		if o.RecordID, err = r.store.SaveGame(rec); err != nil {
			return Outcome{}, err
		}
	}

	log.Info().
		Int("game", idx).
		Str("winner", o.Winner.String()).
		Int("plies", o.Plies).
		Int("faults", o.Faults).
		Dur("duration", o.Duration).
		Msg("self-play game finished")
	return o, nil
}

// Summarize aggregates outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{
		Games: len(outcomes),
		WhiteWins: lo.CountBy(outcomes, func(o Outcome) bool {
			return o.Winner == board.White
		}),
		BlackWins: lo.CountBy(outcomes, func(o Outcome) bool {
			return o.Winner == board.Black
		}),
		Undecided: lo.CountBy(outcomes, func(o Outcome) bool {
			return o.Winner == board.NoColor
		}),
		Faults: lo.SumBy(outcomes, func(o Outcome) int {
			return o.Faults
		}),
		Elapsed: lo.SumBy(outcomes, func(o Outcome) time.Duration {
			return o.Duration
		}),
	}
	if s.Games > 0 {
		plies := lo.SumBy(outcomes, func(o Outcome) int { return o.Plies })
		s.AvgPlies = float64(plies) / float64(s.Games)
	}
	return s
}
