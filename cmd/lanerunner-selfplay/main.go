// Command lanerunner-selfplay plays computer-vs-computer games in parallel
// and stores them with the console game's records.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/config"
	"github.com/hailam/lanerunner/internal/selfplay"
	"github.com/hailam/lanerunner/internal/storage"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	games      = flag.Int("games", 0, "number of games (default from config)")
	workers    = flag.Int("workers", 0, "games played at once (default from config)")
	white      = flag.String("white", "", "White strategy (default from config)")
	black      = flag.String("black", "", "Black strategy (default from config)")
	depth      = flag.Int("depth", 0, "maximum search depth")
	moveTime   = flag.Duration("movetime", 0, "time per move")
	noStore    = flag.Bool("no-store", false, "do not record games")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *depth > 0 {
		cfg.MaxDepth = *depth
	}
	if *moveTime > 0 {
		cfg.MoveTime = *moveTime
	}
	opts := selfplay.Options{
		Games:       cfg.SelfPlayGames,
		Workers:     cfg.SelfPlayWorkers,
		White:       cfg.Strategy,
		Black:       cfg.Strategy,
		Limits:      cfg.Limits(),
		Exploration: cfg.MCTSExploration,
	}
	if *games > 0 {
		opts.Games = *games
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if *white != "" {
		opts.White = *white
	}
	if *black != "" {
		opts.Black = *black
	}

	if err := run(cfg, opts); err != nil {
		log.Error().Err(err).Msg("self-play")
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts selfplay.Options) error {
	var store *storage.Storage
	if !*noStore {
		var err error
		if store, err = storage.Open(cfg.DataDir); err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().
		Int("games", opts.Games).
		Int("workers", opts.Workers).
		Str("white", opts.White).
		Str("black", opts.Black).
		Int("depth", opts.Limits.MaxDepth).
		Dur("movetime", opts.Limits.MoveTime).
		Msg("self-play starting")

	start := time.Now()
	outcomes, err := selfplay.NewRunner(board.DefaultTables(), store, opts).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(selfplay.Summarize(outcomes))
	log.Info().Dur("wall", time.Since(start)).Msg("self-play done")
	return nil
}
