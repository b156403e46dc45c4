// Lanerunner - play the lane runner game against the computer in a terminal
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/config"
	"github.com/hailam/lanerunner/internal/shell"
	"github.com/hailam/lanerunner/internal/storage"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	noColour   = flag.Bool("no-colour", false, "disable lane colouring")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Warn().Err(err).Msg("storage unavailable, results will not be saved")
		store = nil
	} else {
		defer store.Close()
	}

	prefs := loadPreferences(store, cfg)

	// Remembered choices win over the configured defaults.
	playCfg := *cfg
	playCfg.Difficulty = prefs.Difficulty
	playCfg.Strategy = prefs.Strategy
	eng, err := playCfg.NewEngine(board.DefaultTables())
	if err != nil {
		log.Warn().Err(err).Msg("stored preferences rejected, using config")
		if eng, err = cfg.NewEngine(board.DefaultTables()); err != nil {
			log.Fatal().Err(err).Msg("create engine")
		}
	}

	sh := shell.New(board.DefaultTables(), eng, store, prefs, os.Stdout)
	sh.SetColour(!*noColour)
	sh.SetExploration(cfg.MCTSExploration)
	if err := sh.Loop(ctx, historyFile(cfg)); err != nil {
		log.Error().Err(err).Msg("console")
	}
	log.Debug().Msg("bye")
}

// loadPreferences seeds the preferences from the config on first launch.
func loadPreferences(store *storage.Storage, cfg *config.Config) *storage.UserPreferences {
	prefs := storage.DefaultPreferences()
	prefs.Difficulty = cfg.Difficulty
	prefs.Strategy = cfg.Strategy
	prefs.HumanFirst = cfg.HumanFirst
	if store == nil {
		return prefs
	}

	first, err := store.IsFirstLaunch()
	if err != nil {
		log.Warn().Err(err).Msg("first launch check")
		return prefs
	}
	if first {
		if err := store.SavePreferences(prefs); err != nil {
			log.Warn().Err(err).Msg("save preferences")
		}
		if err := store.MarkFirstLaunchComplete(); err != nil {
			log.Warn().Err(err).Msg("mark first launch")
		}
		return prefs
	}

	stored, err := store.LoadPreferences()
	if err != nil {
		log.Warn().Err(err).Msg("load preferences")
		return prefs
	}
	return stored
}

func historyFile(cfg *config.Config) string {
	dir := cfg.DataDir
	if dir == "" {
		var err error
		if dir, err = storage.GetDataDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "history")
}
