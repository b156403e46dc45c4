// Package config loads lanerunner settings from defaults, an optional
// YAML file and LANERUNNER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LANERUNNER"

// Keys
const (
	KeyLogLevel        = "log_level"
	KeyDataDir         = "data_dir"
	KeyStrategy        = "strategy"
	KeyDifficulty      = "difficulty"
	KeyMoveTime        = "move_time"
	KeyMaxDepth        = "max_depth"
	KeyHumanFirst      = "human_first"
	KeyMCTSExploration = "mcts_exploration"
	KeySelfPlayGames   = "selfplay_games"
	KeySelfPlayWorkers = "selfplay_workers"
)

// Config holds the settings shared by the console and the self-play runner.
type Config struct {
	LogLevel        string
	DataDir         string
	Strategy        string
	Difficulty      string
	MoveTime        time.Duration // overrides the difficulty preset when set
	MaxDepth        int           // overrides the difficulty preset when set
	HumanFirst      bool
	MCTSExploration float64
	SelfPlayGames   int
	SelfPlayWorkers int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyStrategy, engine.StrategyAlphaBeta)
	v.SetDefault(KeyDifficulty, engine.Medium.String())
	v.SetDefault(KeyMoveTime, time.Duration(0))
	v.SetDefault(KeyMaxDepth, 0)
	v.SetDefault(KeyHumanFirst, true)
	v.SetDefault(KeyMCTSExploration, engine.DefaultExploration)
	v.SetDefault(KeySelfPlayGames, 10)
	v.SetDefault(KeySelfPlayWorkers, 4)
}

// Load reads the configuration. path names an optional YAML file; an
// empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := &Config{
		LogLevel:        v.GetString(KeyLogLevel),
		DataDir:         v.GetString(KeyDataDir),
		Strategy:        v.GetString(KeyStrategy),
		Difficulty:      v.GetString(KeyDifficulty),
		MoveTime:        v.GetDuration(KeyMoveTime),
		MaxDepth:        v.GetInt(KeyMaxDepth),
		HumanFirst:      v.GetBool(KeyHumanFirst),
		MCTSExploration: v.GetFloat64(KeyMCTSExploration),
		SelfPlayGames:   v.GetInt(KeySelfPlayGames),
		SelfPlayWorkers: v.GetInt(KeySelfPlayWorkers),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	if _, err := engine.ParseDifficulty(c.Difficulty); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyDifficulty, err))
	}
	switch strings.ToLower(c.Strategy) {
	case engine.StrategyAlphaBeta, engine.StrategyMCTS, engine.StrategyRandom:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown strategy %q", KeyStrategy, c.Strategy))
	}
	if c.MoveTime < 0 {
		errs = append(errs, fmt.Errorf("%s: negative duration %v", KeyMoveTime, c.MoveTime))
	}
	if c.MaxDepth < 0 || c.MaxDepth > engine.MaxPly {
		errs = append(errs, fmt.Errorf("%s: %d out of range 0-%d", KeyMaxDepth, c.MaxDepth, engine.MaxPly))
	}
	if c.SelfPlayWorkers < 1 {
		errs = append(errs, fmt.Errorf("%s: need at least one worker", KeySelfPlayWorkers))
	}
	return errors.Join(errs...)
}

// Level returns the zerolog level, info when unparsable.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Limits returns the difficulty preset with MoveTime and MaxDepth
// applied on top.
func (c *Config) Limits() engine.SearchLimits {
	d, _ := engine.ParseDifficulty(c.Difficulty)
	limits := engine.DifficultySettings[d]
	if c.MoveTime > 0 {
		limits.MoveTime = c.MoveTime
	}
	if c.MaxDepth > 0 {
		limits.MaxDepth = c.MaxDepth
	}
	return limits
}

// NewEngine builds the computer player described by the configuration.
func (c *Config) NewEngine(t *board.Tables) (*engine.Engine, error) {
	d, err := engine.ParseDifficulty(c.Difficulty)
	if err != nil {
		return nil, err
	}
	limits := c.Limits()
	s, err := engine.NewStrategy(c.Strategy, t, limits, c.MCTSExploration)
	if err != nil {
		return nil, err
	}

	e := engine.NewEngine(t)
	e.SetDifficulty(d)
	e.SetStrategy(s)
	e.SetLimits(limits)
	return e, nil
}
