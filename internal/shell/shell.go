// Package shell is the interactive console for playing lane runner
// against the computer.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/hailam/lanerunner/internal/board"
	"github.com/hailam/lanerunner/internal/engine"
	"github.com/hailam/lanerunner/internal/game"
	"github.com/hailam/lanerunner/internal/storage"
)

// ErrQuit is returned by Execute when the user leaves.
var ErrQuit = errors.New("quit")

const prompt = "\033[32mlanerunner>\033[0m "

const usage = `Commands:
  <move>                play a move, e.g. c3c4
  play <move>           same as above
  moves                 list your valid moves
  board                 show the board
  go                    let the computer move for the side to move
  new [human|cpu]       start a new game, naming who goes first
  setup <layout> [white|black]
                        load a layout, e.g. setup "c6/7/7/7/5C1/7/7/R6" white
  difficulty <level>    easy, medium or hard
  strategy <name>       alphabeta, mcts or random
  eval                  static evaluation of the position
  perft <depth>         count move paths to depth
  history               moves played so far
  stats                 your results
  games [n]             recently recorded games
  show <id>             print a recorded game
  colour on|off         lane colouring
  info on|off           print search progress
  help                  this text
  quit                  leave`

// Shell reads commands and drives a game against the computer.
type Shell struct {
	l   *readline.Instance
	out io.Writer

	tables *board.Tables
	engine *engine.Engine
	game   *game.Game
	store  *storage.Storage
	prefs  *storage.UserPreferences

	exploration float64

	colour   bool
	info     bool
	recorded bool
}

// New creates a shell writing to out. store may be nil; prefs supplies
// the player name, who goes first and whether moves are listed.
func New(t *board.Tables, eng *engine.Engine, store *storage.Storage, prefs *storage.UserPreferences, out io.Writer) *Shell {
	if prefs == nil {
		prefs = storage.DefaultPreferences()
	}
	s := &Shell{
		out:    out,
		tables: t,
		engine: eng,
		store:  store,
		prefs:  prefs,
	}
	s.game = game.NewHumanGame(t, eng, prefs.HumanFirst)
	eng.OnInfo = func(info engine.SearchInfo) {
		if s.info {
			s.sendInfo(info)
		}
	}
	return s
}

// SetColour toggles ANSI lane colouring.
func (s *Shell) SetColour(on bool) {
	s.colour = on
}

// SetExploration sets the UCT constant used when switching to mcts.
func (s *Shell) SetExploration(c float64) {
	s.exploration = c
}

// Game returns the game being played.
func (s *Shell) Game() *game.Game {
	return s.game
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) showError(err error) {
	s.printf("Error: %v\n", err)
}

func (s *Shell) completer() *readline.PrefixCompleter {
	onOff := []readline.PrefixCompleterInterface{readline.PcItem("on"), readline.PcItem("off")}
	return readline.NewPrefixCompleter(
		readline.PcItem("play"),
		readline.PcItem("moves"),
		readline.PcItem("board"),
		readline.PcItem("go"),
		readline.PcItem("new", readline.PcItem("human"), readline.PcItem("cpu")),
		readline.PcItem("setup"),
		readline.PcItem("difficulty", readline.PcItem("easy"), readline.PcItem("medium"), readline.PcItem("hard")),
		readline.PcItem("strategy",
			readline.PcItem(engine.StrategyAlphaBeta),
			readline.PcItem(engine.StrategyMCTS),
			readline.PcItem(engine.StrategyRandom)),
		readline.PcItem("eval"),
		readline.PcItem("perft"),
		readline.PcItem("history"),
		readline.PcItem("stats"),
		readline.PcItem("games"),
		readline.PcItem("show"),
		readline.PcItem("colour", onOff...),
		readline.PcItem("info", onOff...),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// Loop runs the console until quit, EOF or interrupt. historyFile may be
// empty.
func (s *Shell) Loop(ctx context.Context, historyFile string) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    s.completer(),
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	s.l = l
	s.out = l.Stdout()

	s.printf("Welcome, %s! Here's a new board:\n", s.prefs.Username)
	s.startTurn(ctx)

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}

		if err := s.Execute(ctx, line); errors.Is(err, ErrQuit) {
			return nil
		}
	}
}

// Execute runs one command line. Only ErrQuit is returned; other errors
// are printed and the shell carries on.
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields, err := shellquote.Split(strings.TrimSpace(line))
	if err != nil {
		s.showError(err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "bye":
		return ErrQuit
	case "help":
		s.printf("%s\n", usage)
	case "board", "d":
		s.showBoard()
	case "moves":
		s.showMoves()
	case "play":
		if len(args) != 1 {
			s.showError(errors.New("usage: play <move>"))
			break
		}
		s.handlePlay(ctx, args[0])
	case "go":
		s.computerTurn(ctx)
	case "new":
		s.handleNew(ctx, args)
	case "setup":
		s.handleSetup(ctx, args)
	case "difficulty":
		s.handleDifficulty(args)
	case "strategy":
		s.handleStrategy(args)
	case "eval":
		s.handleEval()
	case "perft":
		s.handlePerft(args)
	case "history":
		s.printf("%s\n", strings.Join(s.game.MoveStrings(), " "))
	case "stats":
		s.handleStats()
	case "games":
		s.handleGames(args)
	case "show":
		s.handleShow(args)
	case "colour", "color":
		s.colour = parseOnOff(args, s.colour)
	case "info":
		s.info = parseOnOff(args, s.info)
	default:
		if len(fields) == 1 && len(cmd) == 4 {
			s.handlePlay(ctx, cmd)
			break
		}
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		s.showError(fmt.Errorf("unknown command %q, try help", fields[0]))
	}
	return nil
}

func parseOnOff(args []string, cur bool) bool {
	if len(args) == 0 {
		return !cur
	}
	return args[0] == "on"
}

func (s *Shell) showBoard() {
	s.printf("%s\n", RenderBoard(s.tables, s.game.Position(), s.colour))
}

func (s *Shell) showMoves() {
	ml, err := s.game.ValidMoves()
	if err != nil {
		log.Warn().Err(err).Msg("move generation")
	}
	s.printf("Valid moves: %s\n", strings.Join(ml.Strings(), " "))
}

// startTurn shows the board and either lets the computer move or prompts
// the human.
func (s *Shell) startTurn(ctx context.Context) {
	s.showBoard()
	if s.finishIfOver() {
		return
	}
	if !s.game.HumanToMove() {
		s.computerTurn(ctx)
		return
	}
	if s.prefs.ShowMoves {
		s.showMoves()
	}
}

func (s *Shell) handlePlay(ctx context.Context, token string) {
	m, err := s.game.Play(token)
	if err != nil {
		s.showError(err)
		if errors.Is(err, board.ErrMalformedMove) || errors.Is(err, board.ErrIllegalMove) {
			s.printf("Sorry, you cannot make that move. Try again.\n")
		}
		return
	}
	s.printf("Move: %s (%s)\n", m, m.Mirror())
	s.startTurn(ctx)
}

func (s *Shell) computerTurn(ctx context.Context) {
	res, err := s.game.ComputerMove(ctx)
	if err != nil {
		s.showError(err)
		s.finishIfOver()
		return
	}
	s.printf("Move: %s (%s)  score %s  depth %d  nodes %d  time %v\n",
		res.Move, res.Move.Mirror(), engine.ScoreToString(res.Score),
		res.Depth, res.Nodes, res.Elapsed.Round(time.Millisecond))
	s.startTurn(ctx)
}

// finishIfOver prints the result once and records the game.
func (s *Shell) finishIfOver() bool {
	if !s.game.GameOver() {
		return false
	}
	s.printf("%s\n", s.game.GameResult())
	if !s.recorded {
		s.recorded = true
		s.recordGame()
	}
	return true
}

func (s *Shell) recordGame() {
	if s.store == nil || len(s.game.MoveHistory()) == 0 {
		return
	}
	winner := s.game.Winner()
	err := s.store.RecordGame(storage.GameResult{
		Won:        winner == board.White,
		Undecided:  winner == board.NoColor,
		Difficulty: s.engine.Difficulty().String(),
		Duration:   s.game.Duration(),
		Plies:      len(s.game.MoveHistory()),
	})
	if err != nil {
		log.Error().Err(err).Msg("record stats")
	}

	rec := &storage.GameRecord{
		White:       "human",
		Black:       s.engine.Strategy().Name(),
		Difficulty:  s.engine.Difficulty().String(),
		StartLayout: s.game.StartLayout(),
		FinalLayout: s.game.Position().Layout(),
		Moves:       s.game.MoveStrings(),
		Duration:    s.game.Duration(),
	}
	if winner != board.NoColor {
		rec.Winner = winner.String()
	}
	if _, err := s.store.SaveGame(rec); err != nil {
		log.Error().Err(err).Msg("save game")
	}
}

func (s *Shell) savePreferences() {
	if s.store == nil {
		return
	}
	if err := s.store.SavePreferences(s.prefs); err != nil {
		log.Error().Err(err).Msg("save preferences")
	}
}

func (s *Shell) handleNew(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "h", "human":
			s.prefs.HumanFirst = true
		case "c", "cpu", "computer":
			s.prefs.HumanFirst = false
		default:
			s.showError(fmt.Errorf("who goes first? %q is neither human nor cpu", args[0]))
			return
		}
		s.savePreferences()
	}

	s.game = game.NewHumanGame(s.tables, s.engine, s.prefs.HumanFirst)
	s.recorded = false
	if s.prefs.HumanFirst {
		s.printf("The player goes first.\n")
	} else {
		s.printf("The computer goes first.\n")
	}
	s.startTurn(ctx)
}

func (s *Shell) handleSetup(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.showError(errors.New("usage: setup <layout> [white|black]"))
		return
	}
	toMove := board.White
	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "white", "w":
		case "black", "b":
			toMove = board.Black
		default:
			s.showError(fmt.Errorf("unknown side %q", args[1]))
			return
		}
	}
	if err := s.game.SetPosition(args[0], toMove); err != nil {
		s.showError(err)
		return
	}
	s.recorded = false
	s.startTurn(ctx)
}

func (s *Shell) handleDifficulty(args []string) {
	if len(args) == 0 {
		s.printf("Difficulty: %s\n", s.engine.Difficulty())
		return
	}
	d, err := engine.ParseDifficulty(args[0])
	if err != nil {
		s.showError(err)
		return
	}
	s.engine.SetDifficulty(d)
	s.prefs.Difficulty = d.String()
	s.savePreferences()
	s.printf("Difficulty: %s\n", d)
}

func (s *Shell) handleStrategy(args []string) {
	if len(args) == 0 {
		s.printf("Strategy: %s\n", s.engine.Strategy().Name())
		return
	}
	strat, err := engine.NewStrategy(args[0], s.tables, s.engine.Limits(), s.exploration)
	if err != nil {
		s.showError(err)
		return
	}
	s.engine.SetStrategy(strat)
	s.prefs.Strategy = strat.Name()
	s.savePreferences()
	s.printf("Strategy: %s\n", strat.Name())
}

func (s *Shell) handleEval() {
	score, err := s.engine.Evaluate(s.game.Position())
	if err != nil {
		s.showError(err)
	}
	s.printf("Eval: %s\n", engine.ScoreToString(score))
}

func (s *Shell) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 {
			s.showError(fmt.Errorf("bad depth %q", args[0]))
			return
		}
		depth = d
	}

	start := time.Now()
	nodes, err := s.engine.Perft(s.game.Position(), s.game.SideToMove(), depth)
	elapsed := time.Since(start)
	if err != nil {
		s.showError(err)
	}

	s.printf("Nodes: %d\n", nodes)
	s.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		s.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func (s *Shell) handleStats() {
	if s.store == nil {
		s.showError(errors.New("no storage"))
		return
	}
	stats, err := s.store.LoadStats()
	if err != nil {
		s.showError(err)
		return
	}
	s.printf("Games: %d  Wins: %d  Losses: %d  Undecided: %d  Win rate: %.1f%%  Best streak: %d\n",
		stats.GamesPlayed, stats.Wins, stats.Losses, stats.Undecided, stats.GetWinRate(), stats.LongestWinStrk)
}

func (s *Shell) handleGames(args []string) {
	if s.store == nil {
		s.showError(errors.New("no storage"))
		return
	}
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}
	records, err := s.store.ListGames(limit)
	if err != nil {
		s.showError(err)
		return
	}
	for _, rec := range records {
		winner := lo.Ternary(rec.Winner == "", "-", rec.Winner)
		s.printf("%s  %s  %s vs %s  winner %s  %d moves\n",
			rec.ID, rec.PlayedAt.Format(time.DateTime), rec.White, rec.Black, winner, len(rec.Moves))
	}
}

func (s *Shell) handleShow(args []string) {
	if s.store == nil {
		s.showError(errors.New("no storage"))
		return
	}
	if len(args) != 1 {
		s.showError(errors.New("usage: show <id>"))
		return
	}
	rec, err := s.store.LoadGame(args[0])
	if err != nil {
		s.showError(err)
		return
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		s.showError(err)
		return
	}
	s.printf("%s", data)
}

func (s *Shell) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + engine.ScoreToString(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(info.Nodes)/info.Time.Seconds())))
	}
	parts = append(parts, "move "+info.Move.String())
	s.printf("info %s\n", strings.Join(parts, " "))
}
