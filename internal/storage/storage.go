package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	prefixGame     = "game/"
)

// ErrRecordNotFound is returned by LoadGame for an unknown ID.
var ErrRecordNotFound = errors.New("game record not found")

// UserPreferences stores console settings between sessions.
type UserPreferences struct {
	Username   string    `json:"username"`
	Difficulty string    `json:"difficulty"`
	Strategy   string    `json:"strategy"`
	HumanFirst bool      `json:"human_first"`
	ShowMoves  bool      `json:"show_moves"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:   "Player",
		Difficulty: "medium",
		Strategy:   "alphabeta",
		HumanFirst: true,
		ShowMoves:  true,
		LastPlayed: time.Now(),
	}
}

// GameStats stores the human player's results.
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Undecided      int            `json:"undecided"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	TotalPlies     int            `json:"total_plies"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByDiff: make(map[string]int),
	}
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// GameResult is a finished game from the human's side.
type GameResult struct {
	Won        bool
	Undecided  bool
	Difficulty string
	Duration   time.Duration
	Plies      int
}

// GameRecord is a finished game kept for replay and self-play summaries.
type GameRecord struct {
	ID          string        `json:"id" yaml:"id"`
	White       string        `json:"white" yaml:"white"` // "human" or a strategy name
	Black       string        `json:"black" yaml:"black"`
	Difficulty  string        `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	StartLayout string        `json:"start_layout" yaml:"start_layout"`
	FinalLayout string        `json:"final_layout" yaml:"final_layout"`
	Moves       []string      `json:"moves" yaml:"moves,flow"`
	Winner      string        `json:"winner,omitempty" yaml:"winner,omitempty"` // empty if undecided
	Duration    time.Duration `json:"duration" yaml:"duration"`
	PlayedAt    time.Time     `json:"played_at" yaml:"played_at"`
}

// ComputeID fingerprints the record contents with xxhash.
func (r *GameRecord) ComputeID() string {
	h := xxhash.New()
	for _, field := range []string{
		r.White, r.Black, r.StartLayout, strings.Join(r.Moves, " "),
		r.PlayedAt.UTC().Format(time.RFC3339Nano),
	} {
		_, _ = h.WriteString(field)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Storage wraps BadgerDB for persistent storage. It is safe for
// concurrent use.
type Storage struct {
	db *badger.DB

	// statsMu serializes the read-modify-write of RecordGame.
	statsMu sync.Mutex
}

// Open opens the database under dataDir, or under the platform data
// directory when dataDir is empty.
func Open(dataDir string) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return open(badger.DefaultOptions(dbDir))
}

// OpenInMemory opens a database that is discarded on Close.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Storage, error) {
	opts.Logger = newBadgerLogger()

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// get decodes the value at key into v. A missing key leaves v as is.
func get(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func set(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})
	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		return set(txn, keyPreferences, prefs)
	})
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, keyPreferences, prefs)
	})
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return set(txn, keyStats, stats)
	})
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, keyStats, stats)
	})
	return stats, err
}

// RecordGame updates the statistics with a completed game.
func (s *Storage) RecordGame(result GameResult) error {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		stats := NewGameStats()
		if err := get(txn, keyStats, stats); err != nil {
			return err
		}
		if stats.WinsByDiff == nil {
			stats.WinsByDiff = make(map[string]int)
		}

		stats.GamesPlayed++
		stats.TotalPlayTime += result.Duration
		stats.TotalPlies += result.Plies

		switch {
		case result.Undecided:
			stats.Undecided++
			stats.CurrentStreak = 0
		case result.Won:
			stats.Wins++
			stats.CurrentStreak++
			stats.LongestWinStrk = max(stats.LongestWinStrk, stats.CurrentStreak)
			stats.WinsByDiff[result.Difficulty]++
		default:
			stats.Losses++
			stats.CurrentStreak = 0
		}

		return set(txn, keyStats, stats)
	})
}

// SaveGame stores a finished game and returns its ID. PlayedAt and ID
// are filled in when missing.
func (s *Storage) SaveGame(rec *GameRecord) (string, error) {
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}
	if rec.ID == "" {
		rec.ID = rec.ComputeID()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return set(txn, prefixGame+rec.ID, rec)
	})
	if err != nil {
		return "", fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// LoadGame returns the record stored under id.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	var rec *GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGame + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = &GameRecord{}
			return json.Unmarshal(val, rec)
		})
	})
	return rec, err
}

// ListGames returns stored games, most recent first. A non-positive
// limit returns all of them.
func (s *Storage) ListGames(limit int) ([]GameRecord, error) {
	var records []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b GameRecord) int {
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
