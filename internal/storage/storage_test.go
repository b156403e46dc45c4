package storage

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDefaults(t *testing.T) {
	prefs := DefaultPreferences()
	assert.Equal(t, "Player", prefs.Username)
	assert.Equal(t, "medium", prefs.Difficulty)
	assert.Equal(t, "alphabeta", prefs.Strategy)
	assert.True(t, prefs.HumanFirst)

	stats := NewGameStats()
	assert.Zero(t, stats.GamesPlayed)
	assert.Zero(t, stats.GetWinRate())

	stats = &GameStats{GamesPlayed: 10, Wins: 5, Losses: 3, Undecided: 2}
	assert.Equal(t, 50.0, stats.GetWinRate())
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.MarkFirstLaunchComplete())
	first, err = s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences().Username, prefs.Username)

	prefs.Username = "ada"
	prefs.Difficulty = "hard"
	prefs.HumanFirst = false
	require.NoError(t, s.SavePreferences(prefs))

	loaded, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "ada", loaded.Username)
	assert.Equal(t, "hard", loaded.Difficulty)
	assert.False(t, loaded.HumanFirst)
	assert.False(t, loaded.LastPlayed.IsZero())
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{Won: true, Difficulty: "easy", Plies: 30, Duration: time.Minute},
		{Won: true, Difficulty: "hard", Plies: 40, Duration: time.Minute},
		{Won: false, Difficulty: "hard", Plies: 20},
		{Undecided: true, Difficulty: "hard", Plies: 10},
		{Won: true, Difficulty: "hard", Plies: 50},
	}
	for _, r := range results {
		require.NoError(t, s.RecordGame(r))
	}

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 3, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Undecided)
	assert.Equal(t, 2, stats.LongestWinStrk)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 150, stats.TotalPlies)
	assert.Equal(t, 2*time.Minute, stats.TotalPlayTime)
	assert.Equal(t, map[string]int{"easy": 1, "hard": 2}, stats.WinsByDiff)
}

func TestRecordGameConcurrent(t *testing.T) {
	s := openTest(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RecordGame(GameResult{Won: true, Difficulty: "easy"}))
		}()
	}
	wg.Wait()

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 16, stats.GamesPlayed)
	assert.Equal(t, 16, stats.WinsByDiff["easy"])
}

func TestGameRecords(t *testing.T) {
	s := openTest(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := &GameRecord{
		White:       "human",
		Black:       "alphabeta",
		StartLayout: "c6/1p5/rrpbb2/nn1pppp/NN1PPPP/RRPBB2/1P5/C6",
		Moves:       []string{"C3C4", "E5E4"},
		PlayedAt:    base,
	}
	newer := &GameRecord{
		White:    "random",
		Black:    "mcts",
		Moves:    []string{"D4D5"},
		Winner:   "Black",
		PlayedAt: base.Add(time.Hour),
	}

	id, err := s.SaveGame(older)
	require.NoError(t, err)
	assert.Len(t, id, 16)
	assert.Equal(t, older.ComputeID(), id)

	_, err = s.SaveGame(newer)
	require.NoError(t, err)
	assert.NotEqual(t, older.ID, newer.ID)

	loaded, err := s.LoadGame(id)
	require.NoError(t, err)
	assert.Equal(t, older.Moves, loaded.Moves)
	assert.Equal(t, "alphabeta", loaded.Black)
	assert.True(t, base.Equal(loaded.PlayedAt))

	_, err = s.LoadGame("0000000000000000")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	all, err := s.ListGames(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	one, err := s.ListGames(1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Black", one[0].Winner)
}

func TestComputeIDStable(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := GameRecord{White: "human", Black: "mcts", Moves: []string{"C3C4"}, PlayedAt: at}
	b := a
	assert.Equal(t, a.ComputeID(), b.ComputeID())

	b.Moves = []string{"C3C4", "E5E4"}
	assert.NotEqual(t, a.ComputeID(), b.ComputeID())
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.MarkFirstLaunchComplete())
	require.NoError(t, s.Close())

	_, err = os.Stat(dir + "/db")
	require.NoError(t, err)

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.DirExists(t, dataDir)

	dbDir, err := GetDatabaseDir("")
	require.NoError(t, err)
	assert.DirExists(t, dbDir)
}
