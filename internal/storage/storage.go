package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/checkersplay/internal/board"
	"github.com/hailam/checkersplay/internal/game"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStatsPrefix = "stats/"
	keyFirstLaunch = "first_launch"
)

// UserPreferences stores the settings of the local player.
type UserPreferences struct {
	Username    string       `json:"username"`
	PlayerColor board.Player `json:"player_color"`
	Rules       game.Rules   `json:"rules"`
	LastPlayed  time.Time    `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:    "Player",
		PlayerColor: board.Red,
		Rules:       game.DefaultRules(),
		LastPlayed:  time.Now(),
	}
}

// GameStats stores the statistics of one player.
type GameStats struct {
	Player         string         `json:"player"`
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByReason   map[string]int `json:"wins_by_reason"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty statistics for a player.
func NewGameStats(player string) *GameStats {
	return &GameStats{
		Player:       player,
		WinsByReason: make(map[string]int),
	}
}

// GameResult is one finished game from one player's point of view.
type GameResult struct {
	Player   string
	Won      bool
	Draw     bool
	Reason   game.EndReason
	Duration time.Duration
}

// ResultsFor converts a finished session into a result per seated player.
// Empty names are skipped.
func ResultsFor(s *game.Session, red, black string, duration time.Duration) []GameResult {
	over, winner := s.IsTerminal()
	if !over {
		return nil
	}

	var results []GameResult
	for player, name := range map[board.Player]string{board.Red: red, board.Black: black} {
		if name == "" {
			continue
		}
		results = append(results, GameResult{
			Player:   name,
			Won:      winner == player,
			Draw:     winner == board.NoPlayer,
			Reason:   s.EndReason(),
			Duration: duration,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Player < results[j].Player })
	return results
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	return Open("")
}

// Open opens the database below dataDir, or the platform data directory when empty.
func Open(dataDir string) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbDir, err)
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

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if err == badger.ErrKeyNotFound {
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

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})

	return prefs, err
}

func statsKey(player string) []byte {
	return []byte(keyStatsPrefix + strings.ToLower(player))
}

func saveStats(txn *badger.Txn, stats *GameStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return txn.Set(statsKey(stats.Player), data)
}

func loadStats(txn *badger.Txn, player string) (*GameStats, error) {
	stats := NewGameStats(player)

	item, err := txn.Get(statsKey(player))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, err
}

// SaveStats saves the statistics of stats.Player.
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return saveStats(txn, stats)
	})
}

// LoadStats loads the statistics of a player, returns empty stats if not found
func (s *Storage) LoadStats(player string) (*GameStats, error) {
	var stats *GameStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn, player)
		return err
	})
	return stats, err
}

// AllStats returns the statistics of every recorded player, sorted by name.
func (s *Storage) AllStats() ([]*GameStats, error) {
	var all []*GameStats

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyStatsPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats := NewGameStats("")
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, stats)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			all = append(all, stats)
		}
		return nil
	})

	return all, err
}

// RecordGame records a completed game and updates the player's statistics.
// Concurrent updates of the same player are retried on conflict.
func (s *Storage) RecordGame(result GameResult) error {
	if result.Player == "" {
		return fmt.Errorf("record game: empty player name")
	}

	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			stats, err := loadStats(txn, result.Player)
			if err != nil {
				return err
			}
			stats.apply(result)
			return saveStats(txn, stats)
		})
		if err != badger.ErrConflict {
			return err
		}
	}
}

func (s *GameStats) apply(result GameResult) {
	s.GamesPlayed++
	s.TotalPlayTime += result.Duration

	if result.Draw {
		s.Draws++
		s.CurrentStreak = 0
	} else if result.Won {
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestWinStrk {
			s.LongestWinStrk = s.CurrentStreak
		}
		if s.WinsByReason == nil {
			s.WinsByReason = make(map[string]int)
		}
		s.WinsByReason[result.Reason.String()]++
	} else {
		s.Losses++
		s.CurrentStreak = 0
	}
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}
