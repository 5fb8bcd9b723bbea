package rotation

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultMaxHistory bounds each history window to roughly the last two to
// three fetch batches at five articles per batch.
const DefaultMaxHistory = 15

// Clock abstracts wall-clock time so daily resets are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real-time Clock used in production.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// Entry is one previously served article as remembered by the store.
// Entries are never mutated after creation.
type Entry struct {
	Title           string
	NormalizedTitle string
	Keywords        map[string]bool
	URL             string
	AddedAt         time.Time
}

// Key builds the composite history key for a level and category set.
// Categories are sorted before joining so distinct orderings of the same
// set never produce distinct keys.
func Key(level string, categories []string) string {
	sorted := make([]string, len(categories))
	copy(sorted, categories)
	sort.Strings(sorted)
	return level + "_" + strings.Join(sorted, "_")
}

// Store is the process-wide record of recently served articles, one
// bounded window per (level, categories) key. Windows are kept
// most-recent-first. Access to each window is serialized; concurrent
// requests for the same key never interleave read-modify-write cycles.
type Store struct {
	mu         sync.Mutex
	windows    map[string]*window
	clock      Clock
	maxHistory int

	dailyReset    bool
	lastResetDate string
}

type window struct {
	mu      sync.Mutex
	entries []Entry // most-recent-first
}

// NewStore creates a history store. maxHistory <= 0 selects the default
// window size. When dailyReset is set, all windows are cleared on the
// first operation of each new local calendar day.
func NewStore(clock Clock, maxHistory int, dailyReset bool) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		windows:    make(map[string]*window),
		clock:      clock,
		maxHistory: maxHistory,
		dailyReset: dailyReset,
	}
}

// Get returns a copy of the window for key, empty if absent.
func (s *Store) Get(key string) []Entry {
	w := s.window(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Append prepends entries to the window for key (most-recent-first) and
// trims the oldest entries beyond the window size.
func (s *Store) Append(key string, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	w := s.window(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(append([]Entry{}, entries...), w.entries...)
	if len(w.entries) > s.maxHistory {
		w.entries = w.entries[:s.maxHistory]
	}
}

// DropOldestHalf removes the older half of the window for key and
// returns the dropped entries, making them eligible for reuse.
func (s *Store) DropOldestHalf(key string) []Entry {
	w := s.window(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	keep := len(w.entries) / 2
	dropped := make([]Entry, len(w.entries)-keep)
	copy(dropped, w.entries[keep:])
	w.entries = w.entries[:keep]
	return dropped
}

// Clear empties the window for key. Idempotent.
func (s *Store) Clear(key string) {
	w := s.window(key)
	w.mu.Lock()
	w.entries = nil
	w.mu.Unlock()
}

// ClearAll empties every window. Idempotent.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string]*window)
}

// Keys returns the keys of all non-empty windows, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k, w := range s.windows {
		w.mu.Lock()
		n := len(w.entries)
		w.mu.Unlock()
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// window returns the window for key, creating it if needed, after
// applying any pending daily reset.
func (s *Store) window(key string) *window {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dailyReset {
		today := s.clock.Now().Format("2006-01-02")
		if s.lastResetDate != today {
			if s.lastResetDate != "" {
				log.Printf("history: date rolled over %s -> %s, clearing %d windows",
					s.lastResetDate, today, len(s.windows))
			}
			s.windows = make(map[string]*window)
			s.lastResetDate = today
		}
	}

	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}
	return w
}
