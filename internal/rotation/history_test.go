package rotation

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func entry(title string) Entry {
	return Entry{Title: title, NormalizedTitle: title, URL: "https://example.com/" + title}
}

func TestKeyCanonicalizesCategoryOrder(t *testing.T) {
	a := Key("beginner", []string{"tech", "sports"})
	b := Key("beginner", []string{"sports", "tech"})
	if a != b {
		t.Errorf("expected identical keys for reordered categories, got %q and %q", a, b)
	}
	if a != "beginner_sports_tech" {
		t.Errorf("unexpected key %q", a)
	}
}

func TestKeyDistinguishesLevels(t *testing.T) {
	if Key("beginner", []string{"all"}) == Key("advanced", []string{"all"}) {
		t.Error("expected distinct keys per level")
	}
}

func TestStoreAppendPrependsAndTrims(t *testing.T) {
	s := NewStore(nil, 0, false)
	key := Key("beginner", []string{"all"})

	for i := 0; i < 4; i++ {
		batch := make([]Entry, 5)
		for j := range batch {
			batch[j] = entry(fmt.Sprintf("batch%d-%d", i, j))
		}
		s.Append(key, batch)
	}

	got := s.Get(key)
	if len(got) != DefaultMaxHistory {
		t.Fatalf("expected window trimmed to %d, got %d", DefaultMaxHistory, len(got))
	}
	if got[0].Title != "batch3-0" {
		t.Errorf("expected most recent entry first, got %q", got[0].Title)
	}
	for _, e := range got {
		if e.Title[:6] == "batch0" {
			t.Errorf("oldest batch should have been trimmed, found %q", e.Title)
		}
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore(nil, 0, false)
	key := Key("beginner", []string{"all"})
	s.Append(key, []Entry{entry("one")})

	got := s.Get(key)
	got[0].Title = "mutated"

	if s.Get(key)[0].Title != "one" {
		t.Error("Get should return a copy, not the backing slice")
	}
}

func TestStoreWindowsAreIndependent(t *testing.T) {
	s := NewStore(nil, 0, false)
	s.Append(Key("beginner", []string{"all"}), []Entry{entry("a")})
	s.Append(Key("advanced", []string{"all"}), []Entry{entry("b")})

	if len(s.Get(Key("beginner", []string{"all"}))) != 1 {
		t.Error("beginner window polluted")
	}
	if len(s.Get(Key("advanced", []string{"all"}))) != 1 {
		t.Error("advanced window polluted")
	}
}

func TestStoreDropOldestHalf(t *testing.T) {
	s := NewStore(nil, 0, false)
	key := Key("beginner", []string{"all"})
	s.Append(key, []Entry{entry("d"), entry("c")})
	s.Append(key, []Entry{entry("b"), entry("a")})

	dropped := s.DropOldestHalf(key)
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped, got %d", len(dropped))
	}
	if dropped[0].Title != "d" || dropped[1].Title != "c" {
		t.Errorf("expected oldest entries dropped, got %q and %q", dropped[0].Title, dropped[1].Title)
	}
	remaining := s.Get(key)
	if len(remaining) != 2 || remaining[0].Title != "b" {
		t.Errorf("unexpected remaining window: %+v", remaining)
	}
}

func TestStoreClearIsIdempotent(t *testing.T) {
	s := NewStore(nil, 0, false)
	key := Key("beginner", []string{"all"})
	s.Append(key, []Entry{entry("a")})

	s.Clear(key)
	s.Clear(key)
	if len(s.Get(key)) != 0 {
		t.Error("expected empty window after Clear")
	}

	s.Append(key, []Entry{entry("a")})
	s.ClearAll()
	s.ClearAll()
	if len(s.Keys()) != 0 {
		t.Error("expected no non-empty windows after ClearAll")
	}
}

func TestStoreDailyReset(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 23, 50, 0, 0, time.Local)}
	s := NewStore(clock, 0, true)
	key := Key("beginner", []string{"all"})

	s.Append(key, []Entry{entry("late-night")})
	if len(s.Get(key)) != 1 {
		t.Fatal("expected entry before midnight")
	}

	clock.now = clock.now.Add(15 * time.Minute)
	if len(s.Get(key)) != 0 {
		t.Error("expected window cleared after date rollover")
	}
}

func TestStoreNoDailyResetWhenDisabled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 23, 50, 0, 0, time.Local)}
	s := NewStore(clock, 0, false)
	key := Key("beginner", []string{"all"})

	s.Append(key, []Entry{entry("late-night")})
	clock.now = clock.now.Add(15 * time.Minute)
	if len(s.Get(key)) != 1 {
		t.Error("window should survive date rollover when daily reset is off")
	}
}

func TestStoreKeysSortedNonEmpty(t *testing.T) {
	s := NewStore(nil, 0, false)
	s.Append("b_all", []Entry{entry("x")})
	s.Append("a_all", []Entry{entry("y")})
	s.Clear("b_all")
	s.Append("c_all", []Entry{entry("z")})

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a_all" || keys[1] != "c_all" {
		t.Errorf("unexpected keys %v", keys)
	}
}
