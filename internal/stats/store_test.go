package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nope.json"))
	defer s.Close()

	c := s.Load()
	if c != (Counters{}) {
		t.Errorf("missing blob should load as zeros, got %+v", c)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s := Open(path)
	defer s.Close()

	if c := s.Load(); c != (Counters{}) {
		t.Errorf("corrupt blob should load as zeros, got %+v", c)
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	blob := `{"total_kills_all_time": 7, "future_field": true}`
	if err := os.WriteFile(path, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}

	s := Open(path)
	defer s.Close()

	c := s.Load()
	if c.TotalKills != 7 {
		t.Errorf("kills = %d, want 7", c.TotalKills)
	}
	if c.TotalDeaths != 0 || c.GamesPlayed != 0 {
		t.Errorf("absent fields should stay zero, got %+v", c)
	}
}

func TestFlushCloseRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	s := Open(path)
	want := Counters{TotalKills: 3, TotalDeaths: 3, TotalShots: 42, GamesPlayed: 2}
	s.Flush(want)
	s.Close()

	got := Open(path).Load()
	if got != want {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFlushLatestWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	s := Open(path)
	for i := 1; i <= 10; i++ {
		s.Flush(Counters{TotalKills: i})
	}
	s.Close()

	if got := Open(path).Load(); got.TotalKills != 10 {
		t.Errorf("final blob has %d kills, want the latest (10)", got.TotalKills)
	}
}

func TestFlushIsAsynchronouslyPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	s := Open(path)
	defer s.Close()
	s.Flush(Counters{TotalKills: 1})

	// The writer runs off the caller's path; give it a moment.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("flushed counters never reached disk")
}

func TestCloseIdempotent(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "stats.json"))
	s.Close()
	s.Close()
}
