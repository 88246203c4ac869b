// Package stats persists the process-lifetime game counters as a small JSON
// blob. Writes are best-effort and asynchronous; the only guaranteed write is
// the final flush in Close.
package stats

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// Counters are the lifetime totals carried across process restarts.
// Unknown fields in the blob are ignored on load; absent fields stay zero.
type Counters struct {
	TotalKills  int `json:"total_kills_all_time"`
	TotalDeaths int `json:"total_deaths_all_time"`
	TotalShots  int `json:"total_shots_all_time"`
	GamesPlayed int `json:"games_played"`
}

// Store owns the stats file. Flush enqueues a snapshot without blocking the
// caller; a background writer persists the latest queued snapshot. Close
// stops the writer and performs the final write.
type Store struct {
	path string

	mu      sync.Mutex
	pending *Counters // latest snapshot not yet on disk

	notify   chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Open creates a store for the given path and starts its writer.
func Open(path string) *Store {
	s := &Store{
		path:     path,
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.writerLoop()
	return s
}

// Load reads the persisted counters. A missing or unparseable blob yields
// zero counters; a missing file is silent, while a failed read or a parse
// error is logged.
func (s *Store) Load() Counters {
	var c Counters

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Stats load failed: %v", err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c); err != nil {
		log.Printf("⚠️ Stats blob unreadable, starting fresh: %v", err)
		return Counters{}
	}

	log.Printf("📊 Stats loaded: %d kills all-time", c.TotalKills)
	return c
}

// Flush queues a snapshot for persistence. Latest wins: an unwritten pending
// snapshot is simply replaced. Never blocks.
func (s *Store) Flush(c Counters) {
	s.mu.Lock()
	s.pending = &c
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close stops the writer and performs the guaranteed final write.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.done
		s.writePending()
	})
}

func (s *Store) writerLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.stopChan:
			return
		case <-s.notify:
			s.writePending()
		}
	}
}

// writePending persists the queued snapshot, if any. Errors are logged and
// swallowed; persistence must never take down a command or the tick loop.
func (s *Store) writePending() {
	s.mu.Lock()
	c := s.pending
	s.pending = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		log.Printf("⚠️ Stats encode failed: %v", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		log.Printf("⚠️ Stats save failed: %v", err)
	}
}
