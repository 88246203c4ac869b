// Package tournament overlays competitive rules on the open arena: only
// whitelisted usernames may join, each gets a bounded number of respawns,
// and a persistent scoreboard tracks kills and deaths per username.
package tournament

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"battle-arena/internal/game"
)

// Score is one username's tournament line.
type Score struct {
	Kills  int `json:"kills"`
	Deaths int `json:"deaths"`
}

// Config controls the overlay. An empty whitelist admits everyone (practice
// mode with respawn caps); MaxRespawns <= 0 disables the cap.
type Config struct {
	Whitelist   []string
	MaxRespawns int
	ScorePath   string
}

// Overlay implements the engine's Admission and DeathObserver hooks.
type Overlay struct {
	mu          sync.Mutex
	whitelist   map[string]bool
	maxRespawns int
	scores      map[string]*Score
	path        string
}

// New builds an overlay, adopting any previously persisted scoreboard.
func New(cfg Config) *Overlay {
	o := &Overlay{
		maxRespawns: cfg.MaxRespawns,
		scores:      make(map[string]*Score),
		path:        cfg.ScorePath,
	}

	if len(cfg.Whitelist) > 0 {
		o.whitelist = make(map[string]bool, len(cfg.Whitelist))
		for _, username := range cfg.Whitelist {
			o.whitelist[username] = true
		}
	}

	o.load()
	return o
}

// CheckJoin rejects usernames outside the whitelist and players whose
// recorded deaths have used up their respawns.
func (o *Overlay) CheckJoin(username string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.whitelist != nil && !o.whitelist[username] {
		return game.NewError(game.CodeWhitelistReject)
	}

	if o.maxRespawns > 0 {
		if s, ok := o.scores[username]; ok && s.Deaths >= o.maxRespawns {
			return game.NewError(game.CodeRespawnsExhausted)
		}
	}

	return nil
}

// PlayerDied records the death (and the kill, when credited) on the
// scoreboard and persists it.
func (o *Overlay) PlayerDied(victim game.Player, killer *game.Player) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.score(victim.Username).Deaths++
	if killer != nil {
		o.score(killer.Username).Kills++
	}

	o.save()
}

// Scores returns a copy of the scoreboard.
func (o *Overlay) Scores() map[string]Score {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]Score, len(o.scores))
	for username, s := range o.scores {
		out[username] = *s
	}
	return out
}

// Close persists the final scoreboard.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.save()
}

func (o *Overlay) score(username string) *Score {
	s, ok := o.scores[username]
	if !ok {
		s = &Score{}
		o.scores[username] = s
	}
	return s
}

func (o *Overlay) load() {
	if o.path == "" {
		return
	}

	data, err := os.ReadFile(o.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Tournament scores load failed: %v", err)
		}
		return
	}

	if err := json.Unmarshal(data, &o.scores); err != nil {
		log.Printf("⚠️ Tournament scores unreadable, starting fresh: %v", err)
		o.scores = make(map[string]*Score)
		return
	}

	log.Printf("🏆 Tournament scores loaded: %d players", len(o.scores))
}

// save is best-effort, like the stats blob: a failed write is logged and the
// tournament continues.
func (o *Overlay) save() {
	if o.path == "" {
		return
	}

	data, err := json.MarshalIndent(o.scores, "", "  ")
	if err != nil {
		log.Printf("⚠️ Tournament scores encode failed: %v", err)
		return
	}

	if err := os.WriteFile(o.path, data, 0644); err != nil {
		log.Printf("⚠️ Tournament scores save failed: %v", err)
	}
}
