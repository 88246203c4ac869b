package game

import (
	"sort"
	"time"
)

// PlayerView is a player's rounded wire form.
type PlayerView struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Health   int     `json:"health"`
	Kills    int     `json:"kills"`
}

// BulletView is a bullet's rounded wire form.
type BulletView struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

// ObstacleView is an obstacle's rounded wire form.
type ObstacleView struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapInfo describes the world extent for clients.
type MapInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StateSnapshot is an independent, rounded copy of the world for external
// consumption. Holding one never observes further engine mutation.
type StateSnapshot struct {
	Players   []PlayerView   `json:"players"`
	Bullets   []BulletView   `json:"bullets"`
	Obstacles []ObstacleView `json:"obstacles"`
	Map       MapInfo        `json:"map"`
}

// ServerInfo carries process-level stats.
type ServerInfo struct {
	UptimeSeconds int `json:"uptime_seconds"`
	TickRate      int `json:"tick_rate"`
}

// GameInfo carries live entity counts and lifetime counters.
type GameInfo struct {
	PlayersOnline  int `json:"players_online"`
	BulletsActive  int `json:"bullets_active"`
	ObstaclesCount int `json:"obstacles_count"`
	TotalKills     int `json:"total_kills_all_time"`
	TotalDeaths    int `json:"total_deaths_all_time"`
	TotalShots     int `json:"total_shots_all_time"`
}

// TopPlayer is one leaderboard row.
type TopPlayer struct {
	Username string `json:"username"`
	Kills    int    `json:"kills"`
	Health   int    `json:"health"`
}

// StatsSnapshot is the stats command's result.
type StatsSnapshot struct {
	Server     ServerInfo  `json:"server"`
	Game       GameInfo    `json:"game"`
	TopPlayers []TopPlayer `json:"top_players_current"`
}

// State returns the complete rounded world snapshot.
func (e *Engine) State() StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := StateSnapshot{
		Players:   make([]PlayerView, 0, len(e.players)),
		Bullets:   make([]BulletView, 0, len(e.bullets)),
		Obstacles: make([]ObstacleView, 0, len(e.obstacles)),
		Map:       MapInfo{Width: e.cfg.Map.Width, Height: e.cfg.Map.Height},
	}

	for _, id := range e.sortedPlayerIDs() {
		p := e.players[id]
		snap.Players = append(snap.Players, PlayerView{
			ID:       p.ID,
			Username: p.Username,
			X:        round2(p.X),
			Y:        round2(p.Y),
			Health:   p.Health,
			Kills:    p.Kills,
		})
	}

	for _, id := range e.sortedBulletIDs() {
		b := e.bullets[id]
		snap.Bullets = append(snap.Bullets, BulletView{
			ID:      b.ID,
			OwnerID: b.OwnerID,
			X:       round2(b.X),
			Y:       round2(b.Y),
			VX:      round2(b.VX),
			VY:      round2(b.VY),
		})
	}

	for _, obs := range e.obstacles {
		snap.Obstacles = append(snap.Obstacles, ObstacleView{
			ID:     obs.ID,
			X:      round2(obs.X),
			Y:      round2(obs.Y),
			Width:  round2(obs.Width),
			Height: round2(obs.Height),
		})
	}

	return snap
}

// Stats returns uptime, live counts, lifetime counters and the current top
// ten players by kills. Ties keep player id order, stable within a snapshot.
func (e *Engine) Stats() StatsSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := make([]TopPlayer, 0, len(e.players))
	for _, id := range e.sortedPlayerIDs() {
		p := e.players[id]
		top = append(top, TopPlayer{Username: p.Username, Kills: p.Kills, Health: p.Health})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Kills > top[j].Kills
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return StatsSnapshot{
		Server: ServerInfo{
			UptimeSeconds: int(time.Since(e.startTime).Seconds()),
			TickRate:      e.cfg.Rules.TickRate,
		},
		Game: GameInfo{
			PlayersOnline:  len(e.players),
			BulletsActive:  len(e.bullets),
			ObstaclesCount: len(e.obstacles),
			TotalKills:     e.counters.TotalKills,
			TotalDeaths:    e.counters.TotalDeaths,
			TotalShots:     e.counters.TotalShots,
		},
		TopPlayers: top,
	}
}
