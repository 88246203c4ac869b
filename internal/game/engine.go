package game

import (
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"battle-arena/internal/config"
	"battle-arena/internal/stats"
)

// Admission is consulted before a join is admitted. A nil admission admits
// everyone; the tournament overlay plugs in here.
type Admission interface {
	CheckJoin(username string) error
}

// DeathObserver is notified after every player death, under the engine lock.
// Implementations receive copies and must not call back into the engine.
type DeathObserver interface {
	PlayerDied(victim Player, killer *Player)
}

// Options carries the engine's optional collaborators.
type Options struct {
	// Admission gates joins (nil admits everyone).
	Admission Admission

	// DeathObservers are notified on every death.
	DeathObservers []DeathObserver

	// Store persists lifetime counters (nil disables persistence).
	Store *stats.Store

	// OnTick observes each tick's duration, outside the lock.
	OnTick func(elapsed time.Duration)

	// Rand overrides the randomness source (tests pass a seeded one).
	Rand *rand.Rand
}

// Engine is the authoritative simulation. All mutable game state lives here,
// behind one exclusive lock; command handlers and the tick worker serialize
// through it.
type Engine struct {
	mu  sync.Mutex
	cfg config.Config

	players        map[string]*Player
	bullets        map[string]*Bullet
	obstacles      []Obstacle
	deathCooldowns map[string]time.Time // username -> death time
	counters       stats.Counters

	startTime time.Time
	running   bool
	stopChan  chan struct{}
	done      chan struct{}

	rng *rand.Rand

	admission Admission
	observers []DeathObserver
	store     *stats.Store
	onTick    func(time.Duration)
}

// NewEngine builds an engine: obstacles are generated and persisted counters
// adopted, but the tick worker does not start until Start.
func NewEngine(cfg config.Config, opts Options) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		cfg:            cfg,
		players:        make(map[string]*Player),
		bullets:        make(map[string]*Bullet),
		deathCooldowns: make(map[string]time.Time),
		startTime:      time.Now(),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
		rng:            rng,
		admission:      opts.Admission,
		observers:      opts.DeathObservers,
		store:          opts.Store,
		onTick:         opts.OnTick,
	}

	e.generateObstacles()

	if e.store != nil {
		e.counters = e.store.Load()
	}

	log.Printf("🎮 Engine initialized: map %.0f×%.0f, %d obstacles, %d TPS",
		cfg.Map.Width, cfg.Map.Height, len(e.obstacles), cfg.Rules.TickRate)

	return e
}

// generateObstacles places random rectangles at startup. A candidate fully
// inside the spawn safe zone is rejected; a slot that fails all its attempts
// is dropped, so the final count may be below the configured one.
func (e *Engine) generateObstacles() {
	const maxAttempts = 50
	zone := e.cfg.SpawnZone

	for i := 0; i < e.cfg.Obstacles.Count; i++ {
		width := e.cfg.Obstacles.MinSize + e.rng.Float64()*(e.cfg.Obstacles.MaxSize-e.cfg.Obstacles.MinSize)
		height := e.cfg.Obstacles.MinSize + e.rng.Float64()*(e.cfg.Obstacles.MaxSize-e.cfg.Obstacles.MinSize)

		for attempt := 0; attempt < maxAttempts; attempt++ {
			x := e.rng.Float64() * (e.cfg.Map.Width - width)
			y := e.rng.Float64() * (e.cfg.Map.Height - height)

			if x >= zone.XMin && x+width <= zone.XMax && y >= zone.YMin && y+height <= zone.YMax {
				continue
			}

			e.obstacles = append(e.obstacles, Obstacle{ID: i, X: x, Y: y, Width: width, Height: height})
			break
		}
	}

	log.Printf("✅ %d obstacles generated", len(e.obstacles))
}

// Start launches the tick worker. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.counters.GamesPlayed++
	e.mu.Unlock()

	e.flushStats()

	go e.run()
	log.Printf("▶️ Game loop started at %d TPS", e.cfg.Rules.TickRate)
}

// Stop signals the tick worker, joins it with a bounded timeout and flushes
// the lifetime counters. Idempotent; commands issued afterwards are denied.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.stopChan)
	select {
	case <-e.done:
	case <-time.After(2 * time.Second):
		log.Printf("⚠️ Tick worker did not stop in time")
	}

	e.flushStats()
	log.Printf("⏹️ Game loop stopped")
}

// Running reports whether the tick worker is live.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Obstacles returns the immutable obstacle sequence. Safe without the lock:
// the slice never changes after construction.
func (e *Engine) Obstacles() []Obstacle {
	return e.obstacles
}

// run is the tick worker. Each iteration does one physics step and then
// sleeps the remainder of the tick; overruns start the next tick immediately
// without trying to make up lost time.
func (e *Engine) run() {
	defer close(e.done)
	tickDuration := e.cfg.Rules.TickDuration()

	for {
		start := time.Now()
		e.tick(start)
		elapsed := time.Since(start)

		if e.onTick != nil {
			e.onTick(elapsed)
		}

		sleep := tickDuration - elapsed
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-e.stopChan:
			return
		case <-time.After(sleep):
		}
	}
}

// tick advances the world one step: bullet integration, bullet/player
// collisions, then cleanup. A panic in the step is contained to this tick so
// one bad entity cannot take down the simulation.
func (e *Engine) tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Tick error recovered: %v", r)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.updateBullets(now)
	e.checkCollisions(now)
	e.cleanup(now)
}

// sortedBulletIDs returns bullet ids in a stable order for this tick.
// Map iteration order would vary between passes; sorting keeps damage
// application deterministic when several bullets reach a player at once.
func (e *Engine) sortedBulletIDs() []string {
	ids := make([]string, 0, len(e.bullets))
	for id := range e.bullets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// updateBullets integrates every bullet and resolves obstacle bounces,
// out-of-map exits and expiry. Only the first obstacle hit is resolved per
// bullet per tick; tunneling of very fast bullets through thin walls is an
// accepted trade-off at these speeds.
func (e *Engine) updateBullets(now time.Time) {
	dt := e.cfg.Rules.TickDuration().Seconds()
	var toRemove []string

	for _, id := range e.sortedBulletIDs() {
		b := e.bullets[id]

		b.X += b.VX * dt
		b.Y += b.VY * dt

		for _, obs := range e.obstacles {
			if !CircleRectCollision(b.X, b.Y, e.cfg.Bullet.Radius, obs.X, obs.Y, obs.Width, obs.Height) {
				continue
			}

			if b.Bounces >= e.cfg.Bullet.MaxBounces {
				toRemove = append(toRemove, id)
				break
			}

			// Reflect off the nearer pair of edges: the axis along which the
			// bullet center sits closest to a boundary is the one it crossed.
			overlapX := math.Min(math.Abs(b.X-obs.X), math.Abs(b.X-(obs.X+obs.Width)))
			overlapY := math.Min(math.Abs(b.Y-obs.Y), math.Abs(b.Y-(obs.Y+obs.Height)))
			if overlapX < overlapY {
				b.VX = -b.VX
			} else {
				b.VY = -b.VY
			}
			b.Bounces++
			break
		}

		if b.X < 0 || b.X > e.cfg.Map.Width || b.Y < 0 || b.Y > e.cfg.Map.Height {
			toRemove = append(toRemove, id)
			continue
		}

		if now.Sub(b.CreatedAt) > e.cfg.Bullet.Lifetime {
			toRemove = append(toRemove, id)
		}
	}

	for _, id := range toRemove {
		delete(e.bullets, id)
	}
}

// bulletTarget is a player's position captured at the start of the collision
// stage. Players killed mid-stage keep consuming later bullets that reach
// them this tick; that damage is wasted.
type bulletTarget struct {
	id   string
	x, y float64
}

// checkCollisions applies bullet damage to players. A bullet is consumed by
// its first hit and damages at most one player per tick; the owner is never
// hit by their own bullet.
func (e *Engine) checkCollisions(now time.Time) {
	targets := make([]bulletTarget, 0, len(e.players))
	for _, id := range e.sortedPlayerIDs() {
		p := e.players[id]
		targets = append(targets, bulletTarget{id: id, x: p.X, y: p.Y})
	}

	dead := make(map[string]bool)
	var toRemove []string

	for _, bulletID := range e.sortedBulletIDs() {
		b := e.bullets[bulletID]

		for _, target := range targets {
			if b.OwnerID == target.id {
				continue
			}
			if !CircleCircleCollision(b.X, b.Y, e.cfg.Bullet.Radius, target.x, target.y, e.cfg.Player.Radius) {
				continue
			}

			if !dead[target.id] {
				p := e.players[target.id]
				p.Health -= b.Damage
				if p.Health <= 0 {
					dead[target.id] = true
					e.handlePlayerDeath(target.id, b.OwnerID, now)
				}
			}

			toRemove = append(toRemove, bulletID)
			break
		}
	}

	for _, id := range toRemove {
		delete(e.bullets, id)
	}
}

// handlePlayerDeath removes the victim, credits the killer, updates the
// lifetime counters and starts the username's death cooldown. The victim's
// in-flight bullets survive and can still score. Called under the lock.
func (e *Engine) handlePlayerDeath(victimID, killerID string, now time.Time) {
	victim, ok := e.players[victimID]
	if !ok {
		return
	}

	// A player never earns a kill for their own death.
	killer, killerAlive := e.players[killerID]
	if killerAlive && killerID != victimID {
		killer.Kills++
	}

	e.counters.TotalKills++
	e.counters.TotalDeaths++
	e.flushStatsLocked()

	e.deathCooldowns[victim.Username] = now
	delete(e.players, victimID)

	victimCopy := *victim
	var killerCopy *Player
	if killerAlive && killerID != victimID {
		c := *killer
		killerCopy = &c
	}
	for _, obs := range e.observers {
		obs.PlayerDied(victimCopy, killerCopy)
	}

	killerName := "unknown"
	if killerAlive {
		killerName = killer.Username
	}
	log.Printf("💀 %s killed by %s", victim.Username, killerName)
}

// cleanup evicts inactive players and sweeps expired death cooldowns.
func (e *Engine) cleanup(now time.Time) {
	for _, id := range e.sortedPlayerIDs() {
		p := e.players[id]
		if now.Sub(p.LastActivity) > e.cfg.Rules.InactivityTimeout {
			delete(e.players, id)
			log.Printf("⏱️ %s kicked (inactivity)", p.Username)
		}
	}

	for username, diedAt := range e.deathCooldowns {
		if now.Sub(diedAt) > e.cfg.Rules.DeathCooldown {
			delete(e.deathCooldowns, username)
		}
	}
}

// flushStatsLocked queues the current counters for persistence; callers hold
// the lock. The store write itself happens off the lock in its writer.
func (e *Engine) flushStatsLocked() {
	if e.store != nil {
		e.store.Flush(e.counters)
	}
}

func (e *Engine) flushStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushStatsLocked()
}
