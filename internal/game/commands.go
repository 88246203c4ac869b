package game

import (
	"fmt"
	"log"
	"time"
)

// JoinResult is the successful outcome of a join command.
type JoinResult struct {
	PlayerID string     `json:"player_id"`
	Position [2]float64 `json:"position"`
	Health   int        `json:"health"`
}

// MoveResult is the successful outcome of a move command. The position is
// the post-move (or unchanged, if blocked) location.
type MoveResult struct {
	Position [2]float64 `json:"position"`
}

// ShootResult is the successful outcome of a shoot command.
type ShootResult struct {
	BulletID string `json:"bullet_id"`
}

// Join admits a new player: admission hook, death cooldown, player cap,
// spawn placement. The same username may join again while a previous player
// under it is still alive; each join gets its own entity id.
func (e *Engine) Join(username string) (JoinResult, error) {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return JoinResult{}, NewError(CodeServerUnavailable)
	}

	if e.admission != nil {
		if err := e.admission.CheckJoin(username); err != nil {
			return JoinResult{}, err
		}
	}

	if diedAt, ok := e.deathCooldowns[username]; ok {
		elapsed := now.Sub(diedAt)
		if elapsed < e.cfg.Rules.DeathCooldown {
			return JoinResult{}, NewCooldownError(CodeDeathCooldown, e.cfg.Rules.DeathCooldown-elapsed)
		}
		delete(e.deathCooldowns, username)
	}

	if len(e.players) >= e.cfg.Rules.MaxPlayers {
		return JoinResult{}, NewError(CodeServerFull)
	}

	playerID := fmt.Sprintf("%s_%s", username, shortHex(8))
	spawnX, spawnY := e.findSpawnPosition(e.rng)

	e.players[playerID] = &Player{
		ID:           playerID,
		Username:     username,
		X:            spawnX,
		Y:            spawnY,
		Health:       e.cfg.Player.MaxHealth,
		LastMove:     now,
		LastShoot:    now,
		LastActivity: now,
	}

	log.Printf("✅ %s joined (%s) at (%.1f, %.1f)", username, playerID, spawnX, spawnY)

	return JoinResult{
		PlayerID: playerID,
		Position: [2]float64{round2(spawnX), round2(spawnY)},
		Health:   e.cfg.Player.MaxHealth,
	}, nil
}

// Move applies one speed-limited step in the given direction. A step into an
// obstacle, another player or outside the map leaves the position unchanged;
// the command still succeeds and reports where the player stands.
func (e *Engine) Move(playerID string, dx, dy float64) (MoveResult, error) {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return MoveResult{}, NewError(CodeServerUnavailable)
	}

	p, ok := e.players[playerID]
	if !ok {
		return MoveResult{}, NewError(CodePlayerNotFound)
	}

	if now.Sub(p.LastMove) < e.cfg.Rules.MoveRateLimit {
		return MoveResult{}, NewError(CodeMoveTooFast)
	}

	normX, normY := Normalize(dx, dy)
	if normX == 0 && normY == 0 {
		p.Touch(now)
		return MoveResult{Position: [2]float64{round2(p.X), round2(p.Y)}}, nil
	}

	// One step covers the minimum inter-move interval at full speed, so a
	// client moving at the rate limit travels exactly PlayerSpeed units/s.
	step := e.cfg.Player.Speed * e.cfg.Rules.MoveRateLimit.Seconds()
	newX, newY := e.clampToMap(p.X+normX*step, p.Y+normY*step)

	if e.isPositionValid(newX, newY, playerID) {
		p.X = newX
		p.Y = newY
	}

	p.LastMove = now
	p.Touch(now)

	return MoveResult{Position: [2]float64{round2(p.X), round2(p.Y)}}, nil
}

// Shoot spawns a bullet at the shooter's position, aimed along the
// normalized direction at bullet speed.
func (e *Engine) Shoot(playerID string, dx, dy float64) (ShootResult, error) {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ShootResult{}, NewError(CodeServerUnavailable)
	}

	p, ok := e.players[playerID]
	if !ok {
		return ShootResult{}, NewError(CodePlayerNotFound)
	}

	if since := now.Sub(p.LastShoot); since < e.cfg.Rules.ShootRateLimit {
		return ShootResult{}, NewCooldownError(CodeShootCooldown, e.cfg.Rules.ShootRateLimit-since)
	}

	normX, normY := Normalize(dx, dy)
	if normX == 0 && normY == 0 {
		return ShootResult{}, NewError(CodeInvalidDirection)
	}

	active := 0
	for _, b := range e.bullets {
		if b.OwnerID == playerID {
			active++
		}
	}
	if active >= e.cfg.Bullet.MaxPerPlayer {
		return ShootResult{}, NewError(CodeTooManyBullets)
	}

	bulletID := "bullet_" + shortHex(12)
	e.bullets[bulletID] = &Bullet{
		ID:        bulletID,
		OwnerID:   playerID,
		X:         p.X,
		Y:         p.Y,
		VX:        normX * e.cfg.Bullet.Speed,
		VY:        normY * e.cfg.Bullet.Speed,
		Damage:    e.cfg.Bullet.Damage,
		CreatedAt: now,
	}

	p.LastShoot = now
	p.Touch(now)
	e.counters.TotalShots++

	return ShootResult{BulletID: bulletID}, nil
}
