package game

import (
	"errors"
	"math"
	"testing"
	"time"

	"battle-arena/internal/config"
)

func mustJoin(t *testing.T, e *Engine, username string) JoinResult {
	t.Helper()
	res, err := e.Join(username)
	if err != nil {
		t.Fatalf("Join(%q) failed: %v", username, err)
	}
	return res
}

// player fetches a live player by id for white-box assertions.
func player(t *testing.T, e *Engine, id string) *Player {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		t.Fatalf("player %s not found", id)
	}
	return p
}

func TestJoinSpawnsInSafeZone(t *testing.T) {
	e := newTestEngine(config.Default())

	res := mustJoin(t, e, "alice")
	if res.PlayerID == "" {
		t.Fatal("empty player id")
	}
	if res.Health != 100 {
		t.Errorf("expected full health 100, got %d", res.Health)
	}

	x, y := res.Position[0], res.Position[1]
	if x < 40 || x > 60 || y < 40 || y > 60 {
		t.Errorf("spawn (%v, %v) outside the safe zone", x, y)
	}
}

func TestJoinIDFormat(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())

	res := mustJoin(t, e, "alice")
	// username + "_" + 8 hex characters
	if len(res.PlayerID) != len("alice")+1+8 {
		t.Errorf("unexpected id shape: %q", res.PlayerID)
	}
	if res.PlayerID[:6] != "alice_" {
		t.Errorf("id should start with username: %q", res.PlayerID)
	}
}

func TestJoinServerFull(t *testing.T) {
	cfg := emptyArenaConfig()
	cfg.Rules.MaxPlayers = 2
	e := newTestEngine(cfg)

	mustJoin(t, e, "alice")
	mustJoin(t, e, "bob")

	_, err := e.Join("carol")
	if CodeOf(err) != CodeServerFull {
		t.Errorf("expected server_full, got %v", err)
	}
}

func TestJoinDuplicateUsernameAllowed(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())

	first := mustJoin(t, e, "alice")
	second := mustJoin(t, e, "alice")

	if first.PlayerID == second.PlayerID {
		t.Fatal("duplicate join must issue a fresh entity id")
	}

	// Both players are live.
	player(t, e, first.PlayerID)
	player(t, e, second.PlayerID)
}

func TestJoinDeathCooldown(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())

	e.mu.Lock()
	e.deathCooldowns["alice"] = time.Now()
	e.mu.Unlock()

	_, err := e.Join("alice")
	if CodeOf(err) != CodeDeathCooldown {
		t.Fatalf("expected death_cooldown, got %v", err)
	}
	var cmdErr *Error
	if !errors.As(err, &cmdErr) || cmdErr.Remaining <= 0 || cmdErr.Remaining > 10*time.Second {
		t.Errorf("remaining should be in (0, 10s], got %v", err)
	}

	// An expired entry is swept by the join itself.
	e.mu.Lock()
	e.deathCooldowns["alice"] = time.Now().Add(-11 * time.Second)
	e.mu.Unlock()

	mustJoin(t, e, "alice")

	e.mu.Lock()
	_, stillThere := e.deathCooldowns["alice"]
	e.mu.Unlock()
	if stillThere {
		t.Error("expired cooldown entry should be deleted on join")
	}
}

func TestJoinWhileStopped(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	e.running = false

	_, err := e.Join("alice")
	if CodeOf(err) != CodeServerUnavailable {
		t.Errorf("expected server_unavailable, got %v", err)
	}
}

func TestMoveRateLimit(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "alice")

	// Join stamps LastMove, so an immediate move is denied.
	if _, err := e.Move(res.PlayerID, 1, 0); CodeOf(err) != CodeMoveTooFast {
		t.Errorf("expected move_too_fast, got %v", err)
	}

	player(t, e, res.PlayerID).LastMove = time.Now().Add(-time.Second)
	if _, err := e.Move(res.PlayerID, 1, 0); err != nil {
		t.Errorf("move after rate limit window failed: %v", err)
	}
}

func TestMoveStepSize(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "alice")

	p := player(t, e, res.PlayerID)
	p.X, p.Y = 50, 50
	p.LastMove = time.Now().Add(-time.Second)

	moved, err := e.Move(res.PlayerID, 1, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	// One step = PlayerSpeed * MoveRateLimit = 5 * 0.05 = 0.25 units.
	if moved.Position[0] != 50.25 || moved.Position[1] != 50 {
		t.Errorf("expected (50.25, 50), got %v", moved.Position)
	}
}

func TestMoveSpeedCapOverWindow(t *testing.T) {
	cfg := emptyArenaConfig()
	e := newTestEngine(cfg)
	res := mustJoin(t, e, "alice")

	p := player(t, e, res.PlayerID)
	p.X, p.Y = 10, 50

	// 20 accepted moves at the rate limit cover one second of movement
	// budget: at most PlayerSpeed units of ground.
	for i := 0; i < 20; i++ {
		p.LastMove = time.Now().Add(-cfg.Rules.MoveRateLimit)
		if _, err := e.Move(res.PlayerID, 1, 0); err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
	}

	travelled := player(t, e, res.PlayerID).X - 10
	if math.Abs(travelled-cfg.Player.Speed) > 1e-9 {
		t.Errorf("20 rate-limited moves travelled %.4f units, want %.4f", travelled, cfg.Player.Speed)
	}
}

func TestMoveZeroDirection(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "alice")

	p := player(t, e, res.PlayerID)
	p.X, p.Y = 50, 50
	p.LastMove = time.Now().Add(-time.Second)

	moved, err := e.Move(res.PlayerID, 0, 0)
	if err != nil {
		t.Fatalf("zero-direction move should succeed: %v", err)
	}
	if moved.Position != [2]float64{50, 50} {
		t.Errorf("zero-direction move must not change position, got %v", moved.Position)
	}
}

func TestMoveBlockedByObstacle(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	e.obstacles = []Obstacle{{ID: 0, X: 50.5, Y: 45, Width: 5, Height: 10}}

	res := mustJoin(t, e, "alice")
	p := player(t, e, res.PlayerID)
	p.X, p.Y = 50.2, 50
	p.LastMove = time.Now().Add(-time.Second)

	moved, err := e.Move(res.PlayerID, 1, 0)
	if err != nil {
		t.Fatalf("blocked move still succeeds: %v", err)
	}
	if moved.Position != [2]float64{50.2, 50} {
		t.Errorf("move into obstacle should leave position unchanged, got %v", moved.Position)
	}
}

func TestMoveBlockedAtMapEdge(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "alice")

	p := player(t, e, res.PlayerID)
	p.X, p.Y = 99.8, 50
	p.LastMove = time.Now().Add(-time.Second)

	moved, err := e.Move(res.PlayerID, 1, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	// The clamped candidate (100, 50) leaves less than one radius of
	// clearance, so the step is rejected.
	if moved.Position != [2]float64{99.8, 50} {
		t.Errorf("expected blocked at edge, got %v", moved.Position)
	}
}

func TestMovePlayerNotFound(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	if _, err := e.Move("ghost_12345678", 1, 0); CodeOf(err) != CodePlayerNotFound {
		t.Errorf("expected player_not_found, got %v", err)
	}
}

func TestShootCooldown(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")

	player(t, e, res.PlayerID).LastShoot = time.Now().Add(-time.Second)
	if _, err := e.Shoot(res.PlayerID, 1, 0); err != nil {
		t.Fatalf("first shot failed: %v", err)
	}

	_, err := e.Shoot(res.PlayerID, 1, 0)
	if CodeOf(err) != CodeShootCooldown {
		t.Fatalf("expected shoot_cooldown, got %v", err)
	}
	var cmdErr *Error
	if !errors.As(err, &cmdErr) || cmdErr.Remaining <= 0 || cmdErr.Remaining > 500*time.Millisecond {
		t.Errorf("remaining should be in (0, 500ms], got %v", cmdErr.Remaining)
	}

	// 600ms later the cooldown has passed.
	player(t, e, res.PlayerID).LastShoot = time.Now().Add(-600 * time.Millisecond)
	if _, err := e.Shoot(res.PlayerID, 1, 0); err != nil {
		t.Errorf("shot after cooldown failed: %v", err)
	}
}

func TestShootInvalidDirection(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")
	player(t, e, res.PlayerID).LastShoot = time.Now().Add(-time.Second)

	if _, err := e.Shoot(res.PlayerID, 0, 0); CodeOf(err) != CodeInvalidDirection {
		t.Errorf("expected invalid_direction, got %v", err)
	}
}

func TestShootBulletCap(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")
	p := player(t, e, res.PlayerID)

	for i := 0; i < 5; i++ {
		p.LastShoot = time.Now().Add(-time.Second)
		if _, err := e.Shoot(res.PlayerID, 1, 0); err != nil {
			t.Fatalf("shot %d failed: %v", i, err)
		}
	}

	p.LastShoot = time.Now().Add(-time.Second)
	if _, err := e.Shoot(res.PlayerID, 1, 0); CodeOf(err) != CodeTooManyBullets {
		t.Errorf("expected too_many_bullets, got %v", err)
	}

	// Expiring one bullet frees a slot.
	e.mu.Lock()
	for id := range e.bullets {
		delete(e.bullets, id)
		break
	}
	e.mu.Unlock()

	p.LastShoot = time.Now().Add(-time.Second)
	if _, err := e.Shoot(res.PlayerID, 1, 0); err != nil {
		t.Errorf("shot after a bullet expired failed: %v", err)
	}
}

func TestShootVelocityMagnitude(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")
	p := player(t, e, res.PlayerID)

	directions := [][2]float64{{1, 0}, {3, 4}, {-1, -1}, {2, 0}}
	for _, dir := range directions {
		p.LastShoot = time.Now().Add(-time.Second)
		shot, err := e.Shoot(res.PlayerID, dir[0], dir[1])
		if err != nil {
			t.Fatalf("shoot(%v) failed: %v", dir, err)
		}

		e.mu.Lock()
		b := e.bullets[shot.BulletID]
		e.mu.Unlock()

		speed := math.Sqrt(b.VX*b.VX + b.VY*b.VY)
		if math.Abs(speed-15) > 1e-9 {
			t.Errorf("bullet speed for dir %v is %.4f, want 15", dir, speed)
		}
	}
}

func TestShootScaledDirectionSameVelocity(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")
	p := player(t, e, res.PlayerID)

	p.LastShoot = time.Now().Add(-time.Second)
	first, _ := e.Shoot(res.PlayerID, 1, 2)
	p.LastShoot = time.Now().Add(-time.Second)
	second, _ := e.Shoot(res.PlayerID, 2, 4)

	e.mu.Lock()
	b1, b2 := e.bullets[first.BulletID], e.bullets[second.BulletID]
	e.mu.Unlock()

	if math.Abs(b1.VX-b2.VX) > 1e-9 || math.Abs(b1.VY-b2.VY) > 1e-9 {
		t.Errorf("scaled direction produced different velocity: (%v,%v) vs (%v,%v)",
			b1.VX, b1.VY, b2.VX, b2.VY)
	}
}

func TestShootIncrementsLifetimeShots(t *testing.T) {
	e := newTestEngine(emptyArenaConfig())
	res := mustJoin(t, e, "bob")
	player(t, e, res.PlayerID).LastShoot = time.Now().Add(-time.Second)

	before := e.Stats().Game.TotalShots
	if _, err := e.Shoot(res.PlayerID, 1, 0); err != nil {
		t.Fatalf("shoot failed: %v", err)
	}
	if after := e.Stats().Game.TotalShots; after != before+1 {
		t.Errorf("total shots %d, want %d", after, before+1)
	}
}
