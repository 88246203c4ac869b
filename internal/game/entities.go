package game

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Player is a live participant. Fields are only mutated by engine command
// handlers and the tick loop, under the engine lock.
type Player struct {
	ID       string
	Username string

	X, Y   float64
	Health int
	Kills  int

	// Rate limiting and eviction timestamps (monotonic).
	LastMove     time.Time
	LastShoot    time.Time
	LastActivity time.Time
}

// Touch records activity for inactivity eviction.
func (p *Player) Touch(now time.Time) {
	p.LastActivity = now
}

// Bullet is a projectile in flight. OwnerID references the shooter by id,
// never by handle; the owner may die while the bullet flies.
type Bullet struct {
	ID      string
	OwnerID string

	X, Y   float64
	VX, VY float64 // units/second, already scaled to bullet speed

	Damage    int
	CreatedAt time.Time
	Bounces   int
}

// Obstacle is an immovable axis-aligned rectangle, fixed at engine startup.
type Obstacle struct {
	ID     int
	X, Y   float64
	Width  float64
	Height float64
}

// shortHex returns the first n characters of a random UUID's hex form,
// used as the entropy suffix of entity ids.
func shortHex(n int) string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:n]
}
