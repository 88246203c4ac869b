package game

import (
	"math"
	"math/rand"
)

// Normalize returns the unit vector of (x, y). The zero vector normalizes to
// (0, 0), which callers treat as "no direction".
func Normalize(x, y float64) (float64, float64) {
	mag := math.Sqrt(x*x + y*y)
	if mag == 0 {
		return 0, 0
	}
	return x / mag, y / mag
}

// Distance returns the euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// CircleCircleCollision reports whether two disks overlap. The test is
// strict: tangent circles do not collide.
func CircleCircleCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	return Distance(x1, y1, x2, y2) < r1+r2
}

// CircleRectCollision reports whether a disk overlaps an axis-aligned
// rectangle. The circle center is clamped onto the rectangle; the disk hits
// iff that closest point lies strictly inside the circle.
func CircleRectCollision(cx, cy, radius, rx, ry, width, height float64) bool {
	closestX := math.Max(rx, math.Min(cx, rx+width))
	closestY := math.Max(ry, math.Min(cy, ry+height))
	return Distance(cx, cy, closestX, closestY) < radius
}

// round2 rounds a coordinate to two decimals for the wire form.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampToMap restricts a position to the map bounds.
func (e *Engine) clampToMap(x, y float64) (float64, float64) {
	x = math.Max(0, math.Min(e.cfg.Map.Width, x))
	y = math.Max(0, math.Min(e.cfg.Map.Height, y))
	return x, y
}

// isPositionValid reports whether a player disk at (x, y) stays inside the
// map, clears every obstacle and overlaps no other live player.
// excludeID skips the moving player itself.
func (e *Engine) isPositionValid(x, y float64, excludeID string) bool {
	r := e.cfg.Player.Radius

	if x < r || x > e.cfg.Map.Width-r {
		return false
	}
	if y < r || y > e.cfg.Map.Height-r {
		return false
	}

	for _, obs := range e.obstacles {
		if CircleRectCollision(x, y, r, obs.X, obs.Y, obs.Width, obs.Height) {
			return false
		}
	}

	for _, other := range e.players {
		if other.ID == excludeID {
			continue
		}
		if CircleCircleCollision(x, y, r, other.X, other.Y, r) {
			return false
		}
	}

	return true
}

// findSpawnPosition samples the spawn safe zone for a point whose disk avoids
// every obstacle and keeps the configured distance to every live player.
// After 100 failed attempts it falls back to the map center without checking
// it; a player placed there may overlap an obstacle or another player, and no
// later step moves it apart.
func (e *Engine) findSpawnPosition(rng *rand.Rand) (float64, float64) {
	const maxAttempts = 100
	zone := e.cfg.SpawnZone

attempts:
	for i := 0; i < maxAttempts; i++ {
		x := zone.XMin + rng.Float64()*(zone.XMax-zone.XMin)
		y := zone.YMin + rng.Float64()*(zone.YMax-zone.YMin)

		for _, obs := range e.obstacles {
			if CircleRectCollision(x, y, e.cfg.Player.Radius, obs.X, obs.Y, obs.Width, obs.Height) {
				continue attempts
			}
		}

		for _, p := range e.players {
			if Distance(x, y, p.X, p.Y) < e.cfg.Player.SpawnMinDistance {
				continue attempts
			}
		}

		return x, y
	}

	return e.cfg.Map.Width / 2, e.cfg.Map.Height / 2
}
