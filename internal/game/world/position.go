// Package world defines the tile-space value types shared by the creature
// simulation and the map services it consumes.
package world

import "fmt"

// Position is a tile coordinate. Z is the floor; 0..7 are surface floors,
// 8..15 are underground.
type Position struct {
	X int
	Y int
	Z int
}

// SurfaceFloor is the deepest floor still considered above ground.
const SurfaceFloor = 7

// String returns the position formatted as "(x, y, z)".
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// OffsetX returns p.X - o.X.
func (p Position) OffsetX(o Position) int { return p.X - o.X }

// OffsetY returns p.Y - o.Y.
func (p Position) OffsetY(o Position) int { return p.Y - o.Y }

// DistanceX returns |p.X - o.X|.
func (p Position) DistanceX(o Position) int { return abs(p.X - o.X) }

// DistanceY returns |p.Y - o.Y|.
func (p Position) DistanceY(o Position) int { return abs(p.Y - o.Y) }

// DistanceZ returns |p.Z - o.Z|.
func (p Position) DistanceZ(o Position) int { return abs(p.Z - o.Z) }

// Distance returns the Chebyshev distance on the horizontal plane.
//
// Postcondition: Returns max(DistanceX, DistanceY).
func (p Position) Distance(o Position) int {
	dx, dy := p.DistanceX(o), p.DistanceY(o)
	if dx > dy {
		return dx
	}
	return dy
}

// Step returns the position one tile away in direction d on the same floor.
// NoDirection returns p unchanged.
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is a compass step direction.
type Direction int

const (
	NoDirection Direction = iota
	North
	East
	South
	West
	SouthWest
	SouthEast
	NorthWest
	NorthEast
)

// Orthogonal lists the four non-diagonal directions.
var Orthogonal = []Direction{North, East, South, West}

// All lists every direction except NoDirection.
var All = []Direction{North, East, South, West, SouthWest, SouthEast, NorthWest, NorthEast}

// Delta returns the x/y displacement of one step in d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	case SouthWest:
		return -1, 1
	case SouthEast:
		return 1, 1
	case NorthWest:
		return -1, -1
	case NorthEast:
		return 1, -1
	default:
		return 0, 0
	}
}

// IsDiagonal reports whether d moves along both axes.
func (d Direction) IsDiagonal() bool {
	return d == SouthWest || d == SouthEast || d == NorthWest || d == NorthEast
}

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case SouthWest:
		return "southwest"
	case SouthEast:
		return "southeast"
	case NorthWest:
		return "northwest"
	case NorthEast:
		return "northeast"
	default:
		return "none"
	}
}

// DirectionBetween returns the single-step direction from a toward b, using
// the sign of each axis offset. Returns NoDirection when a and b share x and y.
func DirectionBetween(a, b Position) Direction {
	dx, dy := sign(b.X-a.X), sign(b.Y-a.Y)
	for _, d := range All {
		ddx, ddy := d.Delta()
		if ddx == dx && ddy == dy {
			return d
		}
	}
	return NoDirection
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
