// Package walkcache maintains a fixed-size window of walkability flags
// centered on a creature so movement decisions avoid per-tile map queries.
package walkcache

import "github.com/cory-johannsen/creaturesim/internal/game/world"

// Answer is the result of a cache lookup.
type Answer int

const (
	// Blocked means the tile cannot be entered.
	Blocked Answer = iota
	// Walkable means the tile can be entered.
	Walkable
	// Unknown means the position is outside the cached window or the cache is
	// not built; the caller must ask the map directly.
	Unknown
)

// String returns the answer label.
func (a Answer) String() string {
	switch a {
	case Blocked:
		return "blocked"
	case Walkable:
		return "walkable"
	default:
		return "unknown"
	}
}

// Probe reports whether the tile at pos can be entered.
type Probe func(pos world.Position) bool

// Grid is the walkability window. Cells are stored row-major.
//
// Invariant: len(cells) == width*height; width and height are odd.
type Grid struct {
	width  int
	height int
	halfW  int
	halfH  int
	cells  []bool
	center world.Position
	valid  bool
}

// New creates an unbuilt Grid. Even dimensions are rounded up so the window
// has a center cell.
//
// Precondition: width > 0 and height > 0.
func New(width, height int) *Grid {
	if width%2 == 0 {
		width++
	}
	if height%2 == 0 {
		height++
	}
	return &Grid{
		width:  width,
		height: height,
		halfW:  width / 2,
		halfH:  height / 2,
		cells:  make([]bool, width*height),
	}
}

// Width returns the window width in tiles.
func (g *Grid) Width() int { return g.width }

// Height returns the window height in tiles.
func (g *Grid) Height() int { return g.height }

// Valid reports whether the grid has been built since the last Invalidate.
func (g *Grid) Valid() bool { return g.valid }

// Center returns the position the window is centered on.
func (g *Grid) Center() world.Position { return g.center }

// Invalidate marks the grid unbuilt; lookups return Unknown until Rebuild.
func (g *Grid) Invalidate() { g.valid = false }

// Rebuild re-centers the window on center and probes every cell.
//
// Postcondition: probe is called exactly Width()*Height() times and Valid() is true.
func (g *Grid) Rebuild(center world.Position, probe Probe) {
	g.center = center
	for cy := 0; cy < g.height; cy++ {
		for cx := 0; cx < g.width; cx++ {
			g.cells[cy*g.width+cx] = probe(g.cellPos(cx, cy))
		}
	}
	g.valid = true
}

// Shift re-centers the window on to. A single orthogonal step on the same
// floor moves the cells in place and probes only the newly exposed edge. Any
// other move, or an unbuilt grid, falls back to Rebuild.
//
// Postcondition: Returns true when the incremental path was taken. Lookup
// answers are identical to those a Rebuild at to would produce.
func (g *Grid) Shift(to world.Position, probe Probe) bool {
	if !g.valid || to.Z != g.center.Z {
		g.Rebuild(to, probe)
		return false
	}
	dx, dy := to.X-g.center.X, to.Y-g.center.Y
	w, h := g.width, g.height
	switch {
	case dx == 0 && dy == 1:
		copy(g.cells[:(h-1)*w], g.cells[w:])
		g.center = to
		g.probeRow(h-1, probe)
	case dx == 0 && dy == -1:
		copy(g.cells[w:], g.cells[:(h-1)*w])
		g.center = to
		g.probeRow(0, probe)
	case dx == 1 && dy == 0:
		for cy := 0; cy < h; cy++ {
			row := g.cells[cy*w : (cy+1)*w]
			copy(row[:w-1], row[1:])
		}
		g.center = to
		g.probeColumn(w-1, probe)
	case dx == -1 && dy == 0:
		for cy := 0; cy < h; cy++ {
			row := g.cells[cy*w : (cy+1)*w]
			copy(row[1:], row[:w-1])
		}
		g.center = to
		g.probeColumn(0, probe)
	case dx == 0 && dy == 0:
		return true
	default:
		g.Rebuild(to, probe)
		return false
	}
	return true
}

// Set overwrites the cell for pos. Positions outside the window are ignored.
func (g *Grid) Set(pos world.Position, walkable bool) {
	if i, ok := g.index(pos); ok {
		g.cells[i] = walkable
	}
}

// Lookup answers whether pos is walkable from the cache.
//
// Postcondition: The window center is always Walkable. Positions on another
// floor or outside the window, and any query on an unbuilt grid, are Unknown.
func (g *Grid) Lookup(pos world.Position) Answer {
	if !g.valid {
		return Unknown
	}
	if pos == g.center {
		return Walkable
	}
	i, ok := g.index(pos)
	if !ok {
		return Unknown
	}
	if g.cells[i] {
		return Walkable
	}
	return Blocked
}

func (g *Grid) index(pos world.Position) (int, bool) {
	if pos.Z != g.center.Z {
		return 0, false
	}
	cx := pos.X - g.center.X + g.halfW
	cy := pos.Y - g.center.Y + g.halfH
	if cx < 0 || cx >= g.width || cy < 0 || cy >= g.height {
		return 0, false
	}
	return cy*g.width + cx, true
}

func (g *Grid) cellPos(cx, cy int) world.Position {
	return world.Position{
		X: g.center.X - g.halfW + cx,
		Y: g.center.Y - g.halfH + cy,
		Z: g.center.Z,
	}
}

func (g *Grid) probeRow(cy int, probe Probe) {
	for cx := 0; cx < g.width; cx++ {
		g.cells[cy*g.width+cx] = probe(g.cellPos(cx, cy))
	}
}

func (g *Grid) probeColumn(cx int, probe Probe) {
	for cy := 0; cy < g.height; cy++ {
		g.cells[cy*g.width+cx] = probe(g.cellPos(cx, cy))
	}
}
