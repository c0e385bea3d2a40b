package tilemap

import (
	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// Step costs used by FindPath.
const (
	costOrthogonal = 10
	costDiagonal   = 25
)

type node struct {
	pos    world.Position
	cost   int
	seq    int
	parent *node
	dir    world.Direction
}

func byCost(a, b interface{}) int {
	na, nb := a.(*node), b.(*node)
	switch {
	case na.cost != nb.cost:
		return na.cost - nb.cost
	default:
		return na.seq - nb.seq
	}
}

// FindPath implements creature.Map with a uniform-cost search from c's
// position. Nodes farther than MaxSearchDist from the start on either axis
// are not expanded. A tile at exactly MaxTargetDist from to ends the search;
// otherwise the farthest acceptable tile found wins.
func (m *Map) FindPath(c *creature.Creature, to world.Position, p world.FindPathParams) ([]world.Direction, bool) {
	start := c.Position()
	if start.Z != to.Z {
		return nil, false
	}

	open := priorityqueue.NewWith(byCost)
	best := map[world.Position]int{start: 0}
	seq := 0
	open.Enqueue(&node{pos: start})

	var found *node
	bestMatch := 0
	closed := make(map[world.Position]bool)
	for !open.Empty() {
		v, _ := open.Dequeue()
		n := v.(*node)
		if closed[n.pos] {
			continue
		}
		closed[n.pos] = true

		if m.matches(start, n.pos, to, p, &bestMatch) {
			found = n
			if bestMatch == 0 {
				break
			}
		}

		for _, d := range world.All {
			next := n.pos.Step(d)
			if closed[next] || next.DistanceX(start) > p.MaxSearchDist || next.DistanceY(start) > p.MaxSearchDist {
				continue
			}
			t, ok := m.tile(next)
			if !ok || !m.CanEnter(t, c, world.FlagPathfinding) {
				continue
			}
			cost := n.cost + costOrthogonal
			if d.IsDiagonal() {
				cost = n.cost + costDiagonal
			}
			if prev, seen := best[next]; seen && prev <= cost {
				continue
			}
			best[next] = cost
			seq++
			open.Enqueue(&node{pos: next, cost: cost, seq: seq, parent: n, dir: d})
		}
	}
	if found == nil {
		return nil, false
	}

	var dirs []world.Direction
	for n := found; n.parent != nil; n = n.parent {
		dirs = append(dirs, n.dir)
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs, true
}

// matches reports whether test is an acceptable end tile for a path from
// start toward target. bestMatch tracks the best distance accepted so far;
// it is set to 0 on a perfect match.
func (m *Map) matches(start, test, target world.Position, p world.FindPathParams, bestMatch *int) bool {
	if !inRange(start, test, target, p) {
		return false
	}
	if p.ClearSight && !m.IsSightClear(test, target, true) {
		return false
	}
	dist := test.Distance(target)
	if p.MaxTargetDist == 1 {
		return dist >= p.MinTargetDist && dist <= p.MaxTargetDist
	}
	if dist > p.MaxTargetDist || dist < p.MinTargetDist {
		return false
	}
	if dist == p.MaxTargetDist {
		*bestMatch = 0
		return true
	}
	if dist > *bestMatch {
		*bestMatch = dist
		return true
	}
	return false
}

// inRange restricts candidate end tiles to the box of MaxTargetDist around
// target. An incremental search only accepts tiles on the start's side of
// the target.
func inRange(start, test, target world.Position, p world.FindPathParams) bool {
	if p.FullPathSearch {
		return test.DistanceX(target) <= p.MaxTargetDist && test.DistanceY(target) <= p.MaxTargetDist
	}
	dx, dy := start.OffsetX(target), start.OffsetY(target)
	maxX, minX := 0, 0
	if dx >= 0 {
		maxX = p.MaxTargetDist
	}
	if dx <= 0 {
		minX = p.MaxTargetDist
	}
	if test.X > target.X+maxX || test.X < target.X-minX {
		return false
	}
	maxY, minY := 0, 0
	if dy >= 0 {
		maxY = p.MaxTargetDist
	}
	if dy <= 0 {
		minY = p.MaxTargetDist
	}
	return test.Y <= target.Y+maxY && test.Y >= target.Y-minY
}

// IsSightClear implements creature.Map. Sight runs along a Bresenham line
// and is blocked by walls strictly between the two ends.
func (m *Map) IsSightClear(from, to world.Position, sameFloor bool) bool {
	if from.Z != to.Z {
		return !sameFloor && from.Distance(to) <= 1
	}
	x0, y0, x1, y1 := from.X, from.Y, to.X, to.Y
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		if (x0 != from.X || y0 != from.Y) && (x0 != to.X || y0 != to.Y) {
			if t, ok := m.tile(world.Position{X: x0, Y: y0, Z: from.Z}); ok && t.wall {
				return false
			}
		}
		if x0 == x1 && y0 == y1 {
			return true
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
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
