package rigid

import (
	"math"
	"slices"

	"github.com/akmonengine/rigid/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxCellsPerBody is the cell span above which a body skips the grid and is
// tested against every other body, like an unbounded half-space
const maxCellsPerBody = 4096

// CellKey is the integer coordinates of a grid cell
type CellKey struct {
	X, Y, Z int
}

type cell struct {
	bodyIndices []int
}

// Pair is two bodies whose bounding boxes overlap
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// SpatialGrid is a uniform grid hashed into a fixed number of buckets.
// Bodies too large for the grid, such as half-spaces, are kept in a separate list.
// FindPairs returns every candidate pair once, in an order that only depends on the
// order of the bodies.
type SpatialGrid struct {
	cellSize float64
	cells    []cell
	cellMask int

	unbounded []int
	// visited[j] == stamp when body j was already paired during the current scan
	visited []int
	stamp   int
	pairs   []Pair
}

// NewSpatialGrid creates a grid of cellSize cells hashed into numCells buckets,
// rounded up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}

// Insert adds the body to every cell its bounding box covers. A body without a shape is skipped.
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	if body.Shape == nil {
		return
	}

	minCell, maxCell, bounded := sg.cellRange(body.Shape.GetAABB())
	if !bounded {
		sg.unbounded = append(sg.unbounded, bodyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}
}

// Clear empties the grid, keeping its storage
func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.unbounded = sg.unbounded[:0]
}

// SortCells orders each cell by body index
func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			slices.Sort(sg.cells[i].bodyIndices)
		}
	}
}

// Build clears the grid and inserts all the bodies
func (sg *SpatialGrid) Build(bodies []*actor.RigidBody) {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}
	sg.SortCells()
}

// FindPairs returns the candidate pairs of the bodies inserted by Build, the lower index first.
// Static pairs, sleeping pairs and bodies without a shape are skipped.
// The returned slice is reused by the next call.
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	sg.pairs = sg.pairs[:0]
	if len(sg.visited) < len(bodies) {
		sg.visited = make([]int, len(bodies))
		sg.stamp = 0
	}

	for bodyIdx, bodyA := range bodies {
		sg.stamp++
		if bodyA.Shape == nil {
			continue
		}

		minCell, maxCell, bounded := sg.cellRange(bodyA.Shape.GetAABB())
		if !bounded {
			// Unbounded bodies meet every body after them
			for otherIdx := bodyIdx + 1; otherIdx < len(bodies); otherIdx++ {
				sg.tryPair(bodies, bodyIdx, otherIdx)
			}
			continue
		}

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := sg.hashCell(CellKey{x, y, z})
					for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
						sg.tryPair(bodies, bodyIdx, otherIdx)
					}
				}
			}
		}

		for _, otherIdx := range sg.unbounded {
			sg.tryPair(bodies, bodyIdx, otherIdx)
		}
	}

	return sg.pairs
}

func (sg *SpatialGrid) tryPair(bodies []*actor.RigidBody, bodyIdx, otherIdx int) {
	// Each pair is found from its lower index only
	if otherIdx <= bodyIdx || sg.visited[otherIdx] == sg.stamp {
		return
	}
	sg.visited[otherIdx] = sg.stamp

	bodyA, bodyB := bodies[bodyIdx], bodies[otherIdx]
	if bodyB.Shape == nil {
		return
	}
	if bodyA.BodyType == actor.BodyTypeStatic && bodyB.BodyType == actor.BodyTypeStatic {
		return
	}
	if bodyA.IsSleeping && bodyB.IsSleeping {
		return
	}
	if !bodyA.Shape.GetAABB().Overlaps(bodyB.Shape.GetAABB()) {
		return
	}

	sg.pairs = append(sg.pairs, Pair{BodyA: bodyA, BodyB: bodyB})
}

// cellRange returns the cells covered by aabb, or false when the box is infinite
// or spans more than maxCellsPerBody cells
func (sg *SpatialGrid) cellRange(aabb actor.AABB) (CellKey, CellKey, bool) {
	for i := range 3 {
		if math.IsInf(aabb.Min[i], 0) || math.IsInf(aabb.Max[i], 0) {
			return CellKey{}, CellKey{}, false
		}
	}

	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	span := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	if span > maxCellsPerBody || span <= 0 {
		return CellKey{}, CellKey{}, false
	}

	return minCell, maxCell, true
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
