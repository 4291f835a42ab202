package engine

import (
	"math"

	"github.com/veldtgame/veldt/core"
)

// DefaultCellSize is used when a grid is constructed without an explicit
// cell size. Sized for unit-scale interaction radii (radius ~0.5,
// separation queries ~3 world units reach two cells).
const DefaultCellSize = 2.0

// CellKey is a discrete grid cell coordinate, derived from continuous
// world coordinates by flooring position / cellSize.
type CellKey struct {
	X, Y int
}

// SpatialGrid is a uniform-cell bucket map from world position to entity
// ids, with per-cell walkability flags. The grid never reads component
// state: callers must Move entities explicitly when they relocate.
//
// Insert/Remove/Move are amortized O(1) and query cost is bounded by the
// queried area, independent of total entity count. Queries resolve at
// cell granularity: results are a conservative superset of the exact
// circle/rectangle membership and callers needing exact distance must
// post-filter.
type SpatialGrid struct {
	cellSize float32
	width    float32
	height   float32
	cells    map[CellKey]map[core.Entity]struct{}
	walkable map[CellKey]bool // explicit overrides; absent means walkable

	queryBuf []core.Entity // reused across Query/QueryRect/EntitiesInCell
}

// NewSpatialGrid creates a grid covering width x height world units.
// A non-positive cellSize falls back to DefaultCellSize.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &SpatialGrid{
		cellSize: cellSize,
		width:    width,
		height:   height,
		cells:    make(map[CellKey]map[core.Entity]struct{}),
		walkable: make(map[CellKey]bool),
		queryBuf: make([]core.Entity, 0, 32),
	}
}

// CellSize returns the configured cell size.
func (g *SpatialGrid) CellSize() float32 {
	return g.cellSize
}

// Size returns the configured world dimensions.
func (g *SpatialGrid) Size() (width, height float32) {
	return g.width, g.height
}

// CellOf returns the cell containing the world position.
func (g *SpatialGrid) CellOf(x, y float32) CellKey {
	return CellKey{
		X: int(math.Floor(float64(x / g.cellSize))),
		Y: int(math.Floor(float64(y / g.cellSize))),
	}
}

// Insert adds the entity to the cell containing (x, y). Inserting an id
// already registered elsewhere without a matching Remove is a caller bug
// the grid does not defend against; use Move to relocate.
func (g *SpatialGrid) Insert(e core.Entity, x, y float32) {
	key := g.CellOf(x, y)
	cell, ok := g.cells[key]
	if !ok {
		cell = make(map[core.Entity]struct{}, 4)
		g.cells[key] = cell
	}
	cell[e] = struct{}{}
}

// Remove deletes the entity from the cell containing (x, y). Removing an
// id not present in that cell is a no-op.
func (g *SpatialGrid) Remove(e core.Entity, x, y float32) {
	key := g.CellOf(x, y)
	cell, ok := g.cells[key]
	if !ok {
		return
	}
	delete(cell, e)
	if len(cell) == 0 {
		delete(g.cells, key)
	}
}

// Move relocates the entity from its old to its new position. Same-cell
// moves are a no-op; otherwise the remove and insert happen back to back
// so a query never observes the entity in neither or both cells.
func (g *SpatialGrid) Move(e core.Entity, oldX, oldY, newX, newY float32) {
	oldKey := g.CellOf(oldX, oldY)
	newKey := g.CellOf(newX, newY)
	if oldKey == newKey {
		return
	}
	g.Remove(e, oldX, oldY)
	g.Insert(e, newX, newY)
}

// Query returns the ids in every cell that could contain a point within
// radius of (x, y). Cell granularity, conservative superset of the exact
// circle membership.
//
// The returned slice is a reused buffer: it is valid only until the next
// Query/QueryRect/EntitiesInCell call on this grid and must not be
// mutated or retained. Use QueryAppend for an owned copy.
func (g *SpatialGrid) Query(x, y, radius float32) []core.Entity {
	g.queryBuf = g.appendRange(g.queryBuf[:0], x-radius, y-radius, x+radius, y+radius)
	return g.queryBuf
}

// QueryAppend appends the same result set as Query to dst and returns it.
func (g *SpatialGrid) QueryAppend(dst []core.Entity, x, y, radius float32) []core.Entity {
	return g.appendRange(dst, x-radius, y-radius, x+radius, y+radius)
}

// QueryRect returns the ids in every cell overlapping the rectangle.
// Same cell-granularity and reused-buffer contract as Query.
func (g *SpatialGrid) QueryRect(minX, minY, maxX, maxY float32) []core.Entity {
	g.queryBuf = g.appendRange(g.queryBuf[:0], minX, minY, maxX, maxY)
	return g.queryBuf
}

// QueryRectAppend appends the same result set as QueryRect to dst.
func (g *SpatialGrid) QueryRectAppend(dst []core.Entity, minX, minY, maxX, maxY float32) []core.Entity {
	return g.appendRange(dst, minX, minY, maxX, maxY)
}

func (g *SpatialGrid) appendRange(dst []core.Entity, minX, minY, maxX, maxY float32) []core.Entity {
	lo := g.CellOf(minX, minY)
	hi := g.CellOf(maxX, maxY)
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			for e := range g.cells[CellKey{X: cx, Y: cy}] {
				dst = append(dst, e)
			}
		}
	}
	return dst
}

// EntitiesInCell returns the exact occupant set of the single cell
// containing (x, y); empty for a never-touched cell. Reused-buffer
// contract as Query.
func (g *SpatialGrid) EntitiesInCell(x, y float32) []core.Entity {
	g.queryBuf = g.queryBuf[:0]
	for e := range g.cells[g.CellOf(x, y)] {
		g.queryBuf = append(g.queryBuf, e)
	}
	return g.queryBuf
}

// SetWalkable overrides the walkability flag of the cell containing
// (x, y). Cells never set are walkable.
func (g *SpatialGrid) SetWalkable(x, y float32, walkable bool) {
	g.walkable[g.CellOf(x, y)] = walkable
}

// IsWalkable reports the walkability of the cell containing (x, y).
func (g *SpatialGrid) IsWalkable(x, y float32) bool {
	if v, ok := g.walkable[g.CellOf(x, y)]; ok {
		return v
	}
	return true
}

// Clear removes all occupants and walkability overrides. Cell size and
// world dimensions are retained.
func (g *SpatialGrid) Clear() {
	g.cells = make(map[CellKey]map[core.Entity]struct{})
	g.walkable = make(map[CellKey]bool)
	g.queryBuf = g.queryBuf[:0]
}
