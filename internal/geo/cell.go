// Package geo buckets coordinates into fixed-resolution grid cells for the
// lane-diversity aggregates. Cells are geohash strings; the precision is
// chosen once at startup and shared by every caller so cell ids from the
// same run are always comparable.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

const (
	// DefaultPrecision yields cells of roughly 39km x 19.5km, coarse
	// enough that a metro area's loads share a cell.
	DefaultPrecision = 4

	// MinPrecision and MaxPrecision bound the configurable resolution.
	MinPrecision = 1
	MaxPrecision = 12
)

// Grid buckets coordinates at one fixed precision.
type Grid struct {
	precision uint
}

// NewGrid creates a grid at the given precision. Out-of-range precisions
// are clamped rather than rejected so a bad config value degrades to a
// usable resolution.
func NewGrid(precision int) *Grid {
	if precision < MinPrecision {
		precision = MinPrecision
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	return &Grid{precision: uint(precision)}
}

// Precision returns the grid's cell precision
func (g *Grid) Precision() int {
	return int(g.precision)
}

// Cell returns the cell id for a coordinate pair, or "" when the
// coordinates are invalid. Same inputs always produce the same cell id.
func (g *Grid) Cell(lat, lon float64) string {
	if !ValidCoordinates(lat, lon) {
		return ""
	}
	return geohash.EncodeWithPrecision(lat, lon, g.precision)
}

// CellCenter returns the center point of a cell id
func (g *Grid) CellCenter(cell string) (lat, lon float64) {
	return geohash.DecodeCenter(cell)
}

// Neighbors returns the eight cells surrounding a cell id
func (g *Grid) Neighbors(cell string) []string {
	return geohash.Neighbors(cell)
}

// ValidCoordinates reports whether a (lat, lon) pair is usable for cell
// bucketing. NaN, infinite and out-of-range values are rejected; (0, 0) is
// rejected too because the source feeds emit it for unknown locations.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	if lat == 0 && lon == 0 {
		return false
	}
	return true
}
