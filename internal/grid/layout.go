package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"gridheat/internal/geom"
	"gridheat/internal/types"
)

// MaxCandidates bounds the number of cells a single build may enumerate.
const MaxCandidates = 4_000_000

// Layout is the enumeration box and cell size, in degrees. Latitude and
// longitude ranges are half-open: [LatMin, LatMax) and [LonMin, LonMax).
type Layout struct {
	LatMin   float64
	LatMax   float64
	LonMin   float64
	LonMax   float64
	CellSize float64
}

// Cell is a candidate tile identified by its south-west corner.
type Cell struct {
	Lat float64
	Lon float64
}

// ID returns the cell's grid_id.
func (c Cell) ID() string { return FormatGridID(c.Lat, c.Lon) }

// Bound is the cell square [lon, lon+size] x [lat, lat+size].
func (c Cell) Bound(size float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.Lon, c.Lat},
		Max: orb.Point{c.Lon + size, c.Lat + size},
	}
}

// Square is the cell geometry as a closed counter-clockwise polygon.
func (c Cell) Square(size float64) orb.Polygon {
	b := c.Bound(size)
	return geom.BBox{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}.Polygon()
}

// Validate rejects layouts that cannot be enumerated. Errors carry
// types.ErrCodeConfigInvalid.
func (l Layout) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"lat_min", l.LatMin}, {"lat_max", l.LatMax},
		{"lon_min", l.LonMin}, {"lon_max", l.LonMax},
		{"cell_size", l.CellSize},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalidLayout(f.name+" must be finite", l)
		}
	}
	if l.CellSize <= 0 {
		return invalidLayout("cell size must be positive", l)
	}
	if l.LatMin >= l.LatMax {
		return invalidLayout("lat_min must be less than lat_max", l)
	}
	if l.LonMin >= l.LonMax {
		return invalidLayout("lon_min must be less than lon_max", l)
	}
	rows := math.Ceil((l.LatMax - l.LatMin) / l.CellSize)
	cols := math.Ceil((l.LonMax - l.LonMin) / l.CellSize)
	if rows*cols > MaxCandidates {
		return invalidLayout(fmt.Sprintf("grid of %.0f cells exceeds the limit of %d", rows*cols, MaxCandidates), l)
	}
	return nil
}

func invalidLayout(msg string, l Layout) error {
	return types.NewAppError(types.ErrCodeConfigInvalid, "invalid grid: "+msg, nil).
		WithDetails(map[string]any{
			"lat_min": l.LatMin, "lat_max": l.LatMax,
			"lon_min": l.LonMin, "lon_max": l.LonMax,
			"cell_size": l.CellSize,
		})
}

// Cells enumerates every candidate in (lat, lon) ascending order. The layout
// must be valid.
func (l Layout) Cells() []Cell {
	lats := steps(l.LatMin, l.LatMax, l.CellSize)
	lons := steps(l.LonMin, l.LonMax, l.CellSize)
	cells := make([]Cell, 0, len(lats)*len(lons))
	for _, lat := range lats {
		for _, lon := range lons {
			cells = append(cells, Cell{Lat: lat, Lon: lon})
		}
	}
	return cells
}

// BBox is the enumeration box.
func (l Layout) BBox() geom.BBox {
	return geom.BBox{MinX: l.LonMin, MinY: l.LatMin, MaxX: l.LonMax, MaxY: l.LatMax}
}

func steps(lo, hi, size float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := snap(lo + float64(i)*size)
		if v >= hi {
			return out
		}
		out = append(out, v)
	}
}
