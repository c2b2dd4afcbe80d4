package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Polygon returns the box as a closed counter-clockwise ring.
func (b BBox) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
		{b.MinX, b.MinY},
	}}
}

func (b BBox) extend(pt orb.Point, first bool) BBox {
	if first {
		return BBox{MinX: pt[0], MinY: pt[1], MaxX: pt[0], MaxY: pt[1]}
	}
	b.MinX = math.Min(b.MinX, pt[0])
	b.MinY = math.Min(b.MinY, pt[1])
	b.MaxX = math.Max(b.MaxX, pt[0])
	b.MaxY = math.Max(b.MaxY, pt[1])
	return b
}

// WGS84 is the canonical identifier of geographic longitude/latitude degrees.
const WGS84 = "EPSG:4326"

// Region is the boundary of interest: one or more polygon parts (first ring
// outer, following rings holes) in the coordinate system named by CRS.
// A Region is not modified after construction.
type Region struct {
	Parts []orb.Polygon
	CRS   string
}

// NewRegion copies and normalizes parts. Rings are closed, consecutive
// duplicate vertices removed, and rings without area dropped. A part whose
// outer ring is dropped is removed entirely.
func NewRegion(parts []orb.Polygon, crs string) Region {
	if crs == "" {
		crs = WGS84
	}
	r := Region{CRS: crs}
	for _, p := range parts {
		if np := normalizePolygon(p); np != nil {
			r.Parts = append(r.Parts, np)
		}
	}
	return r
}

// Rectangle builds a single-part region covering b.
func Rectangle(b BBox) Region {
	return NewRegion([]orb.Polygon{b.Polygon()}, WGS84)
}

// Empty reports whether the region has no usable parts.
func (r Region) Empty() bool {
	return len(r.Parts) == 0
}

// BBox returns the extent of all parts.
func (r Region) BBox() BBox {
	var b BBox
	first := true
	for _, p := range r.Parts {
		for _, ring := range p {
			for _, pt := range ring {
				b = b.extend(pt, first)
				first = false
			}
		}
	}
	return b
}

// VertexCount is the number of stored vertices over all rings.
func (r Region) VertexCount() int {
	n := 0
	for _, p := range r.Parts {
		for _, ring := range p {
			n += len(ring)
		}
	}
	return n
}

func normalizePolygon(p orb.Polygon) orb.Polygon {
	if len(p) == 0 {
		return nil
	}
	outer := normalizeRing(p[0])
	if outer == nil {
		return nil
	}
	out := orb.Polygon{outer}
	for _, hole := range p[1:] {
		if h := normalizeRing(hole); h != nil {
			out = append(out, h)
		}
	}
	return out
}

func normalizeRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, pt := range r {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Equal(pt) {
			continue
		}
		out = append(out, pt)
	}
	if len(out) > 1 && out[0].Equal(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	// three distinct vertices plus the closing one
	if len(out) < 3 {
		return nil
	}
	out = append(out, out[0])
	if math.Abs(planar.Area(out)) == 0 {
		return nil
	}
	return out
}
