package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"

	"gridheat/internal/geom"
)

// Clipper intersects one cell square with one region part. An empty or nil
// result means the two do not overlap.
type Clipper interface {
	Clip(cell orb.Bound, part orb.Polygon) orb.MultiPolygon
}

const (
	ClipperPolyclip = "polyclip"
	ClipperBound    = "bound"
)

// NewClipper returns the clipper registered under name. The empty name
// selects BoundClipper.
func NewClipper(name string) (Clipper, error) {
	switch name {
	case ClipperBound, "":
		return BoundClipper{}, nil
	case ClipperPolyclip:
		return PolyClipper{}, nil
	}
	return nil, fmt.Errorf("unknown clipper %q", name)
}

// PolyClipper computes the boolean intersection with polyclip, which keeps
// the pieces of a concave part as separate polygons. Rings are evaluated with
// the even-odd rule, so self-intersecting parts still give a well defined
// result.
//
// Polyclip can drop pieces when a vertex lies on, or within rounding of, a
// cell edge. Every result is checked against the BoundClipper area and the
// BoundClipper geometry is returned when polyclip comes up short.
type PolyClipper struct{}

func (PolyClipper) Clip(cell orb.Bound, part orb.Polygon) orb.MultiPolygon {
	if !cell.Intersects(part.Bound()) {
		return nil
	}
	square := geom.BBox{MinX: cell.Min[0], MinY: cell.Min[1], MaxX: cell.Max[0], MaxY: cell.Max[1]}.Polygon()
	var out orb.MultiPolygon
	if res := geom.ToClipPolygon(square).Intersection(geom.ToClipPolygon(part)); res != nil {
		for _, p := range res.Polygons() {
			out = append(out, geom.FromClipPolygon(p)...)
		}
	}

	ref := BoundClipper{}.Clip(cell, part)
	cellArea := (cell.Max[0] - cell.Min[0]) * (cell.Max[1] - cell.Min[1])
	if area(out) < area(ref)-fullTolerance*cellArea-minArea {
		return ref
	}
	return out
}

// BoundClipper clips the part against the cell rectangle edge by edge. It is
// faster than PolyClipper but a concave part that leaves and re-enters the
// cell comes back as one polygon joined by zero-width seams along the cell
// edge. Areas are unaffected.
type BoundClipper struct{}

func (BoundClipper) Clip(cell orb.Bound, part orb.Polygon) orb.MultiPolygon {
	if !cell.Intersects(part.Bound()) {
		return nil
	}
	p := clip.Polygon(cell, part.Clone())
	if len(p) == 0 {
		return nil
	}
	return orb.MultiPolygon{p}
}

// area sums outer rings minus holes.
func area(mp orb.MultiPolygon) float64 {
	var a float64
	for _, p := range mp {
		for i, ring := range p {
			ra := math.Abs(planar.Area(ring))
			if i == 0 {
				a += ra
			} else {
				a -= ra
			}
		}
	}
	return a
}
