package geom

import (
	"math"
	"sort"

	cgeom "github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ToClipPolygon converts an orb polygon to the representation used by the
// polyclip boolean operations. The closing vertex of each ring is dropped;
// polyclip contours are implicitly closed.
func ToClipPolygon(p orb.Polygon) cgeom.Polygon {
	out := make(cgeom.Polygon, 0, len(p))
	for _, ring := range p {
		n := len(ring)
		if n > 1 && ring[0].Equal(ring[n-1]) {
			n--
		}
		path := make([]cgeom.Point, n)
		for i := 0; i < n; i++ {
			path[i] = cgeom.Point{X: ring[i][0], Y: ring[i][1]}
		}
		out = append(out, path)
	}
	return out
}

// FromClipPolygon converts a polyclip result into a MultiPolygon. Polyclip
// returns a flat list of contours evaluated with the even-odd rule; each
// contour is classified by how many other contours enclose it. Contours at an
// even depth become outer rings and odd-depth contours become holes of their
// innermost enclosing outer ring.
func FromClipPolygon(p cgeom.Polygon) orb.MultiPolygon {
	type contour struct {
		ring   orb.Ring
		area   float64
		depth  int
		parent int
	}
	var cs []contour
	for _, path := range p {
		if len(path) < 3 {
			continue
		}
		ring := make(orb.Ring, 0, len(path)+1)
		for _, pt := range path {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if !ring[0].Equal(ring[len(ring)-1]) {
			ring = append(ring, ring[0])
		}
		a := math.Abs(planar.Area(ring))
		if a == 0 {
			continue
		}
		cs = append(cs, contour{ring: ring, area: a, parent: -1})
	}
	// larger contours first so that parents precede children
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].area > cs[j].area })

	for i := range cs {
		for j := 0; j < i; j++ {
			if encloses(cs[j].ring, cs[i].ring) {
				cs[i].depth++
				// the smallest enclosing contour seen so far is the innermost
				cs[i].parent = j
			}
		}
	}

	var out orb.MultiPolygon
	index := make(map[int]int, len(cs))
	for i, c := range cs {
		if c.depth%2 == 0 {
			index[i] = len(out)
			out = append(out, orb.Polygon{c.ring})
		}
	}
	for _, c := range cs {
		if c.depth%2 == 1 && c.parent >= 0 {
			if k, ok := index[c.parent]; ok {
				out[k] = append(out[k], c.ring)
			}
		}
	}
	return out
}

// encloses reports whether most vertices of inner lie inside outer. Polyclip
// contours never cross, so a shared touching vertex must not decide the test.
func encloses(outer, inner orb.Ring) bool {
	if !outer.Bound().Intersects(inner.Bound()) {
		return false
	}
	n := len(inner) - 1
	in := 0
	for _, pt := range inner[:n] {
		if planar.RingContains(outer, pt) {
			in++
		}
	}
	return in*2 > n
}

// Orient rewinds polygons in place so that outer rings are counter-clockwise
// and holes clockwise, as RFC 7946 recommends.
func Orient(mp orb.MultiPolygon) orb.MultiPolygon {
	for _, p := range mp {
		for i, ring := range p {
			want := orb.CCW
			if i > 0 {
				want = orb.CW
			}
			if ring.Orientation() != want {
				ring.Reverse()
			}
		}
	}
	return mp
}
