package geom

import (
	"errors"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// DecodeWKT parses a POLYGON, MULTIPOLYGON or GEOMETRYCOLLECTION in WKT. The
// coordinates are taken to be WGS84 longitude/latitude.
func DecodeWKT(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Region{}, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return Region{}, err
	}
	var parts []orb.Polygon
	var walk func(g orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Polygon:
			parts = append(parts, g)
		case orb.MultiPolygon:
			parts = append(parts, g...)
		case orb.Collection:
			for _, c := range g {
				walk(c)
			}
		}
	}
	walk(g)
	r := NewRegion(parts, WGS84)
	if r.Empty() {
		return Region{}, errors.New("wkt: no polygons parsed")
	}
	return r, nil
}
