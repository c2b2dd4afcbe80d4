package geom

import (
	"fmt"
	"strings"

	cgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
)

const (
	proj4LonLat   = "+proj=longlat +datum=WGS84"
	proj4NAD83    = "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0"
	proj4Mercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m"
)

var knownCRS = map[string]string{
	"EPSG:4326":   proj4LonLat,
	"EPSG:4269":   proj4NAD83,
	"EPSG:3857":   proj4Mercator,
	"EPSG:900913": proj4Mercator,
	"EPSG:102100": proj4Mercator,
}

// NormalizeCRS maps the spellings found in GeoJSON crs members, .prj sidecars
// and configuration onto a canonical "EPSG:n" code. OGC URNs, the CRS84 alias
// and bare numbers are recognized. Raw proj4 strings are returned unchanged.
func NormalizeCRS(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return WGS84
	}
	if strings.HasPrefix(s, "+") {
		return s
	}
	u := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(u, "CRS84"), u == "WGS84":
		return WGS84
	case strings.HasPrefix(u, "URN:OGC:DEF:CRS:EPSG:"):
		// urn:ogc:def:crs:EPSG:[version]:code
		return "EPSG:" + u[strings.LastIndex(u, ":")+1:]
	case strings.HasPrefix(u, "EPSG:"):
		return u
	}
	if strings.Trim(u, "0123456789") == "" {
		return "EPSG:" + u
	}
	return u
}

func lookupSR(name string) (*proj.SR, error) {
	code := NormalizeCRS(name)
	def := code
	if !strings.HasPrefix(code, "+") {
		var ok bool
		if def, ok = knownCRS[code]; !ok {
			return nil, fmt.Errorf("unsupported crs %q", name)
		}
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse crs %q: %w", name, err)
	}
	return sr, nil
}

// Reproject transforms every part of r into the target CRS. Regions already
// in the target CRS are returned as is.
func Reproject(r Region, target string) (Region, error) {
	if NormalizeCRS(r.CRS) == NormalizeCRS(target) {
		return r, nil
	}
	src, err := lookupSR(r.CRS)
	if err != nil {
		return Region{}, err
	}
	dst, err := lookupSR(target)
	if err != nil {
		return Region{}, err
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return Region{}, err
	}
	parts := make([]orb.Polygon, 0, len(r.Parts))
	for _, p := range r.Parts {
		g, err := ToClipPolygon(p).Transform(trans)
		if err != nil {
			return Region{}, fmt.Errorf("reproject %s to %s: %w", r.CRS, target, err)
		}
		poly, ok := g.(cgeom.Polygon)
		if !ok {
			return Region{}, fmt.Errorf("reproject: unexpected geometry %T", g)
		}
		parts = append(parts, ringsFromClip(poly))
	}
	return NewRegion(parts, NormalizeCRS(target)), nil
}

// ringsFromClip keeps ring order, so the first ring stays the outer one.
func ringsFromClip(p cgeom.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	for _, path := range p {
		ring := make(orb.Ring, 0, len(path)+1)
		for _, pt := range path {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		out = append(out, ring)
	}
	return out
}
