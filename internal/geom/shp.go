package geom

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
)

// LoadShapefile reads the polygon records of an ESRI shapefile and converts
// them to WGS84 using the sidecar .prj. Without a .prj the coordinates are
// taken to be longitude/latitude already.
func LoadShapefile(path string) (Region, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return Region{}, err
	}
	defer dec.Close()

	var trans proj.Transformer
	if _, err := os.Stat(strings.TrimSuffix(path, ".shp") + ".prj"); err == nil {
		src, err := dec.SR()
		if err != nil {
			return Region{}, fmt.Errorf("shapefile projection: %w", err)
		}
		dst, err := lookupSR(WGS84)
		if err != nil {
			return Region{}, err
		}
		if trans, err = src.NewTransform(dst); err != nil {
			return Region{}, fmt.Errorf("shapefile projection: %w", err)
		}
	}

	var parts []orb.Polygon
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return Region{}, err
			}
		}
		poly, ok := g.(cgeom.Polygonal)
		if !ok {
			continue
		}
		for _, p := range poly.Polygons() {
			parts = append(parts, FromClipPolygon(p)...)
		}
	}
	if err := dec.Error(); err != nil {
		return Region{}, err
	}
	r := NewRegion(parts, WGS84)
	if r.Empty() {
		return Region{}, errors.New("shapefile: no polygons found")
	}
	return r, nil
}
