package geom

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	cgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}.Polygon()
}

func TestNewRegion_Normalizes(t *testing.T) {
	open := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 1}}}
	flat := orb.Polygon{orb.Ring{{0, 0}, {1, 1}, {2, 2}, {0, 0}}}
	withNaN := orb.Polygon{orb.Ring{{5, 5}, {6, 5}, {6, 6}, {math.NaN(), 1}, {5, 6}, {5, 5}}}

	r := NewRegion([]orb.Polygon{open, flat, withNaN, {}}, "")

	require.Len(t, r.Parts, 2)
	assert.Equal(t, WGS84, r.CRS)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, r.Parts[0][0])
	assert.Len(t, r.Parts[1][0], 5)
	assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 6, MaxY: 6}, r.BBox())
	assert.Equal(t, 10, r.VertexCount())
}

func TestNewRegion_DropsDegenerateHoles(t *testing.T) {
	p := orb.Polygon{
		square(0, 0, 10, 10)[0],
		orb.Ring{{2, 2}, {3, 3}},
		square(4, 4, 5, 5)[0],
	}
	r := NewRegion([]orb.Polygon{p}, WGS84)
	require.Len(t, r.Parts, 1)
	assert.Len(t, r.Parts[0], 2)
}

func TestRectangle(t *testing.T) {
	b := BBox{MinX: 68.5, MinY: 6.5, MaxX: 97.5, MaxY: 37.5}
	r := Rectangle(b)
	require.Len(t, r.Parts, 1)
	assert.Equal(t, b, r.BBox())
	assert.False(t, r.Empty())
	assert.True(t, b.Valid())
	assert.False(t, BBox{MinX: 1, MaxX: 1, MinY: 0, MaxY: 2}.Valid())
}

func TestDecodeGeoJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		parts   int
		crs     string
		wantErr string
	}{
		{
			name:  "feature collection with polygon and multipolygon",
			doc:   `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"ST_NM":"A"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},{"type":"Feature","properties":{},"geometry":{"type":"MultiPolygon","coordinates":[[[[2,2],[3,2],[3,3],[2,2]]],[[[4,4],[5,4],[5,5],[4,4]]]]}},{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[9,9]}}]}`,
			parts: 3,
			crs:   WGS84,
		},
		{
			name:  "bare feature",
			doc:   `{"type":"Feature","properties":null,"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}`,
			parts: 1,
			crs:   WGS84,
		},
		{
			name:  "geometry with named crs",
			doc:   `{"type":"Polygon","crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3857"}},"coordinates":[[[0,0],[10,0],[10,10],[0,0]]]}`,
			parts: 1,
			crs:   "urn:ogc:def:crs:EPSG::3857",
		},
		{
			name:  "geometry collection",
			doc:   `{"type":"GeometryCollection","geometries":[{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},{"type":"LineString","coordinates":[[0,0],[1,1]]}]}`,
			parts: 1,
			crs:   WGS84,
		},
		{name: "missing type", doc: `{"features":[]}`, wantErr: "missing type"},
		{name: "no polygons", doc: `{"type":"FeatureCollection","features":[]}`, wantErr: "no polygons"},
		{name: "linked crs", doc: `{"type":"Polygon","crs":{"type":"link","properties":{"href":"x"}},"coordinates":[]}`, wantErr: "named crs"},
		{name: "not json", doc: `<kml/>`, wantErr: "invalid character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeGeoJSON([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, r.Parts, tt.parts)
			assert.Equal(t, tt.crs, r.CRS)
		})
	}
}

func TestDecodeWKT(t *testing.T) {
	r, err := DecodeWKT("MULTIPOLYGON(((0 0, 4 0, 4 4, 0 4, 0 0), (1 1, 2 1, 2 2, 1 1)), ((10 10, 11 10, 11 11, 10 10)))")
	require.NoError(t, err)
	require.Len(t, r.Parts, 2)
	assert.Len(t, r.Parts[0], 2)

	_, err = DecodeWKT("   ")
	assert.EqualError(t, err, "empty wkt")

	_, err = DecodeWKT("POINT(1 2)")
	assert.EqualError(t, err, "wkt: no polygons parsed")
}

func TestDecodeKML(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <Polygon>
        <outerBoundaryIs><LinearRing><coordinates>0,0,0 4,0,0 4,4,0 0,4,0 0,0,0</coordinates></LinearRing></outerBoundaryIs>
        <innerBoundaryIs><LinearRing><coordinates>1,1 2,1 2,2 1,1</coordinates></LinearRing></innerBoundaryIs>
      </Polygon>
    </Placemark>
    <Folder>
      <Placemark>
        <MultiGeometry>
          <Polygon><outerBoundaryIs><LinearRing><coordinates>10,10 11,10 11,11 10,10</coordinates></LinearRing></outerBoundaryIs></Polygon>
        </MultiGeometry>
      </Placemark>
    </Folder>
  </Document>
</kml>`
	r, err := DecodeKML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, r.Parts, 2)
	assert.Len(t, r.Parts[0], 2)
	assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 11, MaxY: 11}, r.BBox())

	_, err = DecodeKML([]byte(`<kml><Document></Document></kml>`))
	assert.EqualError(t, err, "kml: no polygons found")
}

func TestFromClipPolygon_ClassifiesContours(t *testing.T) {
	outer := square(0, 0, 10, 10)
	hole := square(2, 2, 6, 6)
	island := square(3, 3, 4, 4)
	separate := square(20, 20, 30, 30)

	in := ToClipPolygon(orb.Polygon{hole[0], separate[0], island[0], outer[0]})
	mp := FromClipPolygon(in)

	require.Len(t, mp, 3)
	var holes int
	for _, p := range mp {
		holes += len(p) - 1
		for _, ring := range p {
			assert.True(t, ring[0].Equal(ring[len(ring)-1]), "ring must be closed")
		}
	}
	assert.Equal(t, 1, holes)
}

func TestToClipPolygon_DropsClosingVertex(t *testing.T) {
	cp := ToClipPolygon(square(0, 0, 1, 1))
	require.Len(t, cp, 1)
	assert.Len(t, cp[0], 4)
}

func TestNormalizeCRS(t *testing.T) {
	tests := map[string]string{
		"":                              WGS84,
		"EPSG:4326":                     WGS84,
		"epsg:3857":                     "EPSG:3857",
		"urn:ogc:def:crs:OGC:1.3:CRS84": WGS84,
		"urn:ogc:def:crs:EPSG::3857":    "EPSG:3857",
		"urn:ogc:def:crs:EPSG:6.6:4269": "EPSG:4269",
		"4326":                          "EPSG:4326",
		"+proj=longlat +datum=WGS84":    "+proj=longlat +datum=WGS84",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCRS(in), in)
	}
}

func TestReproject_WebMercatorToLonLat(t *testing.T) {
	// one degree of longitude and latitude in spherical mercator metres
	const x, y = 111319.49079327357, 111325.14286638486
	r := NewRegion([]orb.Polygon{{orb.Ring{{0, 0}, {x, 0}, {x, y}, {0, y}, {0, 0}}}}, "urn:ogc:def:crs:EPSG::3857")

	out, err := Reproject(r, WGS84)
	require.NoError(t, err)
	assert.Equal(t, WGS84, out.CRS)
	b := out.BBox()
	assert.InDelta(t, 0, b.MinX, 1e-6)
	assert.InDelta(t, 0, b.MinY, 1e-6)
	assert.InDelta(t, 1, b.MaxX, 1e-6)
	// sphere to ellipsoid datum shift stays well under a hundredth of a degree
	assert.InDelta(t, 1, b.MaxY, 1e-2)
}

func TestReproject_SameCRSIsNoop(t *testing.T) {
	r := Rectangle(BBox{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4})
	out, err := Reproject(r, "urn:ogc:def:crs:OGC:1.3:CRS84")
	require.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestReproject_UnknownCRS(t *testing.T) {
	r := NewRegion([]orb.Polygon{square(0, 0, 1, 1)}, "EPSG:27700")
	_, err := Reproject(r, WGS84)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported crs")
}

func TestLoadFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	gj := []byte(`{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}`)

	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(gj, nil)
	require.NoError(t, enc.Close())

	for _, p := range []string{
		write("india.geojson", gj),
		write("india.geojson.zst", compressed),
		write("boundary.wkt", []byte("POLYGON((0 0,2 0,2 2,0 2,0 0))")),
		write("boundary.txt", []byte("  POLYGON((0 0,2 0,2 2,0 2,0 0))\n")),
		write("boundary.dat", gj),
	} {
		r, err := LoadFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 2, MaxY: 2}, r.BBox(), p)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.geojson"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type boundaryRecord struct {
	cgeom.Polygon
	Name string `shp:"name"`
}

func rect(minX, minY, maxX, maxY float64) cgeom.Polygon {
	return cgeom.Polygon{{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}, {X: minX, Y: minY}}}
}

// writeShapefile writes one record per polygon and, when prj is not empty,
// the .prj sidecar.
func writeShapefile(t *testing.T, path, prj string, polys ...cgeom.Polygon) {
	t.Helper()
	enc, err := shp.NewEncoder(path, boundaryRecord{})
	require.NoError(t, err)
	for i, p := range polys {
		require.NoError(t, enc.Encode(boundaryRecord{Polygon: p, Name: fmt.Sprintf("state%d", i)}))
	}
	enc.Close()
	if prj != "" {
		require.NoError(t, os.WriteFile(path[:len(path)-len(".shp")]+".prj", []byte(prj), 0o644))
	}
}

const (
	prjLonLat   = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`
	prjMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`
)

func TestLoadShapefile_WithoutPrjIsLonLat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")
	writeShapefile(t, path, "", rect(68, 6, 70, 8), rect(80, 20, 81, 21))

	r, err := LoadShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, WGS84, r.CRS)
	require.Len(t, r.Parts, 2)
	assert.Equal(t, BBox{MinX: 68, MinY: 6, MaxX: 81, MaxY: 21}, r.BBox())
	assert.InDelta(t, 4, math.Abs(planar.Area(r.Parts[0][0])), 1e-12)

	viaLoader, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r, viaLoader)
}

func TestLoadShapefile_KeepsHoles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.shp")
	donut := rect(0, 0, 4, 4)
	donut = append(donut, rect(1, 1, 2, 2)[0])
	writeShapefile(t, path, "", donut)

	r, err := LoadShapefile(path)
	require.NoError(t, err)
	require.Len(t, r.Parts, 1)
	require.Len(t, r.Parts[0], 2)
	assert.InDelta(t, 1, math.Abs(planar.Area(r.Parts[0][1])), 1e-12)
}

func TestLoadShapefile_LonLatPrj(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")
	writeShapefile(t, path, prjLonLat, rect(68, 6, 70, 8))

	r, err := LoadShapefile(path)
	require.NoError(t, err)
	b := r.BBox()
	assert.InDelta(t, 68, b.MinX, 1e-9)
	assert.InDelta(t, 6, b.MinY, 1e-9)
	assert.InDelta(t, 70, b.MaxX, 1e-9)
	assert.InDelta(t, 8, b.MaxY, 1e-9)
}

func TestLoadShapefile_ReprojectsMercatorPrj(t *testing.T) {
	// one degree of longitude and latitude in spherical mercator metres
	const x, y = 111319.49079327357, 111325.14286638486
	path := filepath.Join(t.TempDir(), "merc.shp")
	writeShapefile(t, path, prjMercator, rect(0, 0, x, y))

	r, err := LoadShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, WGS84, r.CRS)
	b := r.BBox()
	assert.InDelta(t, 0, b.MinX, 1e-6)
	assert.InDelta(t, 0, b.MinY, 1e-6)
	assert.InDelta(t, 1, b.MaxX, 1e-6)
	assert.InDelta(t, 1, b.MaxY, 1e-2)
}

func TestLoadShapefile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadShapefile(filepath.Join(dir, "missing.shp"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.shp")
	writeShapefile(t, bad, "not a projection", rect(0, 0, 1, 1))
	_, err = LoadShapefile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shapefile projection")

	flat := filepath.Join(dir, "flat.shp")
	writeShapefile(t, flat, "", cgeom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 0}}})
	_, err = LoadShapefile(flat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no polygons found")
}

func TestOrient(t *testing.T) {
	cw := orb.Ring{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}
	ccwHole := orb.Ring{{1, 1}, {2, 1}, {2, 2}, {1, 2}, {1, 1}}
	mp := Orient(orb.MultiPolygon{{cw, ccwHole}})

	assert.Equal(t, orb.CCW, mp[0][0].Orientation())
	assert.Equal(t, orb.CW, mp[0][1].Orientation())
}
