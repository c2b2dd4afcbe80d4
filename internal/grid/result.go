package grid

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"gridheat/internal/geom"
)

// ClippedCell is one record of the output: the part of a grid cell that lies
// inside one region part. A cell covered by several parts yields one record
// per part, all carrying the same scalar attributes.
type ClippedCell struct {
	Index    int
	Lat      float64
	Lon      float64
	Value    float64
	GridID   string
	Part     int
	Geometry orb.MultiPolygon
	Area     float64
}

// Full reports whether the cell was entirely inside its region part.
func (c ClippedCell) Full(size float64) bool {
	return len(c.Geometry) == 1 && len(c.Geometry[0]) == 1 && sameArea(c.Area, size*size)
}

func sameArea(a, b float64) bool {
	return math.Abs(a-b) <= fullTolerance*b
}

// GeoJSONGeometry returns a Polygon when the intersection is connected and a
// MultiPolygon otherwise.
func (c ClippedCell) GeoJSONGeometry() orb.Geometry {
	if len(c.Geometry) == 1 {
		return c.Geometry[0]
	}
	return c.Geometry
}

// Result is the ordered output of a build.
type Result struct {
	Layout     Layout
	Cells      []ClippedCell
	Candidates int
	Dropped    int
}

// Empty reports whether no cell intersected the region.
func (r *Result) Empty() bool { return len(r.Cells) == 0 }

// ValueRange returns the smallest and largest cell value. Both are zero for
// an empty result.
func (r *Result) ValueRange() (lo, hi float64) {
	if len(r.Cells) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range r.Cells {
		lo = math.Min(lo, c.Value)
		hi = math.Max(hi, c.Value)
	}
	return lo, hi
}

// BBox is the extent of the emitted geometry, or the layout box when empty.
func (r *Result) BBox() geom.BBox {
	if len(r.Cells) == 0 {
		return r.Layout.BBox()
	}
	var b orb.Bound
	for i, c := range r.Cells {
		if i == 0 {
			b = c.Geometry.Bound()
			continue
		}
		b = b.Union(c.Geometry.Bound())
	}
	return geom.BBox{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// FeatureCollection is the geometry view: one feature per ClippedCell with
// the cell index as feature id.
func (r *Result) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(r.Cells))
	for _, c := range r.Cells {
		f := geojson.NewFeature(c.GeoJSONGeometry())
		f.ID = c.Index
		f.Properties = geojson.Properties{
			"lat":     c.Lat,
			"lon":     c.Lon,
			"value":   c.Value,
			"grid_id": c.GridID,
			"part":    c.Part,
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// MarshalGeoJSON encodes the feature collection. Equal results encode to
// identical bytes.
func (r *Result) MarshalGeoJSON() ([]byte, error) {
	return r.FeatureCollection().MarshalJSON()
}

// TableColumns are the column names of Row.Strings.
var TableColumns = []string{"index", "lat", "lon", "value", "grid_id"}

// Row is one line of the flat table view. Index joins it to the feature with
// the same id.
type Row struct {
	Index  int
	Lat    float64
	Lon    float64
	Value  float64
	GridID string
}

func (r Row) Strings() []string {
	return []string{
		strconv.Itoa(r.Index),
		strconv.FormatFloat(r.Lat, 'f', -1, 64),
		strconv.FormatFloat(r.Lon, 'f', -1, 64),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		r.GridID,
	}
}

// Table is the flat view with one row per ClippedCell.
func (r *Result) Table() []Row {
	rows := make([]Row, len(r.Cells))
	for i, c := range r.Cells {
		rows[i] = Row{Index: c.Index, Lat: c.Lat, Lon: c.Lon, Value: c.Value, GridID: c.GridID}
	}
	return rows
}
