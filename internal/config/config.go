// Package config defines the run configuration for gridheat.
//
// Configuration is loaded once at process start and is immutable thereafter.
// Values are resolved in priority order:
//
//	OS Environment (Highest) -> Dotenv File -> struct tag defaults (Lowest)
//
// Any invalid value is reported before the boundary is fetched or a single grid
// cell is enumerated.
package config

import "time"

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"GRIDHEAT_ENV" default:"local" validate:"oneof=local ci"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	Boundary BoundaryConfig
	Grid     GridConfig
	Values   ValueConfig
	Output   OutputConfig
	Map      MapConfig
}

// DefaultBoundarySource is the India state boundary collection used by the
// original heatmap script.
const DefaultBoundarySource = "https://raw.githubusercontent.com/geohacker/india/master/state/india_telengana.geojson"

// BoundaryConfig selects the region source and the rectangle used when it
// cannot be read. The grid is laid out in degrees, so TargetCRS only accepts
// the WGS84 longitude/latitude spellings.
type BoundaryConfig struct {
	Source    string        `envconfig:"BOUNDARY_SOURCE" default:"https://raw.githubusercontent.com/geohacker/india/master/state/india_telengana.geojson" validate:"required"`
	Timeout   time.Duration `envconfig:"BOUNDARY_TIMEOUT" default:"30s" validate:"gt=0"`
	TargetCRS string        `envconfig:"BOUNDARY_TARGET_CRS" default:"EPSG:4326" validate:"oneof=EPSG:4326 CRS84 WGS84"`
	UserAgent string        `envconfig:"BOUNDARY_USER_AGENT" default:"gridheat/1.0"`

	FallbackMinLon float64 `envconfig:"FALLBACK_MIN_LON" default:"68.5" validate:"gte=-180,lte=180,ltfield=FallbackMaxLon"`
	FallbackMinLat float64 `envconfig:"FALLBACK_MIN_LAT" default:"6.5" validate:"gte=-90,lte=90,ltfield=FallbackMaxLat"`
	FallbackMaxLon float64 `envconfig:"FALLBACK_MAX_LON" default:"97.5" validate:"gte=-180,lte=180"`
	FallbackMaxLat float64 `envconfig:"FALLBACK_MAX_LAT" default:"37.5" validate:"gte=-90,lte=90"`
}

// GridConfig describes the candidate grid. Bounds are half-open: a cell is
// enumerated when its south-west corner lies in [Min, Max).
type GridConfig struct {
	LatMin   float64 `envconfig:"GRID_LAT_MIN" default:"6" validate:"gte=-90,lte=90,ltfield=LatMax"`
	LatMax   float64 `envconfig:"GRID_LAT_MAX" default:"37" validate:"gte=-90,lte=90"`
	LonMin   float64 `envconfig:"GRID_LON_MIN" default:"68" validate:"gte=-180,lte=180,ltfield=LonMax"`
	LonMax   float64 `envconfig:"GRID_LON_MAX" default:"98" validate:"gte=-180,lte=180"`
	CellSize float64 `envconfig:"GRID_CELL_SIZE" default:"1" validate:"gt=0"`
	Clipper  string  `envconfig:"GRID_CLIPPER" default:"bound" validate:"oneof=bound polyclip"`
	Workers  int     `envconfig:"GRID_WORKERS" default:"0" validate:"gte=0"`
}

// ValueConfig selects how cell values are produced. Source is "random",
// "hotspots" (mock PM2.5 around major cities), "hotspots-pm10" (PM10 derived
// from that field) or a path to a CSV/JSON value table.
type ValueConfig struct {
	Source  string  `envconfig:"VALUE_SOURCE" default:"random" validate:"required"`
	Min     float64 `envconfig:"VALUE_MIN" default:"0" validate:"ltfield=Max"`
	Max     float64 `envconfig:"VALUE_MAX" default:"20"`
	Seed    uint64  `envconfig:"VALUE_SEED" default:"0"`
	Default float64 `envconfig:"VALUE_DEFAULT" default:"0"`
}

// OutputConfig names the artifacts written at the end of a run. Empty paths
// other than HTML disable that artifact.
type OutputConfig struct {
	HTML    string `envconfig:"OUTPUT_HTML" default:"india_grid_heatmap.html" validate:"required"`
	GeoJSON string `envconfig:"OUTPUT_GEOJSON"`
	CSV     string `envconfig:"OUTPUT_CSV"`
	PNG     string `envconfig:"OUTPUT_PNG"`
	PNGSize int    `envconfig:"OUTPUT_PNG_SIZE" default:"1024" validate:"gte=64,lte=8192"`
}

// MapConfig holds presentation settings for the rendered document.
type MapConfig struct {
	Title      string  `envconfig:"MAP_TITLE" default:"India Grid Heatmap"`
	ValueLabel string  `envconfig:"MAP_VALUE_LABEL" default:"Sample Value"`
	ColorScale string  `envconfig:"MAP_COLOR_SCALE" default:"viridis" validate:"oneof=viridis plasma aqi"`
	Opacity    float64 `envconfig:"MAP_OPACITY" default:"0.7" validate:"gte=0,lte=1"`
}

// UsesRandomValues reports whether cell values are sampled rather than looked up.
func (c ValueConfig) UsesRandomValues() bool {
	return c.Source == "random"
}
