package geom

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DecodeGeoJSON parses a GeoJSON Geometry, Feature or FeatureCollection and
// returns its Polygon and MultiPolygon parts as a Region. Other geometry types
// are skipped. The legacy "crs" member, when present, becomes Region.CRS.
func DecodeGeoJSON(data []byte) (Region, error) {
	var probe struct {
		Type string          `json:"type"`
		CRS  json.RawMessage `json:"crs"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Region{}, err
	}
	if probe.Type == "" {
		return Region{}, errors.New("invalid geojson: missing type")
	}
	crs, err := parseCRSMember(probe.CRS)
	if err != nil {
		return Region{}, err
	}

	var parts []orb.Polygon
	var walkGeom func(g orb.Geometry)
	walkGeom = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Polygon:
			parts = append(parts, g)
		case orb.MultiPolygon:
			parts = append(parts, g...)
		case orb.Collection:
			for _, c := range g {
				walkGeom(c)
			}
		}
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return Region{}, err
		}
		for _, f := range fc.Features {
			if f != nil && f.Geometry != nil {
				walkGeom(f.Geometry)
			}
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return Region{}, err
		}
		if f.Geometry != nil {
			walkGeom(f.Geometry)
		}
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return Region{}, err
		}
		walkGeom(g.Geometry())
	}

	r := NewRegion(parts, crs)
	if r.Empty() {
		return Region{}, errors.New("no polygons found in geojson")
	}
	return r, nil
}

// parseCRSMember reads the pre-RFC 7946 "crs" member. Only named CRSs are
// supported; linked CRSs are rejected.
func parseCRSMember(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return WGS84, nil
	}
	var crs struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &crs); err != nil {
		return "", err
	}
	if !strings.EqualFold(crs.Type, "name") || crs.Properties.Name == "" {
		return "", errors.New("geojson crs: only named crs members are supported")
	}
	return crs.Properties.Name, nil
}
