package geom

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs"`
	Inner []kmlRing `xml:"innerBoundaryIs"`
}

type kmlMultiGeometry struct {
	Polygons []kmlPolygon       `xml:"Polygon"`
	Multi    []kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlPlacemark struct {
	Polygon *kmlPolygon       `xml:"Polygon"`
	Multi   *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlFolder struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDoc struct {
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
	Folders    []kmlFolder    `xml:"Document>Folder"`
	Bare       []kmlPlacemark `xml:"Placemark"`
}

// DecodeKML extracts Placemark polygons (including those nested in
// MultiGeometry and Folder elements). KML coordinates are "lon,lat[,alt]";
// altitude is ignored.
func DecodeKML(data []byte) (Region, error) {
	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Region{}, err
	}
	var parts []orb.Polygon
	addPoly := func(kp kmlPolygon) {
		outer := parseKMLCoords(kp.Outer.Coordinates)
		if len(outer) == 0 {
			return
		}
		poly := orb.Polygon{outer}
		for _, in := range kp.Inner {
			if ring := parseKMLCoords(in.Coordinates); len(ring) > 0 {
				poly = append(poly, ring)
			}
		}
		parts = append(parts, poly)
	}
	var walkMulti func(m kmlMultiGeometry)
	walkMulti = func(m kmlMultiGeometry) {
		for _, p := range m.Polygons {
			addPoly(p)
		}
		for _, mm := range m.Multi {
			walkMulti(mm)
		}
	}
	walkPlacemarks := func(pms []kmlPlacemark) {
		for _, pm := range pms {
			if pm.Polygon != nil {
				addPoly(*pm.Polygon)
			}
			if pm.Multi != nil {
				walkMulti(*pm.Multi)
			}
		}
	}
	var walkFolder func(f kmlFolder)
	walkFolder = func(f kmlFolder) {
		walkPlacemarks(f.Placemarks)
		for _, ff := range f.Folders {
			walkFolder(ff)
		}
	}
	walkPlacemarks(doc.Placemarks)
	walkPlacemarks(doc.Bare)
	for _, f := range doc.Folders {
		walkFolder(f)
	}

	r := NewRegion(parts, WGS84)
	if r.Empty() {
		return Region{}, errors.New("kml: no polygons found")
	}
	return r, nil
}

func parseKMLCoords(s string) orb.Ring {
	var ring orb.Ring
	// tuples are separated by whitespace
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring
}
