package values

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gridheat/internal/grid"
)

// Table maps grid_id to value.
type Table map[string]float64

// Lookup returns a value function that reads t and falls back to def for
// cells without an entry. Missing keys are never an error.
func (t Table) Lookup(def float64) grid.ValueFunc {
	return func(lat, lon float64) float64 {
		if v, ok := t[grid.FormatGridID(lat, lon)]; ok {
			return v
		}
		return def
	}
}

// Keys returns the grid ids in ascending (lat, lon) order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ai, bi, _ := grid.ParseGridID(keys[i])
		aj, bj, _ := grid.ParseGridID(keys[j])
		if ai != aj {
			return ai < aj
		}
		return bi < bj
	})
	return keys
}

// Example is the sample table printed by the example command.
func Example() Table {
	return Table{
		"20_75": 15.2,
		"21_76": 18.5,
		"22_77": 12.8,
		"23_78": 21.3,
		"24_79": 9.7,
	}
}

// LoadTable reads a value table from a .csv or .json file.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f)
	case ".csv":
		return DecodeCSV(f)
	}
	return nil, fmt.Errorf("unsupported value table %q: want .csv or .json", filepath.Base(path))
}

// DecodeJSON reads an object of grid_id to number.
func DecodeJSON(r io.Reader) (Table, error) {
	var raw map[string]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	t := make(Table, len(raw))
	for k, v := range raw {
		id, err := canonicalID(k)
		if err != nil {
			return nil, err
		}
		t[id] = v
	}
	return t, nil
}

// DecodeCSV reads either a grid_id,value table or a lat,lon,value table.
// Column detection: grid_id|id|key, value|val|v, lat|latitude|y and
// lon|lng|long|longitude|x (case-insensitive).
func DecodeCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	idxID, idxLat, idxLon, idxVal := -1, -1, -1, -1
	first := func(idx *int, i int) {
		if *idx == -1 {
			*idx = i
		}
	}
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "grid_id", "id", "key":
			first(&idxID, i)
		case "value", "val", "v":
			first(&idxVal, i)
		case "lat", "latitude", "y":
			first(&idxLat, i)
		case "lon", "lng", "long", "longitude", "x":
			first(&idxLon, i)
		}
	}
	if idxVal == -1 {
		return nil, errors.New("csv: value column not found")
	}
	if idxID == -1 && (idxLat == -1 || idxLon == -1) {
		return nil, errors.New("csv: need a grid_id column or latitude/longitude columns")
	}

	t := make(Table, len(recs)-1)
	for n, row := range recs[1:] {
		line := n + 2
		val, err := strconv.ParseFloat(strings.TrimSpace(row[idxVal]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: value: %w", line, err)
		}
		var id string
		if idxID != -1 {
			if id, err = canonicalID(strings.TrimSpace(row[idxID])); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
		} else {
			lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
			lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
			if err := errors.Join(err1, err2); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
			id = grid.FormatGridID(lat, lon)
		}
		t[id] = val
	}
	return t, nil
}

// canonicalID reformats ids such as "20.0_75" to the form the grid emits.
func canonicalID(s string) (string, error) {
	lat, lon, err := grid.ParseGridID(s)
	if err != nil {
		return "", err
	}
	return grid.FormatGridID(lat, lon), nil
}
