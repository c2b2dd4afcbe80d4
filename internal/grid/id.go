package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// snap rounds to 1e-9 degrees so that min+i*size yields stable ids for
// fractional cell sizes (0.1*3 is 0.30000000000000004 otherwise).
func snap(v float64) float64 {
	v = math.Round(v*1e9) / 1e9
	if v == 0 {
		// no "-0" in ids
		return 0
	}
	return v
}

// FormatGridID renders the south-west corner of a cell as "{lat}_{lon}" using
// the shortest decimal form that parses back to the same float.
func FormatGridID(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// ParseGridID is the inverse of FormatGridID. Only plain decimal
// coordinates separated by a single "_" are accepted.
func ParseGridID(id string) (lat, lon float64, err error) {
	a, b, ok := strings.Cut(id, "_")
	if !ok || a == "" || b == "" || strings.Contains(b, "_") {
		return 0, 0, fmt.Errorf("invalid grid_id %q", id)
	}
	if lat, err = parseCoord(a); err != nil {
		return 0, 0, fmt.Errorf("invalid grid_id %q: latitude: %w", id, err)
	}
	if lon, err = parseCoord(b); err != nil {
		return 0, 0, fmt.Errorf("invalid grid_id %q: longitude: %w", id, err)
	}
	return lat, lon, nil
}

func parseCoord(s string) (float64, error) {
	// ParseFloat also takes hex, digit separators and Inf
	if i := strings.IndexFunc(s, notDecimal); i >= 0 {
		return 0, fmt.Errorf("unexpected %q in %q", s[i], s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

func notDecimal(r rune) bool {
	return !strings.ContainsRune("0123456789.+-", r)
}
