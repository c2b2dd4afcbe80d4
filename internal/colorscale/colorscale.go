// Package colorscale maps cell values to fill colors.
package colorscale

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Scale is either continuous (stops spread evenly over the value range) or
// stepped (fixed upper bounds in value units).
type Scale struct {
	Name   string
	stops  []colorful.Color
	bounds []float64
	bands  []colorful.Color
}

// Band is one class of a stepped scale. The last band has Max +Inf.
type Band struct {
	Min   float64
	Max   float64
	Color string
}

var (
	viridis = []string{
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
	}
	plasma = []string{
		"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
		"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921",
	}
	// PM2.5 classes in µg/m³
	aqiBounds = []float64{15, 30, 55, 110}
	aqiColors = []string{"#00E400", "#FFFF00", "#FF8C00", "#FF0000", "#8B008B"}
)

// Names lists the available scales.
func Names() []string { return []string{"viridis", "plasma", "aqi"} }

// Named returns the scale called name (case-insensitive).
func Named(name string) (*Scale, error) {
	switch strings.ToLower(name) {
	case "viridis", "":
		return continuous("viridis", viridis), nil
	case "plasma":
		return continuous("plasma", plasma), nil
	case "aqi":
		s := &Scale{Name: "aqi", bounds: aqiBounds}
		for _, h := range aqiColors {
			s.bands = append(s.bands, mustHex(h))
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown color scale %q (want one of %s)", name, strings.Join(Names(), ", "))
}

func continuous(name string, hexes []string) *Scale {
	s := &Scale{Name: name}
	for _, h := range hexes {
		s.stops = append(s.stops, mustHex(h))
	}
	return s
}

func mustHex(h string) colorful.Color {
	c, err := colorful.Hex(h)
	if err != nil {
		panic(err)
	}
	return c
}

// Continuous reports whether the scale interpolates over the value range.
func (s *Scale) Continuous() bool { return len(s.stops) > 0 }

// At returns the color of v. Continuous scales normalize v over [lo, hi];
// stepped scales ignore the range.
func (s *Scale) At(v, lo, hi float64) colorful.Color {
	if !s.Continuous() {
		i := sort.SearchFloat64s(s.bounds, v)
		return s.bands[i]
	}
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	return s.sample(t)
}

// Hex is At formatted as "#rrggbb".
func (s *Scale) Hex(v, lo, hi float64) string {
	return s.At(v, lo, hi).Hex()
}

func (s *Scale) sample(t float64) colorful.Color {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(s.stops)-1)
	i := int(pos)
	if i >= len(s.stops)-1 {
		return s.stops[len(s.stops)-1]
	}
	frac := pos - float64(i)
	if frac == 0 {
		return s.stops[i]
	}
	return s.stops[i].BlendLab(s.stops[i+1], frac).Clamped()
}

// Gradient returns n colors evenly spaced from the low to the high end of a
// continuous scale, for color bars.
func (s *Scale) Gradient(n int) []string {
	if !s.Continuous() || n < 2 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = s.sample(float64(i) / float64(n-1)).Hex()
	}
	return out
}

// Bands returns the classes of a stepped scale.
func (s *Scale) Bands() []Band {
	if s.Continuous() {
		return nil
	}
	out := make([]Band, len(s.bands))
	lo := math.Inf(-1)
	for i, c := range s.bands {
		hi := math.Inf(1)
		if i < len(s.bounds) {
			hi = s.bounds[i]
		}
		out[i] = Band{Min: lo, Max: hi, Color: c.Hex()}
		lo = hi
	}
	return out
}
