// Package values produces the scalar attached to every grid cell.
package values

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gridheat/internal/config"
	"gridheat/internal/grid"
	"gridheat/internal/types"
)

const (
	SourceRandom       = "random"
	SourceHotspots     = "hotspots"
	SourceHotspotsPM10 = "hotspots-pm10"
)

// Uniform samples every cell from [lo, hi). A zero seed is replaced by the
// current time. The returned function is not safe for concurrent use.
func Uniform(lo, hi float64, seed uint64) grid.ValueFunc {
	rng := newRand(seed)
	return func(lat, lon float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Hotspot is a city whose PM2.5 level bleeds into nearby cells.
type Hotspot struct {
	Name string
	Lat  float64
	Lon  float64
	Base float64
}

// Hotspots are major Indian cities with typically elevated PM2.5.
var Hotspots = []Hotspot{
	{"Delhi", 28.6, 77.2, 120},
	{"Mumbai", 19.0, 72.8, 85},
	{"Kolkata", 22.5, 88.3, 95},
	{"Bangalore", 12.9, 77.6, 65},
	{"Hyderabad", 17.3, 78.4, 75},
	{"Chennai", 13.0, 80.2, 70},
	{"Ahmedabad", 23.0, 72.5, 90},
	{"Lucknow", 26.9, 80.9, 110},
	{"Varanasi", 25.3, 82.9, 105},
	{"Dehradun", 30.3, 78.0, 80},
}

// PM25 is a mock PM2.5 field in µg/m³: a random base of 25 to 55, a linear
// bump within one degree of each hotspot and a smooth regional wave, clamped
// to [5, 200] and rounded.
func PM25(seed uint64) grid.ValueFunc {
	return pm25(newRand(seed))
}

func pm25(rng *rand.Rand) grid.ValueFunc {
	return func(lat, lon float64) float64 {
		v := 25 + rng.Float64()*30
		for _, h := range Hotspots {
			d := math.Hypot(lat-h.Lat, lon-h.Lon)
			if d < 1 {
				v += h.Base * (1 - d)
			}
		}
		v += math.Sin(lat*0.1) * math.Cos(lon*0.1) * 20
		return math.Round(math.Max(5, math.Min(200, v)))
	}
}

// PM10 derives a mock PM10 field from the PM2.5 field: 1.5 times PM2.5 plus
// up to 20 µg/m³ of coarse dust, rounded.
func PM10(seed uint64) grid.ValueFunc {
	rng := newRand(seed)
	fine := pm25(rng)
	return func(lat, lon float64) float64 {
		return math.Round(fine(lat, lon)*1.5 + rng.Float64()*20)
	}
}

// FromConfig builds the value function selected by cfg.
func FromConfig(cfg config.ValueConfig) (grid.ValueFunc, error) {
	switch cfg.Source {
	case SourceRandom:
		return Uniform(cfg.Min, cfg.Max, cfg.Seed), nil
	case SourceHotspots:
		return PM25(cfg.Seed), nil
	case SourceHotspotsPM10:
		return PM10(cfg.Seed), nil
	}
	t, err := LoadTable(cfg.Source)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValueSource,
			fmt.Sprintf("cannot load value table %s", cfg.Source), err)
	}
	return t.Lookup(cfg.Default), nil
}
