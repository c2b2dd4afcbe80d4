// Package grid tiles a bounding box into equal-size cells in degrees and
// clips every cell against a boundary region.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"gridheat/internal/geom"
	"gridheat/internal/types"
)

const (
	// intersections smaller than this, in square degrees, are dropped
	minArea = 1e-12
	// relative tolerance for treating an intersection as the whole cell
	fullTolerance = 1e-9
)

// ValueFunc returns the scalar attached to the cell with the given
// south-west corner. It is called once per candidate, in enumeration order,
// from a single goroutine.
type ValueFunc func(lat, lon float64) float64

// Engine builds clipped grids.
type Engine struct {
	clipper Clipper
	workers int
	logger  *slog.Logger
}

// NewEngine returns an engine using clipper and at most workers goroutines.
// A nil clipper selects BoundClipper; workers <= 0 selects runtime.NumCPU.
func NewEngine(clipper Clipper, workers int, logger *slog.Logger) *Engine {
	if clipper == nil {
		clipper = BoundClipper{}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{clipper: clipper, workers: workers, logger: logger}
}

type candidate struct {
	cell  Cell
	value float64
}

// Build enumerates every cell of layout, intersects it with each part of
// region and returns the non-empty intersections ordered by (lat, lon) and
// then part. The region must be in WGS84 degrees.
func (e *Engine) Build(ctx context.Context, layout Layout, region geom.Region, valueFn ValueFunc) (*Result, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if valueFn == nil {
		return nil, types.NewAppError(types.ErrCodeValueSource, "no value function", nil)
	}
	if geom.NormalizeCRS(region.CRS) != geom.WGS84 {
		return nil, types.NewAppError(types.ErrCodeGeometryInvalid,
			fmt.Sprintf("region must be in %s, got %s", geom.WGS84, region.CRS), nil)
	}

	start := time.Now()
	cells := layout.Cells()
	e.logger.Info("grid.build.start",
		"candidates", len(cells),
		"parts", len(region.Parts),
		"cell_size", layout.CellSize,
		"clipper", fmt.Sprintf("%T", e.clipper),
	)

	cands := make([]candidate, len(cells))
	for i, c := range cells {
		v := valueFn(c.Lat, c.Lon)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, types.NewAppError(types.ErrCodeValueSource,
				fmt.Sprintf("value for %s is not finite", c.ID()), nil)
		}
		cands[i] = candidate{cell: c, value: v}
	}

	// each candidate owns one slot so the concatenation keeps enumeration order
	slots := make([][]ClippedCell, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range cands {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = types.NewAppError(types.ErrCodeGeometryInvalid,
						fmt.Sprintf("clipping cell %s failed", cands[i].cell.ID()), fmt.Errorf("%v", r))
				}
			}()
			slots[i] = e.clipCell(cands[i], layout.CellSize, region)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Layout: layout, Candidates: len(cands)}
	for _, recs := range slots {
		if len(recs) == 0 {
			res.Dropped++
			continue
		}
		for _, r := range recs {
			r.Index = len(res.Cells)
			res.Cells = append(res.Cells, r)
		}
	}

	e.logger.Info("grid.build.done",
		"candidates", res.Candidates,
		"emitted", len(res.Cells),
		"dropped", res.Dropped,
		"duration", time.Since(start),
	)
	return res, nil
}

func (e *Engine) clipCell(c candidate, size float64, region geom.Region) []ClippedCell {
	bound := c.cell.Bound(size)
	cellArea := (bound.Max[0] - bound.Min[0]) * (bound.Max[1] - bound.Min[1])
	var out []ClippedCell
	for pi, part := range region.Parts {
		mp := e.clipper.Clip(bound, part)
		a := area(mp)
		if a < minArea {
			continue
		}
		if math.Abs(a-cellArea) <= fullTolerance*cellArea {
			mp, a = orb.MultiPolygon{c.cell.Square(size)}, cellArea
		} else {
			mp = geom.Orient(mp)
		}
		out = append(out, ClippedCell{
			Lat:      c.cell.Lat,
			Lon:      c.cell.Lon,
			Value:    c.value,
			GridID:   c.cell.ID(),
			Part:     pi,
			Geometry: mp,
			Area:     a,
		})
	}
	return out
}
