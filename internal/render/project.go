package render

import (
	"math"

	"gridheat/internal/geom"
)

// view maps lon/lat onto a w x h canvas with y pointing down. Longitude is
// scaled by cos(mid latitude) so that cells look square near the center.
type view struct {
	bbox  geom.BBox
	w, h  float64
	scale float64
	kx    float64
	offX  float64
	offY  float64
}

// newView fits bbox into a canvas of the given width, leaving margin on
// every side. The height follows from the aspect ratio.
func newView(bbox geom.BBox, width, margin float64) view {
	midLat := (bbox.MinY + bbox.MaxY) / 2
	kx := math.Cos(midLat * math.Pi / 180)
	if kx < 0.1 {
		kx = 0.1
	}
	spanX := (bbox.MaxX - bbox.MinX) * kx
	spanY := bbox.MaxY - bbox.MinY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := (width - 2*margin) / spanX
	return view{
		bbox:  bbox,
		w:     width,
		h:     spanY*scale + 2*margin,
		scale: scale,
		kx:    kx,
		offX:  margin,
		offY:  margin,
	}
}

// fitView fits bbox into a fixed w x h canvas, centered.
func fitView(bbox geom.BBox, w, h, margin float64) view {
	v := newView(bbox, w, margin)
	if v.h > h {
		s := (h - 2*margin) / (bbox.MaxY - bbox.MinY)
		if bbox.MaxY <= bbox.MinY {
			s = 1
		}
		v.scale = s
		v.offX = (w - (bbox.MaxX-bbox.MinX)*v.kx*s) / 2
	} else {
		v.offY = (h - (bbox.MaxY-bbox.MinY)*v.scale) / 2
	}
	v.w, v.h = w, h
	return v
}

func (v view) xy(lon, lat float64) (float64, float64) {
	x := v.offX + (lon-v.bbox.MinX)*v.kx*v.scale
	y := v.offY + (v.bbox.MaxY-lat)*v.scale
	return x, y
}
