package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"golang.org/x/image/vector"

	"gridheat/internal/grid"
)

// WritePNG rasterizes res onto a size x size white canvas, each cell filled
// with its scale color at the configured opacity.
func WritePNG(path string, res *grid.Result, opts MapOptions, size int) (int64, error) {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return png.Encode(w, RasterizePNG(res, opts, size))
	})
}

// RasterizePNG draws res into a new RGBA image.
func RasterizePNG(res *grid.Result, opts MapOptions, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	sc := opts.scale()
	lo, hi := res.ValueRange()
	v := fitView(res.Layout.BBox(), float64(size), float64(size), float64(size)/50)
	alpha := opts.Opacity
	if alpha <= 0 {
		alpha = 1
	}

	r := vector.NewRasterizer(size, size)
	for _, c := range res.Cells {
		r.Reset(size, size)
		tracePolygons(r, v, c.Geometry)
		src := image.NewUniform(premultiplied(sc.At(c.Value, lo, hi), alpha))
		r.Draw(img, img.Bounds(), src, image.Point{})
	}
	return img
}

func tracePolygons(r *vector.Rasterizer, v view, mp orb.MultiPolygon) {
	for _, poly := range mp {
		for _, ring := range poly {
			for i, pt := range ring {
				x, y := v.xy(pt[0], pt[1])
				if i == 0 {
					r.MoveTo(float32(x), float32(y))
				} else {
					r.LineTo(float32(x), float32(y))
				}
			}
			r.ClosePath()
		}
	}
}

func premultiplied(c colorful.Color, alpha float64) color.RGBA {
	c = c.Clamped()
	return color.RGBA{
		R: uint8(c.R*alpha*255 + 0.5),
		G: uint8(c.G*alpha*255 + 0.5),
		B: uint8(c.B*alpha*255 + 0.5),
		A: uint8(alpha*255 + 0.5),
	}
}
