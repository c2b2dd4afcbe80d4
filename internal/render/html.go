package render

import (
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gridheat/internal/colorscale"
	"gridheat/internal/grid"
)

// MapOptions controls the look of the HTML and PNG outputs.
type MapOptions struct {
	Title      string
	ValueLabel string
	Scale      *colorscale.Scale
	Opacity    float64
	// RunID is embedded as metadata when set.
	RunID string
}

func (o MapOptions) scale() *colorscale.Scale {
	if o.Scale != nil {
		return o.Scale
	}
	s, _ := colorscale.Named("viridis")
	return s
}

const (
	svgWidth  = 1000
	svgMargin = 20
)

var printer = message.NewPrinter(language.English)

type pageCell struct {
	Index  int
	GridID string
	Lat    string
	Lon    string
	Value  string
	Fill   string
	Path   string
}

type gradientStop struct {
	Offset string
	Color  string
}

type legendBand struct {
	Label string
	Color string
}

type page struct {
	Title      string
	ValueLabel string
	RunID      string
	Width      int
	Height     int
	Opacity    string
	Cells      []pageCell
	Gradient   []gradientStop
	Bands      []legendBand
	Min        string
	Max        string
	Candidates string
	Emitted    string
	Dropped    string
	CellSize   string
	Center     string
}

// WriteHTML renders res as a self-contained interactive HTML document and
// atomically replaces path with it.
func WriteHTML(path string, res *grid.Result, opts MapOptions) (int64, error) {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return RenderHTML(w, res, opts)
	})
}

// RenderHTML writes the HTML document for res to w. The output only depends
// on res and opts.
func RenderHTML(w io.Writer, res *grid.Result, opts MapOptions) error {
	return pageTmpl.Execute(w, buildPage(res, opts))
}

func buildPage(res *grid.Result, opts MapOptions) page {
	sc := opts.scale()
	lo, hi := res.ValueRange()
	bbox := res.Layout.BBox()
	v := newView(bbox, svgWidth, svgMargin)

	p := page{
		Title:      opts.Title,
		ValueLabel: opts.ValueLabel,
		RunID:      opts.RunID,
		Width:      svgWidth,
		Height:     int(math.Ceil(v.h)),
		Opacity:    strconv.FormatFloat(opts.Opacity, 'f', -1, 64),
		Min:        printer.Sprintf("%.2f", lo),
		Max:        printer.Sprintf("%.2f", hi),
		Candidates: printer.Sprintf("%d", res.Candidates),
		Emitted:    printer.Sprintf("%d", len(res.Cells)),
		Dropped:    printer.Sprintf("%d", res.Dropped),
		CellSize:   strconv.FormatFloat(res.Layout.CellSize, 'f', -1, 64),
		Center: printer.Sprintf("%.2f°N, %.2f°E",
			(bbox.MinY+bbox.MaxY)/2, (bbox.MinX+bbox.MaxX)/2),
	}
	if p.Title == "" {
		p.Title = "Grid Heatmap"
	}
	if p.ValueLabel == "" {
		p.ValueLabel = "Value"
	}

	p.Cells = make([]pageCell, len(res.Cells))
	for i, c := range res.Cells {
		p.Cells[i] = pageCell{
			Index:  c.Index,
			GridID: c.GridID,
			Lat:    strconv.FormatFloat(c.Lat, 'f', -1, 64),
			Lon:    strconv.FormatFloat(c.Lon, 'f', -1, 64),
			Value:  printer.Sprintf("%.2f", c.Value),
			Fill:   sc.Hex(c.Value, lo, hi),
			Path:   svgPath(v, c.Geometry),
		}
	}

	if sc.Continuous() {
		const n = 11
		for i, col := range sc.Gradient(n) {
			p.Gradient = append(p.Gradient, gradientStop{
				Offset: strconv.Itoa(i*100/(n-1)) + "%",
				Color:  col,
			})
		}
	} else {
		for _, b := range sc.Bands() {
			p.Bands = append(p.Bands, legendBand{Label: bandLabel(b), Color: b.Color})
		}
	}
	return p
}

func bandLabel(b colorscale.Band) string {
	switch {
	case math.IsInf(b.Min, -1):
		return printer.Sprintf("≤ %v", b.Max)
	case math.IsInf(b.Max, 1):
		return printer.Sprintf("> %v", b.Min)
	}
	return printer.Sprintf("%v – %v", b.Min, b.Max)
}

// svgPath draws every ring as a closed subpath; fill-rule evenodd punches
// the holes.
func svgPath(v view, mp orb.MultiPolygon) string {
	var sb strings.Builder
	var buf []byte
	for _, poly := range mp {
		for _, ring := range poly {
			n := len(ring)
			if n > 1 && ring[0].Equal(ring[n-1]) {
				n--
			}
			for i := 0; i < n; i++ {
				x, y := v.xy(ring[i][0], ring[i][1])
				if i == 0 {
					sb.WriteByte('M')
				} else {
					sb.WriteByte('L')
				}
				buf = strconv.AppendFloat(buf[:0], x, 'f', 2, 64)
				sb.Write(buf)
				sb.WriteByte(' ')
				buf = strconv.AppendFloat(buf[:0], y, 'f', 2, 64)
				sb.Write(buf)
			}
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="generator" content="gridheat">
{{- if .RunID}}
<meta name="gridheat-run-id" content="{{.RunID}}">
{{- end}}
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f4f4f2; color: #222; }
header { padding: 12px 20px; background: #fff; border-bottom: 1px solid #ddd; }
header h1 { margin: 0; font-size: 20px; }
header p { margin: 4px 0 0; font-size: 13px; color: #555; }
main { display: flex; gap: 16px; padding: 16px; }
#map { flex: 1; background: #fff; border: 1px solid #ddd; cursor: grab; touch-action: none; }
#map.dragging { cursor: grabbing; }
#map path { stroke: #fff; stroke-width: 0.4; vector-effect: non-scaling-stroke; }
#map path:hover { stroke: #111; stroke-width: 1.5; }
aside { width: 180px; font-size: 13px; }
.legend-band { display: flex; align-items: center; gap: 6px; margin: 3px 0; }
.swatch { width: 18px; height: 12px; display: inline-block; border: 1px solid #999; }
#tip { position: fixed; pointer-events: none; display: none; background: rgba(255,255,255,.95); border: 1px solid #888; border-radius: 3px; padding: 4px 8px; font-size: 12px; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p>{{.Emitted}} cells clipped from {{.Candidates}} candidates ({{.Dropped}} outside) &middot; cell size {{.CellSize}}&deg; &middot; centered on {{.Center}}</p>
</header>
<main>
<svg id="map" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{.Width}} {{.Height}}" preserveAspectRatio="xMidYMid meet">
<g fill-opacity="{{.Opacity}}" fill-rule="evenodd">
{{- range .Cells}}
<path d="{{.Path}}" fill="{{.Fill}}" data-index="{{.Index}}" data-id="{{.GridID}}" data-lat="{{.Lat}}" data-lon="{{.Lon}}" data-value="{{.Value}}"><title>{{.GridID}}: lat {{.Lat}}, lon {{.Lon}}, value {{.Value}}</title></path>
{{- end}}
</g>
</svg>
<aside>
<strong>{{.ValueLabel}}</strong>
{{- if .Gradient}}
<svg width="40" height="220" viewBox="0 0 40 220">
<defs><linearGradient id="bar" x1="0" y1="1" x2="0" y2="0">
{{- range .Gradient}}
<stop offset="{{.Offset}}" stop-color="{{.Color}}"/>
{{- end}}
</linearGradient></defs>
<rect x="0" y="10" width="18" height="200" fill="url(#bar)" stroke="#999"/>
</svg>
<div>max {{.Max}}</div>
<div>min {{.Min}}</div>
{{- else}}
{{- range .Bands}}
<div class="legend-band"><span class="swatch" style="background: {{.Color}}"></span>{{.Label}}</div>
{{- end}}
{{- end}}
<p>Scroll to zoom, drag to pan, double-click to reset.</p>
</aside>
</main>
<div id="tip"></div>
<script>
(function () {
  var svg = document.getElementById("map");
  var tip = document.getElementById("tip");
  var base = svg.viewBox.baseVal;
  var home = [base.x, base.y, base.width, base.height];
  var drag = null;

  function point(ev) {
    var r = svg.getBoundingClientRect();
    var s = Math.max(base.width / r.width, base.height / r.height);
    return {x: base.x + (ev.clientX - r.left) * s, y: base.y + (ev.clientY - r.top) * s, s: s};
  }
  svg.addEventListener("wheel", function (ev) {
    ev.preventDefault();
    var p = point(ev);
    var k = ev.deltaY < 0 ? 0.8 : 1.25;
    base.x = p.x - (p.x - base.x) * k;
    base.y = p.y - (p.y - base.y) * k;
    base.width *= k;
    base.height *= k;
  }, {passive: false});
  svg.addEventListener("pointerdown", function (ev) {
    drag = {x: ev.clientX, y: ev.clientY, s: point(ev).s};
    svg.classList.add("dragging");
  });
  window.addEventListener("pointerup", function () {
    drag = null;
    svg.classList.remove("dragging");
  });
  window.addEventListener("pointermove", function (ev) {
    if (!drag) return;
    base.x -= (ev.clientX - drag.x) * drag.s;
    base.y -= (ev.clientY - drag.y) * drag.s;
    drag.x = ev.clientX;
    drag.y = ev.clientY;
  });
  svg.addEventListener("dblclick", function () {
    base.x = home[0]; base.y = home[1]; base.width = home[2]; base.height = home[3];
  });
  svg.addEventListener("mousemove", function (ev) {
    var t = ev.target;
    if (t.tagName !== "path") { tip.style.display = "none"; return; }
    var d = t.dataset;
    tip.textContent = "lat " + d.lat + ", lon " + d.lon + ": value " + d.value;
    tip.style.left = (ev.clientX + 12) + "px";
    tip.style.top = (ev.clientY + 12) + "px";
    tip.style.display = "block";
  });
  svg.addEventListener("mouseleave", function () { tip.style.display = "none"; });
})();
</script>
</body>
</html>
`))
