package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// cellToLonLat converts a map cell coordinate back to lon/lat using bbox, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !m.bbox.Valid() {
		return 0, 0, false
	}
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	lon := m.bbox.MinX + nx*(m.bbox.MaxX-m.bbox.MinX)
	lat := m.bbox.MinY + ny*(m.bbox.MaxY-m.bbox.MinY)
	return lon, lat, true
}

// screenXY maps lon/lat to current screen integer coordinates considering zoom and pan.
func (m Model) screenXY(lon, lat float64, w, h int) (int, int, bool) {
	if !m.bbox.Valid() {
		return 0, 0, false
	}
	zx, zy := m.zoomed(lon, lat)
	sx := int(zx*float64(w-1)) + m.offsetX
	sy := int((1.0-zy)*float64(h-1)) + m.offsetY
	return sx, sy, true
}

// screenXYMicro maps lon/lat into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(lon, lat float64, w, h int) (int, int, bool) {
	if !m.bbox.Valid() {
		return 0, 0, false
	}
	zx, zy := m.zoomed(lon, lat)
	sx := int(zx*float64(w*2-1)) + m.offsetX*2
	sy := int((1.0-zy)*float64(h*4-1)) + m.offsetY*4
	return sx, sy, true
}

// zoomed normalizes lon/lat over bbox and applies zoom around the center.
func (m Model) zoomed(lon, lat float64) (float64, float64) {
	nx := (lon - m.bbox.MinX) / (m.bbox.MaxX - m.bbox.MinX)
	ny := (lat - m.bbox.MinY) / (m.bbox.MaxY - m.bbox.MinY)
	return 0.5 + (nx-0.5)*m.zoom, 0.5 + (ny-0.5)*m.zoom
}

// cellAt returns the index into res.Cells of the clipped cell covering
// lon/lat, or -1. Later cells win, matching the paint order.
func (m Model) cellAt(lon, lat float64) int {
	pt := orb.Point{lon, lat}
	for i := len(m.res.Cells) - 1; i >= 0; i-- {
		g := m.res.Cells[i].Geometry
		if g.Bound().Contains(pt) && planar.MultiPolygonContains(g, pt) {
			return i
		}
	}
	return -1
}

// paint assigns every screen cell of a w x h map the index of the clipped
// cell it samples, or -1 when it falls outside the region.
func (m Model) paint(w, h int) [][]int {
	owners := make([][]int, h)
	for y := range owners {
		owners[y] = make([]int, w)
		for x := range owners[y] {
			owners[y][x] = -1
		}
	}
	for i, c := range m.res.Cells {
		b := c.Geometry.Bound()
		x0, y0, _ := m.screenXY(b.Min[0], b.Max[1], w, h)
		x1, y1, _ := m.screenXY(b.Max[0], b.Min[1], w, h)
		for y := max(0, y0-1); y <= min(h-1, y1+1); y++ {
			for x := max(0, x0-1); x <= min(w-1, x1+1); x++ {
				lon, lat, ok := m.cellToLonLat(x, y, w, h)
				if !ok {
					continue
				}
				pt := orb.Point{lon, lat}
				if b.Contains(pt) && planar.MultiPolygonContains(c.Geometry, pt) {
					owners[y][x] = i
				}
			}
		}
	}
	return owners
}

// outlines draws every ring of every clipped cell into a braille buffer.
func (m Model) outlines(w, h int) *brailleBuf {
	br := newBrailleBuf(w, h)
	for _, c := range m.res.Cells {
		for _, poly := range c.Geometry {
			for _, ring := range poly {
				var prev [2]int
				for i, p := range ring {
					mx, my, ok := m.screenXYMicro(p[0], p[1], w, h)
					if !ok {
						break
					}
					if i > 0 {
						br.drawLineMicro(prev[0], prev[1], mx, my)
					}
					prev = [2]int{mx, my}
				}
			}
		}
	}
	return br
}

type cellStyle struct {
	bg string
	fg lipgloss.Color
}

func (m Model) renderMap(w, h int) string {
	owners := m.paint(w, h)
	var br *brailleBuf
	if m.showOutlines {
		br = m.outlines(w, h)
	}

	styles := map[cellStyle]lipgloss.Style{}
	styleOf := func(owner int) (cellStyle, bool) {
		if owner < 0 {
			return cellStyle{}, false
		}
		cs := cellStyle{bg: m.scale.Hex(m.res.Cells[owner].Value, m.lo, m.hi), fg: edgeFg}
		if owner == m.hoverIdx {
			cs.fg = hoverFg
		}
		return cs, true
	}

	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		var run []rune
		var cur cellStyle
		var styled bool
		flush := func() {
			if len(run) == 0 {
				return
			}
			if !styled {
				sb.WriteString(string(run))
			} else {
				st, ok := styles[cur]
				if !ok {
					st = lipgloss.NewStyle().Background(lipgloss.Color(cur.bg)).Foreground(cur.fg)
					styles[cur] = st
				}
				sb.WriteString(st.Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < w; x++ {
			cs, ok := styleOf(owners[y][x])
			if ok != styled || cs != cur {
				flush()
				cur, styled = cs, ok
			}
			g := ' '
			if br != nil {
				g = br.glyph(x, y)
			}
			run = append(run, g)
		}
		flush()
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}
