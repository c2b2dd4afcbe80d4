package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	sidebarWidth = 20
	headerHeight = 1
	footerHeight = 2
)

// mapArea returns the map origin and size on screen. It must match View.
func (m Model) mapArea() (x, y, w, h int) {
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	sw := 0
	if m.showSidebar {
		sw = sidebarWidth + 1
	}
	return sw, headerHeight, max(10, contentWidth-sw), contentHeight
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, _, _, h := m.mapArea()
		m.l.SetSize(sidebarWidth-2, h-2)
	case tea.KeyMsg:
		if m.gotoMode {
			switch msg.String() {
			case "esc":
				m.gotoMode = false
				m.ti.Blur()
				return m, nil
			case "enter":
				if m.selectGridID(m.ti.Value()) {
					m.gotoMode = false
					m.ti.Blur()
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.ti, cmd = m.ti.Update(msg)
			return m, cmd
		}
		if m.showTable {
			switch msg.String() {
			case "t", "esc":
				m.showTable = false
				return m, nil
			case "ctrl+c", "q":
				return m, tea.Quit
			case "enter":
				i := m.tbl.Cursor()
				if i >= 0 && i < len(m.res.Cells) {
					m.hoverIdx = i
					m.inspectPopup = m.describe(i)
					m.showTable = false
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "-", "_":
			if m.zoom > 0.05 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "0":
			m.zoom = 1.0
			m.offsetX, m.offsetY = 0, 0
			m.status = summary(m.res, m.source)
		case "tab":
			m.showSidebar = !m.showSidebar
		case "enter":
			if m.showSidebar {
				m.applyScale()
			}
		case "g":
			m.gotoMode = true
			m.ti.SetValue("")
			m.ti.Focus()
			m.status = "goto mode"
		case "h":
			m.helpVisible = !m.helpVisible
		case "o":
			m.showOutlines = !m.showOutlines
			m.status = fmt.Sprintf("outlines: %v", m.showOutlines)
		case "t":
			m.showTable = true
			m.inspectPopup = ""
		case "i":
			if m.hoverIdx >= 0 {
				m.inspectPopup = m.describe(m.hoverIdx)
				m.status = "inspect popup"
			} else {
				m.inspectPopup = ""
				m.status = "no cell under the pointer"
			}
		case "esc":
			m.inspectPopup = ""
		case "up":
			if m.showSidebar {
				break
			}
			m.offsetY -= 1
		case "down":
			if m.showSidebar {
				break
			}
			m.offsetY += 1
		case "left":
			m.offsetX -= 2
		case "right":
			m.offsetX += 2
		}
	case tea.MouseMsg:
		ox, oy, w, h := m.mapArea()
		cx, cy := msg.X-ox, msg.Y-oy
		if cx >= 0 && cx < w && cy >= 0 && cy < h {
			m.hovering = true
			lon, lat, ok := m.cellToLonLat(cx, cy, w, h)
			m.hoverHasGeo = ok
			m.hoverLon, m.hoverLat = lon, lat
			m.hoverIdx = -1
			if ok {
				m.hoverIdx = m.cellAt(lon, lat)
			}
		} else {
			m.hovering = false
			m.hoverHasGeo = false
		}
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}
