package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	_, _, mapWidth, mapHeight := m.mapArea()
	contentWidth := max(10, m.width)

	header := titleStyle.Render(" gridheat ─ clipped grid preview ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	var mapView string
	switch {
	case m.showTable:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(mapWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(mapHeight-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, box)
	case m.gotoMode:
		m.ti.Width = max(10, mapWidth-12)
		box := boxStyle.Render(m.ti.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, box)
	default:
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.renderMap(mapWidth, mapHeight))
	}

	body := mapView
	if m.showSidebar {
		sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	popup := ""
	if m.inspectPopup != "" && !m.showTable {
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MaxWidth(min(48, max(20, contentWidth/2))).Render(m.inspectPopup)
		popup = lipgloss.Place(contentWidth, lipgloss.Height(box), lipgloss.Left, lipgloss.Top, box)
	}

	status := dimStyle.Render(" " + m.status + " ")
	coords := ""
	if m.hovering && m.hoverHasGeo {
		coords = fmt.Sprintf("lon=%.5f lat=%.5f", m.hoverLon, m.hoverLat)
		if m.hoverIdx >= 0 {
			c := m.res.Cells[m.hoverIdx]
			coords = fmt.Sprintf("%s  %s=%g", coords, c.GridID, c.Value)
		}
		coords = dimStyle.Render("  " + coords + "  ")
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderLegend())
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right)),
		m.renderHelp(),
	)

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderLegend draws a short swatch strip of the active scale.
func (m Model) renderLegend() string {
	var cols []string
	if m.scale.Continuous() {
		cols = m.scale.Gradient(8)
	} else {
		for _, b := range m.scale.Bands() {
			cols = append(cols, b.Color)
		}
	}
	var sb strings.Builder
	sb.WriteString(dimStyle.Render(fmt.Sprintf(" %s ", m.scale.Name)))
	for _, c := range cols {
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("  "))
	}
	return sb.String()
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"0 reset",
		"Tab scales",
		"t table",
		"g goto",
		"i inspect",
		"o outlines",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
