package tui

import (
	"fmt"
	"strings"

	table "github.com/charmbracelet/bubbles/table"

	"gridheat/internal/grid"
)

// newCellTable lists every clipped cell with the flat table columns.
func newCellTable(res *grid.Result) table.Model {
	widths := map[string]int{"index": 6, "lat": 10, "lon": 10, "value": 10, "grid_id": 18}
	cols := make([]table.Column, 0, len(grid.TableColumns))
	for _, c := range grid.TableColumns {
		cols = append(cols, table.Column{Title: c, Width: widths[c]})
	}
	rows := make([]table.Row, 0, len(res.Cells))
	for _, r := range res.Table() {
		rows = append(rows, table.Row(r.Strings()))
	}
	return table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)
}

// selectGridID moves the table cursor and hover to the first cell with id.
func (m *Model) selectGridID(id string) bool {
	id = strings.TrimSpace(id)
	lat, lon, err := grid.ParseGridID(id)
	if err != nil {
		m.status = "goto: " + err.Error()
		return false
	}
	want := grid.FormatGridID(lat, lon)
	for i, c := range m.res.Cells {
		if c.GridID == want {
			m.hoverIdx = i
			m.tbl.SetCursor(i)
			m.inspectPopup = m.describe(i)
			m.status = "goto " + want
			return true
		}
	}
	m.status = fmt.Sprintf("goto: %s is not inside the region", want)
	return false
}

// describe renders the details of res.Cells[i] for the inspect popup.
func (m Model) describe(i int) string {
	c := m.res.Cells[i]
	lines := []string{
		fmt.Sprintf("grid_id: %s", c.GridID),
		fmt.Sprintf("index: %d", c.Index),
		fmt.Sprintf("corner: lat=%g lon=%g", c.Lat, c.Lon),
		fmt.Sprintf("value: %g", c.Value),
		fmt.Sprintf("part: %d", c.Part),
		fmt.Sprintf("area: %.6g deg²", c.Area),
		fmt.Sprintf("full: %v", c.Full(m.res.Layout.CellSize)),
		fmt.Sprintf("color: %s", m.scale.Hex(c.Value, m.lo, m.hi)),
	}
	return strings.Join(lines, "\n")
}

func summary(res *grid.Result, source string) string {
	lo, hi := res.ValueRange()
	return fmt.Sprintf("%d cells (%d of %d candidates outside) from %s, values %g..%g",
		len(res.Cells), res.Dropped, res.Candidates, source, lo, hi)
}
