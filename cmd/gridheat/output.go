package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gridheat/internal/boundary"
	"gridheat/internal/config"
	"gridheat/internal/grid"
)

var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(12)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#243141")).Padding(0, 2)
)

var printer = message.NewPrinter(language.English)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, bannerStyle.Render("gridheat · "+cfg.Map.Title))
	rows := [][2]string{
		{"boundary", cfg.Boundary.Source},
		{"grid", fmt.Sprintf("lat [%g, %g) lon [%g, %g) step %g°",
			cfg.Grid.LatMin, cfg.Grid.LatMax, cfg.Grid.LonMin, cfg.Grid.LonMax, cfg.Grid.CellSize)},
		{"values", cfg.Values.Source},
	}
	for _, r := range rows {
		fmt.Fprintln(w, keyStyle.Render(r[0])+r[1])
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, styled bool, cfg *config.Config, res *grid.Result, b boundary.Resolution, written []artifact) {
	lo, hi := res.ValueRange()
	source := b.Source
	if b.Fallback {
		source = fmt.Sprintf("fallback rectangle (%v)", b.Reason)
	}
	lines := [][2]string{
		{"region", source},
		{"cells", printer.Sprintf("%d clipped, %d of %d candidates outside", len(res.Cells), res.Dropped, res.Candidates)},
		{"values", printer.Sprintf("%.2f to %.2f", lo, hi)},
	}
	for _, a := range written {
		lines = append(lines, [2]string{"wrote", printer.Sprintf("%s (%d bytes)", a.Path, a.Bytes)})
	}

	if !styled {
		for _, l := range lines {
			fmt.Fprintf(w, "%s: %s\n", l[0], l[1])
		}
		return
	}
	for _, l := range lines {
		v := l[1]
		if l[0] == "region" && b.Fallback {
			v = warnStyle.Render(v)
		} else if l[0] == "wrote" {
			v = okStyle.Render(v)
		}
		fmt.Fprintln(w, keyStyle.Render(l[0])+v)
	}
	if cfg.Environment == "local" && cfg.Output.HTML != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open %s in a browser to explore the map.\n", cfg.Output.HTML)
	}
}
