// Package main implements the gridheat CLI: it clips a regular lat/lon grid
// against a boundary region and renders the clipped cells as a choropleth.
//
// Usage:
//
//	gridheat [render] [flags]   write the HTML map and optional extra artifacts
//	gridheat preview [flags]    browse the clipped grid in the terminal
//	gridheat example            print the value table format and a sample table
//
// Configuration is read from the environment (or a .env file); flags
// override the matching variables for one run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"gridheat/internal/boundary"
	"gridheat/internal/colorscale"
	"gridheat/internal/config"
	"gridheat/internal/grid"
	"gridheat/internal/render"
	"gridheat/internal/tui"
	"gridheat/internal/types"
	"gridheat/internal/values"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "render"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "example":
		printExample(stdout)
		return 0
	case "render", "preview":
	default:
		fmt.Fprintf(stderr, "unknown command %q (want render, preview or example)\n", cmd)
		return 2
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	boundaryFlag := fs.String("boundary", "", "boundary source URL or file (overrides BOUNDARY_SOURCE)")
	valuesFlag := fs.String("values", "", "value source: random, hotspots, hotspots-pm10 or a table file (overrides VALUE_SOURCE)")
	cellFlag := fs.Float64("cell-size", 0, "cell size in degrees (overrides GRID_CELL_SIZE)")
	outFlag := fs.String("out", "", "HTML output path (overrides OUTPUT_HTML)")
	scaleFlag := fs.String("scale", "", "color scale: "+strings.Join(colorscale.Names(), ", ")+" (overrides MAP_COLOR_SCALE)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		var ce *config.ConfigError
		msg := "invalid configuration"
		if errors.As(err, &ce) {
			msg = ce.Message
		}
		return fail(stderr, types.NewAppError(types.ErrCodeConfigInvalid, msg, err))
	}
	if *boundaryFlag != "" {
		cfg.Boundary.Source = *boundaryFlag
	}
	if *valuesFlag != "" {
		cfg.Values.Source = *valuesFlag
	}
	if *cellFlag != 0 {
		cfg.Grid.CellSize = *cellFlag
	}
	if *outFlag != "" {
		cfg.Output.HTML = *outFlag
	}
	if *scaleFlag != "" {
		cfg.Map.ColorScale = *scaleFlag
	}

	runID := uuid.NewString()
	logger := newLogger(cfg, stderr).With("run_id", runID)
	slog.SetDefault(logger)

	scale, err := colorscale.Named(cfg.Map.ColorScale)
	if err != nil {
		return fail(stderr, types.NewAppError(types.ErrCodeConfigInvalid, "invalid color scale", err))
	}

	styled := isTerminal(stdout)
	if styled && cmd == "render" {
		printBanner(stdout, cfg)
	}

	res, resolution, err := build(ctx, cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}

	if cmd == "preview" {
		p := tea.NewProgram(tui.New(res, scale, resolution.Source),
			tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fail(stderr, types.NewAppError(types.ErrCodeInternal, "preview failed", err))
		}
		return 0
	}

	opts := render.MapOptions{
		Title:      cfg.Map.Title,
		ValueLabel: cfg.Map.ValueLabel,
		Scale:      scale,
		Opacity:    cfg.Map.Opacity,
		RunID:      runID,
	}
	written, err := writeArtifacts(cfg.Output, res, opts, logger)
	if err != nil {
		return fail(stderr, err)
	}
	printSummary(stdout, styled, cfg, res, resolution, written)
	return 0
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, err.Error())
	return 1
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// build validates the layout and value source, resolves the boundary and
// clips the grid. Configuration problems surface before any I/O.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*grid.Result, boundary.Resolution, error) {
	layout := grid.Layout{
		LatMin:   cfg.Grid.LatMin,
		LatMax:   cfg.Grid.LatMax,
		LonMin:   cfg.Grid.LonMin,
		LonMax:   cfg.Grid.LonMax,
		CellSize: cfg.Grid.CellSize,
	}
	if err := layout.Validate(); err != nil {
		return nil, boundary.Resolution{}, err
	}
	clipper, err := grid.NewClipper(cfg.Grid.Clipper)
	if err != nil {
		return nil, boundary.Resolution{}, types.NewAppError(types.ErrCodeConfigInvalid, "invalid clipper", err)
	}
	valueFn, err := values.FromConfig(cfg.Values)
	if err != nil {
		return nil, boundary.Resolution{}, err
	}

	resolution := boundary.NewProvider(cfg.Boundary, nil, logger).Resolve(ctx)

	res, err := grid.NewEngine(clipper, cfg.Grid.Workers, logger).Build(ctx, layout, resolution.Region, valueFn)
	if err != nil {
		return nil, resolution, err
	}
	return res, resolution, nil
}

type artifact struct {
	Path  string
	Bytes int64
}

// writeArtifacts writes the HTML document and every configured extra output.
func writeArtifacts(out config.OutputConfig, res *grid.Result, opts render.MapOptions, logger *slog.Logger) ([]artifact, error) {
	steps := []struct {
		path  string
		write func(string) (int64, error)
	}{
		{out.HTML, func(p string) (int64, error) { return render.WriteHTML(p, res, opts) }},
		{out.GeoJSON, func(p string) (int64, error) { return render.WriteGeoJSON(p, res) }},
		{out.CSV, func(p string) (int64, error) { return render.WriteCSV(p, res) }},
		{out.PNG, func(p string) (int64, error) { return render.WritePNG(p, res, opts, out.PNGSize) }},
	}
	var written []artifact
	for _, s := range steps {
		if s.path == "" {
			continue
		}
		n, err := s.write(s.path)
		if err != nil {
			return written, err
		}
		logger.Info("render.written", "path", s.path, "bytes", n)
		written = append(written, artifact{Path: s.path, Bytes: n})
	}
	return written, nil
}

func printExample(w io.Writer) {
	fmt.Fprintln(w, "Custom values are read from a table keyed by grid id, the south-west")
	fmt.Fprintln(w, "corner of each cell written as \"{lat}_{lon}\". Cells without an entry")
	fmt.Fprintln(w, "take VALUE_DEFAULT.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "JSON:  {\"20_75\": 15.2, \"21_76\": 18.5}")
	fmt.Fprintln(w, "CSV:   grid_id,value   or   lat,lon,value")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run with VALUE_SOURCE=path/to/table.csv (or -values path/to/table.json).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example table:")
	t := values.Example()
	for _, k := range t.Keys() {
		fmt.Fprintf(w, "  %-8s %g\n", k, t[k])
	}
}
