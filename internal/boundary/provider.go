// Package boundary resolves the region the grid is clipped to.
package boundary

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"gridheat/internal/config"
	"gridheat/internal/geom"
	"gridheat/internal/types"
)

// DefaultFallback is the rectangle over mainland India.
var DefaultFallback = geom.BBox{MinX: 68.5, MinY: 6.5, MaxX: 97.5, MaxY: 37.5}

// Resolution is the outcome of Resolve. Region is never empty.
type Resolution struct {
	Region   geom.Region
	Source   string
	Fallback bool
	// Reason is why the source was not used; nil unless Fallback.
	Reason error
}

// Provider reads the configured boundary source and falls back to a fixed
// rectangle when it cannot.
type Provider struct {
	source    string
	targetCRS string
	fallback  geom.BBox
	fetcher   *Fetcher
	logger    *slog.Logger
}

// NewProvider builds a provider from cfg. A nil fetcher gets one built from
// the configured timeout and user agent.
func NewProvider(cfg config.BoundaryConfig, fetcher *Fetcher, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		fetcher = NewFetcher(cfg.Timeout, cfg.UserAgent)
	}
	fb := geom.BBox{
		MinX: cfg.FallbackMinLon, MinY: cfg.FallbackMinLat,
		MaxX: cfg.FallbackMaxLon, MaxY: cfg.FallbackMaxLat,
	}
	if !fb.Valid() {
		fb = DefaultFallback
	}
	target := cfg.TargetCRS
	if target == "" {
		target = geom.WGS84
	}
	return &Provider{
		source:    cfg.Source,
		targetCRS: target,
		fallback:  fb,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Resolve returns the source region, or the fallback rectangle if the source
// is unreachable, malformed, in an unknown CRS or empty. It never fails.
func (p *Provider) Resolve(ctx context.Context) Resolution {
	p.logger.Info("boundary.resolve.start", "source", p.source)

	region, err := p.TryRemote(ctx)
	if err != nil {
		p.logger.Warn("boundary.fallback",
			"source", p.source,
			"code", types.CodeOf(err),
			"error", err,
			"bbox", p.fallback,
		)
		region = p.FallbackLocal()
		p.logResolved(region, true)
		return Resolution{Region: region, Source: "fallback", Fallback: true, Reason: err}
	}
	p.logResolved(region, false)
	return Resolution{Region: region, Source: p.source}
}

func (p *Provider) logResolved(r geom.Region, fallback bool) {
	p.logger.Info("boundary.resolved",
		"parts", len(r.Parts),
		"vertices", r.VertexCount(),
		"bbox", r.BBox(),
		"fallback", fallback,
	)
}

// TryRemote reads, parses and reprojects the configured source. The source
// is fetched over HTTP(S) when it is a URL and read from disk otherwise.
func (p *Provider) TryRemote(ctx context.Context) (geom.Region, error) {
	var (
		region geom.Region
		err    error
	)
	if isURL(p.source) {
		var data []byte
		if data, err = p.fetcher.Fetch(ctx, p.source); err != nil {
			return geom.Region{}, err
		}
		region, err = geom.Decode(urlName(p.source), data)
	} else {
		region, err = geom.LoadFile(p.source)
		var perr *fs.PathError
		if errors.As(err, &perr) {
			return geom.Region{}, types.NewAppError(types.ErrCodeBoundaryUnavailable, "cannot read boundary file", err)
		}
	}
	if err != nil {
		return geom.Region{}, types.NewAppError(types.ErrCodeBoundaryParse, "cannot parse boundary", err)
	}

	region, err = geom.Reproject(region, p.targetCRS)
	if err != nil {
		return geom.Region{}, types.NewAppError(types.ErrCodeBoundaryParse, "cannot reproject boundary", err)
	}
	if region.Empty() {
		return geom.Region{}, types.NewAppError(types.ErrCodeBoundaryParse, "boundary has no usable polygons", nil)
	}
	return region, nil
}

// FallbackLocal is the configured rectangle. It performs no I/O.
func (p *Provider) FallbackLocal() geom.Region {
	return geom.Rectangle(p.fallback)
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// urlName is the last path element, used to pick a decoder.
func urlName(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Base(u.Path))
}
