package boundary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridheat/internal/config"
	"gridheat/internal/geom"
	"gridheat/internal/types"
)

const statesDoc = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"ST_NM":"West"},"geometry":{"type":"Polygon","coordinates":[[[70,10],[75,10],[75,20],[70,20],[70,10]]]}},
{"type":"Feature","properties":{"ST_NM":"East"},"geometry":{"type":"MultiPolygon","coordinates":[[[[80,10],[85,10],[85,20],[80,10]]],[[[90,25],[92,25],[92,27],[90,25]]]]}}
]}`

func testConfig(source string) config.BoundaryConfig {
	return config.BoundaryConfig{
		Source:         source,
		Timeout:        2 * time.Second,
		TargetCRS:      geom.WGS84,
		UserAgent:      "gridheat-test/1.0",
		FallbackMinLon: 68.5,
		FallbackMinLat: 6.5,
		FallbackMaxLon: 97.5,
		FallbackMaxLat: 37.5,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_RemoteSuccess(t *testing.T) {
	var ua string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/geo+json")
		io.WriteString(w, statesDoc)
	})

	p := NewProvider(testConfig(srv.URL+"/state/india.geojson"), nil, quietLogger())
	res := p.Resolve(context.Background())

	assert.False(t, res.Fallback)
	assert.NoError(t, res.Reason)
	assert.Equal(t, srv.URL+"/state/india.geojson", res.Source)
	assert.Len(t, res.Region.Parts, 3)
	assert.Equal(t, geom.BBox{MinX: 70, MinY: 10, MaxX: 92, MaxY: 27}, res.Region.BBox())
	assert.Equal(t, "gridheat-test/1.0", ua)
}

func TestResolve_GzipEncodedResponse(t *testing.T) {
	// pad the document past the handler's minimum compression size
	doc := strings.Replace(statesDoc, `"West"`, `"`+strings.Repeat("W", 4096)+`"`, 1)
	var acceptEncoding string
	srv := httptest.NewServer(gzhttp.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acceptEncoding = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, doc)
	})))
	defer srv.Close()

	p := NewProvider(testConfig(srv.URL+"/india.json"), nil, quietLogger())
	res := p.Resolve(context.Background())

	require.False(t, res.Fallback, "reason: %v", res.Reason)
	assert.Contains(t, acceptEncoding, "gzip")
	assert.Len(t, res.Region.Parts, 3)
}

func TestResolve_ReprojectsDeclaredCRS(t *testing.T) {
	const doc = `{"type":"Feature","crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3857"}},"properties":{},
"geometry":{"type":"Polygon","coordinates":[[[7569725.4,1118890.0],[8683375.4,1118890.0],[8683375.4,2273030.9],[7569725.4,2273030.9],[7569725.4,1118890.0]]]}}`
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, doc) })

	res := NewProvider(testConfig(srv.URL+"/b.geojson"), nil, quietLogger()).Resolve(context.Background())
	require.False(t, res.Fallback, "reason: %v", res.Reason)
	assert.Equal(t, geom.WGS84, res.Region.CRS)
	b := res.Region.BBox()
	assert.InDelta(t, 68.0, b.MinX, 0.01)
	assert.InDelta(t, 78.0, b.MaxX, 0.01)
	assert.InDelta(t, 10.0, b.MinY, 0.1)
	assert.InDelta(t, 20.0, b.MaxY, 0.1)
}

func TestResolve_FallsBack(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL + "/india.geojson"
	closed.Close()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		url     string
		code    types.ErrorCode
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) },
			code:    types.ErrCodeBoundaryUnavailable,
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			code:    types.ErrCodeBoundaryUnavailable,
		},
		{
			name:    "malformed document",
			handler: func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"type":"FeatureCollection","features":[`) },
			code:    types.ErrCodeBoundaryParse,
		},
		{
			name:    "no polygons",
			handler: func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"type":"FeatureCollection","features":[]}`) },
			code:    types.ErrCodeBoundaryParse,
		},
		{
			name: "unknown crs",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"type":"Polygon","crs":{"type":"name","properties":{"name":"EPSG:27700"}},"coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
			},
			code: types.ErrCodeBoundaryParse,
		},
		{name: "unreachable", url: closedURL, code: types.ErrCodeBoundaryUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := tt.url
			if tt.handler != nil {
				url = serve(t, tt.handler).URL + "/india.geojson"
			}
			p := NewProvider(testConfig(url), nil, quietLogger())
			res := p.Resolve(context.Background())

			assert.True(t, res.Fallback)
			assert.Equal(t, "fallback", res.Source)
			assert.Equal(t, tt.code, types.CodeOf(res.Reason))
			assert.True(t, tt.code.Recoverable())
			assert.Equal(t, p.FallbackLocal(), res.Region)
			assert.Equal(t, geom.BBox{MinX: 68.5, MinY: 6.5, MaxX: 97.5, MaxY: 37.5}, res.Region.BBox())
		})
	}
}

func TestResolve_TimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	cfg := testConfig(srv.URL + "/slow.geojson")
	cfg.Timeout = 50 * time.Millisecond
	res := NewProvider(cfg, nil, quietLogger()).Resolve(context.Background())

	assert.True(t, res.Fallback)
	assert.Equal(t, types.ErrCodeBoundaryUnavailable, types.CodeOf(res.Reason))
}

func TestResolve_LocalFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "india.geojson")
	require.NoError(t, os.WriteFile(path, []byte(statesDoc), 0o644))

	res := NewProvider(testConfig(path), nil, quietLogger()).Resolve(context.Background())
	assert.False(t, res.Fallback)
	assert.Len(t, res.Region.Parts, 3)

	missing := NewProvider(testConfig(filepath.Join(dir, "nope.geojson")), nil, quietLogger()).Resolve(context.Background())
	assert.True(t, missing.Fallback)
	assert.Equal(t, types.ErrCodeBoundaryUnavailable, types.CodeOf(missing.Reason))
}

func TestFallbackLocal_InvalidConfigUsesDefault(t *testing.T) {
	cfg := testConfig("unused")
	cfg.FallbackMinLon, cfg.FallbackMaxLon = 10, 10
	p := NewProvider(cfg, nil, quietLogger())
	assert.Equal(t, DefaultFallback, p.FallbackLocal().BBox())
	assert.False(t, p.FallbackLocal().Empty())
}

func TestFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	f := NewFetcherWithClient(&http.Client{Timeout: time.Second}, "")

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		var ae *types.AppError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, http.StatusBadGateway, ae.Details["status"])
	}
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(3), hits.Load())
}
