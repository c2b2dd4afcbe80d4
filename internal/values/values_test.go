package values

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridheat/internal/config"
	"gridheat/internal/types"
)

func TestTable_LookupUsesDefaultForMissingKeys(t *testing.T) {
	fn := Table{"20_75": 15.2, "21_76": 18.5}.Lookup(-1)

	assert.Equal(t, 15.2, fn(20, 75))
	assert.Equal(t, 18.5, fn(21, 76))
	assert.Equal(t, -1.0, fn(30, 90))
}

func TestExample(t *testing.T) {
	ex := Example()
	assert.Equal(t, []string{"20_75", "21_76", "22_77", "23_78", "24_79"}, ex.Keys())
	assert.Equal(t, 15.2, ex.Lookup(0)(20, 75))
	assert.Equal(t, 0.0, ex.Lookup(0)(30, 90))
}

func TestUniform_SeededIsReproducibleAndInRange(t *testing.T) {
	a, b := Uniform(0, 20, 42), Uniform(0, 20, 42)
	for i := 0; i < 500; i++ {
		va, vb := a(6, 68), b(6, 68)
		assert.Equal(t, va, vb)
		assert.GreaterOrEqual(t, va, 0.0)
		assert.Less(t, va, 20.0)
	}
}

func TestPM25(t *testing.T) {
	fn := PM25(7)
	delhi := fn(28.6, 77.2)
	remote := fn(8, 95)

	assert.GreaterOrEqual(t, delhi, 5.0)
	assert.LessOrEqual(t, delhi, 200.0)
	assert.Greater(t, delhi, remote)
	assert.Equal(t, delhi, float64(int(delhi)))
}

func TestPM10(t *testing.T) {
	a, b := PM10(7), PM10(7)
	delhi := a(28.6, 77.2)
	assert.Equal(t, delhi, b(28.6, 77.2))

	remote := a(8, 95)
	assert.Equal(t, remote, b(8, 95))
	assert.Greater(t, delhi, remote)

	for _, v := range []float64{delhi, remote} {
		// 1.5 * [5, 200] + [0, 20)
		assert.GreaterOrEqual(t, v, 7.0)
		assert.LessOrEqual(t, v, 320.0)
		assert.Equal(t, v, math.Round(v))
	}
}

func TestDecodeCSV(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Table
		wantErr string
	}{
		{
			name: "grid id header",
			in:   "grid_id,value\n20_75,15.2\n21.0_76,18.5\n",
			want: Table{"20_75": 15.2, "21_76": 18.5},
		},
		{
			name: "lat lon header in any order",
			in:   "Value, Longitude, Latitude\n15.2, 75, 20\n1, 68.5, 6.5\n",
			want: Table{"20_75": 15.2, "6.5_68.5": 1},
		},
		{name: "empty", in: "", wantErr: "empty csv"},
		{name: "no value column", in: "grid_id,pm\n20_75,1\n", wantErr: "value column not found"},
		{name: "no key columns", in: "lat,value\n20,1\n", wantErr: "grid_id column"},
		{name: "bad value", in: "grid_id,value\n20_75,high\n", wantErr: "csv line 2"},
		{name: "bad id", in: "grid_id,value\n20-75,1\n", wantErr: "invalid grid_id"},
		{name: "extra separator", in: "grid_id,value\n20_7_5,1\n", wantErr: "invalid grid_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCSV(strings.NewReader(tt.in))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON(strings.NewReader(`{"20_75": 15.2, "21.50_76": 18.5}`))
	require.NoError(t, err)
	assert.Equal(t, Table{"20_75": 15.2, "21.5_76": 18.5}, got)

	_, err = DecodeJSON(strings.NewReader(`{"20_75": "x"}`))
	assert.Error(t, err)

	// must not collapse into 20_75
	for _, key := range []string{"20_7_5", "2_0_75", "0x14_75"} {
		_, err = DecodeJSON(strings.NewReader(`{"` + key + `": 15.2}`))
		require.Error(t, err, key)
		assert.Contains(t, err.Error(), "invalid grid_id", key)
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"20_75": 15.2}`), 0o644))

	fn, err := FromConfig(config.ValueConfig{Source: path, Default: 3})
	require.NoError(t, err)
	assert.Equal(t, 15.2, fn(20, 75))
	assert.Equal(t, 3.0, fn(30, 90))

	fn, err = FromConfig(config.ValueConfig{Source: SourceRandom, Min: 1, Max: 2, Seed: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, fn(0, 0), 0.5)

	_, err = FromConfig(config.ValueConfig{Source: SourceHotspots})
	require.NoError(t, err)

	fn, err = FromConfig(config.ValueConfig{Source: SourceHotspotsPM10, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, PM10(3)(28.6, 77.2), fn(28.6, 77.2))

	_, err = FromConfig(config.ValueConfig{Source: filepath.Join(dir, "missing.csv")})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValueSource, types.CodeOf(err))

	txt := filepath.Join(dir, "values.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = FromConfig(config.ValueConfig{Source: txt})
	assert.Equal(t, types.ErrCodeValueSource, types.CodeOf(err))
}
