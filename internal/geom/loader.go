package geom

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// LoadFile reads a boundary from disk, choosing the decoder by extension.
// A trailing .zst is decompressed first, so "india.geojson.zst" works.
func LoadFile(path string) (Region, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".shp" {
		return LoadShapefile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Region{}, err
	}
	return Decode(filepath.Base(path), data)
}

// Decode parses an in-memory boundary document. name is only used to pick
// the format; when its extension is unknown the content is sniffed.
func Decode(name string, data []byte) (Region, error) {
	name = strings.ToLower(name)
	if strings.HasSuffix(name, ".zst") || bytes.HasPrefix(data, zstdMagic) {
		var err error
		if data, err = decompress(data); err != nil {
			return Region{}, fmt.Errorf("decompress %s: %w", name, err)
		}
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".geojson", ".json":
		return DecodeGeoJSON(data)
	case ".kml":
		return DecodeKML(data)
	case ".wkt":
		return DecodeWKT(string(data))
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return DecodeGeoJSON(trimmed)
	case bytes.HasPrefix(trimmed, []byte("<")):
		return DecodeKML(trimmed)
	default:
		return DecodeWKT(string(trimmed))
	}
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
