// Package render writes a clipped grid to the output artifacts: the
// interactive HTML map, the GeoJSON payload, the CSV table and a PNG raster.
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gridheat/internal/types"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteFileAtomic streams write into a temporary file next to path and
// renames it over path once everything was written and synced. On failure
// the temporary file is removed and path is left untouched. It returns the
// number of bytes written.
func WriteFileAtomic(path string, write func(io.Writer) error) (n int64, err error) {
	fail := func(msg string, cause error) error {
		return types.NewAppError(types.ErrCodeRenderSink, msg, cause).
			WithDetails(map[string]any{"path": path})
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fail("cannot create temporary file", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	cw := &countingWriter{w: bw}
	if err = write(cw); err != nil {
		return 0, fail(fmt.Sprintf("cannot write %s", filepath.Base(path)), err)
	}
	if err = bw.Flush(); err != nil {
		return 0, fail("cannot flush output", err)
	}
	if err = tmp.Sync(); err != nil {
		return 0, fail("cannot sync output", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return 0, fail("cannot set permissions", err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fail("cannot close output", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, fail("cannot replace output", err)
	}
	return cw.n, nil
}
