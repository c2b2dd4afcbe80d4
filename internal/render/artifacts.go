package render

import (
	"encoding/csv"
	"io"

	"gridheat/internal/grid"
)

// WriteGeoJSON writes the feature collection view of res.
func WriteGeoJSON(path string, res *grid.Result) (int64, error) {
	data, err := res.MarshalGeoJSON()
	if err != nil {
		return 0, err
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteCSV writes the flat table view of res with a header row.
func WriteCSV(path string, res *grid.Result) (int64, error) {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeCSV(w, res)
	})
}

// EncodeCSV writes the table to w.
func EncodeCSV(w io.Writer, res *grid.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(grid.TableColumns); err != nil {
		return err
	}
	for _, row := range res.Table() {
		if err := cw.Write(row.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
