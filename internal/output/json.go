package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/difflens/internal/review"
)

// JSONWriter outputs the full report as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	return writeJSON(w, report)
}

// WriteAll writes several reports as one JSON array.
func (j *JSONWriter) WriteAll(w io.Writer, reports []*review.Report) error {
	if reports == nil {
		reports = []*review.Report{}
	}
	return writeJSON(w, reports)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
