package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/difflens/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// Formats lists the names accepted by GetWriter.
var Formats = []string{"text", "json", "markdown", "sarif", "pretty"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Color: colorEnabled()}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	case "pretty":
		return &PrettyWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReports writes one or more reports to a file or stdout. JSON output
// of several reports is a single array; other formats write the reports one
// after another.
func WriteReports(reports []*review.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	if outPath == "" {
		return render(os.Stdout, reports, writer)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if tw, ok := writer.(*TextWriter); ok {
		tw.Color = false
	}
	return render(f, reports, writer)
}

// Render writes reports to w in the given format.
func Render(w io.Writer, reports []*review.Report, format string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	return render(w, reports, writer)
}

func render(w io.Writer, reports []*review.Report, writer Writer) error {
	if jw, ok := writer.(*JSONWriter); ok && len(reports) > 1 {
		return jw.WriteAll(w, reports)
	}
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writer.Write(w, r); err != nil {
			return err
		}
	}
	return nil
}
