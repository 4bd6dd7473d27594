package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/dshills/difflens/internal/review"
)

// PrettyWriter renders the markdown report for the terminal.
type PrettyWriter struct {
	// Style is a glamour standard style name; empty picks one from the terminal.
	Style string
	// Width wraps output; zero means 100 columns.
	Width int
}

func (p *PrettyWriter) Write(w io.Writer, report *review.Report) error {
	var md bytes.Buffer
	ew := &errWriter{w: &md}
	writeMarkdown(ew, report, false)
	if ew.err != nil {
		return ew.err
	}

	width := p.Width
	if width <= 0 {
		width = 100
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width), glamour.WithEmoji()}
	if p.Style != "" {
		opts = append(opts, glamour.WithStandardStyle(p.Style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md.String())
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
