package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextWriter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "unstaged") {
		t.Error("Output should mention mode")
	}
	if !strings.Contains(out, "Issues: 0 total") {
		t.Error("Output should show zero issues")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("Output should say no issues found")
	}
	if strings.Contains(out, "Suggestions") {
		t.Error("Suggestions heading should be omitted when there are none")
	}
}

func TestTextWriter_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"1 error, 2 warning, 1 info",
		"web/app.ts:3",
		"data/seed.sql  ",
		"[security, js/eval]",
		"ERROR",
		"WARNING",
		"INFO",
		"Suggestions",
		"ESLint",
		"+440 -2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	// errors are listed before warnings
	if strings.Index(out, "web/app.ts:3") > strings.Index(out, "web/app.ts:12") {
		t.Error("error issue should be printed before warning issue")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("no ANSI escapes expected with Color=false")
	}
}

func TestTextWriter_Color(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{Color: true}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI escapes with Color=true")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s)", len(lines))
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}
