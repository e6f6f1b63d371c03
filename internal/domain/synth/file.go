package synth

import (
	"fmt"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
)

// File is a source file prepared for synthesis: its lines and dominant
// indentation are computed once and shared by every edit in the file.
type File struct {
	Path    string
	Content string
	Lines   []string
	Indent  Indent
	EOL     string
}

// NewFile splits content and detects its indentation and line ending.
func NewFile(path, content string) *File {
	lines := domain.SplitLines(content)
	return &File{
		Path:    path,
		Content: content,
		Lines:   lines,
		Indent:  DetectIndent(lines),
		EOL:     domain.DetectEOL(content),
	}
}

// Line returns the 1-based line n, or "" when out of range.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.Lines) {
		return ""
	}
	return f.Lines[n-1]
}

// IndentOf returns the leading whitespace of line n.
func (f *File) IndentOf(n int) string {
	return LeadingWhitespace(f.Line(n))
}

// ReplaceSpan builds a hunk that swaps span's text for text. The lines
// holding the span are replaced as a whole; the text before the span on its
// first line and after it on its last line is kept verbatim.
func (f *File) ReplaceSpan(span domain.Span, text string) (domain.Hunk, error) {
	start, end := span.Start, span.End
	if start.Line < 1 || end.Line > len(f.Lines) || end.Before(start) {
		return domain.Hunk{}, fmt.Errorf("span %d:%d-%d:%d outside %s", start.Line, start.Column, end.Line, end.Column, f.Path)
	}
	first, last := f.Lines[start.Line-1], f.Lines[end.Line-1]
	if start.Column > len(first) || end.Column > len(last) {
		return domain.Hunk{}, fmt.Errorf("span column outside line in %s", f.Path)
	}
	joined := first[:start.Column] + strings.ReplaceAll(text, "\r", "") + last[end.Column:]
	return domain.Replacement(start.Line, end.Line, strings.Split(joined, "\n")...), nil
}

// Text returns the source between from and to. ok is false when the range
// falls outside the file.
func (f *File) Text(from, to domain.Position) (string, bool) {
	if from.Line < 1 || to.Line > len(f.Lines) || to.Before(from) {
		return "", false
	}
	first, last := f.Lines[from.Line-1], f.Lines[to.Line-1]
	if from.Column < 0 || from.Column > len(first) || to.Column < 0 || to.Column > len(last) {
		return "", false
	}
	if from.Line == to.Line {
		return first[from.Column:to.Column], true
	}
	parts := []string{first[from.Column:]}
	parts = append(parts, f.Lines[from.Line:to.Line-1]...)
	parts = append(parts, last[:to.Column])
	return strings.Join(parts, "\n"), true
}

// InsertBefore builds a hunk inserting lines before line n.
func (f *File) InsertBefore(n int, lines ...string) domain.Hunk {
	return domain.Insertion(n, lines...)
}

// InsertAfter builds a hunk inserting lines after line n.
func (f *File) InsertAfter(n int, lines ...string) domain.Hunk {
	return domain.Insertion(n+1, lines...)
}

// HasMarkerAbove reports whether the nearest non-blank line above n is a
// comment carrying marker.
func (f *File) HasMarkerAbove(n int, marker string) bool {
	for i := n - 1; i >= 1; i-- {
		t := strings.TrimSpace(f.Line(i))
		if t == "" {
			continue
		}
		return strings.HasPrefix(t, "//") && strings.Contains(t, marker)
	}
	return false
}
