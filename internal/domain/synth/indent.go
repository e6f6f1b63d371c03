// Package synth turns located patterns into line-precise hunks. It never
// moves code; it only inserts or expands text around the anchors it is given.
package synth

import (
	"sort"
	"strings"
)

const defaultIndentWidth = 2

// Indent is a file's dominant indentation unit.
type Indent struct {
	Char  byte `json:"char"`
	Width int  `json:"width"`
}

// Unit returns one level of indentation.
func (i Indent) Unit() string {
	if i.Char == '\t' {
		return "\t"
	}
	return strings.Repeat(" ", i.Width)
}

// DetectIndent samples leading whitespace and returns the dominant unit:
// tabs when most indented lines use tabs, otherwise the most frequent
// positive step between consecutive space-indented lines.
func DetectIndent(lines []string) Indent {
	var tabs, spaces int
	steps := make(map[int]int)
	prev := -1

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "*") {
			continue
		}
		lead := line[:len(line)-len(trimmed)]
		switch {
		case strings.HasPrefix(lead, "\t"):
			tabs++
			prev = -1
			continue
		case lead != "":
			spaces++
		}
		n := len(lead)
		if prev >= 0 && n > prev && n-prev > 1 {
			steps[n-prev]++
		}
		prev = n
	}

	if tabs > spaces {
		return Indent{Char: '\t', Width: 1}
	}
	if len(steps) == 0 {
		return Indent{Char: ' ', Width: defaultIndentWidth}
	}

	widths := make([]int, 0, len(steps))
	for w := range steps {
		widths = append(widths, w)
	}
	sort.Slice(widths, func(a, b int) bool {
		if steps[widths[a]] != steps[widths[b]] {
			return steps[widths[a]] > steps[widths[b]]
		}
		return widths[a] < widths[b]
	})
	return Indent{Char: ' ', Width: widths[0]}
}

// LeadingWhitespace returns the indentation prefix of line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
