package synth

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
)

// DefaultErrorParam is bound when a handler declares no parameter.
const DefaultErrorParam = "error"

// ReviewMarker prefixes every comment left for a human reviewer.
const ReviewMarker = "patchgate:"

// FixPattern synthesizes the hunks for one detected pattern. ok is false when
// the pattern cannot be rewritten safely (destructured binding, marker
// already present).
func (f *File) FixPattern(m domain.PatternMatch) (hunks []domain.Hunk, ok bool, err error) {
	switch m.Type {
	case domain.PatternEmptyCatch, domain.PatternEmptyRejection:
		return f.rethrowHandler(m, true)
	case domain.PatternLogOnlyCatch:
		return f.rethrowHandler(m, false)
	case domain.PatternSuccessAfterTry:
		h, ok := f.markForReview(m)
		if !ok {
			return nil, false, nil
		}
		return []domain.Hunk{h}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown pattern type %q", m.Type)
	}
}

// rethrowHandler makes a catch clause or rejection handler re-throw what it
// caught. When the closing brace sits on its own line the body is kept and
// the new statements are inserted above it; otherwise the handler is
// rewritten as a block.
func (f *File) rethrowHandler(m domain.PatternMatch, logFirst bool) ([]domain.Hunk, bool, error) {
	header, param, ok := bindParam(m)
	if !ok {
		return nil, false, nil
	}

	var hunks []domain.Hunk
	if f.closesOnOwnLine(m) && !strings.Contains(header, "\n") {
		if header != m.Header {
			h, err := f.ReplaceSpan(domain.Span{
				Start: m.Region.Start,
				End:   domain.Position{Line: m.Region.Start.Line, Column: m.Region.Start.Column + len(m.Header)},
			}, header)
			if err != nil {
				return nil, false, err
			}
			hunks = append(hunks, h)
		}
		inner := f.IndentOf(m.Body.End.Line) + f.Indent.Unit()
		if n := len(m.Statements); n > 0 && m.Statements[n-1].Start.Line > m.Body.Start.Line {
			inner = f.IndentOf(m.Statements[n-1].Start.Line)
		}
		var lines []string
		if logFirst {
			lines = append(lines, inner+"console.error("+param+");")
		}
		lines = append(lines, inner+"throw "+param+";")
		return append(hunks, f.InsertBefore(m.Body.End.Line, lines...)), true, nil
	}

	base := f.IndentOf(m.Region.Start.Line)
	text := header + f.rethrowBlock(base, param, f.bodyLines(m), logFirst)
	h, err := f.ReplaceSpan(m.Region, text)
	if err != nil {
		return nil, false, err
	}
	return []domain.Hunk{h}, true, nil
}

// closesOnOwnLine reports whether the body's "}" is alone on a later line
// than its "{" and after every statement.
func (f *File) closesOnOwnLine(m domain.PatternMatch) bool {
	if m.Body.End.Line <= m.Body.Start.Line {
		return false
	}
	if n := len(m.Statements); n > 0 && m.Statements[n-1].End.Line >= m.Body.End.Line {
		return false
	}
	line := f.Line(m.Body.End.Line)
	col := m.Body.End.Column - 1
	if col < 0 || col >= len(line) || line[col] != '}' {
		return false
	}
	return strings.TrimSpace(line[:col]) == ""
}

// bodyLines returns the non-blank lines between the body's braces, trimmed,
// so comments and statements survive a rewrite of the block.
func (f *File) bodyLines(m domain.PatternMatch) []string {
	start := domain.Position{Line: m.Body.Start.Line, Column: m.Body.Start.Column + 1}
	end := domain.Position{Line: m.Body.End.Line, Column: m.Body.End.Column - 1}
	inner, ok := f.Text(start, end)
	if !ok {
		out := make([]string, 0, len(m.Statements))
		for _, s := range m.Statements {
			out = append(out, strings.TrimSpace(s.Text))
		}
		return out
	}
	var out []string
	for _, l := range strings.Split(inner, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (f *File) rethrowBlock(base, param string, stmts []string, logFirst bool) string {
	inner := base + f.Indent.Unit()
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range stmts {
		b.WriteString(inner + s + "\n")
	}
	if logFirst {
		b.WriteString(inner + "console.error(" + param + ");\n")
	}
	b.WriteString(inner + "throw " + param + ";\n")
	b.WriteString(base + "}")
	return b.String()
}

// bindParam returns the handler header with a parameter guaranteed bound.
func bindParam(m domain.PatternMatch) (header, param string, ok bool) {
	if m.Destructured {
		return "", "", false
	}
	if m.Param != "" {
		return m.Header, m.Param, true
	}
	h := m.Header
	if m.ParamsStart >= 0 && m.ParamsStart <= m.ParamsEnd && m.ParamsEnd <= len(h) {
		return h[:m.ParamsStart] + "(" + DefaultErrorParam + ")" + h[m.ParamsEnd:], DefaultErrorParam, true
	}
	return strings.TrimRight(h, " \t") + " (" + DefaultErrorParam + ") ", DefaultErrorParam, true
}

// markForReview inserts a reviewer comment above a try statement whose
// success call runs unconditionally. The statement itself is never moved.
func (f *File) markForReview(m domain.PatternMatch) (domain.Hunk, bool) {
	line := m.Region.Start.Line
	if line < 1 || line > len(f.Lines) || f.HasMarkerAbove(line, ReviewMarker) {
		return domain.Hunk{}, false
	}
	callee := m.Callee
	if callee == "" {
		callee = "the success call"
	} else {
		callee += "()"
	}
	comment := fmt.Sprintf("%s// %s %s runs even when this try block fails; move it inside the try block after review",
		f.IndentOf(line), ReviewMarker, callee)
	return f.InsertBefore(line, comment), true
}

var (
	identPattern      = `[A-Za-z_$][\w$]*`
	typeAnnotation    = `(?:\s*:\s*[\w$.<>\[\] |]+)?`
	textEmptyCatch    = regexp.MustCompile(`(^|[^.\w$])catch\s*(\(\s*(` + identPattern + `)?` + typeAnnotation + `\s*\))?\s*\{\s*\}`)
	textEmptyRejected = regexp.MustCompile(`\.catch\(\s*(async\s+)?(\(\s*(` + identPattern + `)?` + typeAnnotation + `\s*\)|(` + identPattern + `))\s*=>\s*\{\s*\}\s*\)`)
)

// FixAtLine applies the empty-handler rewrite textually at line. It is the
// fallback when the parser found no structural match there.
func (f *File) FixAtLine(line int) (domain.Hunk, bool, error) {
	text := f.Line(line)
	if text == "" {
		return domain.Hunk{}, false, nil
	}
	base := LeadingWhitespace(text)

	if loc := textEmptyRejected.FindStringSubmatchIndex(text); loc != nil {
		param := group(text, loc, 3)
		if param == "" {
			param = group(text, loc, 4)
		}
		params := "(" + param + ")"
		if param == "" {
			param = DefaultErrorParam
			params = "(" + param + ")"
		} else if p := group(text, loc, 2); strings.HasPrefix(p, "(") {
			params = p
		}
		replacement := ".catch(" + group(text, loc, 1) + params + " => " + f.rethrowBlock(base, param, nil, true) + ")"
		h, err := f.ReplaceSpan(lineSpan(line, loc[0], loc[1]), replacement)
		return h, err == nil, err
	}

	if loc := textEmptyCatch.FindStringSubmatchIndex(text); loc != nil {
		start := loc[3]
		param := group(text, loc, 3)
		params := group(text, loc, 2)
		if param == "" {
			param = DefaultErrorParam
			params = "(" + param + ")"
		}
		replacement := "catch " + params + " " + f.rethrowBlock(base, param, nil, true)
		h, err := f.ReplaceSpan(lineSpan(line, start, loc[1]), replacement)
		return h, err == nil, err
	}
	return domain.Hunk{}, false, nil
}

func group(s string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}

func lineSpan(line, from, to int) domain.Span {
	return domain.Span{
		Start: domain.Position{Line: line, Column: from},
		End:   domain.Position{Line: line, Column: to},
	}
}

// Merge orders hunks by start line and drops any hunk overlapping one kept
// earlier in the input. An insertion directly before a replacement that
// starts on the same line is folded into it. It returns the kept hunks and
// the number dropped.
func Merge(hunks []domain.Hunk) ([]domain.Hunk, int) {
	var kept []domain.Hunk
	dropped := 0
	for _, h := range hunks {
		merged := false
		clash := false
		for i, k := range kept {
			if !overlaps(h, k) {
				continue
			}
			if folded, ok := fold(h, k); ok && !merged {
				kept[i] = folded
				merged = true
				continue
			}
			clash = true
			break
		}
		switch {
		case clash:
			dropped++
		case !merged:
			kept = append(kept, h)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].StartLine < kept[j].StartLine })
	return kept, dropped
}

func overlaps(a, b domain.Hunk) bool {
	if a.StartLine == b.StartLine {
		return true
	}
	return a.StartLine <= b.EndLine && b.StartLine <= a.EndLine
}

// fold combines an insertion before line N with a replacement starting at N.
func fold(a, b domain.Hunk) (domain.Hunk, bool) {
	if a.StartLine != b.StartLine {
		return domain.Hunk{}, false
	}
	ins, repl := a, b
	if ins.Removed() != 0 {
		ins, repl = b, a
	}
	if ins.Removed() != 0 || repl.Removed() == 0 {
		return domain.Hunk{}, false
	}
	lines := append(append([]string{}, ins.Lines...), repl.Lines...)
	return domain.Replacement(repl.StartLine, repl.EndLine, lines...), true
}
