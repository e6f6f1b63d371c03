package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
)

// PatchSource records who authored a patch. AI-authored patches are held to
// stricter rules by the validator.
type PatchSource string

const (
	SourceModule PatchSource = "module"
	SourceAI     PatchSource = "ai"
)

// Hunk replaces the original lines StartLine..EndLine (1-based, inclusive)
// with Lines. A pure insertion before line N has StartLine N and EndLine N-1.
type Hunk struct {
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Lines     []string `json:"lines"`
}

// Insertion returns a hunk inserting lines before line n.
func Insertion(n int, lines ...string) Hunk {
	return Hunk{StartLine: n, EndLine: n - 1, Lines: lines}
}

// Replacement returns a hunk replacing lines start..end.
func Replacement(start, end int, lines ...string) Hunk {
	return Hunk{StartLine: start, EndLine: end, Lines: lines}
}

// Removed is the number of original lines the hunk replaces.
func (h Hunk) Removed() int { return h.EndLine - h.StartLine + 1 }

// Provenance carries the non-content attributes of a patch.
type Provenance struct {
	IssueID      string
	ModuleID     string
	Source       PatchSource
	Confidence   float64
	ManualReview bool
	Note         string
}

// Patch is a proposed change to exactly one file. Patches are built through
// NewPatch or NewReplacement and must not be modified afterwards.
type Patch struct {
	ID              string      `json:"id"`
	FilePath        string      `json:"file_path"`
	Hunks           []Hunk      `json:"hunks,omitempty"`
	OriginalContent string      `json:"-"`
	NewContent      string      `json:"-"`
	IssueID         string      `json:"issue_id"`
	ModuleID        string      `json:"module_id"`
	Source          PatchSource `json:"source"`
	Confidence      float64     `json:"confidence"`
	ManualReview    bool        `json:"manual_review,omitempty"`
	Note            string      `json:"note,omitempty"`
	Create          bool        `json:"create,omitempty"`
}

// NewPatch derives NewContent by applying hunks to original.
func NewPatch(filePath, original string, hunks []Hunk, p Provenance) (*Patch, error) {
	if len(hunks) == 0 {
		return nil, fmt.Errorf("patch for %s has no hunks", filePath)
	}
	updated, err := ApplyHunks(original, hunks)
	if err != nil {
		return nil, fmt.Errorf("patch for %s: %w", filePath, err)
	}
	sorted := append([]Hunk(nil), hunks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartLine < sorted[j].StartLine })
	return newPatch(filePath, original, updated, sorted, false, p), nil
}

// NewReplacement builds a full-file patch with zero hunks. create marks a
// file that does not exist yet.
func NewReplacement(filePath, original, updated string, create bool, p Provenance) *Patch {
	return newPatch(filePath, original, updated, nil, create, p)
}

func newPatch(filePath, original, updated string, hunks []Hunk, create bool, p Provenance) *Patch {
	source := p.Source
	if source == "" {
		source = SourceModule
	}
	return &Patch{
		ID:              uuid.NewString(),
		FilePath:        filePath,
		Hunks:           hunks,
		OriginalContent: original,
		NewContent:      updated,
		IssueID:         p.IssueID,
		ModuleID:        p.ModuleID,
		Source:          source,
		Confidence:      p.Confidence,
		ManualReview:    p.ManualReview,
		Note:            p.Note,
		Create:          create,
	}
}

// IsReplacement reports whether the patch carries full content instead of hunks.
func (p *Patch) IsReplacement() bool { return len(p.Hunks) == 0 }

// Changes returns the removed and added lines of the patch, with unchanged
// leading and trailing lines of each hunk trimmed away.
func (p *Patch) Changes() (removed, added []string) {
	if p.IsReplacement() {
		return diffChanges(p.OriginalContent, p.NewContent)
	}
	orig := SplitLines(p.OriginalContent)
	for _, h := range p.Hunks {
		old := orig[h.StartLine-1 : h.EndLine]
		r, a := trimCommon(old, h.Lines)
		removed = append(removed, r...)
		added = append(added, a...)
	}
	return removed, added
}

// ChangedLines is the number of removed plus added lines.
func (p *Patch) ChangedLines() int {
	removed, added := p.Changes()
	return len(removed) + len(added)
}

// ChangedBytes is the byte size of removed plus added lines.
func (p *Patch) ChangedBytes() int {
	removed, added := p.Changes()
	n := 0
	for _, l := range removed {
		n += len(l)
	}
	for _, l := range added {
		n += len(l)
	}
	return n
}

// AddedText joins the lines this patch introduces.
func (p *Patch) AddedText() string {
	_, added := p.Changes()
	return strings.Join(added, "\n")
}

// UnifiedDiff renders the patch as a unified diff.
func (p *Patch) UnifiedDiff() string {
	from := "a/" + p.FilePath
	if p.Create {
		from = "/dev/null"
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(p.OriginalContent),
		B:        difflib.SplitLines(p.NewContent),
		FromFile: from,
		ToFile:   "b/" + p.FilePath,
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return diff
}

func trimCommon(old, updated []string) ([]string, []string) {
	for len(old) > 0 && len(updated) > 0 && old[0] == updated[0] {
		old, updated = old[1:], updated[1:]
	}
	for len(old) > 0 && len(updated) > 0 && old[len(old)-1] == updated[len(updated)-1] {
		old, updated = old[:len(old)-1], updated[:len(updated)-1]
	}
	return old, updated
}

func diffChanges(original, updated string) (removed, added []string) {
	a := SplitLines(original)
	b := SplitLines(updated)
	m := difflib.NewMatcher(a, b)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		removed = append(removed, a[op.I1:op.I2]...)
		added = append(added, b[op.J1:op.J2]...)
	}
	return removed, added
}

// ApplyHunks applies non-overlapping hunks to content, highest line first so
// earlier hunks never shift the anchors of later ones. Each untouched line
// keeps its own terminator; inserted lines use the file's dominant one.
func ApplyHunks(content string, hunks []Hunk) (string, error) {
	lines := splitKeepEOL(content)
	eol := DetectEOL(content)

	sorted := append([]Hunk(nil), hunks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartLine < sorted[j].StartLine })
	for i, h := range sorted {
		if h.StartLine < 1 || h.StartLine > len(lines)+1 {
			return "", fmt.Errorf("hunk start line %d out of range (1..%d)", h.StartLine, len(lines)+1)
		}
		if h.EndLine < h.StartLine-1 || h.EndLine > len(lines) {
			return "", fmt.Errorf("hunk end line %d out of range for start %d", h.EndLine, h.StartLine)
		}
		if i > 0 {
			prev := sorted[i-1]
			if h.StartLine <= prev.EndLine || h.StartLine == prev.StartLine {
				return "", fmt.Errorf("hunks at lines %d and %d overlap", prev.StartLine, h.StartLine)
			}
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		h := sorted[i]
		atEnd := h.EndLine == len(lines)
		lastUnterminated := len(lines) > 0 && !strings.HasSuffix(lines[len(lines)-1], "\n")

		repl := make([]string, len(h.Lines))
		for k, l := range h.Lines {
			repl[k] = l + eol
		}
		if atEnd && lastUnterminated {
			switch {
			case len(repl) > 0 && h.Removed() > 0:
				repl[len(repl)-1] = strings.TrimSuffix(repl[len(repl)-1], eol)
			case len(repl) > 0:
				lines[len(lines)-1] += eol
				repl[len(repl)-1] = strings.TrimSuffix(repl[len(repl)-1], eol)
			}
		}

		tail := append([]string(nil), lines[h.EndLine:]...)
		lines = append(append(lines[:h.StartLine-1], repl...), tail...)
	}
	return strings.Join(lines, ""), nil
}

// SplitLines splits content into lines without terminators.
func SplitLines(content string) []string {
	raw := splitKeepEOL(content)
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = strings.TrimSuffix(strings.TrimSuffix(l, "\n"), "\r")
	}
	return out
}

// DetectEOL returns "\r\n" when most lines end that way, "\n" otherwise.
func DetectEOL(content string) string {
	lf := strings.Count(content, "\n")
	crlf := strings.Count(content, "\r\n")
	if crlf > 0 && crlf*2 >= lf {
		return "\r\n"
	}
	return "\n"
}

func splitKeepEOL(s string) []string {
	var out []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

// RejectedPatch wraps a patch the validator or conflict resolution refused.
type RejectedPatch struct {
	Patch      *Patch      `json:"patch"`
	Reasons    []Violation `json:"reasons"`
	Confidence float64     `json:"confidence"`
}

// Violation is one failed rule.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

const (
	RuleMaxLines        = "max-lines"
	RuleMaxBytes        = "max-bytes"
	RuleMaxFiles        = "max-files"
	RuleBlockedPath     = "blocked-path"
	RuleProtectedPath   = "protected-path"
	RuleDangerous       = "dangerous-pattern"
	RuleSecret          = "secret"
	RulePlaceholder     = "placeholder"
	RuleConfidenceFloor = "confidence-floor"
	RuleConflict        = "conflicting-edit"
)

// HasRule reports whether any reason cites rule.
func (r RejectedPatch) HasRule(rule string) bool {
	for _, v := range r.Reasons {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
