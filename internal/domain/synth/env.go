package synth

import (
	"regexp"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
)

// Quote returns the string delimiter the file uses most.
func (f *File) Quote() string {
	if strings.Count(f.Content, `"`) > strings.Count(f.Content, "'") {
		return `"`
	}
	return "'"
}

// EnvGuard renders a fail-fast check for a required environment variable.
func (f *File) EnvGuard(name string) []string {
	q := f.Quote()
	return []string{
		"if (!process.env." + name + ") {",
		f.Indent.Unit() + "throw new Error(" + q + "Missing required environment variable: " + name + q + ");",
		"}",
	}
}

// GuardInsertion places an env guard after line lastImport, or after any
// leading directives when the file has no imports.
func (f *File) GuardInsertion(lastImport int, name string) domain.Hunk {
	at := lastImport
	if at == 0 {
		at = f.directiveEnd()
	}
	lines := f.EnvGuard(name)
	if at > 0 {
		lines = append([]string{""}, lines...)
	}
	if next := f.Line(at + 1); strings.TrimSpace(next) != "" {
		lines = append(lines, "")
	}
	return f.InsertAfter(at, lines...)
}

// directiveEnd returns the last line of a leading shebang or "use ..." prologue.
func (f *File) directiveEnd() int {
	end := 0
	for i, l := range f.Lines {
		t := strings.TrimSpace(l)
		switch {
		case i == 0 && strings.HasPrefix(t, "#!"):
			end = i + 1
		case directivePattern.MatchString(t):
			end = i + 1
		case t == "":
			continue
		default:
			return end
		}
	}
	return end
}

var (
	directivePattern     = regexp.MustCompile(`^['"]use [a-z ]+['"];?$`)
	dotenvSectionPattern = regexp.MustCompile(`^#\s*=+\s*(.+?)\s*=+\s*$`)
)

// EnvEntry is one documented variable for an example env file.
type EnvEntry struct {
	Name        string
	Value       string
	Kind        string
	Description string
	Section     string
}

// Lines renders the entry as a comment plus assignment.
func (e EnvEntry) Lines() []string {
	comment := "# " + e.Kind
	if e.Description != "" {
		comment += " - " + e.Description
	}
	return []string{comment, e.Name + "=" + e.Value}
}

// SectionHeader renders a section title line.
func SectionHeader(title string) string {
	return "# === " + title + " ==="
}

// DotenvDeclares reports whether an env file content assigns name.
func DotenvDeclares(content, name string) bool {
	re := regexp.MustCompile(`(?m)^\s*(?:export\s+)?` + regexp.QuoteMeta(name) + `\s*=`)
	return re.MatchString(content)
}

// NewDotenv renders a fresh example env file holding one entry.
func NewDotenv(e EnvEntry) string {
	lines := append([]string{SectionHeader(e.Section)}, e.Lines()...)
	return strings.Join(lines, "\n") + "\n"
}

// DotenvInsert builds the hunk that adds e at the end of its section, or
// appends a new section when the file has none with that title.
func (f *File) DotenvInsert(e EnvEntry) domain.Hunk {
	header := -1
	for i, l := range f.Lines {
		if m := dotenvSectionPattern.FindStringSubmatch(strings.TrimSpace(l)); m != nil && strings.EqualFold(m[1], e.Section) {
			header = i + 1
			break
		}
	}

	if header < 0 {
		var lines []string
		if n := len(f.Lines); n > 0 && strings.TrimSpace(f.Lines[n-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, SectionHeader(e.Section))
		lines = append(lines, e.Lines()...)
		return f.InsertAfter(len(f.Lines), lines...)
	}

	last := header
	for i := header + 1; i <= len(f.Lines); i++ {
		t := strings.TrimSpace(f.Line(i))
		if dotenvSectionPattern.MatchString(t) {
			break
		}
		if t != "" {
			last = i
		}
	}
	lines := e.Lines()
	if last != header {
		lines = append([]string{""}, lines...)
	}
	return f.InsertAfter(last, lines...)
}
