package synth

import (
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
)

// ImportSpec is one named binding to import from a module.
type ImportSpec struct {
	Name string
	From string
}

// AuthGuard is a guard to run first in a request handler, plus the imports
// it needs.
type AuthGuard struct {
	Imports []ImportSpec
	// Lines are relative to the handler body; nested lines carry one Unit.
	Lines []string
}

func unauthorized(q string) string {
	return "return new Response(" + q + "Unauthorized" + q + ", { status: 401 });"
}

// SessionGuard checks a next-auth server session.
func (f *File) SessionGuard() AuthGuard {
	q := f.Quote()
	return AuthGuard{
		Imports: []ImportSpec{{Name: "getServerSession", From: "next-auth"}},
		Lines: []string{
			"const session = await getServerSession();",
			"if (!session) {",
			f.Indent.Unit() + unauthorized(q),
			"}",
		},
	}
}

// ClerkGuard checks the Clerk user id.
func (f *File) ClerkGuard() AuthGuard {
	q := f.Quote()
	return AuthGuard{
		Imports: []ImportSpec{{Name: "auth", From: "@clerk/nextjs/server"}},
		Lines: []string{
			"const { userId } = await auth();",
			"if (!userId) {",
			f.Indent.Unit() + unauthorized(q),
			"}",
		},
	}
}

// SupabaseGuard checks the Supabase user of the request cookies.
func (f *File) SupabaseGuard() AuthGuard {
	q := f.Quote()
	return AuthGuard{
		Imports: []ImportSpec{
			{Name: "createRouteHandlerClient", From: "@supabase/auth-helpers-nextjs"},
			{Name: "cookies", From: "next/headers"},
		},
		Lines: []string{
			"const supabase = createRouteHandlerClient({ cookies });",
			"const { data: { user } } = await supabase.auth.getUser();",
			"if (!user) {",
			f.Indent.Unit() + unauthorized(q),
			"}",
		},
	}
}

// FunctionGuard calls a project guard function with the request argument.
func (f *File) FunctionGuard(fn, importPath, arg string, async bool) AuthGuard {
	call := fn + "(" + arg + ");"
	if async {
		call = "await " + call
	}
	g := AuthGuard{Lines: []string{call}}
	if importPath != "" {
		g.Imports = []ImportSpec{{Name: fn, From: importPath}}
	}
	return g
}

// PrependToBlock inserts lines as the first statements of a block. ok is
// false when the block layout offers no line to insert at.
func (f *File) PrependToBlock(body, first domain.Span, lines []string) (domain.Hunk, bool, error) {
	if first.Start.Line > 0 {
		line := f.Line(first.Start.Line)
		if first.Start.Column > len(line) || strings.TrimSpace(line[:first.Start.Column]) != "" {
			return domain.Hunk{}, false, nil
		}
		indent := f.IndentOf(first.Start.Line)
		return f.InsertBefore(first.Start.Line, prefix(indent, lines)...), true, nil
	}

	inner := strings.TrimSpace(body.Text)
	if inner != "{}" && strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(inner, "{"), "}")) != "" {
		return domain.Hunk{}, false, nil
	}
	base := f.IndentOf(body.Start.Line)
	if body.End.Line > body.Start.Line {
		base = f.IndentOf(body.End.Line)
	}
	text := "{\n" + strings.Join(prefix(base+f.Indent.Unit(), lines), "\n") + "\n" + base + "}"
	h, err := f.ReplaceSpan(body, text)
	return h, err == nil, err
}

// ImportInsertion adds the specs the file does not import yet after the
// last import, or at the top of the file after any directives. ok is false
// when nothing is missing.
func (f *File) ImportInsertion(lastImport int, specs []ImportSpec) (domain.Hunk, bool) {
	var lines []string
	for _, s := range specs {
		if !f.HasImport(s.Name, s.From) {
			lines = append(lines, f.ImportLine(s))
		}
	}
	if len(lines) == 0 {
		return domain.Hunk{}, false
	}
	at := lastImport
	if at == 0 {
		at = f.directiveEnd()
	}
	if lastImport == 0 && strings.TrimSpace(f.Line(at+1)) != "" {
		lines = append(lines, "")
	}
	return f.InsertAfter(at, lines...), true
}

// ImportLine renders spec in the module style the file already uses.
func (f *File) ImportLine(spec ImportSpec) string {
	q := f.Quote()
	if f.commonJS() {
		return "const { " + spec.Name + " } = require(" + q + spec.From + q + ");"
	}
	return "import { " + spec.Name + " } from " + q + spec.From + q + ";"
}

func (f *File) commonJS() bool {
	if !strings.Contains(f.Content, "require(") {
		return false
	}
	for _, l := range f.Lines {
		if strings.HasPrefix(strings.TrimSpace(l), "import ") {
			return false
		}
	}
	return true
}

// InsertArgument places text before the argument at span, on its line.
func (f *File) InsertArgument(arg domain.Span, text string) (domain.Hunk, error) {
	return f.ReplaceSpan(domain.Span{Start: arg.Start, End: arg.Start}, text)
}

// HasImport reports whether the file already imports name from module.
func (f *File) HasImport(name, module string) bool {
	quoted := []string{"'" + module + "'", `"` + module + `"`}
	for _, l := range f.Lines {
		t := strings.TrimSpace(l)
		if !strings.Contains(t, name) || !(strings.HasPrefix(t, "import") || strings.Contains(t, "require(")) {
			continue
		}
		for _, q := range quoted {
			if strings.Contains(t, q) {
				return true
			}
		}
	}
	return false
}

func prefix(indent string, lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = indent + l
	}
	return out
}
