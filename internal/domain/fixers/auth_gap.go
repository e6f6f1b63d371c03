package fixers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/synth"
)

// knownGuards are calls that already authenticate a request.
var knownGuards = map[string]bool{
	"getServerSession": true,
	"auth":             true,
	"currentUser":      true,
	"getAuth":          true,
	"getSession":       true,
	"getUser":          true,
	"requireAuth":      true,
	"requireUser":      true,
	"withAuth":         true,
	"verifyToken":      true,
}

// AuthGap guards an unauthenticated route handler with the project's own
// auth mechanism, as recorded in the truthpack. It never invents one.
type AuthGap struct {
	analyzer domain.SourceAnalyzer
}

// NewAuthGap builds the module on top of a source analyzer.
func NewAuthGap(analyzer domain.SourceAnalyzer) *AuthGap {
	return &AuthGap{analyzer: analyzer}
}

func (m *AuthGap) ID() string { return domain.ModuleAuthGap }

func (m *AuthGap) IssueTypes() []domain.IssueType {
	return []domain.IssueType{domain.IssueAuthGap}
}

func (m *AuthGap) Confidence() domain.Confidence { return domain.ConfidenceMedium }

func (m *AuthGap) CanFix(issue domain.Issue) bool {
	return handles(m, issue.Type) && issue.FilePath != "" && m.analyzer.Supports(issue.FilePath)
}

func (m *AuthGap) FixDescription(issue domain.Issue) string {
	route := strings.TrimSpace(issue.Meta("method") + " " + issue.Meta("route", "path"))
	if route == "" {
		route = "route handler"
	}
	return fmt.Sprintf("Require authentication for %s in %s", route, issue.FilePath)
}

func (m *AuthGap) GenerateFix(ctx context.Context, issue domain.Issue, fctx *domain.FixContext) (*domain.Patch, error) {
	tp := fctx.Truthpack
	if tp == nil || !hasAuthFacts(tp.Auth) {
		return nil, nil
	}

	content, err := fctx.Files.Read(issue.FilePath)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", issue.FilePath, err)
	}
	handlers, err := m.analyzer.RouteHandlers(ctx, issue.FilePath, content)
	if err != nil {
		return nil, err
	}
	h, ok := selectHandler(handlers, issue)
	if !ok {
		return nil, nil
	}
	info, err := m.analyzer.Imports(ctx, issue.FilePath, content)
	if err != nil {
		return nil, err
	}

	f := synth.NewFile(issue.FilePath, content)
	var hunks []domain.Hunk
	var note string
	switch h.Kind {
	case domain.HandlerExport:
		hunks, note, err = exportGuard(f, h, tp, info)
	default:
		hunks, note, err = registrationGuard(f, h, tp.Auth, info)
	}
	if err != nil || len(hunks) == 0 {
		return nil, err
	}

	merged, dropped := synth.Merge(hunks)
	if dropped > 0 {
		return nil, nil
	}
	return domain.NewPatch(issue.FilePath, content, merged, domain.Provenance{
		IssueID:    issue.ID,
		ModuleID:   m.ID(),
		Confidence: m.Confidence().Score(),
		Note:       note,
	})
}

func hasAuthFacts(a domain.AuthFacts) bool {
	return len(a.Providers) > 0 || a.Middleware != "" || a.GuardFunction != ""
}

// selectHandler picks the handler matching the issue's method and route that
// is nearest to the issue line.
func selectHandler(handlers []domain.RouteHandler, issue domain.Issue) (domain.RouteHandler, bool) {
	method := strings.ToUpper(issue.Meta("method"))
	route := issue.Meta("route", "path")

	best, found, dist := domain.RouteHandler{}, false, 0
	for _, h := range handlers {
		if method != "" && h.Method != method && h.Method != "ALL" {
			continue
		}
		if route != "" && h.Kind == domain.HandlerRegistration && h.Route != route {
			continue
		}
		d := h.Line - issue.Line
		if d < 0 {
			d = -d
		}
		if issue.Line == 0 {
			d = 0
		}
		if !found || d < dist {
			best, found, dist = h, true, d
		}
	}
	return best, found
}

func exportGuard(f *synth.File, h domain.RouteHandler, tp *domain.Truthpack, info domain.ImportInfo) ([]domain.Hunk, string, error) {
	fn := tp.Auth.GuardFunction
	for _, c := range h.Calls {
		name := c[strings.LastIndex(c, ".")+1:]
		if knownGuards[name] || (fn != "" && name == fn) {
			return nil, "", nil
		}
	}

	var g synth.AuthGuard
	var note string
	switch {
	case fn != "":
		arg := ""
		if len(h.Params) > 0 {
			arg = h.Params[0]
		}
		g, note = f.FunctionGuard(fn, tp.Auth.GuardImport, arg, h.Async), "guard "+fn
	case !h.Async:
		// The provider guards await the session.
		return nil, "", nil
	case tp.HasProvider("next-auth") || tp.HasProvider("nextauth"):
		g, note = f.SessionGuard(), "next-auth session check"
	case tp.HasProvider("clerk"):
		g, note = f.ClerkGuard(), "clerk user check"
	case tp.HasProvider("supabase"):
		g, note = f.SupabaseGuard(), "supabase user check"
	default:
		return nil, "", nil
	}

	first, ok, err := f.PrependToBlock(h.Body, h.FirstStatement, g.Lines)
	if err != nil || !ok {
		return nil, "", err
	}
	hunks := []domain.Hunk{first}
	if imp, ok := f.ImportInsertion(info.LastLine, g.Imports); ok {
		hunks = append(hunks, imp)
	}
	return hunks, note + " in " + h.Method + " handler", nil
}

func registrationGuard(f *synth.File, h domain.RouteHandler, auth domain.AuthFacts, info domain.ImportInfo) ([]domain.Hunk, string, error) {
	mw := strings.TrimSpace(auth.Middleware)
	if mw == "" || h.FinalHandler.Start.Line == 0 {
		return nil, "", nil
	}
	for _, existing := range h.Middlewares {
		if existing == mw || strings.Contains(strings.ToLower(existing), "auth") {
			return nil, "", nil
		}
	}

	arg, err := f.InsertArgument(h.FinalHandler, mw+", ")
	if err != nil {
		return nil, "", err
	}
	hunks := []domain.Hunk{arg}
	if auth.MiddlewareImport != "" {
		spec := synth.ImportSpec{Name: identRoot(mw), From: auth.MiddlewareImport}
		if imp, ok := f.ImportInsertion(info.LastLine, []synth.ImportSpec{spec}); ok {
			hunks = append(hunks, imp)
		}
	}
	return hunks, fmt.Sprintf("middleware %s on %s %s", mw, h.Method, h.Route), nil
}

// identRoot returns the leading identifier of an expression like
// passport.authenticate('jwt').
func identRoot(expr string) string {
	if i := strings.IndexAny(expr, ".( "); i > 0 {
		return expr[:i]
	}
	return expr
}
