package fixers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/synth"
)

var routeInMessage = regexp.MustCompile("[\"'`](/[^\"'`\\s]*)[\"'`]|(?:^|\\s)(/[\\w\\-/:.\\[\\]{}]+)")

// GhostRoute repoints a reference to a route that does not exist at the
// closest route the truthpack knows about.
type GhostRoute struct {
	analyzer domain.SourceAnalyzer
}

// NewGhostRoute builds the module on top of a source analyzer.
func NewGhostRoute(analyzer domain.SourceAnalyzer) *GhostRoute {
	return &GhostRoute{analyzer: analyzer}
}

func (m *GhostRoute) ID() string { return domain.ModuleGhostRoute }

func (m *GhostRoute) IssueTypes() []domain.IssueType {
	return []domain.IssueType{domain.IssueGhostRoute}
}

func (m *GhostRoute) Confidence() domain.Confidence { return domain.ConfidenceLow }

func (m *GhostRoute) CanFix(issue domain.Issue) bool {
	return handles(m, issue.Type) && issue.FilePath != "" && m.analyzer.Supports(issue.FilePath) && routeOf(issue) != ""
}

func (m *GhostRoute) FixDescription(issue domain.Issue) string {
	return fmt.Sprintf("Point reference to unknown route %s at the closest known route", routeOf(issue))
}

func (m *GhostRoute) GenerateFix(ctx context.Context, issue domain.Issue, fctx *domain.FixContext) (*domain.Patch, error) {
	route := routeOf(issue)
	target, ok := NearestRoute(route, strings.ToUpper(issue.Meta("method")), fctx.Truthpack.KnownRoutes())
	if !ok {
		return nil, nil
	}

	content, err := fctx.Files.Read(issue.FilePath)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", issue.FilePath, err)
	}
	lits, err := m.analyzer.StringLiterals(ctx, issue.FilePath, content)
	if err != nil {
		return nil, err
	}

	lit, found, dist := domain.StringLiteral{}, false, 0
	for _, l := range lits {
		if l.Value != route {
			continue
		}
		d := l.Span.Start.Line - issue.Line
		if d < 0 {
			d = -d
		}
		if issue.Line == 0 {
			d = 0
		}
		if !found || d < dist {
			lit, found, dist = l, true, d
		}
	}
	if !found || strings.Contains(target, lit.Quote) {
		return nil, nil
	}

	f := synth.NewFile(issue.FilePath, content)
	h, err := f.ReplaceSpan(lit.Span, lit.Quote+target+lit.Quote)
	if err != nil {
		return nil, err
	}
	return domain.NewPatch(issue.FilePath, content, []domain.Hunk{h}, domain.Provenance{
		IssueID:    issue.ID,
		ModuleID:   m.ID(),
		Confidence: m.Confidence().Score(),
		Note:       route + " -> " + target,
	})
}

// NearestRoute returns the known route closest to route by edit distance.
// Candidates must be within a third of the route's length and, when method
// is known, serve that method. An exact match means the route is not a
// ghost and yields no suggestion.
func NearestRoute(route, method string, known []domain.RouteFact) (string, bool) {
	best, found, bestDist := "", false, 0
	for _, r := range known {
		if method != "" && r.Method != "" && !strings.EqualFold(r.Method, method) {
			continue
		}
		if r.Path == route {
			return "", false
		}
		d := levenshtein.ComputeDistance(route, r.Path)
		if d*3 > len(route) {
			continue
		}
		if !found || d < bestDist {
			best, found, bestDist = r.Path, true, d
		}
	}
	return best, found
}

func routeOf(issue domain.Issue) string {
	if r := issue.Meta("route", "path", "url"); r != "" {
		return r
	}
	m := routeInMessage.FindStringSubmatch(issue.Message)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
