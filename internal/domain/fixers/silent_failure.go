package fixers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/synth"
)

// SilentFailure makes swallowed errors visible: empty and log-only catch
// handlers re-throw, empty rejection handlers log and re-throw, and success
// calls that run after a failing try block are marked for review.
//
// Re-throws and review markers are separate patches so a marker awaiting
// review never lowers the confidence of a safe rewrite. Each patch covers
// every pattern of its kind in the file, so issues on the same file produce
// identical patches and fold into one applied fix.
type SilentFailure struct {
	analyzer domain.SourceAnalyzer
}

// NewSilentFailure builds the module on top of a source analyzer.
func NewSilentFailure(analyzer domain.SourceAnalyzer) *SilentFailure {
	return &SilentFailure{analyzer: analyzer}
}

func (m *SilentFailure) ID() string { return domain.ModuleSilentFailure }

func (m *SilentFailure) IssueTypes() []domain.IssueType {
	return []domain.IssueType{domain.IssueSilentFailure, domain.IssueFakeSuccess}
}

func (m *SilentFailure) Confidence() domain.Confidence { return domain.ConfidenceHigh }

func (m *SilentFailure) CanFix(issue domain.Issue) bool {
	return handles(m, issue.Type) && issue.FilePath != "" && m.analyzer.Supports(issue.FilePath)
}

func (m *SilentFailure) FixDescription(issue domain.Issue) string {
	if issue.Type == domain.IssueFakeSuccess {
		return fmt.Sprintf("Mark success indicator in %s for review; it runs even when the operation fails", issue.FilePath)
	}
	return fmt.Sprintf("Re-throw swallowed errors in %s", issue.FilePath)
}

func (m *SilentFailure) GenerateFix(ctx context.Context, issue domain.Issue, fctx *domain.FixContext) (*domain.Patch, error) {
	content, err := fctx.Files.Read(issue.FilePath)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", issue.FilePath, err)
	}

	matches, err := m.analyzer.SilentFailures(ctx, issue.FilePath, content)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].StartLine > matches[j].StartLine })

	if m.wantsMarker(issue, matches) {
		return m.markerPatch(issue, content, matches)
	}
	return m.rethrowPatch(issue, content, matches)
}

// wantsMarker reports whether issue points at a success call rather than a
// swallowing handler.
func (m *SilentFailure) wantsMarker(issue domain.Issue, matches []domain.PatternMatch) bool {
	if issue.Type == domain.IssueFakeSuccess {
		return true
	}
	if issue.Line == 0 {
		return false
	}
	marker := false
	for _, match := range matches {
		if issue.Line < match.StartLine || issue.Line > match.EndLine {
			continue
		}
		if match.Type != domain.PatternSuccessAfterTry {
			return false
		}
		marker = true
	}
	return marker
}

func (m *SilentFailure) rethrowPatch(issue domain.Issue, content string, matches []domain.PatternMatch) (*domain.Patch, error) {
	f := synth.NewFile(issue.FilePath, content)
	var hunks []domain.Hunk
	covered := issue.Line == 0
	fixed, deferred := 0, 0
	for _, match := range matches {
		if match.Type == domain.PatternSuccessAfterTry {
			continue
		}
		if issue.Line >= match.StartLine && issue.Line <= match.EndLine {
			covered = true
		}
		hs, ok, err := f.FixPattern(match)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !accept(&hunks, hs) {
			deferred++
			continue
		}
		fixed++
	}

	if !covered {
		h, ok, err := f.FixAtLine(issue.Line)
		if err != nil {
			return nil, err
		}
		if !ok || !accept(&hunks, []domain.Hunk{h}) {
			return nil, nil
		}
		fixed++
	}
	if len(hunks) == 0 {
		return nil, nil
	}

	note := fmt.Sprintf("%d handler(s) re-throw", fixed)
	if deferred > 0 {
		note += fmt.Sprintf(", %d sharing a line left for a later run", deferred)
	}
	return domain.NewPatch(issue.FilePath, content, hunks, domain.Provenance{
		IssueID:    issue.ID,
		ModuleID:   m.ID(),
		Confidence: m.Confidence().Score(),
		Note:       note,
	})
}

func (m *SilentFailure) markerPatch(issue domain.Issue, content string, matches []domain.PatternMatch) (*domain.Patch, error) {
	f := synth.NewFile(issue.FilePath, content)
	var hunks []domain.Hunk
	marked := 0
	for _, match := range matches {
		if match.Type != domain.PatternSuccessAfterTry {
			continue
		}
		hs, ok, err := f.FixPattern(match)
		if err != nil {
			return nil, err
		}
		if ok && accept(&hunks, hs) {
			marked++
		}
	}
	if marked == 0 {
		return nil, nil
	}
	return domain.NewPatch(issue.FilePath, content, hunks, domain.Provenance{
		IssueID:      issue.ID,
		ModuleID:     m.ID(),
		Confidence:   domain.ConfidenceLow.Score(),
		ManualReview: true,
		Note:         fmt.Sprintf("%d success call(s) marked for review", marked),
	})
}

// accept adds one pattern's hunks to hunks unless any of them would overlap
// an edit already accepted. A pattern is taken whole or not at all.
func accept(hunks *[]domain.Hunk, hs []domain.Hunk) bool {
	merged, dropped := synth.Merge(append(append([]domain.Hunk{}, *hunks...), hs...))
	if dropped > 0 {
		return false
	}
	*hunks = merged
	return true
}
