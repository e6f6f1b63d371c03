// Package validator gates candidate patches against the run's safety policy.
// Every rule runs on every patch so callers see all violations at once.
package validator

import (
	"fmt"
	"path"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/bmatcuk/doublestar/v4"
)

// DangerousConfidenceCap is the confidence ceiling of a patch that adds a
// dangerous operation.
const DangerousConfidenceCap = 0.3

// Verdict is the outcome of validating one patch.
type Verdict struct {
	Approved   bool               `json:"approved"`
	Reasons    []domain.Violation `json:"reasons,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	Confidence float64            `json:"confidence"`
}

// Validator checks patches. It holds no run state and is safe for
// concurrent use when its SecretScanner is.
type Validator struct {
	secrets domain.SecretScanner
}

// New creates a Validator. secrets may be nil.
func New(secrets domain.SecretScanner) *Validator {
	return &Validator{secrets: secrets}
}

// Validate runs all rules against p. touched holds the files already
// approved earlier in the run.
func (v *Validator) Validate(p *domain.Patch, policy domain.AutoFixPolicy, touched map[string]bool) Verdict {
	verdict := Verdict{Confidence: p.Confidence}
	reject := func(rule, format string, args ...any) {
		verdict.Reasons = append(verdict.Reasons, domain.Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	// 1. size
	removed, added := p.Changes()
	if n := len(removed) + len(added); n > policy.MaxLinesPerFix {
		reject(domain.RuleMaxLines, "%d changed lines exceed the limit of %d", n, policy.MaxLinesPerFix)
	}
	if n := byteSize(removed) + byteSize(added); n > policy.MaxBytesPerFix {
		reject(domain.RuleMaxBytes, "%d changed bytes exceed the limit of %d", n, policy.MaxBytesPerFix)
	}

	// 2. run-wide file count
	files := len(touched)
	if !touched[p.FilePath] {
		files++
	}
	if files > policy.MaxFilesPerFix {
		reject(domain.RuleMaxFiles, "run would touch %d files, limit is %d", files, policy.MaxFilesPerFix)
	}

	// 3. paths
	if glob, ok := Blocked(p.FilePath, policy.BlockedPaths); ok {
		reject(domain.RuleBlockedPath, "%s matches blocked path %q", p.FilePath, glob)
	}
	if why, ok := Protected(p.FilePath); ok {
		reject(domain.RuleProtectedPath, "%s is protected (%s)", p.FilePath, why)
	}

	// 4. content of the added text only
	text := strings.Join(added, "\n")

	var dangerous []domain.Violation
	for _, hit := range scan(dangerousRules, text) {
		dangerous = append(dangerous, domain.Violation{
			Rule:    domain.RuleDangerous,
			Message: fmt.Sprintf("added line %d performs %s", hit.line, hit.rule),
		})
	}
	if len(dangerous) > 0 && verdict.Confidence > DangerousConfidenceCap {
		verdict.Confidence = DangerousConfidenceCap
	}

	for _, hit := range scan(secretRules, text) {
		reject(domain.RuleSecret, "added line %d contains a %s", hit.line, hit.rule)
	}
	if v.secrets != nil {
		for _, f := range v.secrets.Scan(text) {
			reject(domain.RuleSecret, "added line %d matches secret rule %s", f.Line, f.RuleID)
		}
	}

	for _, hit := range scan(placeholderRules, text) {
		reject(domain.RulePlaceholder, "added line %d contains a %s", hit.line, hit.rule)
	}

	// 5. confidence floors
	belowFloor := verdict.Confidence < policy.MinFloor()
	switch {
	case belowFloor:
		reject(domain.RuleConfidenceFloor, "confidence %.2f is below the minimum %.2f", verdict.Confidence, policy.MinFloor())
	case verdict.Confidence < policy.WarnFloor():
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("confidence %.2f is below %.2f; review recommended", verdict.Confidence, policy.WarnFloor()))
	}

	if len(dangerous) > 0 {
		if p.Source == domain.SourceAI || belowFloor {
			verdict.Reasons = append(verdict.Reasons, dangerous...)
		} else {
			for _, d := range dangerous {
				verdict.Warnings = append(verdict.Warnings, d.Rule+": "+d.Message)
			}
		}
	}

	verdict.Approved = len(verdict.Reasons) == 0
	return verdict
}

// Blocked returns the first policy glob matching p.
func Blocked(p string, globs []string) (string, bool) {
	clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, clean); ok {
			return g, true
		}
		if !strings.Contains(g, "/") {
			if ok, _ := doublestar.Match(g, path.Base(clean)); ok {
				return g, true
			}
		}
	}
	return "", false
}

func byteSize(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	return n
}
