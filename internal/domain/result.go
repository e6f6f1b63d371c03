package domain

import "sort"

// Skip reasons recorded for issues that produced no patch.
const (
	SkipNoModule    = "no-capable-module"
	SkipDeclined    = "declined"
	SkipIssueLimit  = "issue-limit"
	SkipUnknownType = "unknown-issue-type"
)

// Error phases.
const (
	PhaseGenerate = "generate"
	PhaseWrite    = "write"
)

// AppliedFix is a patch that was written (or would have been, in a dry run).
type AppliedFix struct {
	Patch           *Patch   `json:"patch"`
	IssueID         string   `json:"issue_id"`
	ResolvedIssues  []string `json:"resolved_issues,omitempty"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence"`
	Warnings        []string `json:"warnings,omitempty"`
	ManualReview    bool     `json:"manual_review,omitempty"`
	RecheckRequired bool     `json:"recheck_required,omitempty"`
}

// ModuleError records a module fault or a write fault.
type ModuleError struct {
	ModuleID string `json:"module_id"`
	IssueID  string `json:"issue_id,omitempty"`
	Phase    string `json:"phase"`
	Message  string `json:"message"`
}

// SkippedIssue is an issue that produced no candidate patch.
type SkippedIssue struct {
	IssueID  string    `json:"issue_id"`
	Type     IssueType `json:"type"`
	Reason   string    `json:"reason"`
	ModuleID string    `json:"module_id,omitempty"`
}

// AutoFixResult is the outcome of one engine run. Every failure mode is
// represented here; nothing escapes the run as a Go error.
type AutoFixResult struct {
	RunID      string          `json:"run_id"`
	DryRun     bool            `json:"dry_run"`
	CommitHash string          `json:"commit_hash,omitempty"`
	Applied    []AppliedFix    `json:"applied_fixes"`
	Rejected   []RejectedPatch `json:"rejected_fixes"`
	Errors     []ModuleError   `json:"errors"`
	Skipped    []SkippedIssue  `json:"skipped"`
}

// Summary holds the counts external reporting layers render.
type Summary struct {
	Applied      int  `json:"applied"`
	Rejected     int  `json:"rejected"`
	Errors       int  `json:"errors"`
	Skipped      int  `json:"skipped"`
	ManualReview int  `json:"manual_review"`
	FilesChanged int  `json:"files_changed"`
	DryRun       bool `json:"dry_run"`
	Partial      bool `json:"partial"`
}

// Partial reports whether anything was not applied.
func (r *AutoFixResult) Partial() bool {
	return len(r.Errors) > 0 || len(r.Rejected) > 0
}

// Summary counts the result's entries.
func (r *AutoFixResult) Summary() Summary {
	s := Summary{
		Applied:  len(r.Applied),
		Rejected: len(r.Rejected),
		Errors:   len(r.Errors),
		Skipped:  len(r.Skipped),
		DryRun:   r.DryRun,
		Partial:  r.Partial(),
	}
	files := make(map[string]bool)
	for _, a := range r.Applied {
		files[a.Patch.FilePath] = true
		if a.ManualReview {
			s.ManualReview++
		}
	}
	s.FilesChanged = len(files)
	return s
}

// ChangedFiles lists the distinct files of applied fixes, sorted.
func (r *AutoFixResult) ChangedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, a := range r.Applied {
		if !seen[a.Patch.FilePath] {
			seen[a.Patch.FilePath] = true
			files = append(files, a.Patch.FilePath)
		}
	}
	sort.Strings(files)
	return files
}

// Report is the serializable reporting contract.
type Report struct {
	RunID      string           `json:"run_id"`
	CommitHash string           `json:"commit_hash,omitempty"`
	Summary    Summary          `json:"summary"`
	Fixes      []FixReport      `json:"fixes"`
	Rejected   []RejectedReport `json:"rejected"`
	Errors     []ModuleError    `json:"errors"`
	Skipped    []SkippedIssue   `json:"skipped"`
}

// FixReport describes one applied fix.
type FixReport struct {
	IssueID        string   `json:"issue_id"`
	ResolvedIssues []string `json:"resolved_issues,omitempty"`
	Module         string   `json:"module"`
	File           string   `json:"file"`
	Description    string   `json:"description"`
	Confidence     float64  `json:"confidence"`
	ManualReview   bool     `json:"manual_review,omitempty"`
	Recheck        bool     `json:"recheck_required,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	ChangedLines   int      `json:"changed_lines"`
	Diff           string   `json:"diff,omitempty"`
}

// RejectedReport describes one rejected patch.
type RejectedReport struct {
	IssueID    string      `json:"issue_id"`
	Module     string      `json:"module"`
	File       string      `json:"file"`
	Confidence float64     `json:"confidence"`
	Reasons    []Violation `json:"reasons"`
}

// Report flattens the result. Diffs are included when withDiff is set.
func (r *AutoFixResult) Report(withDiff bool) Report {
	rep := Report{
		RunID:      r.RunID,
		CommitHash: r.CommitHash,
		Summary:    r.Summary(),
		Fixes:      make([]FixReport, 0, len(r.Applied)),
		Rejected:   make([]RejectedReport, 0, len(r.Rejected)),
		Errors:     append([]ModuleError{}, r.Errors...),
		Skipped:    append([]SkippedIssue{}, r.Skipped...),
	}
	for _, a := range r.Applied {
		fr := FixReport{
			IssueID:        a.IssueID,
			ResolvedIssues: a.ResolvedIssues,
			Module:         a.Patch.ModuleID,
			File:           a.Patch.FilePath,
			Description:    a.Description,
			Confidence:     a.Confidence,
			ManualReview:   a.ManualReview,
			Recheck:        a.RecheckRequired,
			Warnings:       a.Warnings,
			ChangedLines:   a.Patch.ChangedLines(),
		}
		if withDiff {
			fr.Diff = a.Patch.UnifiedDiff()
		}
		rep.Fixes = append(rep.Fixes, fr)
	}
	for _, rj := range r.Rejected {
		rep.Rejected = append(rep.Rejected, RejectedReport{
			IssueID:    rj.Patch.IssueID,
			Module:     rj.Patch.ModuleID,
			File:       rj.Patch.FilePath,
			Confidence: rj.Confidence,
			Reasons:    rj.Reasons,
		})
	}
	return rep
}

// RunEntry is one persisted run summary.
type RunEntry struct {
	Timestamp  string `json:"timestamp"`
	RunID      string `json:"run_id"`
	CommitHash string `json:"commit_hash,omitempty"`
	Applied    int    `json:"applied"`
	Rejected   int    `json:"rejected"`
	Errors     int    `json:"errors"`
	Skipped    int    `json:"skipped"`
}
