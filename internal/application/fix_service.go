package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/fixers"
	"github.com/abdidvp/patchgate/internal/domain/validator"
	"github.com/abdidvp/patchgate/internal/logging"
)

// FixServiceConfig wires the engine's collaborators.
type FixServiceConfig struct {
	ProjectRoot string
	Files       domain.FileAccess
	Registry    *fixers.Registry
	Validator   *validator.Validator
	Truthpack   *domain.Truthpack
	// Git is optional; without it results carry no commit hash.
	Git    domain.GitInfo
	Logger *zap.Logger
}

// FixService orchestrates one remediation run:
// route issues → generate patches → validate → resolve conflicts → write.
type FixService struct {
	root      string
	files     domain.FileAccess
	registry  *fixers.Registry
	validator *validator.Validator
	truthpack *domain.Truthpack
	git       domain.GitInfo
	logger    *zap.Logger
}

func NewFixService(cfg FixServiceConfig) *FixService {
	v := cfg.Validator
	if v == nil {
		v = validator.New(nil)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = fixers.NewRegistry()
	}
	return &FixService{
		root:      cfg.ProjectRoot,
		files:     cfg.Files,
		registry:  reg,
		validator: v,
		truthpack: cfg.Truthpack,
		git:       cfg.Git,
		logger:    logging.OrNop(cfg.Logger),
	}
}

// Modules lists the registered fix modules.
func (s *FixService) Modules() []domain.FixModule {
	return s.registry.Modules()
}

type job struct {
	issue  domain.Issue
	module domain.FixModule
}

type candidate struct {
	job
	patch *domain.Patch
	err   error
}

// Process runs the engine over issues. Every failure is recorded in the
// returned result; nothing is returned as an error and module panics are
// recovered.
func (s *FixService) Process(ctx context.Context, issues []domain.Issue, policy domain.AutoFixPolicy) *domain.AutoFixResult {
	policy = policy.Normalize()
	result := &domain.AutoFixResult{
		RunID:    uuid.NewString(),
		DryRun:   policy.DryRun,
		Applied:  []domain.AppliedFix{},
		Rejected: []domain.RejectedPatch{},
		Errors:   []domain.ModuleError{},
		Skipped:  []domain.SkippedIssue{},
	}
	log := s.logger.With(zap.String("run_id", result.RunID))
	log.Info("run started", zap.Int("issues", len(issues)), zap.Bool("dry_run", policy.DryRun))

	// 1. Admit and route issues
	jobs := s.route(issues, policy, result, log)

	// 2. Generate candidates concurrently
	candidates := s.generateAll(ctx, jobs, policy)

	// 3. Validate and resolve conflicts in issue order
	s.collect(candidates, policy, result, log)

	// 4. Stamp version control metadata
	s.stamp(result, log)

	// 5. Write
	if !policy.DryRun {
		s.write(result, log)
	}

	sum := result.Summary()
	log.Info("run finished",
		zap.Int("applied", sum.Applied),
		zap.Int("rejected", sum.Rejected),
		zap.Int("errors", sum.Errors),
		zap.Int("skipped", sum.Skipped),
	)
	return result
}

func (s *FixService) route(issues []domain.Issue, policy domain.AutoFixPolicy, result *domain.AutoFixResult, log *zap.Logger) []job {
	var jobs []job
	admitted := 0
	for _, issue := range issues {
		if !issue.Type.Valid() {
			result.Skipped = append(result.Skipped, domain.SkippedIssue{IssueID: issue.ID, Type: issue.Type, Reason: domain.SkipUnknownType})
			continue
		}
		if admitted >= policy.MaxIssuesPerRun {
			result.Skipped = append(result.Skipped, domain.SkippedIssue{IssueID: issue.ID, Type: issue.Type, Reason: domain.SkipIssueLimit})
			continue
		}
		admitted++

		m, ok, err := s.moduleFor(issue)
		if err != nil {
			log.Warn("module lookup failed", zap.String("issue", issue.ID), zap.Error(err))
			result.Errors = append(result.Errors, domain.ModuleError{IssueID: issue.ID, Phase: domain.PhaseGenerate, Message: err.Error()})
			continue
		}
		if !ok {
			result.Skipped = append(result.Skipped, domain.SkippedIssue{IssueID: issue.ID, Type: issue.Type, Reason: domain.SkipNoModule})
			continue
		}
		jobs = append(jobs, job{issue: issue, module: m})
	}
	return jobs
}

func (s *FixService) moduleFor(issue domain.Issue) (m domain.FixModule, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, ok, err = nil, false, fmt.Errorf("panic in CanFix: %v", r)
		}
	}()
	m, ok = s.registry.ModuleFor(issue)
	return m, ok, nil
}

func (s *FixService) generateAll(ctx context.Context, jobs []job, policy domain.AutoFixPolicy) []candidate {
	fctx := &domain.FixContext{
		ProjectRoot: s.root,
		Truthpack:   s.truthpack,
		Files:       readOnly{s.files},
	}

	candidates := make([]candidate, len(jobs))
	// A plain group: one module's fault must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(policy.Parallelism)
	for i, j := range jobs {
		g.Go(func() error {
			candidates[i] = generate(ctx, j, fctx)
			return nil
		})
	}
	_ = g.Wait()
	return candidates
}

func generate(ctx context.Context, j job, fctx *domain.FixContext) (c candidate) {
	c.job = j
	defer func() {
		if r := recover(); r != nil {
			c.patch, c.err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	c.patch, c.err = j.module.GenerateFix(ctx, j.issue, fctx)
	if c.err == nil && c.patch != nil && c.patch.FilePath == "" {
		c.patch, c.err = nil, errors.New("patch has no file path")
	}
	return c
}

func (s *FixService) collect(candidates []candidate, policy domain.AutoFixPolicy, result *domain.AutoFixResult, log *zap.Logger) {
	touched := make(map[string]bool)
	claimed := make(map[string]int)

	for _, c := range candidates {
		id, mod := c.issue.ID, c.module.ID()
		switch {
		case c.err != nil:
			log.Warn("module fault", zap.String("module", mod), zap.String("issue", id), zap.Error(c.err))
			result.Errors = append(result.Errors, domain.ModuleError{ModuleID: mod, IssueID: id, Phase: domain.PhaseGenerate, Message: c.err.Error()})
			continue
		case c.patch == nil:
			log.Debug("module declined", zap.String("module", mod), zap.String("issue", id))
			result.Skipped = append(result.Skipped, domain.SkippedIssue{IssueID: id, Type: c.issue.Type, Reason: domain.SkipDeclined, ModuleID: mod})
			continue
		}

		p := c.patch
		verdict := s.validator.Validate(p, policy, touched)
		if !verdict.Approved {
			log.Info("patch rejected", zap.String("module", mod), zap.String("issue", id), zap.String("file", p.FilePath), zap.Any("reasons", verdict.Reasons))
			result.Rejected = append(result.Rejected, domain.RejectedPatch{Patch: p, Reasons: verdict.Reasons, Confidence: verdict.Confidence})
			continue
		}

		if idx, ok := claimed[p.FilePath]; ok {
			first := &result.Applied[idx]
			if first.Patch.OriginalContent == p.OriginalContent && first.Patch.NewContent == p.NewContent {
				first.ResolvedIssues = append(first.ResolvedIssues, id)
				continue
			}
			log.Info("conflicting edit deferred", zap.String("file", p.FilePath), zap.String("issue", id), zap.String("claimed_by", first.IssueID))
			result.Rejected = append(result.Rejected, domain.RejectedPatch{
				Patch: p,
				Reasons: []domain.Violation{{
					Rule:    domain.RuleConflict,
					Message: fmt.Sprintf("%s is already patched for issue %s in this run", p.FilePath, first.IssueID),
				}},
				Confidence: verdict.Confidence,
			})
			continue
		}

		touched[p.FilePath] = true
		claimed[p.FilePath] = len(result.Applied)
		result.Applied = append(result.Applied, domain.AppliedFix{
			Patch:           p,
			IssueID:         id,
			ResolvedIssues:  []string{id},
			Description:     describe(c.module, c.issue),
			Confidence:      verdict.Confidence,
			Warnings:        verdict.Warnings,
			ManualReview:    p.ManualReview,
			RecheckRequired: c.module.Confidence() != domain.ConfidenceHigh,
		})
	}
}

func describe(m domain.FixModule, issue domain.Issue) (desc string) {
	defer func() {
		if recover() != nil {
			desc = issue.Label()
		}
	}()
	if desc = m.FixDescription(issue); desc == "" {
		desc = issue.Label()
	}
	return desc
}

func (s *FixService) stamp(result *domain.AutoFixResult, log *zap.Logger) {
	if s.git == nil || s.root == "" || !s.git.IsGitRepo(s.root) {
		return
	}
	if hash, err := s.git.CommitHash(s.root); err == nil {
		result.CommitHash = hash
	}
	dirty, err := s.git.DirtyFiles(s.root)
	if err != nil {
		log.Debug("reading worktree status", zap.Error(err))
		return
	}
	set := make(map[string]bool, len(dirty))
	for _, f := range dirty {
		set[f] = true
	}
	for i := range result.Applied {
		if set[result.Applied[i].Patch.FilePath] {
			result.Applied[i].Warnings = append(result.Applied[i].Warnings, "file has uncommitted changes")
		}
	}
}

// write persists approved patches in order. A patch whose file changed since
// it was generated is not written. Failed writes leave earlier ones in place.
func (s *FixService) write(result *domain.AutoFixResult, log *zap.Logger) {
	written := result.Applied[:0]
	for _, a := range result.Applied {
		if err := s.writePatch(a.Patch); err != nil {
			log.Error("write failed", zap.String("file", a.Patch.FilePath), zap.String("issue", a.IssueID), zap.Error(err))
			result.Errors = append(result.Errors, domain.ModuleError{
				ModuleID: a.Patch.ModuleID,
				IssueID:  a.IssueID,
				Phase:    domain.PhaseWrite,
				Message:  err.Error(),
			})
			continue
		}
		log.Debug("patch written", zap.String("file", a.Patch.FilePath))
		written = append(written, a)
	}
	result.Applied = written
}

func (s *FixService) writePatch(p *domain.Patch) error {
	current, err := s.files.Read(p.FilePath)
	switch {
	case p.Create && err == nil:
		return fmt.Errorf("%s already exists", p.FilePath)
	case p.Create && !errors.Is(err, domain.ErrFileNotFound):
		return err
	case !p.Create && err != nil:
		return err
	case !p.Create && current != p.OriginalContent:
		return fmt.Errorf("%s changed since the patch was generated", p.FilePath)
	}
	return s.files.Write(p.FilePath, p.NewContent)
}

// ValidateProposal checks an externally proposed full-file change as an
// AI-authored patch. Nothing is written.
func (s *FixService) ValidateProposal(path, content string, confidence float64, policy domain.AutoFixPolicy) (*domain.Patch, validator.Verdict, error) {
	original, err := s.files.Read(path)
	create := false
	if err != nil {
		if !errors.Is(err, domain.ErrFileNotFound) {
			return nil, validator.Verdict{}, fmt.Errorf("reading %s: %w", path, err)
		}
		create = true
	}
	p := domain.NewReplacement(path, original, content, create, domain.Provenance{
		Source:     domain.SourceAI,
		Confidence: confidence,
	})
	return p, s.validator.Validate(p, policy.Normalize(), map[string]bool{}), nil
}

// readOnly hides Write from fix modules.
type readOnly struct {
	r domain.FileReader
}

func (r readOnly) Read(path string) (string, error) { return r.r.Read(path) }
