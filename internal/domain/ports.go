package domain

import "context"

// FileReader reads project files by project-relative path. Missing files
// yield ErrFileNotFound.
type FileReader interface {
	Read(path string) (string, error)
}

// FileAccess adds persistence to FileReader. Only the orchestrator writes.
type FileAccess interface {
	FileReader
	Write(path, content string) error
}

// FixModule detects and synthesizes fixes for one family of issue types.
type FixModule interface {
	ID() string
	IssueTypes() []IssueType
	Confidence() Confidence
	// CanFix promises that GenerateFix will attempt a real fix.
	CanFix(issue Issue) bool
	// GenerateFix returns (nil, nil) when it declines. It must not write.
	GenerateFix(ctx context.Context, issue Issue, fctx *FixContext) (*Patch, error)
	FixDescription(issue Issue) string
}

// SourceAnalyzer parses scripting-language source into a syntax tree and
// answers the structural questions the fix modules ask.
type SourceAnalyzer interface {
	Supports(path string) bool
	SilentFailures(ctx context.Context, path, content string) ([]PatternMatch, error)
	Imports(ctx context.Context, path, content string) (ImportInfo, error)
	HasEnvGuard(ctx context.Context, path, content, name string) (bool, error)
	RouteHandlers(ctx context.Context, path, content string) ([]RouteHandler, error)
	StringLiterals(ctx context.Context, path, content string) ([]StringLiteral, error)
}

// SecretFinding is a secret located in patch text. The secret itself is
// never carried.
type SecretFinding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// SecretScanner finds credentials in text.
type SecretScanner interface {
	Scan(content string) []SecretFinding
}

// PolicyLoader loads the project's fix policy.
type PolicyLoader interface {
	Load(projectPath string) (ProjectConfig, error)
}

// GitInfo provides version control metadata.
type GitInfo interface {
	IsGitRepo(projectPath string) bool
	CommitHash(projectPath string) (string, error)
	DirtyFiles(projectPath string) ([]string, error)
}

// RunHistory persists run summaries.
type RunHistory interface {
	Save(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}
