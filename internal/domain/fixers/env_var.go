package fixers

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/fatih/camelcase"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/synth"
)

// ExampleEnvFiles are probed in order for an existing example env file.
var ExampleEnvFiles = []string{".env.example", ".env.sample", ".env.template", "example.env"}

// SecretPlaceholder is written as the value of sensitive variables.
const SecretPlaceholder = "<REQUIRED_SECRET>"

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// configStems mark files that initialise configuration.
var configStems = []string{"config", "env", "settings", "init", "bootstrap", "setup"}

// envRule infers the documentation of a variable from its name.
type envRule struct {
	pattern *regexp.Regexp
	kind    string
	section string
	value   string
}

// envRules is ordered: the first match wins.
var envRules = []envRule{
	{regexp.MustCompile(`API_KEY|SECRET|TOKEN|PASSWORD|PRIVATE_KEY`), "secret", "Secrets", SecretPlaceholder},
	{regexp.MustCompile(`DATABASE|DB_|POSTGRES|MYSQL|MONGO|REDIS`), "database", "Database", ""},
	{regexp.MustCompile(`(?:^|_)PORT$`), "number", "Server", "3000"},
	{regexp.MustCompile(`API.*(?:URL|URI|HOST|ENDPOINT)`), "string", "API", ""},
	{regexp.MustCompile(`URL|URI|HOST|ENDPOINT`), "string", "Server", ""},
}

// EnvVar documents an undeclared environment variable: in the project's
// example env file, as a fail-fast guard in a config module, or in a new
// .env.example.
type EnvVar struct {
	analyzer domain.SourceAnalyzer
}

// NewEnvVar builds the module. The analyzer is used for guard insertion.
func NewEnvVar(analyzer domain.SourceAnalyzer) *EnvVar {
	return &EnvVar{analyzer: analyzer}
}

func (m *EnvVar) ID() string { return domain.ModuleEnvVar }

func (m *EnvVar) IssueTypes() []domain.IssueType {
	return []domain.IssueType{domain.IssueGhostEnv}
}

func (m *EnvVar) Confidence() domain.Confidence { return domain.ConfidenceHigh }

func (m *EnvVar) CanFix(issue domain.Issue) bool {
	return handles(m, issue.Type) && envNamePattern.MatchString(issue.EnvVarName())
}

func (m *EnvVar) FixDescription(issue domain.Issue) string {
	return fmt.Sprintf("Document required environment variable %s", issue.EnvVarName())
}

func (m *EnvVar) GenerateFix(ctx context.Context, issue domain.Issue, fctx *domain.FixContext) (*domain.Patch, error) {
	name := issue.EnvVarName()
	if !envNamePattern.MatchString(name) {
		return nil, nil
	}
	entry := DescribeEnv(name, fctx.Truthpack)
	prov := domain.Provenance{
		IssueID:    issue.ID,
		ModuleID:   m.ID(),
		Confidence: m.Confidence().Score(),
	}

	for _, p := range ExampleEnvFiles {
		content, err := fctx.Files.Read(p)
		if errors.Is(err, domain.ErrFileNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if synth.DotenvDeclares(content, name) {
			return nil, nil
		}
		prov.Note = "declared in " + p
		f := synth.NewFile(p, content)
		return domain.NewPatch(p, content, []domain.Hunk{f.DotenvInsert(entry)}, prov)
	}

	if isConfigModule(issue.FilePath) && m.analyzer.Supports(issue.FilePath) {
		patch, handled, err := m.guard(ctx, issue.FilePath, name, fctx, prov)
		if handled || err != nil {
			return patch, err
		}
	}

	prov.Note = "created .env.example"
	return domain.NewReplacement(ExampleEnvFiles[0], "", synth.NewDotenv(entry), true, prov), nil
}

// guard inserts a fail-fast check after the imports of a config module.
// handled is false when the module could not be read and the caller should
// fall back to creating an example file.
func (m *EnvVar) guard(ctx context.Context, file, name string, fctx *domain.FixContext, prov domain.Provenance) (*domain.Patch, bool, error) {
	content, err := fctx.Files.Read(file)
	if errors.Is(err, domain.ErrFileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", file, err)
	}

	guarded, err := m.analyzer.HasEnvGuard(ctx, file, content, name)
	if err != nil {
		return nil, true, err
	}
	if guarded {
		return nil, true, nil
	}
	info, err := m.analyzer.Imports(ctx, file, content)
	if err != nil {
		return nil, true, err
	}

	f := synth.NewFile(file, content)
	prov.Note = "fail-fast guard in " + file
	patch, err := domain.NewPatch(file, content, []domain.Hunk{f.GuardInsertion(info.LastLine, name)}, prov)
	return patch, true, err
}

// DescribeEnv documents name from the truthpack, falling back to inference
// from the name itself.
func DescribeEnv(name string, tp *domain.Truthpack) synth.EnvEntry {
	e := inferEnv(name)
	fact, ok := tp.EnvVar(name)
	if !ok {
		return e
	}
	if fact.Description != "" {
		e.Description = fact.Description
	}
	if section := sectionTitle(fact.Category); section != "" {
		e.Section = section
	}
	switch {
	case fact.Sensitive:
		e.Kind, e.Value = "secret", SecretPlaceholder
	case fact.Example != "":
		e.Value = fact.Example
	}
	return e
}

func inferEnv(name string) synth.EnvEntry {
	e := synth.EnvEntry{Name: name, Kind: "string", Section: "General", Description: describeName(name)}
	upper := strings.ToUpper(name)
	for _, r := range envRules {
		if r.pattern.MatchString(upper) {
			e.Kind, e.Section, e.Value = r.kind, r.section, r.value
			break
		}
	}
	return e
}

// describeName turns STRIPE_SECRET_KEY or nextAuthUrl into "Stripe secret key".
func describeName(name string) string {
	var words []string
	for _, part := range strings.Split(name, "_") {
		for _, w := range camelcase.Split(part) {
			if w != "" {
				words = append(words, strings.ToLower(w))
			}
		}
	}
	if len(words) == 0 {
		return ""
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

func sectionTitle(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return ""
	}
	if strings.EqualFold(c, "api") {
		return "API"
	}
	return strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
}

func isConfigModule(file string) bool {
	if file == "" {
		return false
	}
	base := strings.ToLower(path.Base(strings.ReplaceAll(file, "\\", "/")))
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, s := range configStems {
		if strings.Contains(stem, s) {
			return true
		}
	}
	return false
}
