package loader_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/loader"
	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIssues_JSONList(t *testing.T) {
	in := `[
  {"id": "a", "type": "silent-failure", "severity": "error", "file_path": "src/a.ts", "line": 10, "message": "empty catch"},
  {"type": "ghost-env", "message": "STRIPE_SECRET_KEY undeclared", "metadata": {"name": "STRIPE_SECRET_KEY"}}
]`
	issues, err := loader.ReadIssues(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "a", issues[0].ID)
	assert.Equal(t, domain.IssueSilentFailure, issues[0].Type)
	assert.Equal(t, "src/a.ts", issues[0].FilePath)
	assert.Equal(t, 10, issues[0].Line)

	assert.Equal(t, "issue-2", issues[1].ID)
	assert.Equal(t, "STRIPE_SECRET_KEY", issues[1].Metadata["name"])
}

func TestReadIssues_WrappedYAML(t *testing.T) {
	in := `
issues:
  - id: r1
    type: auth-gap
    file_path: app/api/items/route.ts
    metadata:
      method: POST
      route: /api/items
`
	issues, err := loader.ReadIssues(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueAuthGap, issues[0].Type)
	assert.Equal(t, "POST", issues[0].Meta("method"))
}

func TestReadIssues_Empty(t *testing.T) {
	issues, err := loader.ReadIssues(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestReadIssues_Invalid(t *testing.T) {
	_, err := loader.ReadIssues(strings.NewReader(`"just a string"`))
	assert.ErrorContains(t, err, "expected a list")

	_, err = loader.ReadIssues(strings.NewReader(`[{{{`))
	assert.ErrorContains(t, err, "parsing issues")
}

func TestLoadTruthpack(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "truthpack.json")
	require.NoError(t, os.WriteFile(fp, []byte(`{
  "routes": [{"method": "GET", "path": "/api/users"}],
  "env": [{"name": "DATABASE_URL", "category": "database"}],
  "auth": {"providers": ["next-auth"], "middleware": "requireAuth", "middleware_import": "./auth"}
}`), 0644))

	tp, err := loader.LoadTruthpack(fp)
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.Equal(t, "/api/users", tp.Routes[0].Path)
	_, ok := tp.EnvVar("DATABASE_URL")
	assert.True(t, ok)
	assert.True(t, tp.HasProvider("NEXT-AUTH"))
	assert.Equal(t, "./auth", tp.Auth.MiddlewareImport)
}

func TestLoadTruthpack_Missing(t *testing.T) {
	tp, err := loader.LoadTruthpack(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, tp)
}
