package bootstrap_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/patchgate/internal/bootstrap"
	"github.com/abdidvp/patchgate/internal/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestNew_Defaults(t *testing.T) {
	root := t.TempDir()
	eng, err := bootstrap.New(root, bootstrap.Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultPolicy(), eng.Config.Policy)
	assert.Nil(t, eng.Truthpack)
	assert.Len(t, eng.Service.Modules(), len(domain.ValidModuleIDs))
}

func TestNew_DisabledModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".patchgate.yaml", "disabled_modules:\n  - ghost-route\n  - auth-gap\n")

	eng, err := bootstrap.New(root, bootstrap.Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	var ids []string
	for _, m := range eng.Service.Modules() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{domain.ModuleSilentFailure, domain.ModuleEnvVar}, ids)
	assert.Len(t, bootstrap.AllModules(), len(domain.ValidModuleIDs))
}

func TestNew_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".patchgate.yaml", "max_lines_per_fix: -3\n")

	_, err := bootstrap.New(root, bootstrap.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".patchgate.yaml")
}

func TestNew_TruthpackOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "facts/tp.json", `{"env": [{"name": "STRIPE_SECRET_KEY", "sensitive": true}]}`)

	eng, err := bootstrap.New(root, bootstrap.Options{Truthpack: "facts/tp.json", LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NotNil(t, eng.Truthpack)
	_, ok := eng.Truthpack.EnvVar("STRIPE_SECRET_KEY")
	assert.True(t, ok)
}

func TestEngine_ProcessWritesIntoProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/client.ts", "export async function load() {\n  try {\n    await fetch('/x')\n  } catch (e) {}\n}\n")

	eng, err := bootstrap.New(root, bootstrap.Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	result := eng.Service.Process(context.Background(), []domain.Issue{{
		ID: "sf-1", Type: domain.IssueSilentFailure, Severity: domain.SeverityError, FilePath: "src/client.ts", Line: 4,
	}}, eng.Config.Policy)

	require.Len(t, result.Applied, 1, "errors: %v rejected: %v", result.Errors, result.Rejected)
	data, err := os.ReadFile(filepath.Join(root, "src/client.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "throw e")
}
