package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/patchgate/internal/adapters/inbound/cli"
	"github.com/abdidvp/patchgate/internal/domain"
)

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "patchgate dev")
}

func TestModulesCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchgate.yaml"), []byte("disabled_modules: [ghost-route]\n"), 0o644))

	out, err := run(t, "modules", dir, "--json")
	require.NoError(t, err)

	var infos []cli.ModuleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, len(domain.ValidModuleIDs))
	for _, m := range infos {
		assert.Equal(t, m.ID != domain.ModuleGhostRoute, m.Enabled, m.ID)
	}
}

func TestModulesCommand_TUI(t *testing.T) {
	out, err := run(t, "modules", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Fix Modules")
	assert.Contains(t, out, domain.ModuleSilentFailure)
}

func TestPolicyCommand(t *testing.T) {
	out, err := run(t, "policy", fixtureDir)
	require.NoError(t, err)
	assert.Contains(t, out, "max_lines_per_fix: 40")
	assert.Contains(t, out, "migrations/**")
}

func TestPolicyCommand_JSON(t *testing.T) {
	out, err := run(t, "policy", t.TempDir(), "--json")
	require.NoError(t, err)

	var cfg domain.ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, domain.DefaultMaxLinesPerFix, cfg.Policy.MaxLinesPerFix)
}

func TestPolicyCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchgate.yaml"), []byte("parallelism: 999\n"), 0o644))

	_, err := run(t, "policy", dir)
	assert.Error(t, err)
}

func TestHistoryCommand(t *testing.T) {
	dir := sampleProject(t)

	out, err := run(t, "history", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No run history found.")

	_, err = run(t, "fix", dir, "--issues", filepath.Join(dir, "issues.json"))
	require.NoError(t, err)

	out, err = run(t, "history", dir, "--json")
	require.NoError(t, err)
	var entries []domain.RunEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].Applied)
	assert.NotEmpty(t, entries[0].RunID)
}

func TestValidateCommand_Approved(t *testing.T) {
	dir := sampleProject(t)
	proposal := filepath.Join(t.TempDir(), "users.ts")
	require.NoError(t, os.WriteFile(proposal, []byte("export async function loadUsers() {\n  const res = await fetch(\"/api/users\");\n  return res.json();\n}\n"), 0o644))

	out, err := run(t, "validate", "src/pages/users.ts", "--path", dir, "--proposal", proposal)
	require.NoError(t, err)
	assert.Contains(t, out, `"approved": true`)
}

func TestValidateCommand_RejectsDangerousCode(t *testing.T) {
	dir := sampleProject(t)
	proposal := filepath.Join(t.TempDir(), "users.ts")
	require.NoError(t, os.WriteFile(proposal, []byte("export async function loadUsers(q) {\n  return eval(q);\n}\n"), 0o644))

	out, err := run(t, "validate", "src/pages/users.ts", "--path", dir, "--proposal", proposal, "--confidence", "0.9")
	require.Error(t, err)
	assert.Contains(t, out, `"approved": false`)
	assert.Contains(t, out, domain.RuleDangerous)
}

func TestValidateCommand_RequiresProposal(t *testing.T) {
	_, err := run(t, "validate", "a.ts")
	assert.Error(t, err)
}
