package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reanalyzer/internal/diag"
)

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reanalyzer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_line_length = 80

[runtime_rules]
enabled = true
disabled_rules = ["avoid_print"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.MaxLineLength)
	assert.True(t, cfg.Parallel)
	assert.True(t, cfg.StyleRules.Enabled)
	assert.Equal(t, DefaultQueryAddress, cfg.Query.Address)
	assert.False(t, cfg.IsRuleEnabled("avoid_print", diag.CatRuntime))
	assert.True(t, cfg.IsRuleEnabled("avoid_dynamic", diag.CatRuntime))
	assert.True(t, cfg.IsRuleEnabled("avoid_print", diag.CatStyle))
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reanalyzer.toml")
	require.NoError(t, os.WriteFile(path, []byte("paralel = false\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paralel")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.StyleRules.Enabled = false
	cfg.DartBinary = "/opt/dart/bin/dart"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".reanalyzer.toml"), nil, 0o644))

	path, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".reanalyzer.toml"), path)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDartBinary, "fvm-dart")
	t.Setenv(EnvMaxLineLength, "100")
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "fvm-dart", cfg.DartCommand())
	assert.Equal(t, 100, cfg.MaxLineLength)

	t.Setenv(EnvMaxLineLength, "wide")
	assert.Error(t, cfg.ApplyEnv())
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvDartBinary+"=from-file\n"+EnvQueryAddress+"=127.0.0.1:9100\n"), 0o644))
	t.Setenv(EnvDartBinary, "from-env")
	t.Setenv(EnvQueryAddress, "")
	require.NoError(t, os.Unsetenv(EnvQueryAddress))

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-env", os.Getenv(EnvDartBinary))
	assert.Equal(t, "127.0.0.1:9100", os.Getenv(EnvQueryAddress))
	require.NoError(t, os.Unsetenv(EnvQueryAddress))
}

func TestDartCommandDefault(t *testing.T) {
	assert.Equal(t, DefaultDartBinary, Default().DartCommand())
}
