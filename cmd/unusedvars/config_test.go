package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/unusedvars"
	"github.com/jward/unusedvars/internal/runtime"
)

func parsePolicyFlags(t *testing.T, args ...string) *policyFlags {
	t.Helper()
	f := &policyFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestLoadCheckConfig_Defaults(t *testing.T) {
	t.Parallel()
	cc, err := loadCheckConfig(context.Background(), t.TempDir(), parsePolicyFlags(t))
	require.NoError(t, err)
	assert.Equal(t, unusedvars.DefaultPolicy(), cc.policy)
	assert.Empty(t, cc.config.Globals)
	assert.Empty(t, cc.sources)
}

func TestLoadCheckConfig_Layers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, unusedvars.ConfigFile),
		[]byte("options: {vars: local, args: none}\nglobals: [$]\nextensions: [.mjs]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, runtime.OptionsScript),
		[]byte(`{"options": {"args": "all"}, "globals": ["jQuery"]}`), 0o644))

	// YAML sets vars and args, the script overrides args, the flag
	// overrides vars again.
	cc, err := loadCheckConfig(context.Background(), dir, parsePolicyFlags(t, "--vars", "all", "--global", "angular"))
	require.NoError(t, err)
	assert.Equal(t, unusedvars.Policy{ReportGlobals: true, Params: unusedvars.ParamsAll}, cc.policy)
	assert.Equal(t, []string{"$", "jQuery", "angular"}, cc.config.Globals)
	assert.Equal(t, []string{".mjs"}, cc.config.Extensions)
	assert.Equal(t, []string{
		filepath.Join(dir, unusedvars.ConfigFile),
		filepath.Join(dir, runtime.OptionsScript),
	}, cc.sources)
	assert.Len(t, cc.engineOptions(), 3)
}

func TestLoadCheckConfig_ExplicitPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lint.yaml")
	scriptPath := filepath.Join(dir, "lint.risor")
	require.NoError(t, os.WriteFile(cfgPath, []byte("options: local\n"), 0o644))
	require.NoError(t, os.WriteFile(scriptPath, []byte(`{"args": "none"}`), 0o644))

	cc, err := loadCheckConfig(context.Background(), t.TempDir(),
		parsePolicyFlags(t, "--config", cfgPath, "--script", scriptPath, "--ext", ".js,.jsx"))
	require.NoError(t, err)
	assert.Equal(t, unusedvars.Policy{ReportGlobals: false, Params: unusedvars.ParamsNone}, cc.policy)
	assert.Equal(t, []string{".js", ".jsx"}, cc.config.Extensions)
}

func TestLoadCheckConfig_ScriptSeesTargetDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, runtime.OptionsScript), []byte(`
mode := "all"
if exists(target_dir + "/legacy") {
	mode = "local"
}
mode
`), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "legacy"), 0o755))

	cc, err := loadCheckConfig(context.Background(), dir, parsePolicyFlags(t))
	require.NoError(t, err)
	assert.False(t, cc.policy.ReportGlobals)
}

func TestLoadCheckConfig_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown yaml key", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, unusedvars.ConfigFile), []byte("rules: {}\n"), 0o644))
		_, err := loadCheckConfig(context.Background(), dir, parsePolicyFlags(t))
		require.Error(t, err)
	})

	t.Run("missing explicit config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := loadCheckConfig(context.Background(), dir,
			parsePolicyFlags(t, "--config", filepath.Join(dir, "nope.yaml")))
		require.Error(t, err)
	})

	t.Run("script error", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, runtime.OptionsScript), []byte(`42`), 0o644))
		_, err := loadCheckConfig(context.Background(), dir, parsePolicyFlags(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected string or map")
	})
}

func TestPolicyFlags_ExtUsageListsDefaults(t *testing.T) {
	t.Parallel()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	(&policyFlags{}).register(fs)
	assert.Contains(t, fs.Lookup("ext").Usage, "default .cjs,.js,.jsx,.mjs")
}
