package runtime

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalOptions(t *testing.T, src string) (*ScriptConfig, error) {
	t.Helper()
	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{
		OptionsScript: &fstest.MapFile{Data: []byte(src)},
	}))
	return rt.EvalOptions(context.Background(), OptionsScript, "/project")
}

func TestEvalOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want *ScriptConfig
	}{
		{
			name: "bare string",
			src:  `"local"`,
			want: &ScriptConfig{Options: "local"},
		},
		{
			name: "options map",
			src:  `{"vars": "all", "args": "none"}`,
			want: &ScriptConfig{Options: map[string]any{"vars": "all", "args": "none"}},
		},
		{
			name: "non-string values dropped",
			src:  `{"vars": 3, "args": "all"}`,
			want: &ScriptConfig{Options: map[string]any{"args": "all"}},
		},
		{
			name: "nested options with globals",
			src:  `{"options": "local", "globals": ["$", "jQuery"]}`,
			want: &ScriptConfig{Options: "local", Globals: []string{"$", "jQuery"}},
		},
		{
			name: "nested options map",
			src:  `{"options": {"args": "none"}}`,
			want: &ScriptConfig{Options: map[string]any{"args": "none"}},
		},
		{
			name: "nil result",
			src:  `nil`,
			want: &ScriptConfig{},
		},
		{
			name: "computed from target_dir",
			src: `
mode := "all"
if target_dir == "/project" {
	mode = "local"
}
mode
`,
			want: &ScriptConfig{Options: "local"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evalOptions(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalOptions_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"number result", `42`, "expected string or map, got int"},
		{"globals not a list", `{"globals": "$"}`, "globals: expected list"},
		{"global not a string", `{"globals": [1]}`, "globals: expected string"},
		{"options not a map", `{"options": [1]}`, "options: expected string or map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := evalOptions(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "runtime: script "+OptionsScript)
		})
	}
}
