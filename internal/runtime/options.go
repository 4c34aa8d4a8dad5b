package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// ScriptConfig is the decoded value of an options script.
type ScriptConfig struct {
	// Options is nil, a bare vars string, or a map with "vars" and
	// "args" keys.
	Options any
	Globals []string
}

// EvalOptions runs an options script. The script sees target_dir, the
// directory being checked, and its final expression is one of:
//
//	"local"
//	{"vars": "all", "args": "none"}
//	{"options": "local", "globals": ["$", "jQuery"]}
func (r *Runtime) EvalOptions(ctx context.Context, scriptPath, targetDir string) (*ScriptConfig, error) {
	result, err := r.RunScript(ctx, scriptPath, map[string]any{
		"target_dir": object.NewString(targetDir),
	})
	if err != nil {
		return nil, err
	}
	cfg, err := decodeScriptConfig(result)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", scriptPath, err)
	}
	return cfg, nil
}

func decodeScriptConfig(obj object.Object) (*ScriptConfig, error) {
	cfg := &ScriptConfig{}
	if isNil(obj) {
		return cfg, nil
	}
	if s, ok := obj.(*object.String); ok {
		cfg.Options = s.Value()
		return cfg, nil
	}
	m, err := extractMap(obj)
	if err != nil {
		return nil, err
	}

	if nested, ok := m["options"]; ok {
		if cfg.Options, err = decodeOptions(nested); err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
	} else {
		cfg.Options = optionsMap(m)
	}

	if g, ok := m["globals"]; ok {
		list, ok := g.(*object.List)
		if !ok {
			return nil, fmt.Errorf("globals: expected list, got %s", g.Type())
		}
		for _, item := range list.Value() {
			name, err := toString(item)
			if err != nil {
				return nil, fmt.Errorf("globals: %w", err)
			}
			cfg.Globals = append(cfg.Globals, name)
		}
	}
	return cfg, nil
}

func decodeOptions(obj object.Object) (any, error) {
	if isNil(obj) {
		return nil, nil
	}
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	m, err := extractMap(obj)
	if err != nil {
		return nil, err
	}
	return optionsMap(m), nil
}

// optionsMap keeps the string-valued vars and args keys of m.
func optionsMap(m map[string]object.Object) map[string]any {
	out := map[string]any{}
	for _, key := range []string{"vars", "args"} {
		if v := getString(m, key); v != "" {
			out[key] = v
		}
	}
	return out
}

// --- Object helpers ---

func isNil(obj object.Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(*object.NilType)
	return ok
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected string or map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
