package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/unusedvars"
	"github.com/jward/unusedvars/internal/runtime"
)

// checkConfig is the effective configuration after layering defaults,
// the YAML config, the options script and flags, in that order.
type checkConfig struct {
	policy unusedvars.Policy
	// config accumulates globals and extensions across layers.
	config  unusedvars.Config
	sources []string // config files that contributed, for the log
}

func loadCheckConfig(ctx context.Context, targetDir string, f *policyFlags) (*checkConfig, error) {
	cc := &checkConfig{policy: unusedvars.DefaultPolicy()}

	var (
		cfg  *unusedvars.Config
		path string
		err  error
	)
	if f.config != "" {
		path = f.config
		cfg, err = unusedvars.LoadConfig(path)
	} else {
		cfg, path, err = unusedvars.FindConfig(targetDir)
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		cc.sources = append(cc.sources, path)
	}
	cc.policy = cfg.Apply(cc.policy)
	cc.config.Globals = append(cc.config.Globals, cfg.Globals...)
	cc.config.Extensions = cfg.Extensions

	script := f.script
	if script == "" {
		candidate := filepath.Join(targetDir, runtime.OptionsScript)
		if _, err := os.Stat(candidate); err == nil {
			script = candidate
		}
	}
	if script != "" {
		abs, err := filepath.Abs(script)
		if err != nil {
			return nil, fmt.Errorf("resolving script %q: %w", script, err)
		}
		rt := runtime.NewRuntime(filepath.Dir(abs))
		sc, err := rt.EvalOptions(ctx, abs, targetDir)
		if err != nil {
			return nil, err
		}
		cc.policy = cc.policy.Apply(sc.Options)
		cc.config.Globals = append(cc.config.Globals, sc.Globals...)
		cc.sources = append(cc.sources, abs)
	}

	cc.policy = cc.policy.Merge(f.options())
	cc.config.Globals = append(cc.config.Globals, f.globals...)
	if len(f.extensions) > 0 {
		cc.config.Extensions = f.extensions
	}
	return cc, nil
}

// engineOptions converts the configuration into Engine options.
func (cc *checkConfig) engineOptions() []unusedvars.Option {
	return append([]unusedvars.Option{unusedvars.WithPolicy(cc.policy)}, cc.config.EngineOptions()...)
}
