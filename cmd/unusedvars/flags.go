package main

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/jward/unusedvars"
	"github.com/jward/unusedvars/internal/jsscope"
)

// policyFlags are the options shared by commands that analyze.
type policyFlags struct {
	vars       string
	args       string
	globals    []string
	config     string
	script     string
	extensions []string
}

func (f *policyFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.vars, "vars", "", "which variables to check: all|local (default all)")
	fs.StringVar(&f.args, "args", "", "which parameters to check: after-used|none|all (default after-used)")
	fs.StringSliceVar(&f.globals, "global", nil, "declare a configured global (repeatable, comma-separated)")
	fs.StringVar(&f.config, "config", "", "YAML config file (default: <path>/"+unusedvars.ConfigFile+" if present)")
	fs.StringVar(&f.script, "script", "", "Risor options script (default: <path>/.unusedvars.risor if present)")
	fs.StringSliceVar(&f.extensions, "ext", nil, "file extensions treated as JavaScript (default "+strings.Join(jsscope.Extensions(), ",")+")")
}

// options returns the rule options set on the command line.
func (f *policyFlags) options() unusedvars.Options {
	return unusedvars.Options{Vars: f.vars, Args: f.args}
}
