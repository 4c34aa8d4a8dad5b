package unusedvars

import "fmt"

// ParamMode controls which function parameters may be reported.
type ParamMode int

const (
	// ParamsAfterUsed reports only the last parameter of a list.
	ParamsAfterUsed ParamMode = iota
	// ParamsNone never reports parameters.
	ParamsNone
	// ParamsAll reports every unread parameter.
	ParamsAll
)

func (m ParamMode) String() string {
	switch m {
	case ParamsAfterUsed:
		return "after-used"
	case ParamsNone:
		return "none"
	case ParamsAll:
		return "all"
	}
	return fmt.Sprintf("ParamMode(%d)", int(m))
}

// Policy is the normalized rule configuration.
type Policy struct {
	// ReportGlobals enables the root-scope pass (vars: "all").
	ReportGlobals bool
	Params        ParamMode
}

// DefaultPolicy is {vars: "all", args: "after-used"}.
func DefaultPolicy() Policy {
	return Policy{ReportGlobals: true, Params: ParamsAfterUsed}
}

// Options is the structured option form accepted by ParsePolicy.
type Options struct {
	Vars string `json:"vars,omitempty" yaml:"vars,omitempty"`
	Args string `json:"args,omitempty" yaml:"args,omitempty"`
}

// Options renders p back to its canonical option strings.
func (p Policy) Options() Options {
	vars := "local"
	if p.ReportGlobals {
		vars = "all"
	}
	return Options{Vars: vars, Args: p.Params.String()}
}

func (p Policy) String() string {
	o := p.Options()
	return "vars=" + o.Vars + " args=" + o.Args
}

// ParsePolicy normalizes a rule option into a Policy. opt may be nil, a
// bare string naming the vars setting, an Options value or pointer, or a
// map with "vars" and "args" keys as decoded from YAML, JSON or a Risor
// script. Missing or unrecognized values keep their defaults; nothing is
// rejected.
func ParsePolicy(opt any) Policy {
	return DefaultPolicy().Apply(opt)
}

// Apply overlays a rule option, in any form ParsePolicy accepts, on p.
// Config layers stack this way: each layer only changes the settings it
// names.
func (p Policy) Apply(opt any) Policy {
	var o Options
	switch v := opt.(type) {
	case nil:
		return p
	case string:
		o.Vars = v
	case Options:
		o = v
	case *Options:
		if v != nil {
			o = *v
		}
	case map[string]string:
		o = Options{Vars: v["vars"], Args: v["args"]}
	case map[string]any:
		o.Vars, _ = v["vars"].(string)
		o.Args, _ = v["args"].(string)
	case []any:
		// Rule options arrive as a list; only the first entry matters.
		if len(v) > 0 {
			return p.Apply(v[0])
		}
		return p
	default:
		return p
	}
	return p.Merge(o)
}

// Merge overlays the recognized fields of o on p. Empty or unrecognized
// values leave p's setting in place.
func (p Policy) Merge(o Options) Policy {
	switch o.Vars {
	case "all":
		p.ReportGlobals = true
	case "local":
		p.ReportGlobals = false
	}
	switch o.Args {
	case "after-used":
		p.Params = ParamsAfterUsed
	case "none":
		p.Params = ParamsNone
	case "all":
		p.Params = ParamsAll
	}
	return p
}
