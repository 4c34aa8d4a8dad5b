package unusedvars

import (
	"strings"

	"github.com/jward/unusedvars/scope"
)

// MessageTemplate is the diagnostic text; {{name}} is replaced by the
// binding's name.
const MessageTemplate = "{{name}} is defined but never used"

// Finding is one unused binding. Pos is nil when the binding has no
// declaring syntax (a configured global); callers then report it against
// the program as a whole.
type Finding struct {
	Name string          `json:"name"`
	Kind scope.DeclKind  `json:"kind"`
	Pos  *scope.Position `json:"location"`
}

// Message renders MessageTemplate for f.
func (f Finding) Message() string {
	return strings.ReplaceAll(MessageTemplate, "{{name}}", f.Name)
}

// NewFinding builds the Finding for b, located at its first declaration.
func NewFinding(b *scope.Binding) Finding {
	f := Finding{Name: b.Name, Kind: b.Kind}
	if len(b.Declarations) > 0 && !b.ExplicitGlobal {
		pos := b.Declarations[0]
		f.Pos = &pos
	}
	return f
}

// Check runs UnusedLocals over the whole tree and, when p asks for it,
// UnusedGlobals over root. Locals come first in traversal order, then
// globals in root declaration order.
func Check(root *scope.Scope, p Policy) []Finding {
	unused := UnusedLocals(root, p)
	if p.ReportGlobals {
		unused = append(unused, UnusedGlobals(root)...)
	}
	findings := make([]Finding, len(unused))
	for i, b := range unused {
		findings[i] = NewFinding(b)
	}
	return findings
}

// Reporter receives findings one at a time.
type Reporter interface {
	Report(Finding)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Finding)

func (f ReporterFunc) Report(finding Finding) { f(finding) }

// Run passes every finding of Check(root, p) to r in order and returns how
// many were reported.
func Run(root *scope.Scope, p Policy, r Reporter) int {
	findings := Check(root, p)
	for _, f := range findings {
		r.Report(f)
	}
	return len(findings)
}
