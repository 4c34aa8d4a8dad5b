package scope

import (
	"errors"
	"fmt"
)

// DeclKind says how a binding was introduced.
type DeclKind int

const (
	Variable DeclKind = iota
	Parameter
	CatchBinding
	FunctionName
	ClassName
	ImportBinding
	Other
)

var declKindNames = [...]string{
	Variable:      "variable",
	Parameter:     "parameter",
	CatchBinding:  "catch",
	FunctionName:  "function",
	ClassName:     "class",
	ImportBinding: "import",
	Other:         "other",
}

func (k DeclKind) String() string {
	if k >= 0 && int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return fmt.Sprintf("DeclKind(%d)", int(k))
}

// ParseDeclKind is the inverse of DeclKind.String.
func ParseDeclKind(s string) (DeclKind, bool) {
	for k, name := range declKindNames {
		if name == s {
			return DeclKind(k), true
		}
	}
	return 0, false
}

// MarshalText lets DeclKind appear by name in JSON and YAML output.
func (k DeclKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParamPosition locates a parameter in its function's parameter list.
type ParamPosition struct {
	Index int
	Count int
}

// Binding is a name declared in exactly one Scope.
type Binding struct {
	Name string
	Kind DeclKind

	// Declarations lists the syntactic declaration sites. Empty for
	// implicit bindings such as arguments or configured globals.
	Declarations []Position

	// Param is set iff Kind == Parameter.
	Param *ParamPosition

	References []*Reference

	ImplicitArguments bool
	ExplicitGlobal    bool
}

// Validate checks the auxiliary fields against Kind.
func (b *Binding) Validate() error {
	if b.Name == "" {
		return errors.New("binding has no name")
	}
	switch {
	case b.Kind == Parameter && b.Param == nil:
		return fmt.Errorf("parameter %q has no position", b.Name)
	case b.Kind != Parameter && b.Param != nil:
		return fmt.Errorf("%s %q carries a parameter position", b.Kind, b.Name)
	case b.Param != nil && (b.Param.Index < 0 || b.Param.Index >= b.Param.Count):
		return fmt.Errorf("parameter %q at index %d of %d", b.Name, b.Param.Index, b.Param.Count)
	}
	return nil
}

// Access classifies what a reference does to its binding.
type Access int

const (
	Read Access = iota + 1
	Write
	ReadWrite
)

var accessNames = [...]string{
	Read:      "r",
	Write:     "w",
	ReadWrite: "rw",
}

func (a Access) String() string {
	if a > 0 && int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// ParseAccess is the inverse of Access.String.
func ParseAccess(s string) (Access, bool) {
	for a, name := range accessNames {
		if a > 0 && name == s {
			return Access(a), true
		}
	}
	return 0, false
}

// Reference is a single use of a name.
type Reference struct {
	Name   string
	Access Access

	// Target is nil for references left unresolved.
	Target *Binding

	Pos Position
}

// IsRead reports whether the reference reads its binding.
func (r *Reference) IsRead() bool {
	return r.Access == Read || r.Access == ReadWrite
}

// IsWrite reports whether the reference writes its binding.
func (r *Reference) IsWrite() bool {
	return r.Access == Write || r.Access == ReadWrite
}
