// Package scope defines the resolved lexical scope tree consumed by the
// unused-binding detector: scopes, the bindings declared in them and the
// references that touch those bindings.
//
// A tree is built once per program unit by a resolver (see
// internal/jsscope for the JavaScript one) and is treated as read-only
// afterwards.
package scope

import "fmt"

// Kind tags a Scope. Only Global and Function carry meaning for the
// detector; every other kind is an ordinary block-like scope.
type Kind int

const (
	Global Kind = iota
	Function
	Block
	Catch
	Class
	For
	Switch
)

var kindNames = [...]string{
	Global:   "global",
	Function: "function",
	Block:    "block",
	Catch:    "catch",
	Class:    "class",
	For:      "for",
	Switch:   "switch",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Scope is a node of the tree. A parent exclusively owns its children.
type Scope struct {
	Kind Kind

	// FunctionExpressionName marks the synthetic scope a named function
	// expression introduces to hold its own name.
	FunctionExpressionName bool

	Bindings []*Binding
	Children []*Scope

	// Through holds the references that reached the root without resolving
	// to a binding the resolver could attach them to. Root only.
	Through []*Reference
}

// Lookup returns the binding declared directly in s under name.
func (s *Scope) Lookup(name string) *Binding {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Declare appends b to s. It panics if s already declares b.Name.
func (s *Scope) Declare(b *Binding) *Binding {
	if s.Lookup(b.Name) != nil {
		panic(fmt.Sprintf("scope: %q already declared in %s scope", b.Name, s.Kind))
	}
	s.Bindings = append(s.Bindings, b)
	return b
}

// AddChild appends c to s's children and returns c.
func (s *Scope) AddChild(c *Scope) *Scope {
	s.Children = append(s.Children, c)
	return c
}

// Walk calls fn for s and every descendant, parents before children and
// children in declared order. Returning false from fn skips the subtree.
func (s *Scope) Walk(fn func(*Scope) bool) {
	if !fn(s) {
		return
	}
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// Position is a 1-based source location.
type Position struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}
