package unusedvars

import (
	"fmt"

	"github.com/jward/unusedvars/scope"
)

// UnusedLocals returns the bindings of root and all its descendants that
// are eligible for reporting under p and are never read. The bindings of
// a global scope are skipped; UnusedGlobals handles them.
//
// Order is depth-first: a scope's own bindings precede those of its
// children, and children are visited in declared order.
//
// UnusedLocals panics when the tree violates its contract: a scope
// reached twice, or a parameter without a valid position.
func UnusedLocals(root *scope.Scope, p Policy) []*scope.Binding {
	if root == nil {
		panic("unusedvars: nil scope")
	}
	var unused []*scope.Binding
	seen := make(map[*scope.Scope]bool)
	stack := []*scope.Scope{root}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			panic(fmt.Sprintf("unusedvars: %s scope reached twice", s.Kind))
		}
		seen[s] = true

		if s.Kind != scope.Global {
			for _, b := range s.Bindings {
				if exempt(s, b, p) {
					continue
				}
				if readCount(b) == 0 {
					unused = append(unused, b)
				}
			}
		}

		for i := len(s.Children) - 1; i >= 0; i-- {
			c := s.Children[i]
			if c == nil {
				panic(fmt.Sprintf("unusedvars: nil child %d of %s scope", i, s.Kind))
			}
			stack = append(stack, c)
		}
	}
	return unused
}

// exempt applies the eligibility rules in order. An exempt binding is
// treated as used whatever its references say.
func exempt(s *scope.Scope, b *scope.Binding, p Policy) bool {
	if err := b.Validate(); err != nil {
		panic("unusedvars: " + err.Error())
	}
	switch {
	case s.FunctionExpressionName:
		return true
	case s.Kind == scope.Function && b.ImplicitArguments && len(b.Declarations) == 0:
		return true
	case b.Kind == scope.CatchBinding:
		return true
	case b.Kind == scope.Parameter && p.Params == ParamsNone:
		return true
	case b.Kind == scope.Parameter && p.Params == ParamsAfterUsed:
		// Only the last parameter is eligible; earlier ones keep arity.
		return b.Param.Index < b.Param.Count-1
	}
	return false
}

func readCount(b *scope.Binding) int {
	n := 0
	for _, r := range b.References {
		if r.IsRead() {
			n++
		}
	}
	return n
}

// UnusedGlobals returns the bindings declared directly in root whose name
// is never read by any of root's through references. Reads are matched by
// name only, so a read meant for a shadowing local elsewhere still keeps
// a global alive.
func UnusedGlobals(root *scope.Scope) []*scope.Binding {
	if root == nil {
		panic("unusedvars: nil scope")
	}
	read := make(map[string]bool, len(root.Through))
	for _, r := range root.Through {
		if r.IsRead() {
			read[r.Name] = true
		}
	}
	var unused []*scope.Binding
	for _, b := range root.Bindings {
		if !read[b.Name] {
			unused = append(unused, b)
		}
	}
	return unused
}
