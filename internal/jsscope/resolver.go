// Package jsscope resolves JavaScript source into a scope tree.
//
// Source is parsed with tree-sitter and walked once. The walk creates
// scopes, declares bindings (hoisting var and function-level names) and
// queues every identifier use. Once the whole program is declared, each
// queued reference is resolved by walking up the scope chain. References
// that end at the program scope, whether they name a global binding or
// nothing at all, are left unresolved on the root's Through list.
package jsscope

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/unusedvars/scope"
)

// Option configures Resolve.
type Option func(*resolver)

// WithGlobals declares names as configured globals: root bindings with no
// declaring syntax.
func WithGlobals(names ...string) Option {
	return func(r *resolver) {
		r.globals = append(r.globals, names...)
	}
}

// Resolve parses src and returns the root (global) scope of its tree. path
// is recorded in every Position.
func Resolve(ctx context.Context, path string, src []byte, opts ...Option) (*scope.Scope, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("jsscope: parse %s: %w", path, err)
	}
	defer tree.Close()

	program := tree.RootNode()
	if bad := firstError(program); bad != nil {
		p := bad.StartPoint()
		return nil, fmt.Errorf("jsscope: syntax error in %s at %d:%d", path, p.Row+1, p.Column+1)
	}

	r := &resolver{
		src:     src,
		file:    path,
		root:    &scope.Scope{Kind: scope.Global},
		parents: make(map[*scope.Scope]*scope.Scope),
		owners:  make(map[*scope.Binding]*scope.Scope),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.visitChildren(program, r.root)
	r.resolve()
	r.declareGlobals()
	return r.root, nil
}

type pendingRef struct {
	ref  *scope.Reference
	from *scope.Scope
}

type resolver struct {
	src  []byte
	file string
	root *scope.Scope

	parents map[*scope.Scope]*scope.Scope
	owners  map[*scope.Binding]*scope.Scope
	pending []pendingRef

	// globals collects configured names and /* global */ comment names.
	globals []string
}

// --- scopes and bindings ---

func (r *resolver) child(parent *scope.Scope, kind scope.Kind) *scope.Scope {
	c := parent.AddChild(&scope.Scope{Kind: kind})
	r.parents[c] = parent
	return c
}

// varScope returns the nearest function or global scope, where var and
// hoisted names live.
func (r *resolver) varScope(s *scope.Scope) *scope.Scope {
	for s.Kind != scope.Function && s.Kind != scope.Global {
		s = r.parents[s]
	}
	return s
}

func (r *resolver) pos(n *sitter.Node) scope.Position {
	p := n.StartPoint()
	return scope.Position{File: r.file, Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

// declare binds the identifier id in s. A redeclaration adds a declaration
// site to the existing binding and keeps its original kind.
func (r *resolver) declare(s *scope.Scope, id *sitter.Node, kind scope.DeclKind, param *scope.ParamPosition) *scope.Binding {
	name := id.Content(r.src)
	if b := s.Lookup(name); b != nil {
		if b.ImplicitArguments && len(b.Declarations) == 0 {
			// An explicit arguments declaration replaces the implicit one.
			b.Kind, b.Param = kind, param
		}
		b.Declarations = append(b.Declarations, r.pos(id))
		return b
	}
	b := s.Declare(&scope.Binding{
		Name:         name,
		Kind:         kind,
		Declarations: []scope.Position{r.pos(id)},
		Param:        param,
	})
	r.owners[b] = s
	return b
}

func (r *resolver) reference(id *sitter.Node, s *scope.Scope, access scope.Access) {
	r.pending = append(r.pending, pendingRef{
		ref:  &scope.Reference{Name: id.Content(r.src), Access: access, Pos: r.pos(id)},
		from: s,
	})
}

// resolve attaches every queued reference to the nearest binding of its
// name below the root. Everything else goes through.
func (r *resolver) resolve() {
	for _, p := range r.pending {
		b := r.lookup(p.from, p.ref.Name)
		if b == nil || r.owners[b] == r.root {
			r.root.Through = append(r.root.Through, p.ref)
			continue
		}
		p.ref.Target = b
		b.References = append(b.References, p.ref)
	}
	r.pending = nil
}

func (r *resolver) lookup(s *scope.Scope, name string) *scope.Binding {
	for ; s != nil; s = r.parents[s] {
		if b := s.Lookup(name); b != nil {
			return b
		}
	}
	return nil
}

func (r *resolver) declareGlobals() {
	for _, name := range r.globals {
		if b := r.root.Lookup(name); b != nil {
			b.ExplicitGlobal = true
			continue
		}
		b := r.root.Declare(&scope.Binding{Name: name, Kind: scope.Variable, ExplicitGlobal: true})
		r.owners[b] = r.root
	}
}

// --- walk ---

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func (r *resolver) visitChildren(n *sitter.Node, s *scope.Scope) {
	for _, c := range namedChildren(n) {
		r.visit(c, s)
	}
}

func (r *resolver) visit(n *sitter.Node, s *scope.Scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "comment":
		r.globals = append(r.globals, parseGlobalComment(n.Content(r.src))...)

	case "identifier":
		r.reference(n, s, scope.Read)
	case "shorthand_property_identifier":
		r.reference(n, s, scope.Read)

	case "statement_block":
		r.visitChildren(n, r.child(s, scope.Block))

	case "variable_declaration":
		r.declarators(n, r.varScope(s), s)
	case "lexical_declaration":
		r.declarators(n, s, s)

	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declare(s, name, scope.FunctionName, nil)
		}
		r.function(n, s, true)
	case "function_expression", "function", "generator_function":
		outer := s
		if name := n.ChildByFieldName("name"); name != nil {
			outer = r.child(s, scope.Function)
			outer.FunctionExpressionName = true
			r.declare(outer, name, scope.FunctionName, nil)
		}
		r.function(n, outer, true)
	case "arrow_function":
		r.function(n, s, false)
	case "method_definition":
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "computed_property_name" {
			r.visitChildren(name, s)
		}
		r.function(n, s, true)

	case "class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			r.declare(s, name, scope.ClassName, nil)
		}
		r.class(n, s, false)
	case "class":
		r.class(n, s, true)

	case "for_statement":
		r.forStatement(n, s)
	case "for_in_statement":
		r.forInStatement(n, s)
	case "catch_clause":
		r.catchClause(n, s)
	case "switch_statement":
		r.visit(n.ChildByFieldName("value"), s)
		if body := n.ChildByFieldName("body"); body != nil {
			r.visitChildren(body, r.child(s, scope.Switch))
		}

	case "import_statement":
		r.importStatement(n)
	case "export_statement":
		if n.ChildByFieldName("source") != nil {
			// export { a } from "mod" names the other module's bindings
			return
		}
		r.visitChildren(n, s)
	case "export_specifier":
		// export { local as exported }: only the local name is a use.
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			r.reference(name, s, scope.Read)
		}

	case "assignment_expression":
		r.assignTarget(n.ChildByFieldName("left"), s, scope.Write)
		r.visit(n.ChildByFieldName("right"), s)
	case "augmented_assignment_expression":
		r.assignTarget(n.ChildByFieldName("left"), s, scope.ReadWrite)
		r.visit(n.ChildByFieldName("right"), s)
	case "update_expression":
		r.assignTarget(n.ChildByFieldName("argument"), s, scope.ReadWrite)

	case "member_expression":
		r.visit(n.ChildByFieldName("object"), s)
	case "pair":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			r.visitChildren(key, s)
		}
		r.visit(n.ChildByFieldName("value"), s)
	case "field_definition":
		if prop := n.ChildByFieldName("property"); prop != nil && prop.Type() == "computed_property_name" {
			r.visitChildren(prop, s)
		}
		r.visit(n.ChildByFieldName("value"), s)

	case "labeled_statement":
		r.visit(n.ChildByFieldName("body"), s)
	case "break_statement", "continue_statement":
		// labels are not bindings

	default:
		r.visitChildren(n, s)
	}
}

// declarators handles the variable_declarator children of a var, let or
// const declaration. Names bind in target; initializers run in s.
func (r *resolver) declarators(n *sitter.Node, target, s *scope.Scope) {
	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			r.visit(d, s)
			continue
		}
		value := d.ChildByFieldName("value")
		r.bindPattern(d.ChildByFieldName("name"), s, func(id *sitter.Node) {
			r.declare(target, id, scope.Variable, nil)
			if value != nil {
				r.reference(id, s, scope.Write)
			}
		})
		r.visit(value, s)
	}
}

// bindPattern calls bind for every identifier a binding pattern declares.
// Default values and computed keys inside the pattern are visited in s.
func (r *resolver) bindPattern(n *sitter.Node, s *scope.Scope, bind func(id *sitter.Node)) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		bind(n)
	case "object_pattern", "array_pattern":
		for _, c := range namedChildren(n) {
			r.bindPattern(c, s, bind)
		}
	case "pair_pattern":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			r.visitChildren(key, s)
		}
		r.bindPattern(n.ChildByFieldName("value"), s, bind)
	case "assignment_pattern", "object_assignment_pattern":
		r.bindPattern(n.ChildByFieldName("left"), s, bind)
		r.visit(n.ChildByFieldName("right"), s)
	case "rest_pattern":
		for _, c := range namedChildren(n) {
			r.bindPattern(c, s, bind)
		}
	default:
		// member targets in assignment patterns, comments
		r.visit(n, s)
	}
}

// assignTarget records the identifiers written by an assignment target.
func (r *resolver) assignTarget(n *sitter.Node, s *scope.Scope, access scope.Access) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		r.reference(n, s, access)
	case "parenthesized_expression":
		for _, c := range namedChildren(n) {
			r.assignTarget(c, s, access)
		}
	case "object_pattern", "array_pattern":
		r.bindPattern(n, s, func(id *sitter.Node) {
			r.reference(id, s, access)
		})
	default:
		r.visit(n, s)
	}
}

// function builds the scope of a function-like node under outer.
func (r *resolver) function(n *sitter.Node, outer *scope.Scope, hasArguments bool) {
	fn := r.child(outer, scope.Function)
	if hasArguments {
		b := fn.Declare(&scope.Binding{Name: "arguments", Kind: scope.Variable, ImplicitArguments: true})
		r.owners[b] = fn
	}

	if p := n.ChildByFieldName("parameter"); p != nil {
		// single unparenthesized arrow parameter
		r.declare(fn, p, scope.Parameter, &scope.ParamPosition{Index: 0, Count: 1})
	}
	if list := n.ChildByFieldName("parameters"); list != nil {
		var slots []*sitter.Node
		for _, c := range namedChildren(list) {
			if c.Type() == "comment" {
				r.visit(c, fn)
				continue
			}
			slots = append(slots, c)
		}
		for i, slot := range slots {
			pos := &scope.ParamPosition{Index: i, Count: len(slots)}
			r.bindPattern(slot, fn, func(id *sitter.Node) {
				r.declare(fn, id, scope.Parameter, pos)
			})
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "statement_block" {
		r.visitChildren(body, fn)
		return
	}
	r.visit(body, fn)
}

func (r *resolver) class(n *sitter.Node, s *scope.Scope, expression bool) {
	for _, c := range namedChildren(n) {
		if c.Type() == "class_heritage" {
			r.visitChildren(c, s)
		}
	}
	cls := r.child(s, scope.Class)
	if name := n.ChildByFieldName("name"); expression && name != nil {
		r.declare(cls, name, scope.ClassName, nil)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		r.visitChildren(body, cls)
	}
}

func (r *resolver) forStatement(n *sitter.Node, s *scope.Scope) {
	inner := s
	if init := n.ChildByFieldName("initializer"); init != nil && init.Type() == "lexical_declaration" {
		inner = r.child(s, scope.For)
	}
	r.visitChildren(n, inner)
}

func (r *resolver) forInStatement(n *sitter.Node, s *scope.Scope) {
	r.visit(n.ChildByFieldName("right"), s)

	left := n.ChildByFieldName("left")
	inner := s
	switch kind := n.ChildByFieldName("kind"); {
	case kind == nil:
		r.assignTarget(left, s, scope.Write)
	case kind.Type() == "var":
		target := r.varScope(s)
		r.bindPattern(left, s, func(id *sitter.Node) {
			r.declare(target, id, scope.Variable, nil)
			r.reference(id, s, scope.Write)
		})
	default:
		inner = r.child(s, scope.For)
		r.bindPattern(left, inner, func(id *sitter.Node) {
			r.declare(inner, id, scope.Variable, nil)
			r.reference(id, inner, scope.Write)
		})
	}
	r.visit(n.ChildByFieldName("body"), inner)
}

func (r *resolver) catchClause(n *sitter.Node, s *scope.Scope) {
	c := r.child(s, scope.Catch)
	r.bindPattern(n.ChildByFieldName("parameter"), c, func(id *sitter.Node) {
		r.declare(c, id, scope.CatchBinding, nil)
	})
	r.visit(n.ChildByFieldName("body"), c)
}

// importStatement binds import names in the program scope.
func (r *resolver) importStatement(n *sitter.Node) {
	var walk func(*sitter.Node)
	walk = func(c *sitter.Node) {
		switch c.Type() {
		case "import_clause", "named_imports", "namespace_import":
			for _, gc := range namedChildren(c) {
				walk(gc)
			}
		case "identifier":
			r.declare(r.root, c, scope.ImportBinding, nil)
		case "import_specifier":
			local := c.ChildByFieldName("alias")
			if local == nil {
				local = c.ChildByFieldName("name")
			}
			if local != nil && local.Type() == "identifier" {
				r.declare(r.root, local, scope.ImportBinding, nil)
			}
		case "comment":
			r.visit(c, r.root)
		}
	}
	for _, c := range namedChildren(n) {
		walk(c)
	}
}

// firstError returns the first ERROR or MISSING node under n.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return n
}
