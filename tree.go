package unusedvars

import (
	"fmt"

	"github.com/jward/unusedvars/internal/store"
	"github.com/jward/unusedvars/scope"
)

// writeTree flattens root into rows on w. Scopes are written parents
// first with each parent's children contiguous and in order, so reading
// them back by ID rebuilds the same tree. Through references are written
// last with no binding.
func writeTree(w store.DataStore, fileID int64, root *scope.Scope) error {
	ids := make(map[*scope.Scope]int64)
	rootRow := &store.Scope{FileID: fileID, Kind: root.Kind.String(), FunctionExpressionName: root.FunctionExpressionName}
	if _, err := w.InsertScope(rootRow); err != nil {
		return fmt.Errorf("write tree: scope: %w", err)
	}
	ids[root] = rootRow.ID

	var err error
	root.Walk(func(s *scope.Scope) bool {
		if err != nil {
			return false
		}
		scopeID := ids[s]
		for _, c := range s.Children {
			row := &store.Scope{
				FileID:                 fileID,
				ParentScopeID:          &scopeID,
				Kind:                   c.Kind.String(),
				FunctionExpressionName: c.FunctionExpressionName,
			}
			if _, err = w.InsertScope(row); err != nil {
				err = fmt.Errorf("write tree: scope: %w", err)
				return false
			}
			ids[c] = row.ID
		}
		for _, b := range s.Bindings {
			if err = writeBinding(w, fileID, scopeID, b); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for _, ref := range root.Through {
		if err := writeReference(w, fileID, nil, ref); err != nil {
			return err
		}
	}
	return nil
}

func writeBinding(w store.DataStore, fileID, scopeID int64, b *scope.Binding) error {
	row := &store.Binding{
		FileID:            fileID,
		ScopeID:           scopeID,
		Name:              b.Name,
		Kind:              b.Kind.String(),
		ImplicitArguments: b.ImplicitArguments,
		ExplicitGlobal:    b.ExplicitGlobal,
	}
	if b.Param != nil {
		row.ParamIndex = &b.Param.Index
		row.ParamCount = &b.Param.Count
	}
	if _, err := w.InsertBinding(row); err != nil {
		return fmt.Errorf("write tree: binding %q: %w", b.Name, err)
	}
	for _, d := range b.Declarations {
		if _, err := w.InsertDeclaration(&store.Declaration{BindingID: row.ID, Line: d.Line, Col: d.Col}); err != nil {
			return fmt.Errorf("write tree: declaration of %q: %w", b.Name, err)
		}
	}
	bindingID := row.ID
	for _, ref := range b.References {
		if err := writeReference(w, fileID, &bindingID, ref); err != nil {
			return err
		}
	}
	return nil
}

func writeReference(w store.DataStore, fileID int64, bindingID *int64, ref *scope.Reference) error {
	_, err := w.InsertReference(&store.Reference{
		FileID:    fileID,
		BindingID: bindingID,
		Name:      ref.Name,
		Access:    ref.Access.String(),
		Line:      ref.Pos.Line,
		Col:       ref.Pos.Col,
	})
	if err != nil {
		return fmt.Errorf("write tree: reference %q: %w", ref.Name, err)
	}
	return nil
}

// loadTree rebuilds the scope tree stored for f. Positions carry f.Path.
func loadTree(s *store.Store, f *store.File) (*scope.Scope, error) {
	scopeRows, err := s.ScopesByFile(f.ID)
	if err != nil {
		return nil, err
	}
	var root *scope.Scope
	scopes := make(map[int64]*scope.Scope, len(scopeRows))
	for _, row := range scopeRows {
		kind, ok := scope.ParseKind(row.Kind)
		if !ok {
			return nil, fmt.Errorf("load tree %s: unknown scope kind %q", f.Path, row.Kind)
		}
		sc := &scope.Scope{Kind: kind, FunctionExpressionName: row.FunctionExpressionName}
		scopes[row.ID] = sc
		if row.ParentScopeID == nil {
			if root != nil {
				return nil, fmt.Errorf("load tree %s: more than one root scope", f.Path)
			}
			root = sc
			continue
		}
		parent, ok := scopes[*row.ParentScopeID]
		if !ok {
			return nil, fmt.Errorf("load tree %s: scope %d precedes its parent %d", f.Path, row.ID, *row.ParentScopeID)
		}
		parent.AddChild(sc)
	}
	if root == nil {
		return nil, fmt.Errorf("load tree %s: no root scope", f.Path)
	}

	bindingRows, err := s.BindingsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	bindings := make(map[int64]*scope.Binding, len(bindingRows))
	for _, row := range bindingRows {
		kind, ok := scope.ParseDeclKind(row.Kind)
		if !ok {
			return nil, fmt.Errorf("load tree %s: unknown binding kind %q", f.Path, row.Kind)
		}
		b := &scope.Binding{
			Name:              row.Name,
			Kind:              kind,
			ImplicitArguments: row.ImplicitArguments,
			ExplicitGlobal:    row.ExplicitGlobal,
		}
		if row.ParamIndex != nil && row.ParamCount != nil {
			b.Param = &scope.ParamPosition{Index: *row.ParamIndex, Count: *row.ParamCount}
		}
		owner, ok := scopes[row.ScopeID]
		if !ok {
			return nil, fmt.Errorf("load tree %s: binding %q has no scope %d", f.Path, row.Name, row.ScopeID)
		}
		owner.Declare(b)
		bindings[row.ID] = b
	}

	decls, err := s.DeclarationsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		b := bindings[d.BindingID]
		b.Declarations = append(b.Declarations, scope.Position{File: f.Path, Line: d.Line, Col: d.Col})
	}

	refs, err := s.ReferencesByFile(f.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range refs {
		access, ok := scope.ParseAccess(row.Access)
		if !ok {
			return nil, fmt.Errorf("load tree %s: unknown access %q", f.Path, row.Access)
		}
		ref := &scope.Reference{
			Name:   row.Name,
			Access: access,
			Pos:    scope.Position{File: f.Path, Line: row.Line, Col: row.Col},
		}
		if row.BindingID == nil {
			root.Through = append(root.Through, ref)
			continue
		}
		b := bindings[*row.BindingID]
		ref.Target = b
		b.References = append(b.References, ref)
	}
	return root, nil
}
