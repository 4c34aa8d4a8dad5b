package store

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func lastID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// --- Scope operations ---

func insertScope(x execer, sc *Scope) (int64, error) {
	id, err := lastID(x.Exec(
		`INSERT INTO scopes (file_id, parent_scope_id, kind, function_expression_name) VALUES (?, ?, ?, ?)`,
		sc.FileID, sc.ParentScopeID, sc.Kind, sc.FunctionExpressionName,
	))
	if err != nil {
		return 0, err
	}
	sc.ID = id
	return id, nil
}

func (s *Store) InsertScope(sc *Scope) (int64, error) {
	return insertScope(s.db, sc)
}

func (s *Store) ScopesByFile(fileID int64) ([]*Scope, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, parent_scope_id, kind, function_expression_name FROM scopes WHERE file_id = ? ORDER BY id", fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("scopes by file: %w", err)
	}
	defer rows.Close()
	var scopes []*Scope
	for rows.Next() {
		sc := &Scope{}
		if err := rows.Scan(&sc.ID, &sc.FileID, &sc.ParentScopeID, &sc.Kind, &sc.FunctionExpressionName); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, rows.Err()
}

// --- Binding operations ---

func insertBinding(x execer, b *Binding) (int64, error) {
	id, err := lastID(x.Exec(
		`INSERT INTO bindings (file_id, scope_id, name, kind, param_index, param_count, implicit_arguments, explicit_global)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.FileID, b.ScopeID, b.Name, b.Kind, b.ParamIndex, b.ParamCount, b.ImplicitArguments, b.ExplicitGlobal,
	))
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

func (s *Store) InsertBinding(b *Binding) (int64, error) {
	return insertBinding(s.db, b)
}

const bindingCols = `id, file_id, scope_id, name, kind, param_index, param_count, implicit_arguments, explicit_global`

func (s *Store) queryBindings(query string, args ...any) ([]*Binding, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.ID, &b.FileID, &b.ScopeID, &b.Name, &b.Kind,
			&b.ParamIndex, &b.ParamCount, &b.ImplicitArguments, &b.ExplicitGlobal); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

func (s *Store) BindingsByFile(fileID int64) ([]*Binding, error) {
	return s.queryBindings("SELECT "+bindingCols+" FROM bindings WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) BindingsByName(name string) ([]*Binding, error) {
	return s.queryBindings("SELECT "+bindingCols+" FROM bindings WHERE name = ? ORDER BY id", name)
}

// --- Declaration operations ---

func insertDeclaration(x execer, d *Declaration) (int64, error) {
	id, err := lastID(x.Exec(
		"INSERT INTO declarations (binding_id, line, col) VALUES (?, ?, ?)",
		d.BindingID, d.Line, d.Col,
	))
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

func (s *Store) InsertDeclaration(d *Declaration) (int64, error) {
	return insertDeclaration(s.db, d)
}

func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	rows, err := s.db.Query(
		`SELECT d.id, d.binding_id, d.line, d.col FROM declarations d
		 JOIN bindings b ON b.id = d.binding_id
		 WHERE b.file_id = ? ORDER BY d.id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("declarations by file: %w", err)
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d := &Declaration{}
		if err := rows.Scan(&d.ID, &d.BindingID, &d.Line, &d.Col); err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

// --- Reference operations ---

func insertReference(x execer, ref *Reference) (int64, error) {
	id, err := lastID(x.Exec(
		"INSERT INTO references_ (file_id, binding_id, name, access, line, col) VALUES (?, ?, ?, ?, ?, ?)",
		ref.FileID, ref.BindingID, ref.Name, ref.Access, ref.Line, ref.Col,
	))
	if err != nil {
		return 0, err
	}
	ref.ID = id
	return id, nil
}

func (s *Store) InsertReference(ref *Reference) (int64, error) {
	return insertReference(s.db, ref)
}

const referenceCols = `id, file_id, binding_id, name, access, line, col`

func (s *Store) queryReferences(query string, args ...any) ([]*Reference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*Reference
	for rows.Next() {
		r := &Reference{}
		if err := rows.Scan(&r.ID, &r.FileID, &r.BindingID, &r.Name, &r.Access, &r.Line, &r.Col); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE file_id = ? ORDER BY id", fileID)
}

// ThroughReferences returns the file's references that resolved to no
// binding.
func (s *Store) ThroughReferences(fileID int64) ([]*Reference, error) {
	return s.queryReferences(
		"SELECT "+referenceCols+" FROM references_ WHERE file_id = ? AND binding_id IS NULL ORDER BY id", fileID,
	)
}
