package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and all FK references within the batch are rewritten using the
// fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Scopes (depend on file_id, parent_scope_id)
//  2. Bindings (depend on scope_id)
//  3. Declarations (depend on binding_id)
//  4. References (depend on binding_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("unknown batch id %d", id)
		}
		return realID, nil
	}

	// 1. Scopes. Parents precede children in the batch.
	for _, sc := range batch.Scopes {
		if sc.ParentScopeID != nil {
			realID, err := remap(*sc.ParentScopeID)
			if err != nil {
				return fmt.Errorf("commit batch: scope parent: %w", err)
			}
			sc.ParentScopeID = &realID
		}
		fakeID := sc.ID
		realID, err := insertScope(tx, &sc)
		if err != nil {
			return fmt.Errorf("commit batch: scope: %w", err)
		}
		fakeToReal[fakeID] = realID
	}

	// 2. Bindings
	for _, b := range batch.Bindings {
		if b.ScopeID, err = remap(b.ScopeID); err != nil {
			return fmt.Errorf("commit batch: binding %q: %w", b.Name, err)
		}
		fakeID := b.ID
		realID, err := insertBinding(tx, &b)
		if err != nil {
			return fmt.Errorf("commit batch: binding %q: %w", b.Name, err)
		}
		fakeToReal[fakeID] = realID
	}

	// 3. Declarations
	for _, d := range batch.Declarations {
		if d.BindingID, err = remap(d.BindingID); err != nil {
			return fmt.Errorf("commit batch: declaration: %w", err)
		}
		if _, err := insertDeclaration(tx, &d); err != nil {
			return fmt.Errorf("commit batch: declaration: %w", err)
		}
	}

	// 4. References
	for _, ref := range batch.References {
		if ref.BindingID != nil {
			realID, err := remap(*ref.BindingID)
			if err != nil {
				return fmt.Errorf("commit batch: reference %q: %w", ref.Name, err)
			}
			ref.BindingID = &realID
		}
		if _, err := insertReference(tx, &ref); err != nil {
			return fmt.Errorf("commit batch: reference %q: %w", ref.Name, err)
		}
	}

	return tx.Commit()
}
