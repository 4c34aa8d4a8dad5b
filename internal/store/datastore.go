package store

// DataStore is the write side of scope-tree persistence. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// indexing) implement it.
type DataStore interface {
	// Each insert returns the assigned ID and sets it on the row.
	InsertScope(sc *Scope) (int64, error)
	InsertBinding(b *Binding) (int64, error)
	InsertDeclaration(d *Declaration) (int64, error)
	InsertReference(ref *Reference) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
