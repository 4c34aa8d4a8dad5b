package store

import "sync"

// BatchedStore buffers scope-tree inserts in memory using fake (negative)
// IDs. It implements DataStore so tree writers don't need to know whether
// they're hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	Scopes       []Scope
	Bindings     []Binding
	Declarations []Declaration
	References   []Reference

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertScope(sc *Scope) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sc.ID = fakeID
	b.Scopes = append(b.Scopes, *sc)
	return fakeID, nil
}

func (b *BatchedStore) InsertBinding(bd *Binding) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	bd.ID = fakeID
	b.Bindings = append(b.Bindings, *bd)
	return fakeID, nil
}

func (b *BatchedStore) InsertDeclaration(d *Declaration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Declarations = append(b.Declarations, *d)
	return fakeID, nil
}

func (b *BatchedStore) InsertReference(ref *Reference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	ref.ID = fakeID
	b.References = append(b.References, *ref)
	return fakeID, nil
}

// Len returns the number of buffered rows.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Scopes) + len(b.Bindings) + len(b.Declarations) + len(b.References)
}
