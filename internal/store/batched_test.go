package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertScope(&Scope{FileID: 1, Kind: "global"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id1)

	id2, err := batch.InsertBinding(&Binding{FileID: 1, ScopeID: id1, Name: "x", Kind: "variable"})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, 2, batch.Len())
}

func TestCommitBatch_RemapsIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.js")

	batch := NewBatchedStore()
	insertTestTree(t, batch, f.ID)

	// Nothing reaches SQLite before the commit.
	scopes, err := s.ScopesByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	require.NoError(t, s.CommitBatch(batch))

	scopes, err = s.ScopesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	for _, sc := range scopes {
		assert.Positive(t, sc.ID)
	}
	require.NotNil(t, scopes[1].ParentScopeID)
	assert.Equal(t, scopes[0].ID, *scopes[1].ParentScopeID)

	bindings, err := s.BindingsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, scopes[1].ID, bindings[0].ScopeID)

	decls, err := s.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, bindings[0].ID, decls[0].BindingID)

	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.NotNil(t, refs[0].BindingID)
	assert.Equal(t, bindings[0].ID, *refs[0].BindingID)
	assert.Nil(t, refs[1].BindingID)
}

func TestCommitBatch_UnknownFakeID(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.js")

	batch := NewBatchedStore()
	batch.Bindings = append(batch.Bindings, Binding{ID: -5, FileID: f.ID, ScopeID: -99, Name: "x", Kind: "variable"})

	err := s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown batch id -99")

	bindings, err := s.BindingsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, bindings, "failed commit rolls back")
}
