package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{Global, Function, Block, Catch, Class, For, Switch} {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("module")
	assert.False(t, ok)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestDeclKind_Names(t *testing.T) {
	t.Parallel()
	got, ok := ParseDeclKind("catch")
	require.True(t, ok)
	assert.Equal(t, CatchBinding, got)

	text, err := Parameter.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "parameter", string(text))
}

func TestReference_IsRead(t *testing.T) {
	t.Parallel()
	tests := []struct {
		access Access
		read   bool
		write  bool
	}{
		{Read, true, false},
		{Write, false, true},
		{ReadWrite, true, true},
	}
	for _, tt := range tests {
		r := &Reference{Name: "x", Access: tt.access}
		assert.Equal(t, tt.read, r.IsRead(), tt.access.String())
		assert.Equal(t, tt.write, r.IsWrite(), tt.access.String())

		parsed, ok := ParseAccess(tt.access.String())
		require.True(t, ok)
		assert.Equal(t, tt.access, parsed)
	}
}

func TestBinding_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		binding Binding
		wantErr string
	}{
		{"variable", Binding{Name: "x", Kind: Variable}, ""},
		{"parameter", Binding{Name: "a", Kind: Parameter, Param: &ParamPosition{Index: 1, Count: 2}}, ""},
		{"no name", Binding{Kind: Variable}, "binding has no name"},
		{"parameter without position", Binding{Name: "a", Kind: Parameter}, `parameter "a" has no position`},
		{"variable with position", Binding{Name: "x", Kind: Variable, Param: &ParamPosition{Count: 1}}, `variable "x" carries a parameter position`},
		{"index out of range", Binding{Name: "a", Kind: Parameter, Param: &ParamPosition{Index: 2, Count: 2}}, `parameter "a" at index 2 of 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.binding.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestScope_DeclareAndLookup(t *testing.T) {
	t.Parallel()
	s := &Scope{Kind: Function}
	x := s.Declare(&Binding{Name: "x"})
	assert.Same(t, x, s.Lookup("x"))
	assert.Nil(t, s.Lookup("y"))
	assert.Panics(t, func() { s.Declare(&Binding{Name: "x"}) })
}

func TestScope_WalkOrder(t *testing.T) {
	t.Parallel()
	root := &Scope{Kind: Global}
	f := root.AddChild(&Scope{Kind: Function})
	f.AddChild(&Scope{Kind: Block})
	root.AddChild(&Scope{Kind: Class})

	var kinds []Kind
	root.Walk(func(s *Scope) bool {
		kinds = append(kinds, s.Kind)
		return true
	})
	assert.Equal(t, []Kind{Global, Function, Block, Class}, kinds)

	kinds = nil
	root.Walk(func(s *Scope) bool {
		kinds = append(kinds, s.Kind)
		return s.Kind != Function
	})
	assert.Equal(t, []Kind{Global, Function, Class}, kinds)
}

func TestPosition_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "3:7", Position{Line: 3, Col: 7}.String())
	assert.Equal(t, "a.js:3:7", Position{File: "a.js", Line: 3, Col: 7}.String())
}
