package unusedvars

import (
	"github.com/jward/unusedvars/internal/store"
	"github.com/jward/unusedvars/scope"
)

// Public type aliases for the scope model and store types used in the
// Engine API. These are Go type aliases (=), identical to the underlying
// types at compile time. External consumers use these names; no
// conversion is needed.

type Scope = scope.Scope
type Binding = scope.Binding
type Reference = scope.Reference
type Position = scope.Position

type Store = store.Store
type File = store.File
