package store

import "time"

// Row types. Slices of each are ordered by ID, which follows insertion
// order, so a tree written depth-first reads back in the same order.

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}

type Scope struct {
	ID                     int64
	FileID                 int64
	ParentScopeID          *int64
	Kind                   string
	FunctionExpressionName bool
}

type Binding struct {
	ID                int64
	FileID            int64
	ScopeID           int64
	Name              string
	Kind              string
	ParamIndex        *int
	ParamCount        *int
	ImplicitArguments bool
	ExplicitGlobal    bool
}

type Declaration struct {
	ID        int64
	BindingID int64
	Line      int
	Col       int
}

// Reference is a use of a name. BindingID is nil for through references.
type Reference struct {
	ID        int64
	FileID    int64
	BindingID *int64
	Name      string
	Access    string
	Line      int
	Col       int
}

// Finding is a stored unused-binding report. Line and Col are nil for
// bindings without declaring syntax.
type Finding struct {
	ID      int64
	FileID  int64
	Path    string
	Name    string
	Kind    string
	Line    *int
	Col     *int
	Message string
}
