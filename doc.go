// Package unusedvars finds bindings that are declared but never read.
//
// The core works on a resolved scope tree (package scope): a root scope
// holding nested scopes, each with the bindings it declares and the
// references that touch them. Given a [Policy], [Check] returns one
// [Finding] per unused binding, local scopes first in depth-first order,
// then the root scope's bindings when globals are reported.
//
// # Policy
//
// A policy is normally parsed from rule options with [ParsePolicy]:
//
//	p := unusedvars.ParsePolicy(map[string]any{"vars": "local", "args": "none"})
//	for _, f := range unusedvars.Check(root, p) {
//		fmt.Println(f.Pos, f.Message())
//	}
//
// vars is "all" (default) or "local"; args is "after-used" (default),
// "none" or "all". Catch bindings, the implicit arguments object and the
// self-name of a named function expression are never reported.
//
// # Engine
//
// [Engine] runs the detector over JavaScript projects. It resolves source
// files with tree-sitter, stores their scope trees in SQLite and analyzes
// the stored trees:
//
//	e, err := unusedvars.New("unusedvars.db", unusedvars.WithPolicy(p))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//	reports, err := e.Analyze(ctx)
//
// [Engine.IndexFiles] detects unchanged files via content hashing and
// skips them, so re-analyzing under a different policy needs no
// re-resolution.
package unusedvars
