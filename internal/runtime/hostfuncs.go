package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/risor-io/risor/object"
)

// makeExistsFn creates the "exists" host function. Relative paths are
// taken from baseDir.
//
// exists(path) → bool
func makeExistsFn(baseDir string) *object.Builtin {
	return object.NewBuiltin("exists", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("exists", 1, len(args))
		}
		pathStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("exists: path must be a string, got %s", args[0].Type())
		}
		path := pathStr.Value()
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		_, err := os.Stat(path)
		return object.NewBool(err == nil)
	})
}

// makeGetenvFn creates the "getenv" host function.
//
// getenv(name) → string ("" when unset)
func makeGetenvFn() *object.Builtin {
	return object.NewBuiltin("getenv", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("getenv", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("getenv: name must be a string, got %s", args[0].Type())
		}
		return object.NewString(os.Getenv(name.Value()))
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	prefix string
	out    io.Writer
}

func (l *logObject) Info(msg string) {
	fmt.Fprintf(l.out, "[%s] INFO: %s\n", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	fmt.Fprintf(l.out, "[%s] WARN: %s\n", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	fmt.Fprintf(l.out, "[%s] ERROR: %s\n", l.prefix, msg)
}
