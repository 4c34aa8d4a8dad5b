package jsscope

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Language is the canonical language name recorded for resolved files.
const Language = "javascript"

// extensions lists the file extensions parsed with the JavaScript grammar.
var extensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// IsSource reports whether path has a JavaScript extension.
func IsSource(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns the recognized extensions, sorted.
func Extensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Grammar returns the tree-sitter JavaScript language.
func Grammar() *sitter.Language {
	return javascript.GetLanguage()
}
