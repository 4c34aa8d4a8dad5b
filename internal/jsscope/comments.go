package jsscope

import (
	"regexp"
	"strings"
)

var (
	globalCommentRe = regexp.MustCompile(`(?s)^/\*\s*globals?\s(.*)\*/$`)
	colonRe         = regexp.MustCompile(`\s*:\s*`)
	commaRe         = regexp.MustCompile(`\s*,\s*`)
)

// parseGlobalComment returns the names declared by a block comment of the
// form /* global a, b:true */ or /* globals a b */. Any ":value" suffix is
// dropped.
func parseGlobalComment(text string) []string {
	m := globalCommentRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	body := colonRe.ReplaceAllString(m[1], ":")
	body = commaRe.ReplaceAllString(body, ",")

	var names []string
	for _, field := range strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		name, _, _ := strings.Cut(field, ":")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
