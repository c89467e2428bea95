package oracle

import (
	"regexp"
	"strings"
)

// tagPattern matches the bracketed category keyword the prompt asks the
// model to conclude with, e.g. "[safe]".
var tagPattern = regexp.MustCompile(`\[(safe|unsafe|verification)\]`)

// extractCategory scans free text for bracketed category tags and returns
// the last one. Models often restate category names while reasoning before
// the concluding tag, so the final occurrence is authoritative.
func extractCategory(text string) (Category, bool) {
	matches := tagPattern.FindAllStringSubmatch(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return "", false
	}
	return Category(matches[len(matches)-1][1]), true
}
