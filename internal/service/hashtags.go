package service

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// extractHashtags returns the unique lowercased tags in text, in order of
// first appearance. Tags longer than 64 characters are dropped.
func extractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if len(tag) > 64 || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
