package utils

import (
	"strings"
)

const (
	maxProblemTextLen = 2048
	maxTagLen         = 64
	maxTags           = 20
)

// NormalizeProblemText trims surrounding whitespace and caps the length.
func NormalizeProblemText(input string) string {
	return TruncateString(strings.TrimSpace(input), maxProblemTextLen)
}

// NormalizeTags trims each tag, drops empties and duplicates (case-insensitive)
// and keeps first-seen order. Never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = TruncateString(strings.TrimSpace(tag), maxTagLen)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

// SplitTags parses a comma separated tag list, as typed on the command line.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// TruncateString safely truncates a string to max length without splitting a rune
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	for len(string(runes)) > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
