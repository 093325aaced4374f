package repository

import "strings"

// headerPrefixes are the recognized header lines of the formatted content
// blob. Lines starting with one of these are never part of the body.
var headerPrefixes = []string{"Name:", "Mood:", "Created:", "Word Count:", "Reading Time:"}

// ExtractPreview recovers up to 120 characters of body text from a formatted
// post blob. It is a heuristic over self-authored formatting: the writer
// controls the shape (title line, header lines, blank line, body, divider,
// reaction footer), which is the only reason skipping by prefix works. It is
// not a general document parser.
func ExtractPreview(text string) string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	bodyStart := -1
	for i, l := range lines {
		if isHeaderLine(l) {
			continue
		}
		if len([]rune(l)) > 20 {
			bodyStart = i
			break
		}
	}

	if bodyStart == -1 {
		return truncateRunes(strings.Join(lines[1:], " "), 120)
	}
	return truncateRunes(strings.Join(lines[bodyStart:], " "), 120)
}

func isHeaderLine(l string) bool {
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
