package parser

import "strings"

const summaryMaxLen = 100

// summarizeComment reduces the raw text of a documentation block
// (/** ... */) or a run of // line comments into a one-line summary.
//
// Delimiters and per-line markers are stripped, then lines are collected
// until an annotation line (@param, @returns, ...) is reached or a blank
// line follows already-collected content. Collected lines are joined with
// single spaces; if the joined text exceeds 100 characters and contains a
// period, it is cut at (and including) the first period. Returns "" when
// nothing was collected.
func summarizeComment(raw string) string {
	if raw == "" {
		return ""
	}

	var collected []string
	for _, line := range strings.Split(raw, "\n") {
		line = cleanCommentLine(line)

		if strings.HasPrefix(line, "@") {
			break
		}
		if line == "" {
			if len(collected) > 0 {
				break
			}
			continue
		}
		collected = append(collected, line)
	}

	if len(collected) == 0 {
		return ""
	}

	summary := strings.Join(collected, " ")
	if len(summary) > summaryMaxLen {
		if idx := strings.Index(summary, "."); idx >= 0 {
			summary = summary[:idx+1]
		}
	}
	return summary
}

// cleanCommentLine strips comment delimiters and leading markers from a
// single line of a comment block or line-comment run.
func cleanCommentLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/**")
	line = strings.TrimPrefix(line, "/*")
	line = strings.TrimSuffix(line, "*/")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "*")
	line = strings.TrimPrefix(line, "//")
	return strings.TrimSpace(line)
}
