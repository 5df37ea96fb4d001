package parser

import "sort"

// buildLineStarts returns the byte offsets at which each line of text begins.
// Index 0 is always 0; entry i is the offset of line i+1 (1-based lines).
func buildLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineForOffset converts a byte offset into a 1-based line number: the count
// of newlines strictly preceding the offset, plus one.
func lineForOffset(lineStarts []int, offset int) int {
	// Find the first line start greater than offset; the line is the index
	// of the start at or before it.
	idx := sort.Search(len(lineStarts), func(i int) bool {
		return lineStarts[i] > offset
	})
	if idx <= 0 {
		return 1
	}
	return idx
}

// matchBrace scans forward from the opening brace at openIdx, incrementing a
// depth counter on '{' and decrementing on '}', and returns the offset of the
// brace that returns the depth to zero. Returns -1 when the end of text is
// reached first. Braces inside string, template, or regex literals and
// comments are counted like any others.
func matchBrace(text string, openIdx int) int {
	if openIdx < 0 || openIdx >= len(text) || text[openIdx] != '{' {
		return -1
	}

	depth := 0
	for i := openIdx; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
