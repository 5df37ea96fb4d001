package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeComment(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "single line jsdoc",
			raw:      "/** Adds two numbers. */",
			expected: "Adds two numbers.",
		},
		{
			name:     "continuation lines joined",
			raw:      "/**\n * Parses the input\n * and returns tokens.\n */",
			expected: "Parses the input and returns tokens.",
		},
		{
			name:     "stops at annotation",
			raw:      "/** Summary line.\n * @param x the input\n * @returns a value\n */",
			expected: "Summary line.",
		},
		{
			name:     "stops at blank line after content",
			raw:      "/** First part.\n *\n * Second part. */",
			expected: "First part.",
		},
		{
			name:     "leading blank lines skipped",
			raw:      "/**\n *\n * Actual text.\n */",
			expected: "Actual text.",
		},
		{
			name:     "line comment run",
			raw:      "// Validates the payload.\n// Returns null on error.\n",
			expected: "Validates the payload. Returns null on error.",
		},
		{
			name:     "annotation only",
			raw:      "/** @internal */",
			expected: "",
		},
		{
			name:     "empty",
			raw:      "",
			expected: "",
		},
		{
			name: "long text cut at first sentence",
			raw: "/** Computes the aggregate total. This sentence pads the summary " +
				"well past the configured limit of one hundred characters. */",
			expected: "Computes the aggregate total.",
		},
		{
			name: "long text without period kept whole",
			raw: "// aggregates running totals across every currently registered " +
				"collector shard including remote and locally buffered ones\n",
			expected: "aggregates running totals across every currently registered " +
				"collector shard including remote and locally buffered ones",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, summarizeComment(tt.raw))
		})
	}
}

func TestCleanCommentLine(t *testing.T) {
	assert.Equal(t, "text", cleanCommentLine("  /** text */  "))
	assert.Equal(t, "text", cleanCommentLine(" * text"))
	assert.Equal(t, "text", cleanCommentLine("// text"))
	assert.Equal(t, "", cleanCommentLine(" */"))
	assert.Equal(t, "", cleanCommentLine(""))
}
