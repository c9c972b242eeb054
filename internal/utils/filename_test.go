package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps a plain name",
			input:    "question bank.xlsx",
			expected: "question bank.xlsx",
		},
		{
			name:     "drops unix directories",
			input:    "../../etc/bank.csv",
			expected: "bank.csv",
		},
		{
			name:     "drops windows directories",
			input:    `C:\Users\admin\bank.csv`,
			expected: "bank.csv",
		},
		{
			name:     "removes invalid characters",
			input:    `ba<>:"|?*nk.csv`,
			expected: "bank.csv",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "my\nbank\tfile.csv",
			expected: "my bank file.csv",
		},
		{
			name:     "collapses multiple spaces",
			input:    "  my   bank .csv ",
			expected: "my bank .csv",
		},
		{
			name:     "names an empty input",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "names a bare extension",
			input:    ".csv",
			expected: "Untitled.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesAndKeepsExtension(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 300) + ".xlsx")
	assert.Len(t, got, maxFilenameLength)
	assert.True(t, strings.HasSuffix(got, ".xlsx"))
}
