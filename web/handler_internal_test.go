package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeReturnToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty defaults to root",
			input:    "",
			expected: "/",
		},
		{
			name:     "relative path is allowed",
			input:    "/discussions/123/replies",
			expected: "/discussions/123/replies",
		},
		{
			name:     "relative path with query is allowed",
			input:    "/discussions/123/replies?expanded=true",
			expected: "/discussions/123/replies?expanded=true",
		},
		{
			name:     "relative path with fragment is allowed",
			input:    "/knowledge/123#likes",
			expected: "/knowledge/123#likes",
		},
		{
			name:     "missing leading slash is rejected",
			input:    "knowledge/123",
			expected: "/",
		},
		{
			name:     "absolute url is rejected",
			input:    "https://evil.com",
			expected: "/",
		},
		{
			name:     "protocol relative url is rejected",
			input:    "//evil.com",
			expected: "/",
		},
		{
			name:     "triple slash is rejected",
			input:    "///evil.com",
			expected: "/",
		},
		{
			name:     "absolute url text as local path is allowed",
			input:    "/https://evil.com",
			expected: "/https://evil.com",
		},
		{
			name:     "backslash after slash is rejected",
			input:    "/\\evil.com",
			expected: "/",
		},
		{
			name:     "double slash in local path is allowed",
			input:    "/foo//bar",
			expected: "/foo//bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := sanitizeReturnToPath(tt.input)

			assert.Equal(t, tt.expected, result)
		})
	}
}
