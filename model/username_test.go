package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtractUsername will test handle extraction from handles and profile URLs
func TestExtractUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		valid    bool
	}{
		{name: "Bare handle", input: "devuser", expected: "devuser", valid: true},
		{name: "Handle with hyphen", input: "dev-user", expected: "dev-user", valid: true},
		{name: "Handle with surrounding spaces", input: "  devuser  ", expected: "devuser", valid: true},
		{name: "Full profile URL", input: "https://github.com/devuser", expected: "devuser", valid: true},
		{name: "Profile URL with trailing slash", input: "https://github.com/devuser/", expected: "devuser", valid: true},
		{name: "Profile URL without scheme", input: "github.com/devuser", expected: "devuser", valid: true},
		{name: "Profile URL with www", input: "https://www.github.com/devuser", expected: "devuser", valid: true},
		{name: "Empty input", input: "", valid: false},
		{name: "Blank input", input: "   ", valid: false},
		{name: "Leading hyphen", input: "-devuser", valid: false},
		{name: "Trailing hyphen", input: "devuser-", valid: false},
		{name: "Repository URL is not a profile", input: "https://github.com/devuser/repo", valid: false},
		{name: "Other host", input: "https://gitlab.com/devuser", valid: false},
		{name: "Handle with spaces", input: "not a user", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := ExtractUsername(tt.input)

			if tt.valid {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, username)
			} else {
				assert.ErrorIs(t, err, ErrInvalidUsername)
			}
		})
	}
}
