package model

import (
	"regexp"
	"strings"
)

// github handle: alphanumeric with inner hyphens, no leading/trailing hyphen
var (
	handlePattern     = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	profileURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?github\.com/([a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)/?$`)
)

// ExtractUsername resolves the account handle from either a bare handle or a
// profile URL in GitHub's canonical form (https://github.com/<handle>).
// Returns ErrInvalidUsername when no handle can be extracted.
func ExtractUsername(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return "", ErrInvalidUsername
	}

	// bare handle: no path separator, no dot
	if !strings.ContainsAny(trimmed, "/.") {
		if handlePattern.MatchString(trimmed) {
			return trimmed, nil
		}

		return "", ErrInvalidUsername
	}

	if match := profileURLPattern.FindStringSubmatch(trimmed); match != nil {
		return match[1], nil
	}

	return "", ErrInvalidUsername
}
