package model

import (
	"errors"
	"net/http"
)

// analysis errors as sentinel codes, mapped to an HTTP status and a
// user-facing message by StatusCode / NewAPIError
var (
	ErrInvalidUsername   = errors.New("INVALID_USERNAME")
	ErrUserNotFound      = errors.New("USER_NOT_FOUND")
	ErrGithubRateLimited = errors.New("GITHUB_RATE_LIMIT_REACHED")
	ErrRateLimited       = errors.New("RATE_LIMIT_REACHED")
	ErrFetch             = errors.New("FETCH_ERROR")
)

type APIError struct {
	Error string `json:"error"`
}

func NewAPIError(errReason error) APIError {
	switch {
	case errors.Is(errReason, ErrInvalidUsername):
		return APIError{Error: "Invalid GitHub username"}

	case errors.Is(errReason, ErrUserNotFound):
		return APIError{Error: "GitHub user not found"}

	case errors.Is(errReason, ErrGithubRateLimited):
		return APIError{Error: "GitHub API rate limit exceeded. Please try again later."}

	case errors.Is(errReason, ErrRateLimited):
		return APIError{Error: "Rate limit exceeded. Please try again later."}

	case errors.Is(errReason, ErrFetch):
		return APIError{Error: "Failed to fetch data from GitHub. Please try again later."}

	default:
		return APIError{Error: errReason.Error()}
	}
}

// StatusCode maps an analysis error to the HTTP status served to the caller.
// Both rate limit flavours map to 429, with distinguishable message text.
func StatusCode(errReason error) int {
	switch {
	case errors.Is(errReason, ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(errReason, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(errReason, ErrGithubRateLimited), errors.Is(errReason, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
