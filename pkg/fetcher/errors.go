package fetcher

import (
	"errors"
	"fmt"
)

// maxBodyExcerpt bounds how much of a failed response body is kept for diagnosis.
const maxBodyExcerpt = 500

var (
	ErrMissingAPIKey   = errors.New("API key not found: set N8N_API_KEY or pass an API key")
	ErrMissingEndpoint = errors.New("API URL not found: set N8N_BASE_URL or pass a base URL")
	ErrInvalidPageSize = errors.New("page size must be a positive integer")
)

// RequestError reports a request that never produced a response.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s: %s", e.StatusCode, e.URL, e.Body)
}

// DecodeError reports a response body that is not a valid workflow page.
type DecodeError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON. Status: %d, URL: %s, Content: %s...", e.StatusCode, e.URL, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return string(body)
}
