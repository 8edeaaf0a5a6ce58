package review

import "errors"

var (
	// ErrConfiguration is returned when the analysis service has no credential.
	ErrConfiguration = errors.New("review: analysis service not configured")
	// ErrEmptyResponse is returned when the analysis service answers without a body.
	ErrEmptyResponse = errors.New("review: empty response from analysis service")
	// ErrMalformedResponse is returned when the body does not match the review schema.
	ErrMalformedResponse = errors.New("review: malformed response from analysis service")
)
