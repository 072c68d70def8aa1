package domain

import "errors"

var (
	// ErrInvalidLogin is returned when the site rejects a credential.
	ErrInvalidLogin = errors.New("invalid login")

	// ErrLoginInputNotFound is returned when no credential input is on the page.
	ErrLoginInputNotFound = errors.New("login input not found")

	// ErrResponseTimeout is returned when no matching API response arrives in time.
	ErrResponseTimeout = errors.New("timed out waiting for api response")

	// ErrMalformedPost marks a candidate node without a timestamp or text.
	// It is logged and skipped, never returned from a collection run.
	ErrMalformedPost = errors.New("malformed post")

	// ErrNoBoundary is returned when a collector has nothing to stop on.
	ErrNoBoundary = errors.New("no termination boundary configured")

	// ErrInvalidDate is returned when a window bound is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTarget is returned for an empty account or list id.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrRateLimited is returned when rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)
