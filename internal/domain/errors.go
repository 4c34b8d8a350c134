package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the API server is unreachable
	ErrServerOffline = errors.New("server is unreachable")

	// ErrAuthFailed indicates the API token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownResource indicates a list name that no screen serves
	ErrUnknownResource = errors.New("unknown resource")
)
