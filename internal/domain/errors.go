package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownStore is returned when a store selector is not registered
	ErrUnknownStore = errors.New("unknown store selector")

	// ErrStoreFetchFailed is returned when a single store collaborator fails
	ErrStoreFetchFailed = errors.New("store fetch failed")

	// ErrAllStoresFailed is returned when every requested collaborator failed
	ErrAllStoresFailed = errors.New("all store fetches failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// AggregateError carries the collected per-store failure details for a
// search where every requested collaborator failed.
type AggregateError struct {
	Warnings []Warning
}

func (e *AggregateError) Error() string { return ErrAllStoresFailed.Error() }

func (e *AggregateError) Unwrap() error { return ErrAllStoresFailed }
