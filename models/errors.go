package models

import "errors"

var (
	// ErrMalformedRecord marks a raw record with neither address nor price.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrSourceUnavailable marks a source that timed out or failed to fetch.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInsufficientResults marks a source below its minimum usable count.
	ErrInsufficientResults = errors.New("insufficient results")
	// ErrAllSourcesFailed is reported when no source in the chain succeeded.
	ErrAllSourcesFailed = errors.New("all sources failed")
	// ErrNotFound is returned by cache lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrUnknownSourceKind is returned when no adapter handles a source kind.
	ErrUnknownSourceKind = errors.New("unknown source kind")
)
