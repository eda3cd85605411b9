package fetcher

import "errors"

// RawEntry is one undecoded channel entry as found in a JSON or PLS playlist.
type RawEntry map[string]any

// Errors produced while turning a payload into raw entries.
var (
	// ErrShape means the JSON payload is not an array, named array or keyed mapping.
	ErrShape = errors.New("unrecognized playlist shape")
	// ErrEmpty means the payload decoded but held no entries.
	ErrEmpty = errors.New("playlist is empty")
)
