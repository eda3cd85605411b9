package service

import (
	"errors"
	"fmt"

	"github.com/voyagen/regiontv/internal/models"
)

// ErrorKind classifies why one leg of a playlist load failed.
type ErrorKind int

const (
	FetchFailure ErrorKind = iota + 1 // non-2xx or transport error
	ShapeFailure                      // JSON undecodable or of an unknown shape
	ParseFailure                      // PLS text unreadable
	EmptyResult                       // parsed fine but no usable entries
)

func (k ErrorKind) String() string {
	switch k {
	case FetchFailure:
		return "fetch failure"
	case ShapeFailure:
		return "shape failure"
	case ParseFailure:
		return "parse failure"
	case EmptyResult:
		return "empty result"
	default:
		return "unknown"
	}
}

// LegError is the failure of the JSON or the PLS leg of a load.
type LegError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *LegError) Unwrap() error { return e.Err }

// LoadError is a terminal load failure: the JSON leg failed and so did the PLS fallback.
type LoadError struct {
	Region models.Region
	JSON   *LegError
	PLS    *LegError
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: json: %v; pls: %v", e.Region, e.JSON, e.PLS)
}

// Kind is the kind of the terminal (PLS) failure.
func (e *LoadError) Kind() ErrorKind {
	if e.PLS != nil {
		return e.PLS.Kind
	}
	if e.JSON != nil {
		return e.JSON.Kind
	}
	return 0
}

// Message is the user-facing text for the failed region.
func (e *LoadError) Message() string {
	return fmt.Sprintf("Failed to load channels for %s. The source file might not exist or be temporarily unavailable.", e.Region)
}

// Unwrap exposes both legs to errors.Is / errors.As.
func (e *LoadError) Unwrap() []error {
	var errs []error
	if e.JSON != nil {
		errs = append(errs, e.JSON)
	}
	if e.PLS != nil {
		errs = append(errs, e.PLS)
	}
	return errs
}

// IsKind reports whether err carries a leg failure of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return (le.JSON != nil && le.JSON.Kind == kind) || (le.PLS != nil && le.PLS.Kind == kind)
	}
	var leg *LegError
	return errors.As(err, &leg) && leg.Kind == kind
}
