// Package simerr defines the error kinds raised when a simulation is
// misconfigured. Both kinds are raised before any simulation state exists.
package simerr

import (
	"errors"
	"fmt"
	"math"
)

// Kind classifies a configuration error.
type Kind string

const (
	// KindInvalidParameter covers probabilities, rates, or trust values outside
	// [0, 1] and non-positive agent or step counts.
	KindInvalidParameter Kind = "invalid_parameter"

	// KindInvalidTopology covers contact-network requests that the small-world
	// construction cannot satisfy.
	KindInvalidTopology Kind = "invalid_topology_parameters"
)

// Sentinels for errors.Is matching.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidTopology  = errors.New("invalid topology parameters")
)

// Error describes a single rejected configuration value.
type Error struct {
	Kind   Kind   `json:"kind"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", e.Kind, e.Field, e.Value, e.Reason)
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidParameter:
		return e.Kind == KindInvalidParameter
	case ErrInvalidTopology:
		return e.Kind == KindInvalidTopology
	}
	return false
}

// InvalidParameter builds a KindInvalidParameter error.
func InvalidParameter(field string, value any, reason string) *Error {
	return &Error{Kind: KindInvalidParameter, Field: field, Value: value, Reason: reason}
}

// InvalidTopology builds a KindInvalidTopology error.
func InvalidTopology(field string, value any, reason string) *Error {
	return &Error{Kind: KindInvalidTopology, Field: field, Value: value, Reason: reason}
}

// CheckUnit returns an InvalidParameter error unless v lies in [0, 1].
// NaN is rejected.
func CheckUnit(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return InvalidParameter(field, v, "must be between 0 and 1")
	}
	return nil
}

// CheckPositive returns an InvalidParameter error unless n > 0.
func CheckPositive(field string, n int) error {
	if n <= 0 {
		return InvalidParameter(field, n, "must be greater than 0")
	}
	return nil
}
