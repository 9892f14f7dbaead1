// internal/decoder/errors.go
package decoder

import "fmt"

// Kind classifies a decode failure.
type Kind int

const (
	KindInvalidJSON Kind = iota + 1
	KindMissingField
)

func (k Kind) String() string {
	switch k {
	case KindInvalidJSON:
		return "invalid_json"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// Error is a structural decode failure. Token-level mismatches are never errors.
type Error struct {
	Kind  Kind
	Field string // KindMissingField only
	Err   error  // KindInvalidJSON only
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidJSON:
		return fmt.Sprintf("decoder: invalid json: %v", e.Err)
	case KindMissingField:
		return fmt.Sprintf("decoder: field %q not found in response", e.Field)
	default:
		return "decoder: unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }
