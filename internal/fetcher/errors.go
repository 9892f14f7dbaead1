// internal/fetcher/errors.go
package fetcher

import "fmt"

// Kind classifies a fetch failure.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindBadStatus
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindBadStatus:
		return "bad_status"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a failed fetch. Exactly one attempt was made.
type Error struct {
	Kind       Kind
	StatusCode int   // KindBadStatus only
	Err        error // underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("fetcher: no response within deadline: %v", e.Err)
	case KindBadStatus:
		return fmt.Sprintf("fetcher: unexpected status %d", e.StatusCode)
	case KindTransport:
		return fmt.Sprintf("fetcher: transport: %v", e.Err)
	default:
		return fmt.Sprintf("fetcher: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
