// internal/status/codes.go
package status

import (
	"errors"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/fetcher"
)

// Last error codes written to SlotLastErrorCode.
const (
	CodeNone         uint16 = 0
	CodeGeneric      uint16 = 1
	CodeTimeout      uint16 = 10
	CodeBadStatus    uint16 = 11
	CodeTransport    uint16 = 12
	CodeInvalidJSON  uint16 = 20
	CodeMissingField uint16 = 21
)

// ErrorCode maps a cycle failure onto a status code.
// Errors outside the fetch/decode taxonomy map to CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	var fe *fetcher.Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case fetcher.KindTimeout:
			return CodeTimeout
		case fetcher.KindBadStatus:
			return CodeBadStatus
		case fetcher.KindTransport:
			return CodeTransport
		}
	}

	var de *decoder.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case decoder.KindInvalidJSON:
			return CodeInvalidJSON
		case decoder.KindMissingField:
			return CodeMissingField
		}
	}

	return CodeGeneric
}
