// internal/decoder/decoder.go
package decoder

import (
	"encoding/json"
	"strings"
)

// NotFound is the value of a metric whose sentinel is absent from d2.
const NotFound = "Not found"

// FieldD2 is the only JSON field the device payload is read for.
const FieldD2 = "d2"

// Separator splits d2 into tokens.
const Separator = ";"

// RecordStride is the token distance between records of the same family.
// The scan does not jump by it; see Decode.
const RecordStride = 13

// Metric describes one decoded value.
type Metric struct {
	Key  string
	Code string // sentinel token preceding the value
	Unit string
}

// Metrics is the fixed device record table.
var Metrics = []Metric{
	{Key: "chlorine", Code: "2000", Unit: "mg/l"},
	{Key: "ph", Code: "2172", Unit: "pH"},
	{Key: "temperature", Code: "2688", Unit: "°C"},
}

// Snapshot is one decoded reading. Values are opaque device strings.
type Snapshot struct {
	Chlorine    string `json:"chlorine"`
	PH          string `json:"ph"`
	Temperature string `json:"temperature"`
}

// Empty returns a snapshot with every field set to NotFound.
func Empty() Snapshot {
	return Snapshot{
		Chlorine:    NotFound,
		PH:          NotFound,
		Temperature: NotFound,
	}
}

// Value returns the value for a Metrics key.
func (s Snapshot) Value(key string) (string, bool) {
	switch key {
	case "chlorine":
		return s.Chlorine, true
	case "ph":
		return s.PH, true
	case "temperature":
		return s.Temperature, true
	}
	return "", false
}

// Complete reports whether every metric was found.
func (s Snapshot) Complete() bool {
	return s.Chlorine != NotFound && s.PH != NotFound && s.Temperature != NotFound
}

func (s *Snapshot) set(code, v string) {
	switch code {
	case "2000":
		s.Chlorine = v
	case "2172":
		s.PH = v
	case "2688":
		s.Temperature = v
	}
}

// Decode parses a raw device payload into a Snapshot.
// Pure: no IO, no state.
//
// Every index of d2 is examined. When a token is a sentinel code and a
// token follows it, that next token becomes the value. A repeated
// sentinel overwrites the earlier value (last occurrence wins); the
// record stride is not used to skip ahead.
func Decode(raw string) (Snapshot, error) {
	tokens, err := Tokens(raw)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Empty()

	for i, tok := range tokens {
		if i+1 >= len(tokens) {
			break
		}
		snap.set(tok, tokens[i+1])
	}

	return snap, nil
}

// Tokens returns the d2 token sequence of a payload, empty tokens kept.
func Tokens(raw string) ([]string, error) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return nil, &Error{Kind: KindInvalidJSON, Err: err}
	}
	d2, ok := stringField(frame, FieldD2)
	if !ok || d2 == "" {
		return nil, &Error{Kind: KindMissingField, Field: FieldD2}
	}
	return strings.Split(d2, Separator), nil
}

func stringField(frame map[string]json.RawMessage, name string) (string, bool) {
	rawField, ok := frame[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(rawField, &s); err != nil {
		// null, numbers, objects: not a string
		return "", false
	}
	return s, true
}
