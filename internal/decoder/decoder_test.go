// internal/decoder/decoder_test.go
package decoder

import (
	"errors"
	"testing"
)

func payload(d2 string) string {
	return `{"d1":"ignored","d2":"` + d2 + `","d3":[1,2,3]}`
}

func TestDecode_AllSentinels(t *testing.T) {
	raw := payload("9999;x;2000;5.1;a;b;2172;7.4;c;2688;27.3")

	snap, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}

	want := Snapshot{Chlorine: "5.1", PH: "7.4", Temperature: "27.3"}
	if snap != want {
		t.Fatalf("got %+v want %+v", snap, want)
	}
	if !snap.Complete() {
		t.Fatalf("expected complete snapshot")
	}
}

func TestDecode_DeviceRecordLayout(t *testing.T) {
	// Three 13-token records, value right after the sentinel.
	d2 := "2000;0.42;0;0;1;2;3;4;5;6;7;8;9;" +
		"2172;7.21;0;0;1;2;3;4;5;6;7;8;9;" +
		"2688;26.8;0;0;1;2;3;4;5;6;7;8;9"

	snap, err := Decode(payload(d2))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}

	want := Snapshot{Chlorine: "0.42", PH: "7.21", Temperature: "26.8"}
	if snap != want {
		t.Fatalf("got %+v want %+v", snap, want)
	}
}

func TestDecode_NoSentinels(t *testing.T) {
	snap, err := Decode(payload("1;2;3;4;5"))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if snap != Empty() {
		t.Fatalf("expected all NotFound, got %+v", snap)
	}
	if snap.Complete() {
		t.Fatalf("empty snapshot must not be complete")
	}
}

func TestDecode_SentinelAsLastToken(t *testing.T) {
	snap, err := Decode(payload("2000;1.0;2172"))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if snap.Chlorine != "1.0" {
		t.Fatalf("chlorine: got %q", snap.Chlorine)
	}
	if snap.PH != NotFound {
		t.Fatalf("ph: got %q want %q", snap.PH, NotFound)
	}
}

func TestDecode_LastOccurrenceWins(t *testing.T) {
	snap, err := Decode(payload("2000;1.1;x;2000;2.2;y"))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if snap.Chlorine != "2.2" {
		t.Fatalf("chlorine: got %q want 2.2", snap.Chlorine)
	}
}

func TestDecode_SentinelAsValue(t *testing.T) {
	// A sentinel sitting in a value position is itself matched.
	snap, err := Decode(payload("2000;2172;7.0"))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if snap.Chlorine != "2172" || snap.PH != "7.0" {
		t.Fatalf("got %+v", snap)
	}
}

func TestDecode_EmptyTokensKeepPosition(t *testing.T) {
	snap, err := Decode(payload("2000;;2172;7.0"))
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	if snap.Chlorine != "" {
		t.Fatalf("chlorine: got %q want empty", snap.Chlorine)
	}
	if snap.PH != "7.0" {
		t.Fatalf("ph: got %q", snap.PH)
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"malformed", `{"d2":`, KindInvalidJSON},
		{"not an object", `["d2"]`, KindInvalidJSON},
		{"empty body", ``, KindInvalidJSON},
		{"missing d2", `{"d1":"2000;1"}`, KindMissingField},
		{"empty d2", `{"d2":""}`, KindMissingField},
		{"null d2", `{"d2":null}`, KindMissingField},
		{"numeric d2", `{"d2":2000}`, KindMissingField},
		{"null document", `null`, KindMissingField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			if err == nil {
				t.Fatalf("expected error")
			}
			var de *Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if de.Kind != tc.kind {
				t.Fatalf("kind: got %v want %v", de.Kind, tc.kind)
			}
		})
	}
}

func TestDecode_MissingFieldNamesD2(t *testing.T) {
	_, err := Decode(`{}`)
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if de.Field != FieldD2 {
		t.Fatalf("field: got %q", de.Field)
	}
}

func TestDecode_Idempotent(t *testing.T) {
	raw := payload("2000;0.5;2172;7.3;2688;28.0;2000;0.6")

	a, errA := Decode(raw)
	b, errB := Decode(raw)
	if errA != nil || errB != nil {
		t.Fatalf("errs: %v %v", errA, errB)
	}
	if a != b {
		t.Fatalf("not idempotent: %+v vs %+v", a, b)
	}
}

func TestSnapshotValue(t *testing.T) {
	s := Snapshot{Chlorine: "0.3", PH: "7.1", Temperature: "25"}

	for _, m := range Metrics {
		if _, ok := s.Value(m.Key); !ok {
			t.Fatalf("no value for metric %q", m.Key)
		}
	}
	if _, ok := s.Value("redox"); ok {
		t.Fatalf("unexpected value for unknown key")
	}
}
