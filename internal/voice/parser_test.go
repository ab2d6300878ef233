package voice

import "testing"

func TestParseBrakeMeasurementFair(t *testing.T) {
	f := Parse("front brakes at 5 millimeters")

	if f.Component != "front brake pads" {
		t.Errorf("component = %q, want front brake pads", f.Component)
	}
	if f.Status != StatusFair {
		t.Errorf("status = %q, want fair", f.Status)
	}
	if f.Action != ActionMonitor {
		t.Errorf("action = %q, want monitor", f.Action)
	}
	if f.Measurement == nil {
		t.Fatal("expected a measurement")
	}
	if f.Measurement.Value != 5 || f.Measurement.Unit != "mm" {
		t.Errorf("measurement = %+v, want 5 mm", f.Measurement)
	}
	if f.Confidence < 0.7 {
		t.Errorf("confidence = %f, want >= 0.7", f.Confidence)
	}
}

func TestParseBrakeMeasurementCritical(t *testing.T) {
	f := Parse("front brake pads down to 2mm")

	if f.Status != StatusCritical {
		t.Errorf("status = %q, want critical", f.Status)
	}
	if f.Action != ActionReplace {
		t.Errorf("action = %q, want replace", f.Action)
	}
	if f.Measurement == nil || f.Measurement.Value != 2 {
		t.Fatalf("measurement = %+v, want 2 mm", f.Measurement)
	}
}

func TestParseKeywordOnly(t *testing.T) {
	f := Parse("oil level looks good")

	if f.Component != "oil level" {
		t.Errorf("component = %q, want oil level", f.Component)
	}
	if f.Status != StatusGood {
		t.Errorf("status = %q, want good", f.Status)
	}
	if f.Action != ActionNone {
		t.Errorf("action = %q, want none", f.Action)
	}
	if f.Measurement != nil {
		t.Errorf("measurement = %+v, want nil", f.Measurement)
	}
}

func TestParseMeasurementOverridesKeyword(t *testing.T) {
	// Spoken impression says fine, the number says otherwise.
	f := Parse("rear brakes look okay, about 2 millimeters left")

	if f.Status != StatusCritical {
		t.Errorf("status = %q, want critical (threshold override)", f.Status)
	}
	if f.Action != ActionReplace {
		t.Errorf("action = %q, want replace", f.Action)
	}
}

func TestParseTreadFraction(t *testing.T) {
	f := Parse("tire tread at 3/32")

	if f.Component != "tire tread" {
		t.Errorf("component = %q, want tire tread", f.Component)
	}
	if f.Measurement == nil || f.Measurement.Unit != "32nds" || f.Measurement.Value != 3 {
		t.Fatalf("measurement = %+v, want 3 32nds", f.Measurement)
	}
	if f.Status != StatusCritical {
		t.Errorf("status = %q, want critical", f.Status)
	}
}

func TestParseBatteryVoltage(t *testing.T) {
	cases := []struct {
		text   string
		status string
	}{
		{"battery reads 12.6 volts", StatusGood},
		{"battery at 12.2v", StatusFair},
		{"battery is down to 11.8 volts", StatusCritical},
	}
	for _, tc := range cases {
		f := Parse(tc.text)
		if f.Status != tc.status {
			t.Errorf("Parse(%q).Status = %q, want %q", tc.text, f.Status, tc.status)
		}
		if f.Measurement == nil || f.Measurement.Unit != "V" {
			t.Errorf("Parse(%q) measurement = %+v, want volts", tc.text, f.Measurement)
		}
	}
}

func TestParseUnknownComponentZeroConfidence(t *testing.T) {
	f := Parse("the flux capacitor is fluxing")

	if f.Component != "" {
		t.Errorf("component = %q, want empty", f.Component)
	}
	if f.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", f.Confidence)
	}
}

func TestParseNoStatusSignalZeroConfidence(t *testing.T) {
	f := Parse("checked the air filter today")

	// "checked" contains "check" only as a substring; word-boundary
	// matching must not fire, and "air filter" has no thresholds.
	if f.Component != "air filter" {
		t.Errorf("component = %q, want air filter", f.Component)
	}
	if f.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 without a status signal", f.Confidence)
	}
}

func TestParseDeterministic(t *testing.T) {
	const text = "Front brakes at 5 millimeters, slightly worn."
	first := Parse(text)
	for i := 0; i < 10; i++ {
		if got := Parse(text); got != first {
			if got.Measurement == nil || first.Measurement == nil || *got.Measurement != *first.Measurement ||
				got.Component != first.Component || got.Status != first.Status ||
				got.Action != first.Action || got.Confidence != first.Confidence {
				t.Fatalf("parse not deterministic: %+v vs %+v", got, first)
			}
		}
	}
}

func TestParseCaseAndPunctuationInsensitive(t *testing.T) {
	a := Parse("FRONT BRAKES at 5 Millimeters!!!")
	b := Parse("front brakes at 5 millimeters")

	if a.Component != b.Component || a.Status != b.Status || a.Confidence != b.Confidence {
		t.Errorf("canonicalization mismatch: %+v vs %+v", a, b)
	}
}

func TestContainsPhraseWordBoundaries(t *testing.T) {
	if containsPhrase("the part is broken", "ok") {
		t.Error("matched 'ok' inside 'broken'")
	}
	if !containsPhrase("everything is ok", "ok") {
		t.Error("did not match trailing 'ok'")
	}
	if !containsPhrase("ok so far", "ok") {
		t.Error("did not match leading 'ok'")
	}
}

func TestLongestPhraseWins(t *testing.T) {
	f := Parse("front brake pads need attention")
	if f.Component != "front brake pads" {
		t.Errorf("component = %q, want front brake pads (not the 'brakes' alias)", f.Component)
	}
}
