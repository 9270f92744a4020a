package lifecycle

import (
	"errors"
	"testing"
)

func TestParseUpdateInfo(t *testing.T) {
	info, err := ParseUpdateInfo([]byte(`{"version":"1.4.0","files":[],"releaseName":"Staking fixes"}`))
	if err != nil {
		t.Fatalf("ParseUpdateInfo failed: %v", err)
	}
	if info.Version != "1.4.0" {
		t.Errorf("Version = %q, want %q", info.Version, "1.4.0")
	}

	for _, raw := range []string{``, `[`, `[]`, `"1.4.0"`, `{"Version":"1.4.0"}`, `{"version":null}`} {
		if _, err := ParseUpdateInfo([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("ParseUpdateInfo(%q) err = %v, want ErrMalformedPayload", raw, err)
		}
	}
}

func TestParseProgressInfo(t *testing.T) {
	p, err := ParseProgressInfo([]byte(`{"percent":12.75,"transferred":100,"total":800}`))
	if err != nil {
		t.Fatalf("ParseProgressInfo failed: %v", err)
	}
	if p.Percent != 12.75 {
		t.Errorf("Percent = %v, want 12.75", p.Percent)
	}

	for _, raw := range []string{``, `{}`, `{"percent":"12"}`, `{"percent":true}`, `12`} {
		if _, err := ParseProgressInfo([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("ParseProgressInfo(%q) err = %v, want ErrMalformedPayload", raw, err)
		}
	}
}
