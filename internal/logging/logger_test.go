package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, WARN, false)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN should be suppressed:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and ERROR should be written:\n%s", out)
	}
}

func TestTextFormatIncludesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, INFO, false).WithComponent("trader")

	log.Info("trade opened", "pair", "BTC/USDT", "id", 7)

	out := buf.String()
	if !strings.Contains(out, "[trader]") {
		t.Errorf("component missing: %s", out)
	}
	if !strings.Contains(out, "pair=BTC/USDT") || !strings.Contains(out, "id=7") {
		t.Errorf("structured fields missing: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, INFO, true).WithComponent("bot")

	log.Info("scan complete", "cycle", 3)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Message != "scan complete" || entry.Component != "bot" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["cycle"] != float64(3) {
		t.Errorf("cycle field = %v", entry.Fields["cycle"])
	}
}

func TestWithErrorAndClone(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriter(&buf, INFO, false)
	withErr := base.WithError(errors.New("boom"))

	withErr.Error("operation failed")
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("error field missing: %s", buf.String())
	}

	// The derived logger must not leak its fields back into the base.
	buf.Reset()
	base.Info("clean message")
	if strings.Contains(buf.String(), "boom") {
		t.Errorf("base logger contaminated: %s", buf.String())
	}
}

func TestFormattedVariants(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, INFO, false)

	log.Infof("scanned %d pairs in %s", 5, "1.2s")
	if !strings.Contains(buf.String(), "scanned 5 pairs in 1.2s") {
		t.Errorf("Infof did not format: %s", buf.String())
	}

	buf.Reset()
	log.Errorf("fetch failed for %s", "BTC/USDT")
	if !strings.Contains(buf.String(), "fetch failed for BTC/USDT") {
		t.Errorf("Errorf did not format: %s", buf.String())
	}
}

func TestKeyValueMessagePassesThroughVerbatim(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, INFO, false)

	// Percent signs in the message or field values must never be treated
	// as format directives on the key-value path.
	log.Info("target hit at 2% gain", "change", "+2.5%")

	out := buf.String()
	if !strings.Contains(out, "target hit at 2% gain") {
		t.Errorf("message mangled: %s", out)
	}
	if !strings.Contains(out, "change=+2.5%") {
		t.Errorf("field value mangled: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"DEBUG":   DEBUG,
		"info":    INFO,
		"WARNING": WARN,
		"ERROR":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
