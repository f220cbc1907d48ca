package logger

import "testing"

// TestEnabled verifies that messages are filtered based on log level
func TestEnabled(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}
	for ci, configured := range levels {
		for mi, msg := range levels {
			want := mi >= ci
			if got := enabled(configured, msg); got != want {
				t.Errorf("enabled(%q, %q) = %v, want %v", configured, msg, got, want)
			}
		}
	}
}

func TestEnabled_UppercaseMessageLevel(t *testing.T) {
	if !enabled("warn", "ERROR") {
		t.Error("ERROR should pass a warn filter")
	}
	if enabled("warn", "INFO") {
		t.Error("INFO should not pass a warn filter")
	}
}

func TestLogLevelToInt_Unknown(t *testing.T) {
	if logLevelToInt("loud") != levelInfo {
		t.Error("unknown levels should map to info")
	}
}
