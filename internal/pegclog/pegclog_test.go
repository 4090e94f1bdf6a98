package pegclog

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewToRespectsVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, false)
	log.V(1).Info("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at V(1) without debug, got %q", buf.String())
	}

	log.Info("visible at V(0)")
	if !strings.Contains(buf.String(), "visible at V(0)") {
		t.Errorf("expected V(0) message, got %q", buf.String())
	}
}

func TestNewToDebugRaisesVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, true)
	log.V(1).Info("stage timing", "stage", "tokenize", "ms", 3)
	if !strings.Contains(buf.String(), "stage timing") {
		t.Errorf("expected V(1) message with debug on, got %q", buf.String())
	}
}
