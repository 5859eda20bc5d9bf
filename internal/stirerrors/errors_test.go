package stirerrors

import (
	"strings"
	"testing"
)

func TestErrorMessageIncludesCodeAndPhase(t *testing.T) {
	err := New("stir", ANF001, "no case for tag 2")
	msg := err.Error()
	if !strings.Contains(msg, ANF001) {
		t.Errorf("expected message to contain code %s, got %q", ANF001, msg)
	}
	if !strings.Contains(msg, "stir") {
		t.Errorf("expected message to contain phase, got %q", msg)
	}
}

func TestNewAtIncludesNodeID(t *testing.T) {
	err := NewAt("reuse", REUSE001, 42, "no reset token available")
	if err.NodeID != 42 {
		t.Errorf("expected NodeID 42, got %d", err.NodeID)
	}
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("expected message to contain node id, got %q", err.Error())
	}
}
