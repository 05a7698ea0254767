package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_WritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
