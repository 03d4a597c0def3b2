package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "warn", "rolo-api").Warn("fallback used", "vehicle_id", "v1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %q", buf.String())
	}
	if rec["service"] != "rolo-api" || rec["msg"] != "fallback used" || rec["vehicle_id"] != "v1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "WARNING", "")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn: %q", buf.String())
	}
	l.Error("kept")
	if buf.Len() == 0 {
		t.Fatal("error should be logged")
	}
}
