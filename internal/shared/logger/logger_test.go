package logger

import (
	"bytes"
	"strings"
	"testing"

	"space-mining-server/internal/shared/config"
)

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LoggingConfig{Level: "warn", JSONFormat: true})

	log.Info("hidden")
	log.Warn("shown", "component", "mine_service")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"mine_service"`) {
		t.Fatalf("expected JSON output got %s", out)
	}
}
