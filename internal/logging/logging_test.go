package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewWritesJSONToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("trajectory", "Skills")).Debug(context.Background(), "computed",
		Int("points", 21), Float64("max_speed", 127), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "computed" || rec["trajectory"] != "Skills" || rec["error"] != "boom" {
		t.Fatalf("record = %v", rec)
	}
	if rec["points"] != float64(21) || rec["max_speed"] != float64(127) {
		t.Fatalf("numeric fields = %v, %v", rec["points"], rec["max_speed"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BLITZ_LOG_LEVEL", "error")
	t.Setenv("BLITZ_LOG_FORMAT", "json")
	t.Setenv("BLITZ_LOG_SOURCE", "TRUE")

	cfg := ConfigFromEnv()
	if cfg.Level != "error" || cfg.Format != "json" || !cfg.AddSource {
		t.Fatalf("ConfigFromEnv = %+v", cfg)
	}
}

func TestRequestLogger(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" || RequestIDFromContext(ctx) != id {
		t.Fatalf("EnsureRequestID id = %q, ctx id = %q", id, RequestIDFromContext(ctx))
	}
	again, sameID := EnsureRequestID(ctx)
	if sameID != id || again != ctx {
		t.Fatalf("EnsureRequestID replaced an existing id: %q -> %q", id, sameID)
	}

	var buf bytes.Buffer
	ctx = ContextWithLogger(ctx, New(Config{Format: "json", Output: &buf}))
	_, reqLog := WithRequestLogger(ctx, LoggerFromContext(ctx))
	reqLog.Info(ctx, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("request logger output %q lacks request id %q", buf.String(), id)
	}

	if LoggerFromContext(context.Background()) != nil {
		t.Fatal("LoggerFromContext on bare context should be nil")
	}
}
