package otelx

import (
	"context"
	"os"
	"testing"
)

func unsetOtelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	unsetOtelEnv(t)
	cfg, err := ConfigFromEnv("parlour-api")
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Enabled || cfg.OTLPEndpoint != "localhost:4317" || cfg.SampleRatio != 1 || cfg.ServiceName != "parlour-api" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	unsetOtelEnv(t)
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg, err := ConfigFromEnv("parlour-admin")
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if !cfg.Enabled || cfg.OTLPEndpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigFromEnvRejectsBadRatio(t *testing.T) {
	unsetOtelEnv(t)
	t.Setenv("OTEL_SAMPLING_RATIO", "1.5")
	if _, err := ConfigFromEnv("parlour-api"); err == nil {
		t.Fatal("expected error for ratio above 1")
	}
	t.Setenv("OTEL_ENABLED", "sometimes")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	if _, err := ConfigFromEnv("parlour-api"); err == nil {
		t.Fatal("expected error for unparsable OTEL_ENABLED")
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "parlour-api"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
