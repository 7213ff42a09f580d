package main

import (
	"os"
	"testing"
)

func TestAdminConfigValidate(t *testing.T) {
	ok := adminConfig{
		APIURL:         "http://localhost:8080",
		WhatsAppNumber: "+91 93461 63673",
		SiteURL:        "https://utibeauty.com",
	}
	if err := ok.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []adminConfig{
		{APIURL: "localhost:8080", WhatsAppNumber: "1234567890", SiteURL: "https://utibeauty.com"},
		{APIURL: "http://localhost:8080", WhatsAppNumber: "call us", SiteURL: "https://utibeauty.com"},
		{APIURL: "http://localhost:8080", WhatsAppNumber: "1234567890", SiteURL: "ftp://utibeauty.com"},
	}
	for _, cfg := range bad {
		if err := cfg.validate(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PARLOUR_API_URL", "WHATSAPP_NUMBER", "SITE_URL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("PARLOUR_STATE_FILE", t.TempDir()+"/state.yaml")
	chdir(t, t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" || cfg.WhatsAppNumber != "1234567890" || cfg.SiteURL != "https://utibeauty.com" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.ServiceName != serviceName {
		t.Fatalf("unexpected tracing config: %+v", cfg.Tracing)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
