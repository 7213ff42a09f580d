package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sampleConfig struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Approved bool   `envconfig:"REVIEW_AUTO_APPROVE" default:"false"`
}

func TestLoadReadsDotEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("JWT_SECRET=from-file\nREVIEW_AUTO_APPROVE=true\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("REVIEW_AUTO_APPROVE")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("REVIEW_AUTO_APPROVE")
	})

	var cfg sampleConfig
	if err := Load("", &cfg, file); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.Secret != "from-file" || !cfg.Approved {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	var cfg sampleConfig
	if err := Load("", &cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Secret != "env-secret" {
		t.Fatalf("expected env secret, got %q", cfg.Secret)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list %v", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestValidPort(t *testing.T) {
	for _, v := range []string{"1", "8080", "65535"} {
		if err := ValidPort("PORT", v); err != nil {
			t.Fatalf("ValidPort(%q): %v", v, err)
		}
	}
	for _, v := range []string{"", "0", "65536", "http"} {
		if err := ValidPort("PORT", v); err == nil {
			t.Fatalf("ValidPort(%q) should fail", v)
		}
	}
}
