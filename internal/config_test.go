package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/layoutcache"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestFullConfig_SectionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero level spacing", func(c *Config) { c.Layout.LevelSpacing = 0 }, "layout"},
		{"negative margin", func(c *Config) { c.Layout.Margin.Left = -1 }, "layout"},
		{"zero cache capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache"},
		{"sub-millisecond ttl", func(c *Config) { c.Cache.TTL = time.Microsecond }, "cache"},
		{"zero throttle", func(c *Config) { c.Events.GraphThrottle = 0 }, "events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.HasPrefix(err.Error(), tt.want+":") {
				t.Errorf("error %q should name section %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("ARBOR_TEST_VAULT", "/data/vault")
	body := `
vault:
  path: ${ARBOR_TEST_VAULT}
layout:
  node_spacing: 40
  node_size:
    root: 60
cache:
  ttl: 30s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Vault.Path != "/data/vault" {
		t.Errorf("vault = %q", cfg.Vault.Path)
	}
	if cfg.Layout.NodeSpacing != 40 || cfg.Layout.LevelSpacing != 150 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.NodeSize[graph.NodeRoot] != 60 || cfg.Layout.NodeSize[graph.NodeChild] != graph.SizeFor(graph.NodeChild) {
		t.Errorf("node sizes = %v", cfg.Layout.NodeSize)
	}
	if cfg.Cache.TTL != 30*time.Second || cfg.Cache.Capacity != layoutcache.DefaultCapacity {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
