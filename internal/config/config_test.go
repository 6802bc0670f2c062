package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/goabroad-labs/studytables/internal/config"
)

func TestInitWithoutConfigFileUsesDefaults(t *testing.T) {
	viper.Reset()
	if err := config.Init(""); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Driver != "sqlite" || cfg.Port != "8080" || cfg.RateLimit != 100 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestInitExplicitMissingFileFails(t *testing.T) {
	viper.Reset()
	err := config.Init(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("missing explicit config file must not be ignored")
	}
}

func TestInitExplicitMalformedFileFails(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "studytables.yaml")
	if err := os.WriteFile(path, []byte("driver: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := config.Init(path); err == nil {
		t.Error("malformed explicit config file must not be ignored")
	}
}

func TestInitExplicitFileIsApplied(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "studytables.yaml")
	if err := os.WriteFile(path, []byte("port: \"9090\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := config.Init(path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want config file value", cfg.Port)
	}
}
