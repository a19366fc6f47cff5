package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GENGO_PUBLIC_KEY", " pub ")
	t.Setenv("GENGO_PRIVATE_KEY", "priv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PublicKey != "pub" {
		t.Fatalf("PublicKey = %q", cfg.PublicKey)
	}
	if cfg.APIVersion != "v2" {
		t.Fatalf("APIVersion = %q", cfg.APIVersion)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.Environment() != "production" {
		t.Fatalf("Environment = %s", cfg.Environment())
	}
}

func TestLoadSandboxFromEnv(t *testing.T) {
	t.Setenv("GENGO_SANDBOX", "true")
	t.Setenv("GENGO_DEBUG", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Sandbox || !cfg.Debug {
		t.Fatalf("expected sandbox and debug, got %+v", cfg.Redacted())
	}
	if cfg.Environment() != "sandbox" {
		t.Fatalf("Environment = %s", cfg.Environment())
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GENGO_API_VERSION", "v1")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("gengo_api_version", "", "")
	fs.Bool("gengo_sandbox", false, "")
	if err := fs.Parse([]string{"--gengo_api_version=v3", "--gengo_sandbox"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadWithFlags(fs)
	if err != nil {
		t.Fatalf("LoadWithFlags: %v", err)
	}
	if cfg.APIVersion != "v3" {
		t.Fatalf("APIVersion = %q", cfg.APIVersion)
	}
	if !cfg.Sandbox {
		t.Fatalf("expected sandbox from flag")
	}
}

func TestLoadRejectsInvalidPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}

func TestRedactedHidesPrivateKey(t *testing.T) {
	cfg := Config{PublicKey: "pub", PrivateKey: "secret"}
	r := cfg.Redacted()
	if r.PrivateKey == "secret" {
		t.Fatalf("private key not redacted")
	}
	if cfg.PrivateKey != "secret" {
		t.Fatalf("Redacted mutated the original")
	}
}
