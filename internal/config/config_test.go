package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/slate/internal/config"
)

const baseConfig = `
version = "0.2.0"
log_format = "json"

[server]
port = 8080

[database]
name = "slate"
user = "slate"

[storage]
provider = "memory"

[api]
base_path = "/api"
max_upload_size = "10MB"

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
name = "verifier"

[agent.provider]
name = "ollama"

[agent.model]
name = "llama3.1:8b"

[analysis]
confidence_threshold = 0.5
verify = "automated"
workers = 4
`

const overlayConfig = `
[server]
port = 9090

[analysis]
human_review_threshold = 0.8
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func setup(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeConfig(t, dir, name, content)
	}
	t.Chdir(dir)
}

func TestLoad(t *testing.T) {
	setup(t, map[string]string{config.BaseConfigFile: baseConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"version", cfg.Version, "0.2.0"},
		{"log_format", cfg.LogFormat, "json"},
		{"server port", cfg.Server.Port, 8080},
		{"storage provider", cfg.Storage.Provider, "memory"},
		{"storage container", cfg.Storage.ContainerName, "slate"},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"max upload", cfg.API.MaxUploadSizeBytes(), int64(10 * 1024 * 1024)},
		{"agent name", cfg.Agent.Name, "verifier"},
		{"agent provider", cfg.Agent.Provider.Name, "ollama"},
		{"agent model", cfg.Agent.Model.Name, "llama3.1:8b"},
		{"confidence threshold", cfg.Analysis.ConfidenceThreshold, 0.5},
		{"review threshold default", cfg.Analysis.HumanReviewThreshold, 0.7},
		{"verify", cfg.Analysis.Verify, config.VerifyAutomated},
		{"workers", cfg.Analysis.Workers, 4},
		{"provider timeout", cfg.Analysis.ProviderTimeoutDuration(), 60 * time.Second},
		{"verify timeout", cfg.Analysis.VerifyTimeoutDuration(), 30 * time.Second},
		{"emotional default", cfg.Analysis.Emotional, config.EmotionalOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadWithOverlay(t *testing.T) {
	setup(t, map[string]string{
		config.BaseConfigFile: baseConfig,
		"config.staging.toml": overlayConfig,
	})
	t.Setenv(config.EnvSlateEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "staging" {
		t.Errorf("env: got %s, want staging", cfg.Env())
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Analysis.HumanReviewThreshold != 0.8 {
		t.Errorf("review threshold: got %v, want 0.8", cfg.Analysis.HumanReviewThreshold)
	}
	if cfg.Analysis.ConfidenceThreshold != 0.5 {
		t.Errorf("confidence threshold: got %v, want 0.5 from base", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Agent.Name != "verifier" {
		t.Errorf("agent name: got %s, want verifier from base", cfg.Agent.Name)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setup(t, map[string]string{config.BaseConfigFile: baseConfig})

	t.Setenv("SLATE_SERVER_PORT", "7070")
	t.Setenv("SLATE_DB_HOST", "db.internal")
	t.Setenv("SLATE_API_MAX_UPLOAD_SIZE", "1MB")
	t.Setenv("SLATE_PAGINATION_DEFAULT_PAGE_SIZE", "10")
	t.Setenv(config.EnvAgentProviderName, "azure")
	t.Setenv(config.EnvAgentModelName, "gpt-5-mini")
	t.Setenv(config.EnvAgentToken, "test-token")
	t.Setenv(config.EnvAgentDeployment, "breakdown")
	t.Setenv(config.EnvAnalysisConfidenceThreshold, "0.65")
	t.Setenv(config.EnvAnalysisVerify, "off")
	t.Setenv(config.EnvAnalysisWorkers, "2")
	t.Setenv(config.EnvAnalysisEmotional, "agent")
	t.Setenv(config.EnvSlateLogLevel, "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"server port", cfg.Server.Port, 7070},
		{"db host", cfg.Database.Host, "db.internal"},
		{"max upload", cfg.API.MaxUploadSizeBytes(), int64(1024 * 1024)},
		{"page size", cfg.API.Pagination.DefaultPageSize, 10},
		{"agent provider", cfg.Agent.Provider.Name, "azure"},
		{"agent model", cfg.Agent.Model.Name, "gpt-5-mini"},
		{"agent token", cfg.Agent.Provider.Options["token"], "test-token"},
		{"agent deployment", cfg.Agent.Provider.Options["deployment"], "breakdown"},
		{"confidence threshold", cfg.Analysis.ConfidenceThreshold, 0.65},
		{"verify", cfg.Analysis.Verify, config.VerifyOff},
		{"workers", cfg.Analysis.Workers, 2},
		{"emotional", cfg.Analysis.Emotional, config.EmotionalAgent},
		{"log level", cfg.Level().String(), "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	setup(t, nil)
	t.Setenv("SLATE_STORAGE_PROVIDER", "memory")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr: got %s", cfg.Server.Addr())
	}
	if cfg.Server.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.Server.ShutdownTimeoutDuration())
	}
	if cfg.Database.Name != "slate" {
		t.Errorf("db name: got %s, want slate", cfg.Database.Name)
	}
	if cfg.Agent.Name == "" || cfg.Agent.Provider == nil {
		t.Errorf("agent defaults not applied: %+v", cfg.Agent)
	}
	if _, ok := cfg.Agent.Provider.Options["token"]; ok {
		t.Error("token should not be set when env var is absent")
	}
	if cfg.Analysis.Verify != config.VerifyOff {
		t.Errorf("verify: got %s, want off", cfg.Analysis.Verify)
	}
	if cfg.Level().String() != "INFO" {
		t.Errorf("log level: got %s", cfg.Level())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed toml", "[server\nport = 1", "parse config"},
		{"bad port", "[storage]\nprovider = \"memory\"\n[server]\nport = 70000", "invalid port"},
		{"bad log format", "log_format = \"xml\"\n[storage]\nprovider = \"memory\"", "log_format"},
		{"bad threshold", "[storage]\nprovider = \"memory\"\n[analysis]\nconfidence_threshold = 1.5", "threshold"},
		{"bad verify mode", "[storage]\nprovider = \"memory\"\n[analysis]\nverify = \"always\"", "invalid verify"},
		{"bad emotional mode", "[storage]\nprovider = \"memory\"\n[analysis]\nemotional = \"always\"", "invalid emotional"},
		{"missing policy", "[storage]\nprovider = \"memory\"\n[analysis]\nrules_policy = \"missing.toml\"", "rules_policy"},
		{"bad upload size", "[storage]\nprovider = \"memory\"\n[api]\nmax_upload_size = \"lots\"", "max_upload_size"},
		{"azure without connection", "[storage]\nprovider = \"azure\"", "connection_string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, map[string]string{config.BaseConfigFile: tt.content})

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
