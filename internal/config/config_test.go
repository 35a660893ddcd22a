package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENDOTA_BASE_URL", "OPENDOTA_API_KEY", "OPENDOTA_HTTP_TIMEOUT", "OPENDOTA_RATE_PER_SEC",
		"EXTRACT_MAX_ATTEMPTS", "EXTRACT_BACKOFF_BASE", "EXTRACT_BACKOFF_MAX", "EXTRACT_CONCURRENCY",
		"EXTRACT_RUN_TIMEOUT", "OPENDOTA_PAGES", "OPENDOTA_MATCH_IDS", "RUN_TIMEZONE",
		"S3_BUCKET", "S3_PREFIX", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.APIBaseURL != "https://api.opendota.com/api" {
		t.Errorf("APIBaseURL: got %q", cfg.APIBaseURL)
	}
	if cfg.MaxAttempts != 4 {
		t.Errorf("MaxAttempts: got %d, want 4", cfg.MaxAttempts)
	}
	if cfg.BackoffMax != 60*time.Second {
		t.Errorf("BackoffMax: got %v", cfg.BackoffMax)
	}
	if cfg.AWSRegion != "us-east-1" {
		t.Errorf("AWSRegion: got %q", cfg.AWSRegion)
	}
	if cfg.S3Prefix != "dota/stage/api/full-load" {
		t.Errorf("S3Prefix: got %q", cfg.S3Prefix)
	}
	if len(cfg.MatchIDs) != 0 {
		t.Errorf("MatchIDs: got %v", cfg.MatchIDs)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENDOTA_BASE_URL", "http://localhost:9000/api/")
	t.Setenv("EXTRACT_MAX_ATTEMPTS", "2")
	t.Setenv("EXTRACT_BACKOFF_BASE", "250ms")
	t.Setenv("OPENDOTA_MATCH_IDS", " 7001, 7002 ,,")
	t.Setenv("RUN_TIMEZONE", "America/Sao_Paulo")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:9000/api" {
		t.Errorf("APIBaseURL: got %q", cfg.APIBaseURL)
	}
	if cfg.MaxAttempts != 2 || cfg.BackoffBase != 250*time.Millisecond {
		t.Errorf("retry settings: got %d / %v", cfg.MaxAttempts, cfg.BackoffBase)
	}
	if len(cfg.MatchIDs) != 2 || cfg.MatchIDs[0] != "7001" || cfg.MatchIDs[1] != "7002" {
		t.Errorf("MatchIDs: got %v", cfg.MatchIDs)
	}
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"EXTRACT_MAX_ATTEMPTS": "0",
		"EXTRACT_CONCURRENCY":  "many",
		"EXTRACT_RUN_TIMEOUT":  "soon",
		"RUN_TIMEZONE":         "Mars/Olympus",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestValidate_S3NeedsCredentials(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if err := cfg.Validate(SinkS3); err == nil {
		t.Fatal("expected error without AWS credentials")
	}
	if err := cfg.Validate(SinkLocal); err != nil {
		t.Fatalf("local sink should not need credentials: %v", err)
	}

	cfg.AWSAccessKeyID = "AKIA"
	cfg.AWSSecretAccessKey = "secret"
	if err := cfg.Validate(SinkS3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `{
		"version": "1",
		"endpoints": [
			{"name": "heroes", "path": "/heroes", "strategy": "records",
			 "columns": [{"name": "id", "type": "int", "required": true}, {"name": "localized_name", "type": "string"}]}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog.Endpoints) != 1 || catalog.Endpoints[0].Name != "heroes" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}

func TestLoadCatalog_RejectsBadDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `{"endpoints": [{"name": "x", "path": "/x", "strategy": "pivot", "columns": [{"name": "a", "type": "int"}]}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
