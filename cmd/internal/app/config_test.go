package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasktrack/cmd/security/password"
	"tasktrack/cmd/security/token"
)

const testSecret = "0123456789abcdef0123456789abcdef-tasktrack"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TASKTRACK_TOKEN_SECRET", testSecret)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != DriverSQLite || cfg.SQLitePath != "tasktrack.db" {
		t.Fatalf("storage=%q path=%q", cfg.StorageDriver, cfg.SQLitePath)
	}
	if cfg.DBSchema != "public" {
		t.Fatalf("DBSchema=%q", cfg.DBSchema)
	}
	if cfg.Token.Format != token.FormatJWT || cfg.Token.TTL != time.Hour {
		t.Fatalf("token config=%+v", cfg.Token)
	}
	if cfg.Password.Algorithm != password.AlgorithmBcrypt || cfg.Password.BcryptCost != password.DefaultBcryptCost {
		t.Fatalf("password config=%+v", cfg.Password)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TASKTRACK_TOKEN_SECRET", testSecret)
	t.Setenv("TASKTRACK_TOKEN_FORMAT", "paseto")
	t.Setenv("TASKTRACK_TOKEN_TTL", "30m")
	t.Setenv("TASKTRACK_PASSWORD_ALGORITHM", "argon2id")
	t.Setenv("TASKTRACK_PASSWORD_MIN_LEN", "8")
	t.Setenv("TASKTRACK_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("TASKTRACK_STORAGE_DRIVER", " Memory ")
	t.Setenv("TASKTRACK_LOG_FORMAT", "TEXT")
	t.Setenv("TASKTRACK_HTTP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TASKTRACK_MAX_BODY_BYTES", "2048")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Token.Format != token.FormatPaseto || cfg.Token.TTL != 30*time.Minute {
		t.Fatalf("token config=%+v", cfg.Token)
	}
	if cfg.Password.Algorithm != password.AlgorithmArgon2id || cfg.Password.Policy.MinLength != 8 {
		t.Fatalf("password config=%+v", cfg.Password)
	}
	if cfg.HTTPAddr != "127.0.0.1:9999" || cfg.StorageDriver != DriverMemory || cfg.LogFormat != "text" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.ShutdownTimeout != 3*time.Second || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("shutdown=%v max_body=%d", cfg.ShutdownTimeout, cfg.MaxBodyBytes)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasktrack.env")
	content := "TASKTRACK_TOKEN_SECRET=" + testSecret + "\nTASKTRACK_STORAGE_DRIVER=memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("TASKTRACK_ENV_FILE", path)
	// godotenv must not override variables already in the environment.
	t.Setenv("TASKTRACK_STORAGE_DRIVER", "sqlite")
	// Registered so the cleanup unsets what godotenv loads.
	t.Setenv("TASKTRACK_TOKEN_SECRET", "")
	if err := os.Unsetenv("TASKTRACK_TOKEN_SECRET"); err != nil {
		t.Fatalf("unset: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Token.Secret != testSecret {
		t.Fatalf("secret not loaded from env file")
	}
	if cfg.StorageDriver != DriverSQLite {
		t.Fatalf("StorageDriver=%q, want process env to win", cfg.StorageDriver)
	}
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	t.Setenv("TASKTRACK_TOKEN_SECRET", testSecret)
	t.Setenv("TASKTRACK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for explicit missing env file")
	}
}

func TestLoadConfig_FailsFast(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing secret", env: map[string]string{"TASKTRACK_TOKEN_SECRET": ""}, wantErr: "secret"},
		{name: "short secret", env: map[string]string{"TASKTRACK_TOKEN_SECRET": "short"}, wantErr: "secret"},
		{name: "unknown driver", env: map[string]string{"TASKTRACK_STORAGE_DRIVER": "mysql"}, wantErr: "storage driver"},
		{name: "postgres without url", env: map[string]string{"TASKTRACK_STORAGE_DRIVER": "postgres"}, wantErr: "DATABASE_URL"},
		{name: "bad schema", env: map[string]string{
			"TASKTRACK_STORAGE_DRIVER": "postgres",
			"TASKTRACK_DATABASE_URL":   "postgres://localhost/tasktrack",
			"TASKTRACK_DB_SCHEMA":      "bad-schema;",
		}, wantErr: "schema"},
		{name: "unknown token format", env: map[string]string{"TASKTRACK_TOKEN_FORMAT": "saml"}, wantErr: "format"},
		{name: "bad bcrypt cost", env: map[string]string{"TASKTRACK_PASSWORD_BCRYPT_COST": "99"}, wantErr: "bcrypt"},
		{name: "unknown log format", env: map[string]string{"TASKTRACK_LOG_FORMAT": "xml"}, wantErr: "log format"},
		{name: "unparsable duration", env: map[string]string{"TASKTRACK_TOKEN_TTL": "soon"}, wantErr: "parse env"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TASKTRACK_TOKEN_SECRET", testSecret)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err=%q, want substring %q", err, tc.wantErr)
			}
		})
	}
}
