package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwell-systems/scriptorium/internal/config"
	"github.com/inkwell-systems/scriptorium/internal/credentials"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/scriptorium")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Port != 8600 {
		t.Errorf("Port = %d, want 8600", c.Port)
	}
	if c.EmbeddingBackend != "simple" {
		t.Errorf("EmbeddingBackend = %q, want simple", c.EmbeddingBackend)
	}
	if c.EmbeddingWidth != 1024 {
		t.Errorf("EmbeddingWidth = %d, want 1024", c.EmbeddingWidth)
	}
	if c.EmbedMaxAttempts != 3 {
		t.Errorf("EmbedMaxAttempts = %d, want 3", c.EmbedMaxAttempts)
	}
	if c.SanitizeMaxChars != 8000 {
		t.Errorf("SanitizeMaxChars = %d, want 8000", c.SanitizeMaxChars)
	}
	if c.StorageBucket != "documents" {
		t.Errorf("StorageBucket = %q, want documents", c.StorageBucket)
	}
	if c.EmbedBaseDelay != time.Second {
		t.Errorf("EmbedBaseDelay = %v, want 1s", c.EmbedBaseDelay)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/scriptorium")
	t.Setenv("SCRIPTORIUM_PORT", "9000")
	t.Setenv("EMBEDDING_WIDTH", "384")
	t.Setenv("EMBED_BASE_DELAY", "250ms")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Port != 9000 {
		t.Errorf("Port = %d, want 9000", c.Port)
	}
	if c.EmbeddingWidth != 384 {
		t.Errorf("EmbeddingWidth = %d, want 384", c.EmbeddingWidth)
	}
	if c.EmbedBaseDelay != 250*time.Millisecond {
		t.Errorf("EmbedBaseDelay = %v, want 250ms", c.EmbedBaseDelay)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error when DATABASE_URL is unset")
	}
}

func TestLoad_EncryptedTokenFile(t *testing.T) {
	key, err := credentials.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	enc, err := credentials.NewEncryptor(key.Encode())
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	token, err := enc.Encrypt("internal-service-token")
	if err != nil {
		t.Fatalf("encrypting: %v", err)
	}

	path := filepath.Join(t.TempDir(), "service.token")
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/scriptorium")
	t.Setenv("SERVICE_TOKEN", "")
	t.Setenv("SERVICE_TOKEN_FILE", path)
	t.Setenv("CREDENTIAL_KEY", key.Encode())

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ServiceToken != "internal-service-token" {
		t.Errorf("ServiceToken = %q, want decrypted token", c.ServiceToken)
	}
}

func TestLoad_TokenFileWithoutKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.token")
	if err := os.WriteFile(path, []byte("whatever"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/scriptorium")
	t.Setenv("SERVICE_TOKEN", "")
	t.Setenv("SERVICE_TOKEN_FILE", path)
	t.Setenv("CREDENTIAL_KEY", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error when CREDENTIAL_KEY is unset")
	}
}
