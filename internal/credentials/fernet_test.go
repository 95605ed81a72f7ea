package credentials_test

import (
	"testing"

	"github.com/inkwell-systems/scriptorium/internal/credentials"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key, err := credentials.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	enc, err := credentials.NewEncryptor(key.Encode())
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}

	token, err := enc.Encrypt("svc-token-12345")
	if err != nil {
		t.Fatalf("encrypting: %v", err)
	}
	if token == "svc-token-12345" {
		t.Fatal("ciphertext equals plaintext")
	}

	got, err := enc.Decrypt(token)
	if err != nil {
		t.Fatalf("decrypting: %v", err)
	}
	if got != "svc-token-12345" {
		t.Errorf("got %q, want %q", got, "svc-token-12345")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	k1, _ := credentials.GenerateKey()
	k2, _ := credentials.GenerateKey()

	enc1, err := credentials.NewEncryptor(k1.Encode())
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	enc2, err := credentials.NewEncryptor(k2.Encode())
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}

	token, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypting: %v", err)
	}
	if _, err := enc2.Decrypt(token); err == nil {
		t.Error("expected decryption with the wrong key to fail")
	}
}

func TestNewEncryptorRejectsBadKey(t *testing.T) {
	for _, key := range []string{"", "   ", "not-a-key"} {
		if _, err := credentials.NewEncryptor(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}
