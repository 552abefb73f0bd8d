package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want $argon2id$ prefix", hash)
	}

	// Same password must produce different hashes (random salt).
	hash2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		ok, err := VerifyPassword("secret123", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if !ok {
			t.Error("VerifyPassword() = false for correct password")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := VerifyPassword("wrong", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if ok {
			t.Error("VerifyPassword() = true for wrong password")
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		if _, err := VerifyPassword("secret123", "not-a-phc-string"); err == nil {
			t.Error("VerifyPassword() expected error for malformed hash")
		}
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		bad := "$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"
		if _, err := VerifyPassword("secret123", bad); err == nil {
			t.Error("VerifyPassword() expected error for unsupported algorithm")
		}
	})
}
