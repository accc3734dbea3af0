package utils

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hashed == "s3cret-pass" {
		t.Fatalf("password must not be stored in the clear")
	}
	if !CheckPassword(hashed, "s3cret-pass") {
		t.Fatalf("correct password should verify")
	}
	if CheckPassword(hashed, "wrong") {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	if _, err := HashPassword("   "); err == nil {
		t.Fatalf("blank password must be rejected")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
