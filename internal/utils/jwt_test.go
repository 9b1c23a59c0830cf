package utils

import (
	"testing"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(42, "bendahara", "perbendaharaan", 1)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "bendahara" {
		t.Errorf("Username = %q, want bendahara", claims.Username)
	}
	if claims.Role != "perbendaharaan" {
		t.Errorf("Role = %q, want perbendaharaan", claims.Role)
	}
	if claims.Issuer != "simpa-bend" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateToken(1, "admin", "administrator", 1)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	SetJWTSecret("secret-two")
	if _, err := ParseToken(token); err == nil {
		t.Fatal("ParseToken accepted a token signed with a different secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateToken(1, "admin", "administrator", -1)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Fatal("ParseToken accepted an expired token")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	SetJWTSecret("test-secret")
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("ParseToken accepted garbage input")
	}
}
