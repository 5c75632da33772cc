package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	Init("unit-test-secret")

	token, err := GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", claims.UserID)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	Init("secret-one")
	token, err := GenerateToken("user-123")
	if err != nil {
		t.Fatal(err)
	}

	Init("secret-two")
	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected validation to fail after secret change")
	}

	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("Expected validation to fail for garbage input")
	}
}
