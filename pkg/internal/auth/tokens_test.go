package auth

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	viper.Set("security.access_token_secret", "unit-test-secret")

	token, err := NewAccessToken("user-a", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	claims, err := VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if claims.UserID != "user-a" {
		t.Fatalf("expected user-a, got %q", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	viper.Set("security.access_token_secret", "unit-test-secret")

	token, err := NewAccessToken("user-a", "alice@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	if _, err := VerifyAccessToken(token); err == nil {
		t.Fatal("expected an expired token to be rejected")
	}
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	viper.Set("security.access_token_secret", "unit-test-secret")
	token, err := NewAccessToken("user-a", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	viper.Set("security.access_token_secret", "another-secret")
	defer viper.Set("security.access_token_secret", "unit-test-secret")

	if _, err := VerifyAccessToken(token); err == nil {
		t.Fatal("expected a token signed with another secret to be rejected")
	}
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	viper.Set("security.access_token_secret", "unit-test-secret")

	if _, err := VerifyAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected malformed input to be rejected")
	}
}
