package utils

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("user-1", "tokengen@test.com", "customer", time.Hour)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	if strings.Count(token, ".") != 2 {
		t.Errorf("expected JWT with 2 dots, got %q", token)
	}
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateToken("user-42", "validate@test.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error validating token, got: %v", err)
	}

	if claims.UserID != "user-42" {
		t.Errorf("expected user_id user-42, got %s", claims.UserID)
	}
	if claims.Email != "validate@test.com" {
		t.Errorf("expected email validate@test.com, got %s", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("expected role admin, got %s", claims.Role)
	}
	if claims.Issuer != "storefront" {
		t.Errorf("expected issuer 'storefront', got %s", claims.Issuer)
	}
}

func sign(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	token := sign(t, Claims{
		Email: "sub@test.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "from-sub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, jwt.SigningMethodHS256, []byte(os.Getenv("JWT_SECRET")))

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "from-sub" {
		t.Errorf("expected subject to be used as user id, got %q", claims.UserID)
	}
}

func TestValidateTokenWithoutUser(t *testing.T) {
	token := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, jwt.SigningMethodHS256, []byte(os.Getenv("JWT_SECRET")))

	if _, err := ValidateToken(token); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", "expired@test.com", "customer", -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token := sign(t, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, jwt.SigningMethodHS256, []byte("some-other-secret"))

	if _, err := ValidateToken(token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestNoneAlgorithmRejected(t *testing.T) {
	token := sign(t, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	if _, err := ValidateToken(token); err == nil {
		t.Error("expected error for unsigned token")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if _, err := ValidateToken("not.a.jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
