package auth

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"remitledger/native/common"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testAccount() [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = 0x42
	}
	return a
}

func signToken(t *testing.T, secret, issuer, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTAcceptsSignedSubject(t *testing.T) {
	account := testAccount()
	authorizer := NewJWT(testSecret, "remitd")
	token := signToken(t, testSecret, "remitd", hex.EncodeToString(account[:]), time.Hour)
	if err := authorizer.Authorize(token, account); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestJWTRejectsWrongAccount(t *testing.T) {
	account := testAccount()
	var other [20]byte
	authorizer := NewJWT(testSecret, "")
	token := signToken(t, testSecret, "", hex.EncodeToString(other[:]), time.Hour)
	if err := authorizer.Authorize(token, account); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	account := testAccount()
	authorizer := NewJWT(testSecret, "")
	token := signToken(t, "another-secret-another-secret-ok", "", hex.EncodeToString(account[:]), time.Hour)
	if err := authorizer.Authorize(token, account); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	account := testAccount()
	authorizer := NewJWT(testSecret, "")
	token := signToken(t, testSecret, "", hex.EncodeToString(account[:]), -3*time.Hour)
	if err := authorizer.Authorize(token, account); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTRejectsWrongIssuer(t *testing.T) {
	account := testAccount()
	authorizer := NewJWT(testSecret, "remitd")
	token := signToken(t, testSecret, "someone-else", hex.EncodeToString(account[:]), time.Hour)
	if err := authorizer.Authorize(token, account); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStaticAuthorizer(t *testing.T) {
	account := testAccount()
	authorizer := Static{Credentials: map[string][20]byte{"tok": account}}
	if err := authorizer.Authorize("tok", account); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
	if err := authorizer.Authorize("nope", account); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
