package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"remitledger/native/common"
)

const defaultClockSkew = 2 * time.Minute

// JWT validates HMAC-signed bearer tokens whose subject claim is the
// hex-encoded account address.
type JWT struct {
	secret []byte
	issuer string
	skew   time.Duration
}

// NewJWT builds the authorizer. Issuer is enforced only when non-empty.
func NewJWT(secret, issuer string) *JWT {
	return &JWT{
		secret: []byte(strings.TrimSpace(secret)),
		issuer: strings.TrimSpace(issuer),
		skew:   defaultClockSkew,
	}
}

// Authorize parses and verifies the token and matches its subject against
// the account address.
func (j *JWT) Authorize(credential string, account [20]byte) error {
	if len(j.secret) == 0 {
		return fmt.Errorf("auth: hmac secret not configured: %w", common.ErrNotConfigured)
	}
	options := []jwt.ParserOption{jwt.WithLeeway(j.skew)}
	if j.issuer != "" {
		options = append(options, jwt.WithIssuer(j.issuer))
	}
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, options...)
	if err != nil {
		return fmt.Errorf("auth: token rejected: %v: %w", err, common.ErrUnauthorized)
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("auth: token missing subject: %w", common.ErrUnauthorized)
	}
	if !strings.EqualFold(subject, hex.EncodeToString(account[:])) {
		return fmt.Errorf("auth: subject does not control account: %w", common.ErrUnauthorized)
	}
	return nil
}
