// Package jwt provides HS256 identity-token generation and validation for
// the authenticated billing endpoints.
package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims are the registered JWT claims this service uses. Subject carries
// the user ID.
type Claims struct {
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid validates the temporal claims against current time. Zero values
// are treated as unset per RFC 7519.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// Service handles token generation and validation using HMAC-SHA256.
type Service struct {
	signingKey []byte
}

// New creates a token service from a string signing key.
func New(signingKey string) (*Service, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: []byte(signingKey)}, nil
}

// Generate creates a signed token for the given claims.
func (s *Service) Generate(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse validates a token and returns its claims. Performs signature,
// algorithm, and expiry checks.
func (s *Service) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	// Constant-time comparison prevents timing attacks on the signature.
	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(s.sign(payload))) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Claims{}, ErrInvalidToken
	}
	// Reject unexpected algorithms to prevent algorithm confusion attacks.
	if hdr.Algorithm != headerAlgorithm {
		return Claims{}, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if err := claims.Valid(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
