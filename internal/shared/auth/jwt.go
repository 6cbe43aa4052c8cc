package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// RoleAdmin marks tokens allowed to use the admin API.
	RoleAdmin = "admin"
	// Issuer is stamped into every token and required on verification.
	Issuer = "recruit-backend"

	adminSessionTTL = 12 * time.Hour
	// clockSkew tolerates small drift between API instances.
	clockSkew = 30 * time.Second
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotAdmin      = errors.New("token does not grant admin access")
	errMissingSecret = errors.New("jwt secret not configured")

	// encodedHeader is the only header this package signs or accepts.
	encodedHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	now = time.Now
)

// Claims is the identity an admin session carries.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Iss   string `json:"iss"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

// IssueAdminToken starts an admin session for a verified, allow-listed account.
func IssueAdminToken(sub, email, name string) (string, error) {
	return SignToken(Claims{
		Sub:   sub,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  name,
		Role:  RoleAdmin,
	})
}

// SignToken signs c, stamping issuer, issue time and the session expiry when unset.
func SignToken(c Claims) (string, error) {
	if strings.TrimSpace(c.Sub) == "" {
		return "", errors.New("sub is required")
	}
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	issued := now().UTC()
	c.Iss = Issuer
	if c.Iat == 0 {
		c.Iat = issued.Unix()
	}
	if c.Exp == 0 {
		c.Exp = issued.Add(adminSessionTTL).Unix()
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	signed := encodedHeader + "." + base64.RawURLEncoding.EncodeToString(payload)
	return signed + "." + signature(signed, secret), nil
}

// VerifyAdminToken checks signature, issuer and lifetime, then requires the
// admin role. A well-formed session without the role yields ErrNotAdmin.
func VerifyAdminToken(token string) (Claims, error) {
	c, err := parse(token)
	if err != nil {
		return Claims{}, err
	}
	if c.Role != RoleAdmin {
		return c, ErrNotAdmin
	}
	return c, nil
}

func parse(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}
	header, rest, ok := strings.Cut(token, ".")
	if !ok || header != encodedHeader {
		return Claims{}, ErrInvalidToken
	}
	payload, sig, ok := strings.Cut(rest, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(signature(header+"."+payload, secret))) {
		return Claims{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var c Claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return Claims{}, ErrInvalidToken
	}

	t := now().UTC()
	switch {
	case c.Sub == "", c.Iss != Issuer:
		return Claims{}, ErrInvalidToken
	case c.Iat > t.Add(clockSkew).Unix():
		return Claims{}, fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	case t.Add(-clockSkew).Unix() > c.Exp:
		return Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return c, nil
}

func signature(input string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// secretKey reads JWT_SECRET; outside production a fixed development key is used.
func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret != "" {
		return []byte(secret), nil
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))) {
	case "production", "prod":
		return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
	}
	return []byte("dev-secret"), nil
}
