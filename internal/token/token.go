// Package token reads the claims carried by the backend's bearer token.
//
// The console never verifies signatures: the backend is the only party that
// trusts the token, the console just needs to know who it belongs to and when
// it stops working.
package token

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("token: malformed")
	ErrMissingClaim = errors.New("token: missing exp claim")
)

// Claims is the decoded payload segment. Identifier claims are kept raw
// because the backend emits them as numbers or strings depending on version.
type Claims struct {
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	Subject   json.RawMessage  `json:"sub,omitempty"`
	TokenID   json.RawMessage  `json:"jti,omitempty"`
	UserIDRaw json.RawMessage  `json:"userId,omitempty"`
	IDRaw     json.RawMessage  `json:"id,omitempty"`
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode parses the payload of a header.payload.signature token.
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}

	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, ErrMalformed
	}
	return &c, nil
}

// Expiration returns the exp claim, or ErrMissingClaim when absent or zero.
func (c *Claims) Expiration() (time.Time, error) {
	if c.ExpiresAt == nil || c.ExpiresAt.Time.IsZero() || c.ExpiresAt.Unix() == 0 {
		return time.Time{}, ErrMissingClaim
	}
	return c.ExpiresAt.Time, nil
}

// UserID resolves the numeric user id from userId, id or sub, in that order.
func (c *Claims) UserID() (int64, bool) {
	return firstNumeric(c.UserIDRaw, c.IDRaw, c.Subject)
}

// OwnerID resolves the key patients are listed under: jti, id or sub.
func (c *Claims) OwnerID() (int64, bool) {
	return firstNumeric(c.TokenID, c.IDRaw, c.Subject)
}

// Expiration decodes raw and returns its expiry.
func Expiration(raw string) (time.Time, error) {
	c, err := Decode(raw)
	if err != nil {
		return time.Time{}, err
	}
	return c.Expiration()
}

// ExpirationMillis returns the exp claim in epoch milliseconds.
func ExpirationMillis(raw string) (int64, error) {
	exp, err := Expiration(raw)
	if err != nil {
		return 0, err
	}
	return exp.UnixMilli(), nil
}

// IsExpired fails closed: undecodable tokens and tokens without exp are expired.
func IsExpired(raw string, now time.Time) bool {
	exp, err := Expiration(raw)
	if err != nil {
		return true
	}
	return now.UnixMilli() >= exp.UnixMilli()
}

// IsValid reports whether raw is present, decodable, carries exp and has not expired.
func IsValid(raw string, now time.Time) bool {
	if raw == "" {
		return false
	}
	return !IsExpired(raw, now)
}

// SubjectString returns sub as text, whatever its JSON type.
func (c *Claims) SubjectString() string {
	s := strings.TrimSpace(string(c.Subject))
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	if s == "null" {
		return ""
	}
	return s
}

// firstNumeric accepts both JSON numbers and numeric strings.
func firstNumeric(candidates ...json.RawMessage) (int64, bool) {
	for _, c := range candidates {
		if len(c) == 0 || string(c) == "null" {
			continue
		}
		s := string(c)
		if unq, err := strconv.Unquote(s); err == nil {
			s = unq
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return 0, false
}
