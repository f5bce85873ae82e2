package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

var ErrBadPublicKey = errors.New("auth: unusable public key")

// EncryptPassword encrypts plain with the backend's RSA key using PKCS#1 v1.5
// and returns it base64 encoded. publicKey may be PEM or bare base64 DER.
func EncryptPassword(publicKey, plain string) (string, error) {
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return "", err
	}
	out, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(plain))
	if err != nil {
		return "", fmt.Errorf("auth: encrypt password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func parsePublicKey(s string) (*rsa.PublicKey, error) {
	s = strings.TrimSpace(s)

	var der []byte
	if block, _ := pem.Decode([]byte(s)); block != nil {
		der = block.Bytes
	} else {
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, ErrBadPublicKey
		}
		der = b
	}

	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, ErrBadPublicKey
	}
	if rsaKey, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return rsaKey, nil
	}
	return nil, ErrBadPublicKey
}
