package entitlement

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Signer mints short-lived RS256 playback credentials for the video
// platform's access-controlled delivery. Tokens are scoped to a single
// playback id and expire after the configured TTL (one hour by default).
type Signer struct {
	key   *rsa.PrivateKey
	keyID string
	ttl   time.Duration
	now   func() time.Time
}

// NewSigner creates a signer from a PEM-encoded RSA private key
func NewSigner(keyPEM []byte, keyID string, ttl time.Duration) (*Signer, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playback signing key: %w", err)
	}
	return &Signer{
		key:   key,
		keyID: keyID,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// NewSignerFromFile loads the signing key from disk
func NewSignerFromFile(path, keyID string, ttl time.Duration) (*Signer, error) {
	keyPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playback signing key: %w", err)
	}
	return NewSigner(keyPEM, keyID, ttl)
}

// SignPlayback issues a signed token authorizing video playback of one
// playback id for one customer.
func (s *Signer) SignPlayback(playbackID, customerID string) (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"sub": playbackID,
		"aud": "v",
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
		"cid": customerID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign playback token: %w", err)
	}
	return signed, nil
}
