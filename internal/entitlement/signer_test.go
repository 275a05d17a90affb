package entitlement

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) (*Signer, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	signer, err := NewSigner(keyPEM, "key_1", time.Hour)
	require.NoError(t, err)
	return signer, key
}

func TestSignPlayback(t *testing.T) {
	signer, key := testSigner(t)
	signer.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }

	signed, err := signer.SignPlayback("pb_abc", "cus_1")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(tok *jwt.Token) (interface{}, error) {
		assert.Equal(t, "RS256", tok.Method.Alg())
		return &key.PublicKey, nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "pb_abc", claims["sub"])
	assert.Equal(t, "v", claims["aud"])
	assert.Equal(t, "cus_1", claims["cid"])
	assert.Equal(t, "key_1", token.Header["kid"])

	// One hour expiry from issuance
	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(3600), exp-iat)
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner([]byte("not a pem key"), "key_1", time.Hour)
	assert.Error(t, err)
}
