package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://tiffin.eu.auth0.com/"
	testAudience = "https://api.tiffin.local"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims *Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		Roles:       []string{"admin"},
		Permissions: []string{"promotions:write"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "auth0|abc123",
			Audience:  []string{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			ID:        "jti-1",
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	key := newKey(t)
	v := NewVerifier(&key.PublicKey, testIssuer, testAudience)

	claims, err := v.VerifyAccessToken(sign(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc123", claims.Subject)
	assert.True(t, claims.IsAdmin())
	assert.True(t, claims.HasPermission("promotions:write"))
	assert.False(t, claims.HasPermission("promotions:delete"))
	assert.Equal(t, "jti-1", claims.TokenID())
}

func TestVerifyRejections(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	v := NewVerifier(&key.PublicKey, testIssuer, testAudience)

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong key", func() string { return sign(t, other, validClaims()) }},
		{"wrong issuer", func() string {
			c := validClaims()
			c.Issuer = "https://evil.example/"
			return sign(t, key, c)
		}},
		{"wrong audience", func() string {
			c := validClaims()
			c.Audience = []string{"someone-else"}
			return sign(t, key, c)
		}},
		{"expired", func() string {
			c := validClaims()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(t, key, c)
		}},
		{"no expiry", func() string {
			c := validClaims()
			c.ExpiresAt = nil
			return sign(t, key, c)
		}},
		{"no subject", func() string {
			c := validClaims()
			c.Subject = ""
			return sign(t, key, c)
		}},
		{"hmac", func() string {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
			require.NoError(t, err)
			return tok
		}},
		{"garbage", func() string { return "not.a.token" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyAccessToken(tt.token())
			assert.Error(t, err)
		})
	}
}

func TestVerifyWithoutIssuerOrAudienceAcceptsAny(t *testing.T) {
	key := newKey(t)
	v := NewVerifier(&key.PublicKey, "", "")

	c := validClaims()
	c.Issuer = "https://other.example/"
	c.Audience = []string{"someone-else"}

	_, err := v.VerifyAccessToken(sign(t, key, c))
	assert.NoError(t, err)
}

func TestVerifyAudienceAmongSeveral(t *testing.T) {
	key := newKey(t)
	v := NewVerifier(&key.PublicKey, testIssuer, testAudience)

	c := validClaims()
	c.Audience = []string{"https://tiffin.eu.auth0.com/userinfo", testAudience}
	_, err := v.VerifyAccessToken(sign(t, key, c))
	require.NoError(t, err)

	c.Audience = []string{"https://tiffin.eu.auth0.com/userinfo"}
	_, err = v.VerifyAccessToken(sign(t, key, c))
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)

	c.Audience = nil
	_, err = v.VerifyAccessToken(sign(t, key, c))
	assert.Error(t, err)
}

func TestTokenIDFallsBackToSubjectAndIssueTime(t *testing.T) {
	c := validClaims()
	c.ID = ""
	c.IssuedAt = jwt.NewNumericDate(time.Unix(1700000000, 0))

	assert.Equal(t, "auth0|abc123:1700000000", c.TokenID())
}

func TestParseRSAPublicKeyPEM(t *testing.T) {
	key := newKey(t)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pkix := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	got, err := ParseRSAPublicKeyPEM(pkix)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(got))

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)})
	got, err = ParseRSAPublicKeyPEM(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(got))

	_, err = ParseRSAPublicKeyPEM([]byte("nope"))
	assert.Error(t, err)
}
