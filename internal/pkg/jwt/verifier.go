// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	pub      *rsa.PublicKey
	issuer   string
	audience string
	leeway   time.Duration
}

func NewVerifier(pub *rsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pub:      pub,
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
	}
}

// Verify validates signature, expiry, issuer and audience and returns the claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.pub == nil {
		return nil, fmt.Errorf("jwt verifier has nil public key")
	}

	opts := []jwt.ParserOption{jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.pub, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// VerifyAccessToken additionally requires a subject.
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
