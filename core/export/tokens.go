package export

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "storexport"

// downloadClaims bind a token to one (job, format) descriptor.
type downloadClaims struct {
	Job    string `json:"job"`
	Format string `json:"fmt"`
	jwt.RegisteredClaims
}

// TokenSigner issues and checks per-format download tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner creates a signer. An empty secret is replaced by a random
// one, so tokens then only verify within this process.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	key := []byte(secret)
	if len(key) == 0 {
		key = []byte(rand.Text())
	}
	return &TokenSigner{secret: key, ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to the download of format in job.
func (s *TokenSigner) Sign(jobID, format string) (string, error) {
	now := s.now()
	claims := downloadClaims{
		Job:    jobID,
		Format: format,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   jobID + "/" + format,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}
	return signed, nil
}

// Verify checks that token is valid and bound to (jobID, format).
func (s *TokenSigner) Verify(token, jobID, format string) error {
	if token == "" {
		return errors.New("missing download token")
	}
	var claims downloadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("invalid download token: %w", err)
	}
	if claims.Job != jobID || claims.Format != format {
		return errors.New("download token does not match the requested file")
	}
	return nil
}
