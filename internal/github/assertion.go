package github

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sevigo/dollar-ci/internal/config"
)

// AssertionLifetime stays a minute under the ten minutes GitHub accepts.
const AssertionLifetime = 9 * time.Minute

// AppClaims are the claims of an App assertion. GitHub reads iss as the
// numeric App ID, so the registered claims struct (string issuer) is not used.
type AppClaims struct {
	IssuedAt  *jwt.NumericDate `json:"iat"`
	Subject   string           `json:"sub"`
	Issuer    int64            `json:"iss"`
	Company   string           `json:"company,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

func (c AppClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c AppClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c AppClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c AppClaims) GetIssuer() (string, error)                   { return fmt.Sprint(c.Issuer), nil }
func (c AppClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c AppClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Assertion is a signed App JWT together with the times it was minted for.
type Assertion struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs App assertions. It reads the private key on every call and
// keeps no state between calls.
type Issuer struct {
	appID   int64
	company string
	keyPath string
	keyPEM  []byte
	now     func() time.Time
}

// NewIssuer creates an Issuer for the App described by cfg. An inline
// PrivateKey takes precedence over PrivateKeyPath.
func NewIssuer(cfg config.GitHubConfig) *Issuer {
	issuer := &Issuer{
		appID:   cfg.AppID,
		company: cfg.Company,
		keyPath: cfg.PrivateKeyPath,
		now:     time.Now,
	}
	if cfg.PrivateKey != "" {
		issuer.keyPEM = []byte(cfg.PrivateKey)
	}
	return issuer
}

// Issue loads the configured private key and signs an assertion for subject.
func (i *Issuer) Issue(subject string) (*Assertion, error) {
	pemBytes := i.keyPEM
	if pemBytes == nil {
		var err error
		pemBytes, err = os.ReadFile(i.keyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrKeyLoad, i.keyPath, err)
		}
	}
	return i.Sign(subject, pemBytes)
}

// Sign parses privateKeyPEM and signs an assertion for subject with RS256.
func (i *Issuer) Sign(subject string, privateKeyPEM []byte) (*Assertion, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyLoad, err)
	}
	return i.sign(subject, key)
}

func (i *Issuer) sign(subject string, key *rsa.PrivateKey) (*Assertion, error) {
	issuedAt := i.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(AssertionLifetime)

	claims := AppClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		Subject:   subject,
		Issuer:    i.appID,
		Company:   i.company,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return &Assertion{
		Token:     signed,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
