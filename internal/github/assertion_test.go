package github

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/dollar-ci/internal/config"
)

const testAppID = 61447

func generateKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return key, pemBytes
}

func writeKey(t *testing.T, pemBytes []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.private-key.pem")
	require.NoError(t, os.WriteFile(path, pemBytes, 0600))
	return path
}

func testGitHubConfig(keyPath string) config.GitHubConfig {
	return config.GitHubConfig{
		AppID:          testAppID,
		AppName:        "dollar-ci",
		Company:        "dollar-ci",
		PrivateKeyPath: keyPath,
		UserAgent:      "dollar-ci-test",
		RequestTimeout: 5 * time.Second,
	}
}

func parseAssertion(t *testing.T, token string, key *rsa.PrivateKey) *AppClaims {
	t.Helper()
	claims := &AppClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestIssuer_Issue(t *testing.T) {
	key, pemBytes := generateKey(t)
	issuer := NewIssuer(testGitHubConfig(writeKey(t, pemBytes)))

	subjects := []string{"dollar-ci", "org/repo", "a name with spaces"}
	for _, subject := range subjects {
		t.Run(subject, func(t *testing.T) {
			assertion, err := issuer.Issue(subject)
			require.NoError(t, err)

			claims := parseAssertion(t, assertion.Token, key)
			assert.Equal(t, int64(540), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
			assert.Equal(t, int64(testAppID), claims.Issuer)
			assert.Equal(t, subject, claims.Subject)
			assert.Equal(t, "dollar-ci", claims.Company)
			assert.Equal(t, AssertionLifetime, assertion.ExpiresAt.Sub(assertion.IssuedAt))
		})
	}
}

func TestIssuer_FixedClock(t *testing.T) {
	key, pemBytes := generateKey(t)
	issuer := NewIssuer(testGitHubConfig(""))
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	assertion, err := issuer.Sign("dollar-ci", pemBytes)
	require.NoError(t, err)
	assert.Equal(t, fixed, assertion.IssuedAt)
	assert.Equal(t, fixed.Add(9*time.Minute), assertion.ExpiresAt)

	parser := jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return fixed.Add(time.Minute) }))
	claims := &AppClaims{}
	_, err = parser.ParseWithClaims(assertion.Token, claims, func(*jwt.Token) (any, error) { return &key.PublicKey, nil })
	require.NoError(t, err)
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
}

func TestIssuer_InlineKey(t *testing.T) {
	key, pemBytes := generateKey(t)
	cfg := testGitHubConfig("/does/not/exist.pem")
	cfg.PrivateKey = string(pemBytes)

	assertion, err := NewIssuer(cfg).Issue("dollar-ci")
	require.NoError(t, err)
	claims := parseAssertion(t, assertion.Token, key)
	assert.Equal(t, int64(testAppID), claims.Issuer)
}

func TestIssuer_KeyLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		keyPath func(t *testing.T) string
	}{
		{
			name:    "missing file",
			keyPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.pem") },
		},
		{
			name:    "not a pem",
			keyPath: func(t *testing.T) string { return writeKey(t, []byte("definitely not a key")) },
		},
		{
			name: "wrong key type",
			keyPath: func(t *testing.T) string {
				return writeKey(t, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertion, err := NewIssuer(testGitHubConfig(tt.keyPath(t))).Issue("dollar-ci")
			assert.Nil(t, assertion)
			assert.ErrorIs(t, err, ErrKeyLoad)
		})
	}
}
