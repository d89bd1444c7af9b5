package github

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TokenRefreshSkew is how long before expiry a cached token stops being used.
const TokenRefreshSkew = time.Minute

// TokenExchanger is the part of Broker the cache depends on.
type TokenExchanger interface {
	Exchange(ctx context.Context, name string, installationID int64) (*InstallationToken, error)
}

// CachingBroker keeps one token per installation and only goes back to
// GitHub when that token is about to expire. Concurrent misses for the same
// installation share a single exchange.
type CachingBroker struct {
	exchanger TokenExchanger
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	tokens map[int64]*InstallationToken
	group  singleflight.Group
}

// NewCachingBroker wraps exchanger with an expiry-aware cache.
func NewCachingBroker(exchanger TokenExchanger, logger *slog.Logger) *CachingBroker {
	return &CachingBroker{
		exchanger: exchanger,
		logger:    logger,
		now:       time.Now,
		tokens:    make(map[int64]*InstallationToken),
	}
}

// InstallationToken returns a cached token for installationID or exchanges a
// new one.
func (c *CachingBroker) InstallationToken(ctx context.Context, name string, installationID int64) (string, error) {
	if token, ok := c.lookup(installationID); ok {
		return token, nil
	}

	v, err, shared := c.group.Do(strconv.FormatInt(installationID, 10), func() (any, error) {
		if token, ok := c.lookup(installationID); ok {
			return token, nil
		}
		fresh, err := c.exchanger.Exchange(ctx, name, installationID)
		if err != nil {
			return "", err
		}
		c.store(fresh)
		return fresh.Token, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("shared installation token exchange", "installation_id", installationID)
	}
	return v.(string), nil
}

// Invalidate drops the cached token for installationID.
func (c *CachingBroker) Invalidate(installationID int64) {
	c.mu.Lock()
	delete(c.tokens, installationID)
	c.mu.Unlock()
}

func (c *CachingBroker) lookup(installationID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.tokens[installationID]
	if !ok {
		return "", false
	}
	if token.ExpiresAt.IsZero() || !c.now().Add(TokenRefreshSkew).Before(token.ExpiresAt) {
		delete(c.tokens, installationID)
		return "", false
	}
	return token.Token, true
}

func (c *CachingBroker) store(token *InstallationToken) {
	c.mu.Lock()
	c.tokens[token.InstallationID] = token
	c.mu.Unlock()
}
