package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const storeTimeout = 2 * time.Second

// TokenStore shares issued tokens between processes.
type TokenStore interface {
	Load(ctx context.Context, key string) (*oauth2.Token, error)
	Save(ctx context.Context, key string, token *oauth2.Token) error
}

// TokenCache hands out one token source per client credentials grant, so every request using
// the same grant reuses its token until it expires. An optional TokenStore lets other processes
// reuse it too.
type TokenCache struct {
	store  TokenStore
	logger *slog.Logger

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewTokenCache creates a cache. store may be nil.
func NewTokenCache(store TokenStore) *TokenCache {
	return &TokenCache{
		store:   store,
		logger:  slog.Default().With("module", "token_cache"),
		sources: make(map[string]oauth2.TokenSource),
	}
}

// Source returns the shared token source for cfg.
func (c *TokenCache) Source(cfg clientcredentials.Config) oauth2.TokenSource {
	key := TokenKey(cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if source, ok := c.sources[key]; ok {
		return source
	}

	source := cfg.TokenSource(context.Background())
	if c.store != nil {
		source = oauth2.ReuseTokenSource(nil, &storedTokenSource{
			key:    key,
			store:  c.store,
			base:   source,
			logger: c.logger,
		})
	}

	c.sources[key] = source

	return source
}

// Close closes the store when it holds a connection.
func (c *TokenCache) Close() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// TokenKey identifies a grant without exposing its secret.
func TokenKey(cfg clientcredentials.Config) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		cfg.TokenURL,
		cfg.ClientID,
		cfg.ClientSecret,
		strings.Join(cfg.Scopes, " "),
	}, "\n")))

	return hex.EncodeToString(sum[:])
}

type storedTokenSource struct {
	key    string
	store  TokenStore
	base   oauth2.TokenSource
	logger *slog.Logger
}

// Token prefers a valid stored token. Store failures are logged and never block the request.
func (s *storedTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	token, err := s.store.Load(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load oauth2 token from store", "error", err)
	} else if token.Valid() {
		return token, nil
	}

	token, err = s.base.Token()
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, s.key, token); err != nil {
		s.logger.WarnContext(ctx, "Failed to save oauth2 token to store", "error", err)
	}

	return token, nil
}
