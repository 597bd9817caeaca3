package cmd

import (
	"context"

	"github.com/dukex/operion-odata/pkg/credentials"
)

// NewTokenCache returns an in-memory OAuth2 token cache, backed by Redis when redisURL is set.
func NewTokenCache(ctx context.Context, redisURL string) (*credentials.TokenCache, error) {
	if redisURL == "" {
		return credentials.NewTokenCache(nil), nil
	}

	store, err := credentials.NewRedisTokenStoreFromURL(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	return credentials.NewTokenCache(store), nil
}
