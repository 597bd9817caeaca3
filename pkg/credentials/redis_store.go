package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const redisKeyPrefix = "operion-odata:oauth2:"

// RedisTokenStore keeps tokens in Redis until they expire.
type RedisTokenStore struct {
	client redis.UniversalClient
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// NewRedisTokenStoreFromURL connects to the redis:// URL and checks the connection.
func NewRedisTokenStoreFromURL(ctx context.Context, url string) (*RedisTokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTokenStore(client), nil
}

// Load returns nil when no token is stored under key.
func (s *RedisTokenStore) Load(ctx context.Context, key string) (*oauth2.Token, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("invalid stored token: %w", err)
	}

	return &token, nil
}

// Save stores token until its expiry. Tokens without expiry are kept until evicted.
func (s *RedisTokenStore) Save(ctx context.Context, key string, token *oauth2.Token) error {
	var ttl time.Duration

	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry)
		if ttl <= 0 {
			return nil
		}
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
