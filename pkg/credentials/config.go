package credentials

import (
	"context"
	"fmt"

	"github.com/dukex/operion-odata/pkg/secrets"
	"golang.org/x/oauth2/clientcredentials"
)

type basicParams struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type headerParams struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type oauth2Params struct {
	AccessToken  string   `json:"access_token"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Option configures FromConfig.
type Option func(*options)

type options struct {
	tokens *TokenCache
}

// WithTokenCache shares client credentials tokens through tokens.
func WithTokenCache(tokens *TokenCache) Option {
	return func(o *options) {
		o.tokens = tokens
	}
}

// FromConfig builds credentials for the given authentication mode. Every string parameter
// may be a secret reference understood by secrets.Resolve.
func FromConfig(ctx context.Context, authentication Authentication, params map[string]any, opts ...Option) (Credentials, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch authentication {
	case "", AuthenticationNone:
		return None{}, nil
	case AuthenticationBasic:
		p, err := decodeParams[basicParams](params)
		if err != nil {
			return nil, err
		}

		if err := resolveAll(ctx, &p.User, &p.Password); err != nil {
			return nil, err
		}

		if p.User == "" {
			return nil, fmt.Errorf("%w: basicAuth requires user", ErrInvalidCredentials)
		}

		return Basic{User: p.User, Password: p.Password}, nil
	case AuthenticationHeader:
		p, err := decodeParams[headerParams](params)
		if err != nil {
			return nil, err
		}

		if err := resolveAll(ctx, &p.Name, &p.Value); err != nil {
			return nil, err
		}

		if p.Name == "" {
			return nil, fmt.Errorf("%w: headerAuth requires name", ErrInvalidCredentials)
		}

		return Header{Name: p.Name, Value: p.Value}, nil
	case AuthenticationOAuth2:
		return oauth2FromParams(ctx, params, o.tokens)
	default:
		return nil, fmt.Errorf("%w: unsupported authentication %q", ErrInvalidCredentials, authentication)
	}
}

func oauth2FromParams(ctx context.Context, params map[string]any, tokens *TokenCache) (Credentials, error) {
	p, err := decodeParams[oauth2Params](params)
	if err != nil {
		return nil, err
	}

	if err := resolveAll(ctx, &p.AccessToken, &p.ClientID, &p.ClientSecret, &p.TokenURL); err != nil {
		return nil, err
	}

	if p.AccessToken != "" {
		return NewStaticOAuth2(p.AccessToken), nil
	}

	if p.ClientID == "" || p.TokenURL == "" {
		return nil, fmt.Errorf("%w: oAuth2 requires access_token or client_id and token_url", ErrInvalidCredentials)
	}

	cfg := clientcredentials.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		TokenURL:     p.TokenURL,
		Scopes:       p.Scopes,
	}

	if tokens != nil {
		return OAuth2{TokenSource: tokens.Source(cfg)}, nil
	}

	return NewClientCredentialsOAuth2(ctx, cfg), nil
}

func resolveAll(ctx context.Context, values ...*string) error {
	for _, v := range values {
		resolved, err := secrets.Resolve(ctx, *v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}

		*v = resolved
	}

	return nil
}
