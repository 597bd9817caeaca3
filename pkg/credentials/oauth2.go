package credentials

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const bearerTokenType = "Bearer"

// OAuth2 sets a bearer token obtained from a token source.
type OAuth2 struct {
	TokenSource oauth2.TokenSource
}

// NewStaticOAuth2 wraps an already issued access token.
func NewStaticOAuth2(accessToken string) OAuth2 {
	return OAuth2{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   bearerTokenType,
		}),
	}
}

// NewClientCredentialsOAuth2 fetches and caches tokens with the client credentials grant.
func NewClientCredentialsOAuth2(ctx context.Context, cfg clientcredentials.Config) OAuth2 {
	return OAuth2{TokenSource: cfg.TokenSource(ctx)}
}

func (o OAuth2) Apply(_ context.Context, req *http.Request) error {
	token, err := o.TokenSource.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain oauth2 token: %w", err)
	}

	token.SetAuthHeader(req)

	return nil
}
