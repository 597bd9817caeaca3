package odata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukex/operion-odata/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOAuth2Servers(t *testing.T) (*httptest.Server, *httptest.Server, *atomic.Int32) {
	t.Helper()

	var tokenCalls atomic.Int32

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"issued-token","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	odataServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer issued-token" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	t.Cleanup(odataServer.Close)

	return tokenServer, odataServer, &tokenCalls
}

func oauth2NodeConfig(baseURL, tokenURL string) map[string]any {
	return map[string]any{
		"base_url":       baseURL,
		"path":           "People",
		"authentication": "oAuth2",
		"credentials": map[string]any{
			"client_id":     "odata-node",
			"client_secret": "secret",
			"token_url":     tokenURL,
		},
	}
}

func TestODataNode_Execute_ReusesOAuth2Token(t *testing.T) {
	tokenServer, odataServer, tokenCalls := newOAuth2Servers(t)

	node, err := NewODataNode("odata-1", oauth2NodeConfig(odataServer.URL, tokenServer.URL))
	require.NoError(t, err)

	for range 3 {
		outputs, err := node.Execute(newExecutionContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, outputs, OutputPortSuccess)
	}

	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestODataNodeFactory_NodesShareOAuth2Token(t *testing.T) {
	tokenServer, odataServer, tokenCalls := newOAuth2Servers(t)

	factory := NewODataNodeFactory()

	for _, id := range []string{"odata-1", "odata-2", "odata-1"} {
		node, err := factory.Create(context.Background(), id, oauth2NodeConfig(odataServer.URL, tokenServer.URL))
		require.NoError(t, err)

		_, err = node.Execute(newExecutionContext(), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestODataNodeFactory_WithTokenCache(t *testing.T) {
	tokenServer, odataServer, tokenCalls := newOAuth2Servers(t)

	tokens := credentials.NewTokenCache(nil)

	for range 2 {
		node, err := NewODataNodeFactory(WithTokenCache(tokens)).Create(context.Background(), "odata-1",
			oauth2NodeConfig(odataServer.URL, tokenServer.URL))
		require.NoError(t, err)

		_, err = node.Execute(newExecutionContext(), nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), tokenCalls.Load())
}
