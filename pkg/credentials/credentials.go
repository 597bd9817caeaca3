// Package credentials attaches host-provided credentials to outbound OData requests.
package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Authentication selects how a request is authenticated.
type Authentication string

const (
	AuthenticationNone   Authentication = "none"
	AuthenticationBasic  Authentication = "basicAuth"
	AuthenticationHeader Authentication = "headerAuth"
	AuthenticationOAuth2 Authentication = "oAuth2"
)

// Authentications lists the supported modes in editor order.
var Authentications = []Authentication{
	AuthenticationBasic,
	AuthenticationHeader,
	AuthenticationOAuth2,
	AuthenticationNone,
}

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials attach authentication to a request.
type Credentials interface {
	Apply(ctx context.Context, req *http.Request) error
}

// None leaves the request untouched.
type None struct{}

func (None) Apply(context.Context, *http.Request) error { return nil }

// Basic sets HTTP basic authentication.
type Basic struct {
	User     string
	Password string
}

func (b Basic) Apply(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(b.User, b.Password)

	return nil
}

// Header sets a single named header, e.g. an API key.
type Header struct {
	Name  string
	Value string
}

func (h Header) Apply(_ context.Context, req *http.Request) error {
	req.Header.Set(h.Name, h.Value)

	return nil
}

// decodeParams converts a raw parameter map into T, rejecting unknown keys.
func decodeParams[T any](params map[string]any) (*T, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var out T
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return &out, nil
}
