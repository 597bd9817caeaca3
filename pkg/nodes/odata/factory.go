// Package odata provides the OData node factory for the registry system.
package odata

import (
	"context"
	"slices"

	"github.com/dukex/operion-odata/pkg/credentials"
	"github.com/dukex/operion-odata/pkg/models"
	od "github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/protocol"
)

const NodeType = "odata"

// ODataNodeFactory creates ODataNode instances. Nodes created by one factory share its
// OAuth2 token cache.
type ODataNodeFactory struct {
	client *od.Client
	tokens *credentials.TokenCache
}

// FactoryOption configures an ODataNodeFactory.
type FactoryOption func(*ODataNodeFactory)

// WithClient makes every created node share client instead of building its own.
func WithClient(client *od.Client) FactoryOption {
	return func(f *ODataNodeFactory) {
		f.client = client
	}
}

// WithTokenCache replaces the factory's in-memory token cache.
func WithTokenCache(tokens *credentials.TokenCache) FactoryOption {
	return func(f *ODataNodeFactory) {
		f.tokens = tokens
	}
}

// NewODataNodeFactory creates a new OData node factory.
func NewODataNodeFactory(opts ...FactoryOption) protocol.NodeFactory {
	f := &ODataNodeFactory{tokens: credentials.NewTokenCache(nil)}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create validates config against the node schema and creates an ODataNode.
func (f *ODataNodeFactory) Create(ctx context.Context, id string, config map[string]any) (models.Node, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	node, err := NewODataNode(id, config)
	if err != nil {
		return nil, err
	}

	if f.client != nil {
		node.client = f.client
	}

	node.tokens = f.tokens

	return node, nil
}

// ID returns the factory ID.
func (f *ODataNodeFactory) ID() string {
	return NodeType
}

// Name returns the factory name.
func (f *ODataNodeFactory) Name() string {
	return "OData"
}

// Description returns the factory description.
func (f *ODataNodeFactory) Description() string {
	return "Fetch a specific resource from an OData API"
}

// Schema returns the JSON schema for OData node configuration.
func (f *ODataNodeFactory) Schema() map[string]any {
	return Schema()
}

// Schema is the editor form of the node. Rules under allOf mirror odata.RequestDescription.Validate
// so the editor rejects what dispatch would reject.
func Schema() map[string]any {
	requestTypes := make(map[string]any, len(od.RequestTypesByMethod))
	for method, types := range od.RequestTypesByMethod {
		requestTypes[string(method)] = requestTypeNames(types...)
	}

	rules := []any{
		map[string]any{
			"if":   requestTypeIs(od.RequestTypeInvokeFunction),
			"then": map[string]any{"required": []string{"function_name"}},
		},
		map[string]any{
			"if": requestTypeIs(
				od.RequestTypeQuery,
				od.RequestTypeListEntitySet,
				od.RequestTypeSingleEntity,
				od.RequestTypeSingleEntityPropertyValue,
				od.RequestTypeCreateEntity,
				od.RequestTypeUpdateEntity,
				od.RequestTypeDeleteEntity,
			),
			"then": map[string]any{"required": []string{"path"}},
		},
	}

	for _, method := range od.Methods {
		rules = append(rules, map[string]any{
			"if": map[string]any{
				"properties": map[string]any{"method": map[string]any{"const": string(method)}},
				"required":   []string{"method"},
			},
			"then": map[string]any{
				"properties": map[string]any{
					"request_type": map[string]any{"enum": requestTypeNames(od.RequestTypesByMethod[method]...)},
				},
			},
		})
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"authentication": map[string]any{
				"type":        "string",
				"description": "The way to authenticate",
				"enum":        authenticationNames(),
				"default":     string(credentials.AuthenticationNone),
			},
			"credentials": map[string]any{
				"type": "object",
				"description": "Credential parameters for the selected authentication. " +
					"basicAuth: user, password. headerAuth: name, value. " +
					"oAuth2: access_token, or client_id, client_secret, token_url, scopes. " +
					"String values accept env:NAME and file:/path references",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "The HTTP method to execute",
				"enum":        methodNames(),
				"default":     string(od.MethodGet),
			},
			"base_url": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The base url of the OData service, without trailing slash",
				"examples":    []string{"https://services.odata.org/TripPinRESTierService"},
			},
			"request_type": map[string]any{
				"type":        "string",
				"description": "How to fetch resources. Defaults to the first request type offered for the method",
				"enum":        requestTypeNames(allRequestTypes()...),
			},
			"path": map[string]any{
				"type":        "string",
				"description": "The entity set (eg. People)",
			},
			"object_id": map[string]any{
				"type":        "string",
				"description": `The key of a specific entity (eg. "russellwhyte")`,
			},
			"property_name": map[string]any{
				"type":        "string",
				"description": `The property of the entity (eg. "FirstName")`,
			},
			"query_params": map[string]any{
				"type":        "string",
				"description": `Extra query options for GET requests (eg. "$filter=FirstName eq 'Scott'")`,
			},
			"function_name": map[string]any{
				"type":        "string",
				"description": `The OData function or action name (eg. "GetNearestAirport")`,
			},
			"function_params": map[string]any{
				"type":        "string",
				"description": `The function parameters for GET calls (eg. "lat=33,lon=-118")`,
			},
			"body": map[string]any{
				"type":        "string",
				"description": "The body to send when creating or updating an entity",
				"examples":    []string{`{"UserName": "frederik"}`},
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     defaultTimeoutSeconds,
				"minimum":     1,
				"maximum":     maxTimeoutSeconds,
			},
			"continue_on_fail": map[string]any{
				"type":        "boolean",
				"description": "Emit the failure on the error port instead of failing the execution",
				"default":     false,
			},
		},
		"required":        []string{"base_url"},
		"allOf":           rules,
		"x-request-types": requestTypes,
		"examples": []map[string]any{
			{
				"base_url":     "https://services.odata.org/TripPinRESTierService",
				"method":       "GET",
				"request_type": "singleEntity",
				"path":         "People",
				"object_id":    "russellwhyte",
			},
			{
				"base_url":        "https://services.odata.org/TripPinRESTierService",
				"method":          "GET",
				"request_type":    "invokeFunction",
				"function_name":   "GetNearestAirport",
				"function_params": "lat=33,lon=-118",
			},
			{
				"authentication": "basicAuth",
				"credentials":    map[string]any{"user": "odata", "password": "env:ODATA_PASSWORD"},
				"base_url":       "{{ .variables.odata_url }}",
				"method":         "POST",
				"request_type":   "createEntity",
				"path":           "People",
				"body":           `{"UserName": "{{ .trigger_data.webhook.user }}"}`,
			},
		},
	}
}

func requestTypeIs(types ...od.RequestType) map[string]any {
	return map[string]any{
		"properties": map[string]any{"request_type": map[string]any{"enum": requestTypeNames(types...)}},
		"required":   []string{"request_type"},
	}
}

func allRequestTypes() []od.RequestType {
	var all []od.RequestType

	for _, method := range od.Methods {
		for _, t := range od.RequestTypesByMethod[method] {
			if !slices.Contains(all, t) {
				all = append(all, t)
			}
		}
	}

	return all
}

func requestTypeNames(types ...od.RequestType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	return names
}

func methodNames() []string {
	names := make([]string, len(od.Methods))
	for i, m := range od.Methods {
		names[i] = string(m)
	}

	return names
}

func authenticationNames() []string {
	names := make([]string, len(credentials.Authentications))
	for i, a := range credentials.Authentications {
		names[i] = string(a)
	}

	return names
}
