package odata

import (
	"context"
	"testing"

	od "github.com/dukex/operion-odata/pkg/odata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestODataNodeFactory_Metadata(t *testing.T) {
	factory := NewODataNodeFactory()

	assert.Equal(t, "odata", factory.ID())
	assert.Equal(t, "OData", factory.Name())
	assert.NotEmpty(t, factory.Description())

	schema := factory.Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"base_url"}, schema["required"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{
		"authentication", "credentials", "method", "base_url", "request_type", "path", "object_id",
		"property_name", "query_params", "function_name", "function_params", "body", "timeout",
		"continue_on_fail",
	} {
		assert.Contains(t, properties, key)
	}

	method, ok := properties["method"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"DELETE", "GET", "PATCH", "POST"}, method["enum"])

	requestType, ok := properties["request_type"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, requestType["enum"], 8)
}

func TestODataNodeFactory_SchemaRequestTypesPerMethod(t *testing.T) {
	requestTypes, ok := Schema()["x-request-types"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, []string{"updateEntity"}, requestTypes["PATCH"])
	assert.Equal(t, []string{"deleteEntity"}, requestTypes["DELETE"])
	assert.Equal(t, []string{"invokeFunction", "createEntity"}, requestTypes["POST"])
	assert.Len(t, requestTypes["GET"], 5)
}

func TestODataNodeFactory_Create(t *testing.T) {
	client := od.NewClient()
	factory := NewODataNodeFactory(WithClient(client))

	node, err := factory.Create(context.Background(), "odata-1", map[string]any{
		"base_url":     "https://services.odata.org/TripPinRESTierService",
		"method":       "GET",
		"request_type": "singleEntity",
		"path":         "People",
		"object_id":    "russellwhyte",
		"timeout":      10,
	})
	require.NoError(t, err)

	odataNode, ok := node.(*ODataNode)
	require.True(t, ok)
	assert.Same(t, client, odataNode.client)
	assert.Equal(t, 10, odataNode.Config().Timeout)
}

func TestODataNodeFactory_CreateRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{
			name:   "missing base url",
			config: map[string]any{"path": "People"},
		},
		{
			name:   "unknown method",
			config: map[string]any{"base_url": "https://example.com", "method": "PUT", "path": "People"},
		},
		{
			name: "request type not offered for method",
			config: map[string]any{
				"base_url": "https://example.com", "method": "PATCH", "request_type": "createEntity", "path": "People",
			},
		},
		{
			name: "invoke function without function name",
			config: map[string]any{
				"base_url": "https://example.com", "method": "GET", "request_type": "invokeFunction",
			},
		},
		{
			name: "entity request without path",
			config: map[string]any{
				"base_url": "https://example.com", "method": "DELETE", "request_type": "deleteEntity",
			},
		},
		{
			name:   "timeout out of range",
			config: map[string]any{"base_url": "https://example.com", "path": "People", "timeout": 301},
		},
		{
			name: "unknown authentication",
			config: map[string]any{
				"base_url": "https://example.com", "path": "People", "authentication": "digest",
			},
		},
	}

	factory := NewODataNodeFactory()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := factory.Create(context.Background(), "odata-1", tt.config)
			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, od.IsValidationError(err))
		})
	}
}

func TestODataNode_Validate(t *testing.T) {
	node, err := NewODataNode("odata-1", map[string]any{"base_url": "https://example.com", "path": "People"})
	require.NoError(t, err)

	require.NoError(t, node.Validate(map[string]any{
		"base_url":        "https://example.com",
		"method":          "GET",
		"request_type":    "invokeFunction",
		"function_name":   "GetNearestAirport",
		"function_params": "lat=33,lon=-118",
	}))

	err = node.Validate(map[string]any{"base_url": ""})
	require.Error(t, err)
	assert.True(t, od.IsValidationError(err))
}
