package odata

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/operion-odata/pkg/models"
	od "github.com/dukex/operion-odata/pkg/odata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutionContext() models.ExecutionContext {
	return models.ExecutionContext{
		ID:                  "test-exec",
		PublishedWorkflowID: "test-workflow",
		NodeResults:         make(map[string]models.NodeResult),
		Variables:           make(map[string]any),
		Metadata:            make(map[string]any),
	}
}

func TestNewODataNode_Defaults(t *testing.T) {
	node, err := NewODataNode("odata-1", map[string]any{
		"base_url": "https://example.com/odata",
		"path":     "People",
	})
	require.NoError(t, err)

	config := node.Config()
	assert.Equal(t, "GET", config.Method)
	assert.Equal(t, string(od.RequestTypeListEntitySet), config.RequestType)
	assert.Equal(t, defaultTimeoutSeconds, config.Timeout)
	assert.False(t, config.ContinueOnFail)
	assert.Equal(t, NodeType, node.Type())
	assert.Equal(t, "odata-1", node.ID())
}

func TestNewODataNode_DefaultRequestTypePerMethod(t *testing.T) {
	tests := []struct {
		method   string
		expected od.RequestType
	}{
		{"GET", od.RequestTypeListEntitySet},
		{"POST", od.RequestTypeInvokeFunction},
		{"PATCH", od.RequestTypeUpdateEntity},
		{"DELETE", od.RequestTypeDeleteEntity},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			node, err := NewODataNode("odata-1", map[string]any{
				"base_url": "https://example.com",
				"method":   tt.method,
			})
			require.NoError(t, err)
			assert.Equal(t, string(tt.expected), node.Config().RequestType)
		})
	}
}

func TestNewODataNode_MissingBaseURL(t *testing.T) {
	_, err := NewODataNode("odata-1", map[string]any{"path": "People"})
	require.Error(t, err)
	assert.True(t, od.IsValidationError(err))
}

func TestNewODataNode_TimeoutFromJSONNumber(t *testing.T) {
	node, err := NewODataNode("odata-1", map[string]any{
		"base_url": "https://example.com",
		"timeout":  float64(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, node.Config().Timeout)
}

func TestODataNode_Execute_SingleEntity(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"UserName":"russellwhyte","FirstName":"Russell"}`))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":     server.URL,
		"method":       "GET",
		"request_type": "singleEntity",
		"path":         "People",
		"object_id":    "russellwhyte",
	})
	require.NoError(t, err)

	results, err := node.Execute(newExecutionContext(), map[string]models.NodeResult{})
	require.NoError(t, err)

	success, ok := results[OutputPortSuccess]
	require.True(t, ok)
	assert.Equal(t, string(models.NodeStatusSuccess), success.Status)
	assert.Equal(t, "odata-1", success.NodeID)
	assert.Equal(t, "/People('russellwhyte')", gotPath)

	items, ok := success.Data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	entity, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Russell", entity["FirstName"])
	assert.Equal(t, http.StatusOK, success.Data["status_code"])
	assert.Equal(t, server.URL+"/People('russellwhyte')", success.Data["url"])
}

func TestODataNode_Execute_CollectionAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "$top=2&$count=true", r.URL.RawQuery)

		_, _ = w.Write([]byte(`{"@odata.count":20,"@odata.nextLink":"People?$skip=2","value":[{"UserName":"a"},{"UserName":"b"}]}`))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":     server.URL,
		"path":         "People",
		"query_params": "$top=2&$count=true",
	})
	require.NoError(t, err)

	results, err := node.Execute(newExecutionContext(), nil)
	require.NoError(t, err)

	data := results[OutputPortSuccess].Data
	assert.Equal(t, "People?$skip=2", data["next_link"])
	assert.InDelta(t, 20, data["count"], 0)
}

func TestODataNode_Execute_Templates(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()

		_, _ = w.Write([]byte(`{"value":"Russell"}`))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":      "{{ .variables.service }}",
		"request_type":  "singleEntityPropertyValue",
		"path":          "People",
		"object_id":     "{{ .trigger_data.user }}",
		"property_name": "FirstName",
	})
	require.NoError(t, err)

	ctx := newExecutionContext()
	ctx.Variables["service"] = server.URL
	ctx.TriggerData = map[string]any{"user": "russellwhyte"}

	results, err := node.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, results, OutputPortSuccess)
	assert.Equal(t, "/People('russellwhyte')/FirstName", gotPath)
}

func TestODataNode_Execute_CreateEntitySendsBody(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get(od.HeaderContentType)

		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"UserName":"frederik"}`))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":     server.URL,
		"method":       "POST",
		"request_type": "createEntity",
		"path":         "People",
		"body":         `{"UserName":"frederik"}`,
	})
	require.NoError(t, err)

	results, err := node.Execute(newExecutionContext(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, od.ContentTypeFormURLEncoded, gotContentType)
	assert.Equal(t, `{"UserName":"frederik"}`, gotBody)
	assert.Equal(t, http.StatusCreated, results[OutputPortSuccess].Data["status_code"])
}

func TestODataNode_Execute_BasicAuth(t *testing.T) {
	t.Setenv("ODATA_TEST_PASSWORD", "s3cret")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "odata" || password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":       server.URL,
		"path":           "People",
		"authentication": "basicAuth",
		"credentials": map[string]any{
			"user":     "odata",
			"password": "env:ODATA_TEST_PASSWORD",
		},
	})
	require.NoError(t, err)

	results, err := node.Execute(newExecutionContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, results[OutputPortSuccess].Data["status_code"])
}

func TestODataNode_Execute_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Russell"))
	}))
	defer server.Close()

	node, err := NewODataNode("odata-1", map[string]any{
		"base_url":      server.URL,
		"request_type":  "singleEntityPropertyValue",
		"path":          "People",
		"object_id":     "russellwhyte",
		"property_name": "FirstName",
	})
	require.NoError(t, err)

	results, err := node.Execute(newExecutionContext(), nil)
	require.NoError(t, err)

	data := results[OutputPortSuccess].Data
	assert.Empty(t, data["items"])
	assert.Equal(t, "Russell", data["raw_body"])
	assert.NotEmpty(t, data["format_error"])
}

func TestODataNode_Execute_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}))
	defer server.Close()

	config := map[string]any{
		"base_url":     server.URL,
		"request_type": "singleEntity",
		"path":         "People",
		"object_id":    "nobody",
	}

	t.Run("fails the execution", func(t *testing.T) {
		node, err := NewODataNode("odata-1", config)
		require.NoError(t, err)

		results, err := node.Execute(newExecutionContext(), nil)
		require.Error(t, err)
		assert.Nil(t, results)
		assert.True(t, od.IsTransportError(err))
	})

	t.Run("continue on fail routes to error port", func(t *testing.T) {
		withContinue := map[string]any{"continue_on_fail": true}
		for k, v := range config {
			withContinue[k] = v
		}

		node, err := NewODataNode("odata-1", withContinue)
		require.NoError(t, err)

		results, err := node.Execute(newExecutionContext(), nil)
		require.NoError(t, err)

		errorResult, ok := results[OutputPortError]
		require.True(t, ok)
		assert.Equal(t, string(models.NodeStatusError), errorResult.Status)
		assert.Equal(t, false, errorResult.Data["success"])
		assert.Equal(t, http.StatusNotFound, errorResult.Data["status_code"])
		assert.Contains(t, errorResult.Error, "404")
		assert.NotContains(t, results, OutputPortSuccess)
	})
}

func TestODataNode_Execute_ValidationSendsNothing(t *testing.T) {
	called := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	tests := []struct {
		name   string
		config map[string]any
	}{
		{
			name:   "missing path",
			config: map[string]any{"base_url": server.URL, "request_type": "singleEntity"},
		},
		{
			name:   "missing function name",
			config: map[string]any{"base_url": server.URL, "request_type": "invokeFunction"},
		},
		{
			name: "request type not offered for method",
			config: map[string]any{
				"base_url": server.URL, "method": "DELETE", "request_type": "createEntity", "path": "People",
			},
		},
		{
			name:   "templated base url renders empty",
			config: map[string]any{"base_url": "{{ .variables.missing }}", "path": "People"},
		},
		{
			name: "incomplete credentials",
			config: map[string]any{
				"base_url": server.URL, "path": "People", "authentication": "headerAuth",
				"credentials": map[string]any{"value": "token"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewODataNode("odata-1", tt.config)
			require.NoError(t, err)

			_, err = node.Execute(newExecutionContext(), nil)
			require.Error(t, err)
			assert.True(t, od.IsValidationError(err))
		})
	}

	assert.False(t, called)
}

func TestODataNode_Ports(t *testing.T) {
	node, err := NewODataNode("odata-1", map[string]any{"base_url": "https://example.com", "path": "People"})
	require.NoError(t, err)

	inputs := node.GetInputPorts()
	require.Len(t, inputs, 1)
	assert.Equal(t, "odata-1:main", inputs[0].ID)

	outputs := node.GetOutputPorts()
	require.Len(t, outputs, 2)
	assert.Equal(t, "odata-1:success", outputs[0].ID)
	assert.Equal(t, "odata-1:error", outputs[1].ID)

	assert.Equal(t, models.DefaultInputRequirements(), node.InputRequirements())
}
