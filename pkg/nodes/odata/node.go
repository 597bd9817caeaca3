// Package odata provides the OData node implementation for workflow graph execution.
package odata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/operion-odata/pkg/credentials"
	"github.com/dukex/operion-odata/pkg/models"
	od "github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/template"
	"github.com/xeipuuv/gojsonschema"
)

const (
	OutputPortSuccess = "success"
	OutputPortError   = "error"
	InputPortMain     = "main"

	defaultTimeoutSeconds = 30
	maxTimeoutSeconds     = 300
)

// ODataNode performs one OData request per execution.
type ODataNode struct {
	id     string
	config ODataConfig
	client *od.Client
	tokens *credentials.TokenCache
	logger *slog.Logger
}

// ODataConfig defines the configuration for OData nodes. String fields may hold templates.
type ODataConfig struct {
	Authentication credentials.Authentication `json:"authentication"`
	Credentials    map[string]any             `json:"credentials,omitempty"`
	Method         string                     `json:"method"`
	RequestType    string                     `json:"request_type"`
	BaseURL        string                     `json:"base_url"`
	Path           string                     `json:"path,omitempty"`
	ObjectID       string                     `json:"object_id,omitempty"`
	PropertyName   string                     `json:"property_name,omitempty"`
	QueryParams    string                     `json:"query_params,omitempty"`
	FunctionName   string                     `json:"function_name,omitempty"`
	FunctionParams string                     `json:"function_params,omitempty"`
	Body           string                     `json:"body,omitempty"`
	Timeout        int                        `json:"timeout"`
	ContinueOnFail bool                       `json:"continue_on_fail"`
}

// NewODataNode creates a new OData node.
func NewODataNode(id string, config map[string]any) (*ODataNode, error) {
	odataConfig := ODataConfig{
		Authentication: credentials.AuthenticationNone,
		Method:         string(od.MethodGet),
		Timeout:        defaultTimeoutSeconds,
	}

	// Parse base URL (required)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		odataConfig.BaseURL = baseURL
	} else {
		return nil, &od.ValidationError{Field: "base_url", Reason: "is required"}
	}

	if auth, ok := config["authentication"].(string); ok && auth != "" {
		odataConfig.Authentication = credentials.Authentication(auth)
	}

	if creds, ok := config["credentials"].(map[string]any); ok {
		odataConfig.Credentials = creds
	}

	if method, ok := config["method"].(string); ok && method != "" {
		odataConfig.Method = strings.ToUpper(method)
	}

	odataConfig.RequestType = string(od.DefaultRequestType(od.Method(odataConfig.Method)))
	if requestType, ok := config["request_type"].(string); ok && requestType != "" {
		odataConfig.RequestType = requestType
	}

	for key, target := range map[string]*string{
		"path":            &odataConfig.Path,
		"object_id":       &odataConfig.ObjectID,
		"property_name":   &odataConfig.PropertyName,
		"query_params":    &odataConfig.QueryParams,
		"function_name":   &odataConfig.FunctionName,
		"function_params": &odataConfig.FunctionParams,
		"body":            &odataConfig.Body,
	} {
		if value, ok := config[key].(string); ok {
			*target = value
		}
	}

	switch timeout := config["timeout"].(type) {
	case float64:
		odataConfig.Timeout = int(timeout)
	case int:
		odataConfig.Timeout = timeout
	}

	if continueOnFail, ok := config["continue_on_fail"].(bool); ok {
		odataConfig.ContinueOnFail = continueOnFail
	}

	return &ODataNode{
		id:     id,
		config: odataConfig,
		client: od.NewClient(od.WithTimeout(time.Duration(odataConfig.Timeout) * time.Second)),
		tokens: credentials.NewTokenCache(nil),
		logger: slog.Default().With("module", "odata_node", "node_id", id),
	}, nil
}

// ID returns the node ID.
func (n *ODataNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ODataNode) Type() string {
	return NodeType
}

// Config returns the parsed configuration.
func (n *ODataNode) Config() ODataConfig {
	return n.config
}

// Execute performs the OData request. Validation failures are returned as errors before anything
// is sent; transport failures are returned as errors unless continue_on_fail routes them to the
// error port.
func (n *ODataNode) Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	desc, err := n.Describe(&ctx)
	if err != nil {
		return nil, err
	}

	requestCtx := context.Background()

	creds, err := n.resolveCredentials(requestCtx, &ctx)
	if err != nil {
		return nil, err
	}

	logger := n.logger.With("execution_id", ctx.ID, "request_type", desc.RequestType)

	result, err := n.client.Do(requestCtx, desc, creds)
	if err != nil {
		return nil, err
	}

	switch result.Kind {
	case od.ResultOK:
		logger.Debug("OData request succeeded", "url", result.URL, "status_code", result.StatusCode)

		return n.createSuccessResult(desc, result), nil
	case od.ResultFormatError:
		logger.Warn("Response body is not valid JSON", "url", result.URL, "status_code", result.StatusCode)

		return n.createSuccessResult(desc, result), nil
	default:
		if !n.config.ContinueOnFail {
			logger.Error("OData request failed", "url", result.URL, "error", result.Err)

			return nil, result.Err
		}

		logger.Warn("OData request failed, continuing", "url", result.URL, "error", result.Err)

		return n.createErrorResult(desc, result), nil
	}
}

// Describe renders the configuration against ctx into a validated request description.
func (n *ODataNode) Describe(ctx *models.ExecutionContext) (od.RequestDescription, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"method", n.config.Method},
		{"request_type", n.config.RequestType},
		{"base_url", n.config.BaseURL},
		{"path", n.config.Path},
		{"object_id", n.config.ObjectID},
		{"property_name", n.config.PropertyName},
		{"query_params", n.config.QueryParams},
		{"function_name", n.config.FunctionName},
		{"function_params", n.config.FunctionParams},
		{"body", n.config.Body},
	}

	rendered := make(map[string]string, len(fields))

	for _, field := range fields {
		value, err := template.RenderString(field.value, ctx)
		if err != nil {
			return od.RequestDescription{}, &od.ValidationError{Field: field.name, Reason: err.Error()}
		}

		rendered[field.name] = value
	}

	desc := od.RequestDescription{
		Method:         od.Method(strings.ToUpper(rendered["method"])),
		RequestType:    od.RequestType(rendered["request_type"]),
		BaseURL:        rendered["base_url"],
		Path:           rendered["path"],
		ObjectID:       rendered["object_id"],
		PropertyName:   rendered["property_name"],
		QueryParams:    rendered["query_params"],
		FunctionName:   rendered["function_name"],
		FunctionParams: rendered["function_params"],
		Body:           rendered["body"],
	}

	if err := desc.Validate(); err != nil {
		return od.RequestDescription{}, err
	}

	return desc, nil
}

func (n *ODataNode) resolveCredentials(requestCtx context.Context, ctx *models.ExecutionContext) (credentials.Credentials, error) {
	params := make(map[string]any, len(n.config.Credentials))

	for key, value := range n.config.Credentials {
		str, ok := value.(string)
		if !ok {
			params[key] = value

			continue
		}

		rendered, err := template.RenderString(str, ctx)
		if err != nil {
			return nil, &od.ValidationError{Field: "credentials." + key, Reason: err.Error()}
		}

		params[key] = rendered
	}

	creds, err := credentials.FromConfig(requestCtx, n.config.Authentication, params, credentials.WithTokenCache(n.tokens))
	if err != nil {
		return nil, &od.ValidationError{Field: "credentials", Reason: err.Error()}
	}

	return creds, nil
}

// createSuccessResult wraps the response in the host's list-of-items convention. A body that is
// not JSON yields no items.
func (n *ODataNode) createSuccessResult(desc od.RequestDescription, result od.Result) map[string]models.NodeResult {
	items := []any{}
	if result.Kind == od.ResultOK && result.Value != nil {
		items = append(items, result.Value)
	}

	data := map[string]any{
		"items":        items,
		"url":          result.URL,
		"status_code":  result.StatusCode,
		"method":       string(desc.Method),
		"request_type": string(desc.RequestType),
	}

	if nextLink, ok := result.Annotation(od.AnnotationNextLink); ok {
		data["next_link"] = nextLink
	}

	if count, ok := result.Annotation(od.AnnotationCount); ok {
		data["count"] = count
	}

	if result.Kind == od.ResultFormatError {
		data["format_error"] = result.Reason()
		data["raw_body"] = result.RawBody
	}

	return map[string]models.NodeResult{
		OutputPortSuccess: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}
}

// createErrorResult creates a NodeResult for the error output port.
func (n *ODataNode) createErrorResult(desc od.RequestDescription, result od.Result) map[string]models.NodeResult {
	data := map[string]any{
		"error":        result.Reason(),
		"success":      false,
		"url":          result.URL,
		"method":       string(desc.Method),
		"request_type": string(desc.RequestType),
	}

	if result.StatusCode > 0 {
		data["status_code"] = result.StatusCode
	}

	return map[string]models.NodeResult{
		OutputPortError: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusError),
			Timestamp: time.Now().UTC(),
			Error:     result.Reason(),
		},
	}
}

// GetInputPorts returns the input ports for the node.
func (n *ODataNode) GetInputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for triggering the OData request",
			},
		},
	}
}

// GetOutputPorts returns the output ports for the node.
func (n *ODataNode) GetOutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Response items of the OData request",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"items":        map[string]any{"type": "array"},
						"url":          map[string]any{"type": "string"},
						"status_code":  map[string]any{"type": "number"},
						"method":       map[string]any{"type": "string"},
						"request_type": map[string]any{"type": "string"},
						"next_link":    map[string]any{"type": "string"},
						"count":        map[string]any{"type": "number"},
						"format_error": map[string]any{"type": "string"},
						"raw_body":     map[string]any{"type": "string"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Failure reason when continue_on_fail is enabled",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":       map[string]any{"type": "string"},
						"success":     map[string]any{"type": "boolean"},
						"status_code": map[string]any{"type": "number"},
						"url":         map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// InputRequirements returns the input coordination requirements for the OData node.
func (n *ODataNode) InputRequirements() models.InputRequirements {
	return models.DefaultInputRequirements()
}

// Validate validates the node configuration against the node schema.
func (n *ODataNode) Validate(config map[string]any) error {
	return validateConfig(config)
}

func validateConfig(config map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(Schema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate configuration: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return &od.ValidationError{Reason: "invalid node configuration: " + strings.Join(messages, "; ")}
}
