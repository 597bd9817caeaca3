package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/operion-odata/pkg/eventbus"
	"github.com/dukex/operion-odata/pkg/events"
	"github.com/dukex/operion-odata/pkg/models"
	nodeodata "github.com/dukex/operion-odata/pkg/nodes/odata"
	"github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/registry"
	"github.com/google/uuid"
)

// ExecuteRequest describes a single node run outside of a workflow.
type ExecuteRequest struct {
	NodeType    string
	NodeID      string
	WorkflowID  string
	Config      map[string]any
	Variables   map[string]any
	TriggerData map[string]any
}

// ExecuteResponse holds the output ports produced by the node.
type ExecuteResponse struct {
	ExecutionID string                       `json:"execution_id"`
	NodeID      string                       `json:"node_id"`
	Outputs     map[string]models.NodeResult `json:"outputs"`
}

// ResolveResponse is the addressing computed for a request description.
type ResolveResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Execution runs nodes from the registry and publishes OData request events.
type Execution struct {
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

// NewExecution creates a new execution service. publisher may be nil.
func NewExecution(reg *registry.Registry, publisher eventbus.EventPublisher, logger *slog.Logger) *Execution {
	return &Execution{
		registry:  reg,
		publisher: publisher,
		logger:    logger,
	}
}

// Resolve validates desc and returns its path and full URL without sending anything.
func (e *Execution) Resolve(desc odata.RequestDescription) (*ResolveResponse, error) {
	path, err := odata.ResolvePath(desc)
	if err != nil {
		return nil, err
	}

	url, err := odata.ResolveURL(desc)
	if err != nil {
		return nil, err
	}

	return &ResolveResponse{Path: path, URL: url}, nil
}

// Execute creates the node, runs it once and publishes the outcome.
func (e *Execution) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	if req == nil {
		return nil, NewValidationError("execute", "INVALID_REQUEST", "request cannot be nil", ErrInvalidRequest)
	}

	if req.NodeID == "" {
		return nil, ErrNodeIDRequired
	}

	nodeType := req.NodeType
	if nodeType == "" {
		nodeType = nodeodata.NodeType
	}

	node, err := e.registry.CreateNode(ctx, nodeType, req.NodeID, req.Config)
	if err != nil {
		if errors.Is(err, registry.ErrNodeNotRegistered) {
			return nil, fmt.Errorf("%w: %s", ErrNodeTypeNotFound, nodeType)
		}

		return nil, err
	}

	execCtx := models.ExecutionContext{
		ID:                  uuid.New().String(),
		PublishedWorkflowID: req.WorkflowID,
		NodeResults:         make(map[string]models.NodeResult),
		TriggerData:         req.TriggerData,
		Variables:           req.Variables,
		Metadata:            map[string]any{"node_type": nodeType},
	}

	if execCtx.Variables == nil {
		execCtx.Variables = make(map[string]any)
	}

	logger := e.logger.With("execution_id", execCtx.ID, "node_id", req.NodeID)
	logger.InfoContext(ctx, "Executing node", "node_type", nodeType)

	started := time.Now()
	outputs, err := node.Execute(execCtx, map[string]models.NodeResult{})
	duration := time.Since(started)

	request := e.describe(node, execCtx.ID, duration)

	if err != nil {
		logger.ErrorContext(ctx, "Node execution failed", "error", err)
		e.publishFailed(ctx, req.WorkflowID, request, err.Error(), odata.IsValidationError(err))

		return nil, err
	}

	if result, ok := outputs[nodeodata.OutputPortError]; ok {
		fillRequest(&request, result.Data)
		e.publishFailed(ctx, req.WorkflowID, request, result.Error, false)
	} else if result, ok := outputs[nodeodata.OutputPortSuccess]; ok {
		fillRequest(&request, result.Data)
		e.publishCompleted(ctx, req.WorkflowID, request, result.Data)
	}

	logger.InfoContext(ctx, "Node executed", "duration_ms", duration.Milliseconds(), "ports", len(outputs))

	return &ExecuteResponse{
		ExecutionID: execCtx.ID,
		NodeID:      req.NodeID,
		Outputs:     outputs,
	}, nil
}

func (e *Execution) describe(node models.Node, executionID string, duration time.Duration) events.ODataRequest {
	request := events.ODataRequest{
		ExecutionID: executionID,
		NodeID:      node.ID(),
		DurationMs:  duration.Milliseconds(),
	}

	if odataNode, ok := node.(*nodeodata.ODataNode); ok {
		config := odataNode.Config()
		request.Method = config.Method
		request.RequestType = config.RequestType
	}

	return request
}

func fillRequest(request *events.ODataRequest, data map[string]any) {
	if url, ok := data["url"].(string); ok {
		request.URL = url
	}

	if status, ok := data["status_code"].(int); ok {
		request.StatusCode = status
	}

	if method, ok := data["method"].(string); ok {
		request.Method = method
	}

	if requestType, ok := data["request_type"].(string); ok {
		request.RequestType = requestType
	}
}

func (e *Execution) publishCompleted(ctx context.Context, workflowID string, request events.ODataRequest, data map[string]any) {
	event := events.ODataRequestCompleted{
		BaseEvent:    events.NewBaseEvent(events.ODataRequestCompletedEvent, workflowID),
		ODataRequest: request,
	}

	if items, ok := data["items"].([]any); ok {
		event.ItemCount = len(items)
	}

	if formatError, ok := data["format_error"].(string); ok {
		event.FormatError = formatError
	}

	e.publish(ctx, request.ExecutionID, event)
}

func (e *Execution) publishFailed(ctx context.Context, workflowID string, request events.ODataRequest, reason string, validation bool) {
	e.publish(ctx, request.ExecutionID, events.ODataRequestFailed{
		BaseEvent:    events.NewBaseEvent(events.ODataRequestFailedEvent, workflowID),
		ODataRequest: request,
		Error:        reason,
		Validation:   validation,
	})
}

// publish never fails the execution; the request already happened.
func (e *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
