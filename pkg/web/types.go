package web

import (
	"strings"

	"github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/protocol"
)

// ResolveRequest is the request body of POST /odata/resolve. Method and request type
// default the same way the node does.
type ResolveRequest struct {
	Method         string `json:"method"          validate:"omitempty,oneof=GET POST PATCH DELETE get post patch delete"`
	RequestType    string `json:"request_type"`
	BaseURL        string `json:"base_url"        validate:"required"`
	Path           string `json:"path"`
	ObjectID       string `json:"object_id"`
	PropertyName   string `json:"property_name"`
	QueryParams    string `json:"query_params"`
	FunctionName   string `json:"function_name"`
	FunctionParams string `json:"function_params"`
	Body           string `json:"body"`
}

// Description converts the request into an odata.RequestDescription.
func (r ResolveRequest) Description() odata.RequestDescription {
	method := odata.Method(strings.ToUpper(r.Method))
	if method == "" {
		method = odata.MethodGet
	}

	requestType := odata.RequestType(r.RequestType)
	if requestType == "" {
		requestType = odata.DefaultRequestType(method)
	}

	return odata.RequestDescription{
		Method:         method,
		RequestType:    requestType,
		BaseURL:        r.BaseURL,
		Path:           r.Path,
		ObjectID:       r.ObjectID,
		PropertyName:   r.PropertyName,
		QueryParams:    r.QueryParams,
		FunctionName:   r.FunctionName,
		FunctionParams: r.FunctionParams,
		Body:           r.Body,
	}
}

// ExecuteNodeRequest is the request body of POST /nodes/:id/execute.
type ExecuteNodeRequest struct {
	NodeID      string         `json:"node_id"      validate:"required"`
	WorkflowID  string         `json:"workflow_id"`
	Config      map[string]any `json:"config"       validate:"required"`
	Variables   map[string]any `json:"variables"`
	TriggerData map[string]any `json:"trigger_data"`
}

// NodeResponse describes a registered node type.
type NodeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TransformNodeResponse transforms a NodeFactory into a NodeResponse.
func TransformNodeResponse(factory protocol.NodeFactory) NodeResponse {
	return NodeResponse{
		ID:          factory.ID(),
		Name:        factory.Name(),
		Description: factory.Description(),
	}
}
