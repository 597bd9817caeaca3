// Package odata builds OData resource requests from a declarative description and performs them.
package odata

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Method is the HTTP verb of an OData request.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// RequestType is the shape of the targeted OData resource.
type RequestType string

const (
	RequestTypeQuery                     RequestType = "query"
	RequestTypeListEntitySet             RequestType = "listEntitySet"
	RequestTypeSingleEntity              RequestType = "singleEntity"
	RequestTypeSingleEntityPropertyValue RequestType = "singleEntityPropertyValue"
	RequestTypeInvokeFunction            RequestType = "invokeFunction"
	RequestTypeCreateEntity              RequestType = "createEntity"
	RequestTypeUpdateEntity              RequestType = "updateEntity"
	RequestTypeDeleteEntity              RequestType = "deleteEntity"
)

// Methods lists the supported HTTP verbs in editor order.
var Methods = []Method{MethodDelete, MethodGet, MethodPatch, MethodPost}

// RequestTypesByMethod lists the request types the editor offers for each method.
// The first entry is the default.
var RequestTypesByMethod = map[Method][]RequestType{
	MethodGet: {
		RequestTypeListEntitySet,
		RequestTypeQuery,
		RequestTypeSingleEntity,
		RequestTypeSingleEntityPropertyValue,
		RequestTypeInvokeFunction,
	},
	MethodPost:   {RequestTypeInvokeFunction, RequestTypeCreateEntity},
	MethodPatch:  {RequestTypeUpdateEntity},
	MethodDelete: {RequestTypeDeleteEntity},
}

// DefaultRequestType returns the request type preselected for method.
func DefaultRequestType(method Method) RequestType {
	types := RequestTypesByMethod[method]
	if len(types) == 0 {
		return ""
	}

	return types[0]
}

// RequestDescription declares a single OData request.
type RequestDescription struct {
	Method         Method      `json:"method"          yaml:"method"          validate:"required,oneof=GET POST PATCH DELETE"`
	RequestType    RequestType `json:"request_type"    yaml:"request_type"    validate:"required"`
	BaseURL        string      `json:"base_url"        yaml:"base_url"        validate:"required"`
	Path           string      `json:"path,omitempty"            yaml:"path,omitempty"`
	ObjectID       string      `json:"object_id,omitempty"       yaml:"object_id,omitempty"`
	PropertyName   string      `json:"property_name,omitempty"   yaml:"property_name,omitempty"`
	QueryParams    string      `json:"query_params,omitempty"    yaml:"query_params,omitempty"`
	FunctionName   string      `json:"function_name,omitempty"   yaml:"function_name,omitempty"`
	FunctionParams string      `json:"function_params,omitempty" yaml:"function_params,omitempty"`
	Body           string      `json:"body,omitempty"            yaml:"body,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that desc carries every field its request type needs.
func (d RequestDescription) Validate() error {
	err := validate.Struct(d)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}

		return &ValidationError{Reason: err.Error()}
	}

	allowed, ok := RequestTypesByMethod[d.Method]
	if !ok {
		return &ValidationError{Field: "method", Reason: "is not supported: " + string(d.Method)}
	}

	if !slices.Contains(allowed, d.RequestType) {
		if !d.RequestType.known() {
			return &ValidationError{Field: "request_type", Reason: "is not supported: " + string(d.RequestType)}
		}

		return &ValidationError{
			Field:  "request_type",
			Reason: string(d.RequestType) + " cannot be used with " + string(d.Method),
		}
	}

	if d.RequestType == RequestTypeInvokeFunction {
		if strings.TrimSpace(d.FunctionName) == "" {
			return missing("function_name")
		}

		return nil
	}

	if strings.TrimSpace(d.Path) == "" {
		return missing("path")
	}

	return nil
}

func (t RequestType) known() bool {
	for _, types := range RequestTypesByMethod {
		if slices.Contains(types, t) {
			return true
		}
	}

	return false
}

// acceptsQuery reports whether QueryParams are sent for this description.
func (d RequestDescription) acceptsQuery() bool {
	if d.Method != MethodGet {
		return false
	}

	switch d.RequestType {
	case RequestTypeQuery, RequestTypeListEntitySet, RequestTypeSingleEntity, RequestTypeSingleEntityPropertyValue:
		return true
	default:
		return false
	}
}

// carriesBody reports whether Body is sent for this description.
func (d RequestDescription) carriesBody() bool {
	return d.RequestType == RequestTypeCreateEntity || d.RequestType == RequestTypeUpdateEntity
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := map[string]string{
		"Method":      "method",
		"RequestType": "request_type",
		"BaseURL":     "base_url",
	}[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	if fe.Tag() == "required" {
		return missing(field)
	}

	return &ValidationError{Field: field, Reason: fmt.Sprintf("is not supported: %v", fe.Value())}
}
