// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/operion-odata/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates an OData WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:       uuid.New().String(),
		Type:     "odata",
		Category: models.CategoryTypeAction,
		Name:     "Test OData Node",
		Config:   ODataConfig("https://services.odata.org/TripPinRESTierService"),
		Enabled:  true,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// ODataConfig returns a listEntitySet configuration for People under baseURL.
func ODataConfig(baseURL string, overrides ...func(map[string]any)) map[string]any {
	config := map[string]any{
		"base_url":     baseURL,
		"method":       "GET",
		"request_type": "listEntitySet",
		"path":         "People",
	}

	for _, override := range overrides {
		override(config)
	}

	return config
}

// WithConfigValue sets one configuration key.
func WithConfigValue(key string, value any) func(map[string]any) {
	return func(config map[string]any) {
		config[key] = value
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Config = config
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Name = name
	}
}

// CreateExecutionContext creates an empty execution context with initialized maps.
func CreateExecutionContext(overrides ...func(*models.ExecutionContext)) models.ExecutionContext {
	ctx := models.ExecutionContext{
		ID:                  uuid.New().String(),
		PublishedWorkflowID: "test-workflow",
		NodeResults:         make(map[string]models.NodeResult),
		Variables:           make(map[string]any),
		TriggerData:         make(map[string]any),
		Metadata:            make(map[string]any),
	}

	for _, override := range overrides {
		override(&ctx)
	}

	return ctx
}

// WithVariable sets one workflow variable.
func WithVariable(key string, value any) func(*models.ExecutionContext) {
	return func(ctx *models.ExecutionContext) {
		ctx.Variables[key] = value
	}
}
