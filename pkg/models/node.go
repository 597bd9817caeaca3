// Package models defines the node-based workflow models shared with the Operion host.
package models

import (
	"time"
)

// CategoryType represents the category of node.
type CategoryType string

const (
	CategoryTypeAction  CategoryType = "action"
	CategoryTypeTrigger CategoryType = "trigger"
)

// Node is an executable workflow node.
type Node interface {
	ID() string
	Type() string
	Execute(ctx ExecutionContext, inputs map[string]NodeResult) (map[string]NodeResult, error)
	GetInputPorts() []InputPort
	GetOutputPorts() []OutputPort
	InputRequirements() InputRequirements
	Validate(config map[string]any) error
}

// WorkflowNode represents a node instance in a workflow.
type WorkflowNode struct {
	ID       string         `json:"id"       yaml:"id"       validate:"required"`
	Type     string         `json:"type"     yaml:"type"     validate:"required"`
	Category CategoryType   `json:"category" yaml:"category"`
	Config   map[string]any `json:"config"   yaml:"config"`
	Name     string         `json:"name"     yaml:"name"`
	Enabled  bool           `json:"enabled"  yaml:"enabled"`
}

func (n *WorkflowNode) IsActionNode() bool {
	return n.Category == CategoryTypeAction
}

// NodeResult represents the result of a node execution on one output port.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Data      map[string]any `json:"data"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)
