package models

// ExecutionContext carries the data available to a node while a workflow runs.
type ExecutionContext struct {
	ID                  string                `json:"id"`
	PublishedWorkflowID string                `json:"published_workflow_id"`
	NodeResults         map[string]NodeResult `json:"node_results"`
	TriggerData         map[string]any        `json:"trigger_data,omitempty"`
	Variables           map[string]any        `json:"variables,omitempty"`
	Metadata            map[string]any        `json:"metadata,omitempty"`
}
