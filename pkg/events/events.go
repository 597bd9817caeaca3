// Package events defines the notifications published around OData node executions.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every OData execution event.
const Topic = "operion.odata.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ODataRequestCompletedEvent EventType = "odata.request.completed"
	ODataRequestFailedEvent    EventType = "odata.request.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ODataRequest holds what both completion and failure events report about a request.
type ODataRequest struct {
	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	URL         string `json:"url,omitempty"`
	Method      string `json:"method"`
	RequestType string `json:"request_type"`
	StatusCode  int    `json:"status_code,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// ODataRequestCompleted is published after a response was received and decoded.
// FormatError is set when the body was not JSON.
type ODataRequestCompleted struct {
	BaseEvent
	ODataRequest

	ItemCount   int    `json:"item_count"`
	FormatError string `json:"format_error,omitempty"`
}

func (e ODataRequestCompleted) GetType() EventType {
	return ODataRequestCompletedEvent
}

// ODataRequestFailed is published when the request was rejected or never completed.
type ODataRequestFailed struct {
	BaseEvent
	ODataRequest

	Error      string `json:"error"`
	Validation bool   `json:"validation"`
}

func (e ODataRequestFailed) GetType() EventType {
	return ODataRequestFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
