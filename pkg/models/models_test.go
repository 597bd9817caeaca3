package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortID(t *testing.T) {
	id := MakePortID("odata-1", "success")
	assert.Equal(t, "odata-1:success", id)

	nodeID, port, ok := ParsePortID(id)
	require.True(t, ok)
	assert.Equal(t, "odata-1", nodeID)
	assert.Equal(t, "success", port)

	_, _, ok = ParsePortID("no-separator")
	assert.False(t, ok)
}

func TestWorkflowNode_Validation(t *testing.T) {
	validate := validator.New()

	valid := &WorkflowNode{ID: "n1", Type: "odata", Category: CategoryTypeAction}
	require.NoError(t, validate.Struct(valid))
	assert.True(t, valid.IsActionNode())

	err := validate.Struct(&WorkflowNode{Type: "odata"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "ID", verrs[0].Field())
}

func TestDefaultInputRequirements(t *testing.T) {
	req := DefaultInputRequirements()

	assert.Equal(t, []string{"main"}, req.RequiredPorts)
	assert.Equal(t, WaitModeAny, req.WaitMode)
	assert.Nil(t, req.Timeout)
}

func TestNodeResult_JSON(t *testing.T) {
	result := NodeResult{NodeID: "n1", Status: string(NodeStatusError), Error: "boom"}

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "error", decoded["status"])
	assert.Equal(t, "boom", decoded["error"])
	assert.Contains(t, decoded, "data")
}
