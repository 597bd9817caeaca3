package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/operion-odata/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNode_BareConfig(t *testing.T) {
	node, err := ParseNode([]byte(`
base_url: https://services.odata.org/TripPinRESTierService
request_type: singleEntity
path: People
object_id: russellwhyte
timeout: 10
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultNodeType, node.Type)
	assert.Equal(t, DefaultNodeType, node.ID)
	assert.Equal(t, models.CategoryTypeAction, node.Category)
	assert.Equal(t, "russellwhyte", node.Config["object_id"])
	assert.Equal(t, 10, node.Config["timeout"])
}

func TestParseNode_WorkflowNode(t *testing.T) {
	node, err := ParseNode([]byte(`{
  "id": "people",
  "type": "odata",
  "name": "Fetch people",
  "config": {
    "base_url": "https://example.com",
    "authentication": "basicAuth",
    "credentials": {"user": "odata", "password": "env:ODATA_PASSWORD"}
  }
}`))
	require.NoError(t, err)

	assert.Equal(t, "people", node.ID)
	assert.Equal(t, "Fetch people", node.Name)
	assert.True(t, node.IsActionNode())

	credentials, ok := node.Config["credentials"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "odata", credentials["user"])
}

func TestParseNode_Invalid(t *testing.T) {
	_, err := ParseNode([]byte("base_url: [unterminated"))
	require.Error(t, err)
}

func TestLoadNodeFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(file, []byte("base_url: https://example.com\n"), 0o600))

	node, err := LoadNodeFile(file)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", node.Config["base_url"])

	_, err = LoadNodeFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
