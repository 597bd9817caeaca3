// Package config loads node definitions from YAML or JSON files.
package config

import (
	"fmt"
	"os"

	"github.com/dukex/operion-odata/pkg/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultNodeType is assumed when a file does not name a node type.
const DefaultNodeType = "odata"

// LoadNodeFile reads a node definition. The file is either a workflow node
// (id, type, name, config) or a bare configuration map, which is wrapped
// into a node of DefaultNodeType.
func LoadNodeFile(filepath string) (*models.WorkflowNode, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	return ParseNode(data)
}

// ParseNode decodes a node definition; see LoadNodeFile.
func ParseNode(data []byte) (*models.WorkflowNode, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	node := &models.WorkflowNode{
		Category: models.CategoryTypeAction,
		Enabled:  true,
	}

	if _, wrapped := raw["config"].(map[string]any); wrapped {
		if err := yaml.Unmarshal(data, node); err != nil {
			return nil, fmt.Errorf("failed to parse node definition: %w", err)
		}
	} else {
		node.Config = raw
	}

	if node.Config == nil {
		node.Config = make(map[string]any)
	}

	if node.Type == "" {
		node.Type = DefaultNodeType
	}

	if node.ID == "" {
		node.ID = node.Type
	}

	if err := validator.New().Struct(node); err != nil {
		return nil, fmt.Errorf("invalid node definition: %w", err)
	}

	return node, nil
}
