package main

import (
	"fmt"
	"strings"

	"github.com/dukex/operion-odata/pkg/config"
	"github.com/dukex/operion-odata/pkg/models"
	cli "github.com/urfave/cli/v3"
)

// requestFlags are shared by resolve and execute. Every flag overrides the same key
// loaded from --file.
func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "YAML or JSON file holding the node definition or its configuration",
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL of the OData service",
			Sources: cli.EnvVars("ODATA_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "method",
			Aliases: []string{"X"},
			Usage:   "HTTP method (GET, POST, PATCH, DELETE)",
		},
		&cli.StringFlag{
			Name:  "request-type",
			Usage: "Request type (listEntitySet, query, singleEntity, singleEntityPropertyValue, invokeFunction, createEntity, updateEntity, deleteEntity)",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "Entity set path (eg. People)",
		},
		&cli.StringFlag{
			Name:  "object-id",
			Usage: "Key of a single entity",
		},
		&cli.StringFlag{
			Name:  "property-name",
			Usage: "Property of a single entity",
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Query options for GET requests (eg. $top=2)",
		},
		&cli.StringFlag{
			Name:  "function-name",
			Usage: "Function or action name",
		},
		&cli.StringFlag{
			Name:  "function-params",
			Usage: "Function parameters for GET calls (eg. lat=33,lon=-118)",
		},
		&cli.StringFlag{
			Name:  "body",
			Usage: "Body sent when creating or updating an entity",
		},
	}
}

var flagKeys = map[string]string{
	"base-url":        "base_url",
	"method":          "method",
	"request-type":    "request_type",
	"path":            "path",
	"object-id":       "object_id",
	"property-name":   "property_name",
	"query":           "query_params",
	"function-name":   "function_name",
	"function-params": "function_params",
	"body":            "body",
}

// loadNode reads --file, then applies the flags that were set to its configuration.
func loadNode(command *cli.Command) (*models.WorkflowNode, error) {
	node := &models.WorkflowNode{
		ID:       config.DefaultNodeType,
		Type:     config.DefaultNodeType,
		Category: models.CategoryTypeAction,
		Config:   make(map[string]any),
		Enabled:  true,
	}

	if file := command.String("file"); file != "" {
		loaded, err := config.LoadNodeFile(file)
		if err != nil {
			return nil, err
		}

		node = loaded
	}

	for flag, key := range flagKeys {
		if command.IsSet(flag) {
			node.Config[key] = command.String(flag)
		}
	}

	if method, ok := node.Config["method"].(string); ok {
		node.Config["method"] = strings.ToUpper(method)
	}

	return node, nil
}

// parseAssignments turns key=value pairs into a map.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}

		values[key] = value
	}

	return values, nil
}
