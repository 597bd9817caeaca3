// Package template renders "{{ ... }}" expressions in node configuration values against the
// workflow execution context.
package template

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/operion-odata/pkg/models"
)

// NeedsTemplating reports whether input contains a template action.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// RenderString renders input with the execution context. The output is returned as text;
// OData keys such as "42" must not be coerced into numbers.
func RenderString(input string, executionCtx *models.ExecutionContext) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	tmpl, err := template.
		New("config").
		Option("missingkey=zero").
		Funcs(funcs).
		Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", input, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, contextData(executionCtx))
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", input, err)
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

func contextData(executionCtx *models.ExecutionContext) map[string]any {
	if executionCtx == nil {
		executionCtx = &models.ExecutionContext{}
	}

	nodeResults := make(map[string]any, len(executionCtx.NodeResults))
	for id, result := range executionCtx.NodeResults {
		nodeResults[id] = result.Data
	}

	return map[string]any{
		"node_results": nodeResults,
		"variables":    executionCtx.Variables,
		"vars":         executionCtx.Variables,
		"trigger_data": executionCtx.TriggerData,
		"metadata":     executionCtx.Metadata,
		"env":          getEnvVars(),
		"execution": map[string]any{
			"id":                    executionCtx.ID,
			"published_workflow_id": executionCtx.PublishedWorkflowID,
		},
	}
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"rand": func(max int) int {
		if max <= 0 {
			return 0
		}

		num := make([]byte, 1)

		_, err := rand.Read(num)
		if err != nil {
			return 0
		}

		return int(num[0]) % max
	},
	// quote doubles single quotes, the escape OData uses inside string key literals.
	"quote": func(s string) string {
		return strings.ReplaceAll(s, "'", "''")
	},
}

// getEnvVars returns environment variables as a map.
func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if ok {
			envMap[key] = value
		}
	}

	return envMap
}
