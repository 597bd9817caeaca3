// Package web provides the HTTP API for resolving and executing OData requests.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/operion-odata/pkg/registry"
	"github.com/dukex/operion-odata/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	executionService *services.Execution
	validator        *validator.Validate
	registry         *registry.Registry
}

func NewAPIHandlers(
	executionService *services.Execution,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		executionService: executionService,
		validator:        validator,
		registry:         registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	status := "unhealthy"
	message := "Operion OData is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if regOk {
		status = "healthy"
		message = "Operion OData is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	factories := h.registry.GetAvailableNodes()

	nodes := make([]NodeResponse, 0, len(factories))
	for _, factory := range factories {
		nodes = append(nodes, TransformNodeResponse(factory))
	}

	return c.JSON(nodes)
}

func (h *APIHandlers) GetNodeSchema(c fiber.Ctx) error {
	id := c.Params("id")

	factory, ok := h.registry.GetNodeFactory(id)
	if !ok {
		return notFound(c, "Node type not found: "+id)
	}

	return c.JSON(factory.Schema())
}

func (h *APIHandlers) ResolveRequest(c fiber.Ctx) error {
	var req ResolveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resolved, err := h.executionService.Resolve(req.Description())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(resolved)
}

func (h *APIHandlers) ExecuteNode(c fiber.Ctx) error {
	var req ExecuteNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.executionService.Execute(c.Context(), &services.ExecuteRequest{
		NodeType:    c.Params("id"),
		NodeID:      req.NodeID,
		WorkflowID:  req.WorkflowID,
		Config:      req.Config,
		Variables:   req.Variables,
		TriggerData: req.TriggerData,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(response)
}
