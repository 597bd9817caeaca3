package models

import "time"

// InputRequirements defines how a node waits for and coordinates inputs.
type InputRequirements struct {
	RequiredPorts []string       `json:"required_ports"`
	OptionalPorts []string       `json:"optional_ports"`
	WaitMode      InputWaitMode  `json:"wait_mode"`
	Timeout       *time.Duration `json:"timeout"`
}

// InputWaitMode defines different strategies for waiting for inputs.
type InputWaitMode string

const (
	// WaitModeAll waits for all required ports to have inputs before executing.
	WaitModeAll InputWaitMode = "all"
	// WaitModeAny executes when any required port has input.
	WaitModeAny InputWaitMode = "any"
	// WaitModeFirst executes on first input, ignores subsequent ones.
	WaitModeFirst InputWaitMode = "first"
)

// DefaultInputRequirements returns the standard requirements for single-input nodes.
func DefaultInputRequirements() InputRequirements {
	return InputRequirements{
		RequiredPorts: []string{"main"},
		OptionalPorts: []string{},
		WaitMode:      WaitModeAny,
		Timeout:       nil,
	}
}
