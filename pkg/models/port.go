package models

import "strings"

// Port is a connection point on a node, identified globally as "{nodeID}:{portName}".
type Port struct {
	ID          string         `json:"id"`
	NodeID      string         `json:"node_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

type InputPort struct {
	Port
}

type OutputPort struct {
	Port
}

// ParsePortID splits a port ID into node ID and port name.
func ParsePortID(portID string) (string, string, bool) {
	return strings.Cut(portID, ":")
}

// MakePortID creates a port ID from node ID and port name.
func MakePortID(nodeID, portName string) string {
	return nodeID + ":" + portName
}
