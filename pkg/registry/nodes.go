package registry

import (
	"github.com/dukex/operion-odata/pkg/nodes/odata"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes(opts ...odata.FactoryOption) {
	r.RegisterNode(odata.NewODataNodeFactory(opts...))
}
