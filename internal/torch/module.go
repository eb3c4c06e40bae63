package torch

import "github.com/lantern-ml/lantern/internal/dnn"

// Module is one node of the legacy module tree. Leaves carry an
// assigned graph-layer type in APIType; containers leave it empty and
// hold their children instead.
type Module struct {
	// ThName is the Torch class name without its nn-library prefix.
	ThName string
	// APIType is the graph layer type a leaf maps to.
	APIType string

	Params   dnn.Params
	Children []*Module
}

// NewModule creates a tree node.
func NewModule(thName, apiType string) *Module {
	return &Module{ThName: thName, APIType: apiType}
}

// Add appends a child and returns it, for fluent tree building.
func (m *Module) Add(child *Module) *Module {
	m.Children = append(m.Children, child)
	return child
}
