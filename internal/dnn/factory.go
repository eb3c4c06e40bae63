package dnn

import (
	"reflect"
	"strings"
)

// Constructor builds a layer instance from its parameters.
type Constructor func(params *Params) (Layer, error)

// Factory maps layer type names to constructors. Matching is
// case-insensitive. Writes must be externally serialized by the caller,
// matching the engine's single-threaded model.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory returns a factory preloaded with the structural layers the
// importers synthesize.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.registerStructuralLayers()
	return f
}

// Register adds a constructor for a type name. Registering the same
// constructor again is a no-op; a different constructor for an existing
// name is a configuration error.
func (f *Factory) Register(typeName string, constructor Constructor) error {
	key := strings.ToLower(typeName)
	if existing, ok := f.constructors[key]; ok {
		if reflect.ValueOf(existing).Pointer() != reflect.ValueOf(constructor).Pointer() {
			return configErr("", "layer type %q already registered with a different constructor", key)
		}
		return nil
	}
	f.constructors[key] = constructor
	return nil
}

// Unregister removes a type name.
func (f *Factory) Unregister(typeName string) {
	delete(f.constructors, strings.ToLower(typeName))
}

// Create builds a layer instance, or returns (nil, nil) for an unknown
// type name.
func (f *Factory) Create(typeName string, params *Params) (Layer, error) {
	ctor, ok := f.constructors[strings.ToLower(typeName)]
	if !ok {
		return nil, nil
	}
	return ctor(params)
}

// defaultFactory is the process-wide registry used by NewNet.
var defaultFactory = NewFactory()

// RegisterLayer registers a constructor in the process-wide factory.
func RegisterLayer(typeName string, constructor Constructor) error {
	return defaultFactory.Register(typeName, constructor)
}

// UnregisterLayer removes a type from the process-wide factory.
func UnregisterLayer(typeName string) {
	defaultFactory.Unregister(typeName)
}
