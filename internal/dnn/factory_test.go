package dnn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNopLayer(params *Params) (Layer, error) {
	return &passLayer{BaseLayer: NewBaseLayer(params)}, nil
}

func newOtherLayer(params *Params) (Layer, error) {
	return &passLayer{BaseLayer: NewBaseLayer(params)}, nil
}

func TestFactoryCaseInsensitive(t *testing.T) {
	f := NewFactory()
	require.NoError(t, f.Register("MyLayer", newNopLayer))

	inst, err := f.Create("mylayer", &Params{})
	require.NoError(t, err)
	assert.NotNil(t, inst)

	inst, err = f.Create("MYLAYER", &Params{})
	require.NoError(t, err)
	assert.NotNil(t, inst)
}

func TestFactoryUnknownType(t *testing.T) {
	f := NewFactory()
	inst, err := f.Create("nosuch", &Params{})
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestFactoryReRegister(t *testing.T) {
	f := NewFactory()
	require.NoError(t, f.Register("dup", newNopLayer))
	// Same constructor again is fine.
	require.NoError(t, f.Register("DUP", newNopLayer))
	// A different constructor is not.
	err := f.Register("dup", newOtherLayer)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFactoryUnregister(t *testing.T) {
	f := NewFactory()
	require.NoError(t, f.Register("gone", newNopLayer))
	f.Unregister("GONE")
	inst, err := f.Create("gone", &Params{})
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestFactoryStructuralLayersPreloaded(t *testing.T) {
	f := NewFactory()
	for _, typeName := range []string{"Split", "Concat", "Slice", "Reshape", "Identity", "Eltwise", "MaxUnpool"} {
		inst, err := f.Create(typeName, &Params{})
		require.NoError(t, err, typeName)
		assert.NotNil(t, inst, typeName)
	}
}
