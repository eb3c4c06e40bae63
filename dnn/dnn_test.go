package dnn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/lantern/dnn"
	"github.com/lantern-ml/lantern/tensor"
)

// TestPublicNetRoundTrip drives the engine through the public API only.
func TestPublicNetRoundTrip(t *testing.T) {
	n := dnn.NewNetWithFactory(dnn.NewFactory())

	split, err := n.AddLayer("split", "Split", dnn.Params{})
	require.NoError(t, err)
	require.NoError(t, n.Connect(0, 0, split, 0))

	var sum dnn.Params
	sum.Set("operation", dnn.StringValue("sum"))
	elt, err := n.AddLayer("sum", "Eltwise", sum)
	require.NoError(t, err)
	require.NoError(t, n.Connect(split, 0, elt, 0))
	require.NoError(t, n.Connect(split, 1, elt, 1))

	n.SetNetInputs([]string{"data"})
	in, err := tensor.FromFloat32([]float32{1, 2, 3}, tensor.Shape{1, 3})
	require.NoError(t, err)
	require.NoError(t, n.SetBlob(".data", in))
	require.NoError(t, n.Forward())

	out, err := n.GetBlob("sum")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6}, out.AsFloat32())

	outs, err := n.OutputLayerIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{elt}, outs)
}

// TestPublicRegisterLayer registers a custom layer through the
// process-wide factory.
func TestPublicRegisterLayer(t *testing.T) {
	require.NoError(t, dnn.RegisterLayer("publicprobe", newProbeLayer))
	defer dnn.UnregisterLayer("publicprobe")

	n := dnn.NewNet()
	id, err := n.AddLayer("probe", "PublicProbe", dnn.Params{})
	require.NoError(t, err)
	require.NoError(t, n.Connect(0, 0, id, 0))

	n.SetNetInputs([]string{"data"})
	in, err := tensor.FromFloat32([]float32{5}, tensor.Shape{1})
	require.NoError(t, err)
	require.NoError(t, n.SetBlob(".data", in))
	require.NoError(t, n.Forward())

	out, err := n.GetBlob("probe")
	require.NoError(t, err)
	assert.Equal(t, []float32{5}, out.AsFloat32())
}

type probeLayer struct {
	dnn.BaseLayer
}

func newProbeLayer(params *dnn.Params) (dnn.Layer, error) {
	return &probeLayer{BaseLayer: dnn.NewBaseLayer(params)}, nil
}

func (l *probeLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error {
	for _, out := range outputs {
		if out != nil {
			copy(out.Data(), inputs[0].Data())
		}
	}
	return nil
}
