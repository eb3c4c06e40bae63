package torch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/lantern/internal/dnn"
	"github.com/lantern-ml/lantern/internal/tensor"
)

// idsByType collects layer ids of a type in increasing id order.
func idsByType(t *testing.T, n *dnn.Net, typeName string) []int {
	t.Helper()
	var ids []int
	for id := 1; ; id++ {
		typ, err := n.LayerType(id)
		if err != nil {
			break
		}
		if typ == typeName {
			ids = append(ids, id)
		}
	}
	return ids
}

func leaf(thName, apiType string) *Module {
	return NewModule(thName, apiType)
}

// TestImportSequentialWithConcat is the branched scenario: a Concat
// container becomes an explicit Split feeding both branches and a
// Concat collecting them.
func TestImportSequentialWithConcat(t *testing.T) {
	root := NewModule("Sequential", "")
	root.Add(leaf("SpatialConvolution", "Convolution"))
	root.Add(leaf("ReLU", "ReLU"))
	inner := root.Add(NewModule("Sequential", ""))
	concat := inner.Add(NewModule("Concat", ""))
	concat.Params.Set("dimension", dnn.IntValue(2))
	concat.Add(leaf("Identity", "Identity"))
	branch := concat.Add(NewModule("Sequential", ""))
	branch.Add(leaf("Linear", "InnerProduct"))

	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(root))

	for _, want := range []struct {
		typeName string
		count    int
	}{
		{"Convolution", 1}, {"ReLU", 1}, {"Split", 1},
		{"Identity", 1}, {"InnerProduct", 1}, {"Concat", 1},
	} {
		assert.Equal(t, want.count, n.LayersCount(want.typeName), want.typeName)
	}

	conv := idsByType(t, n, "Convolution")[0]
	relu := idsByType(t, n, "ReLU")[0]
	split := idsByType(t, n, "Split")[0]
	ident := idsByType(t, n, "Identity")[0]
	linear := idsByType(t, n, "InnerProduct")[0]
	merge := idsByType(t, n, "Concat")[0]

	pins, err := n.LayerInputs(conv)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{{LayerID: 0, OutputID: 0}}, pins)

	pins, err = n.LayerInputs(relu)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{{LayerID: conv, OutputID: 0}}, pins)

	pins, err = n.LayerInputs(split)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{{LayerID: relu, OutputID: 0}}, pins)

	// The split feeds both branches from distinct outputs.
	pins, err = n.LayerInputs(ident)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{{LayerID: split, OutputID: 0}}, pins)

	pins, err = n.LayerInputs(linear)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{{LayerID: split, OutputID: 1}}, pins)

	// The merge collects both branch outputs in order.
	pins, err = n.LayerInputs(merge)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{
		{LayerID: ident, OutputID: 0},
		{LayerID: linear, OutputID: 0},
	}, pins)

	// The merge is the only network output.
	assert.Equal(t, []int{merge}, n.UnconnectedOutLayers())
}

// TestImportConcatTableCAddTable: ConcatTable splits without merging;
// the CAddTable sibling collects the unconnected branch outputs into an
// elementwise sum with exactly two inputs.
func TestImportConcatTableCAddTable(t *testing.T) {
	root := NewModule("Sequential", "")
	table := root.Add(NewModule("ConcatTable", ""))
	table.Add(leaf("Identity", "Identity"))
	table.Add(leaf("Identity", "Identity"))
	root.Add(NewModule("CAddTable", ""))

	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(root))

	assert.Equal(t, 1, n.LayersCount("Split"))
	assert.Equal(t, 2, n.LayersCount("Identity"))
	assert.Equal(t, 1, n.LayersCount("Eltwise"))

	idents := idsByType(t, n, "Identity")
	sum := idsByType(t, n, "Eltwise")[0]

	pins, err := n.LayerInputs(sum)
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, []dnn.Pin{
		{LayerID: idents[0], OutputID: 0},
		{LayerID: idents[1], OutputID: 0},
	}, pins)

	// End-to-end: identity branches summed give twice the input.
	n.SetNetInputs([]string{"data"})
	in, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{1, 4})
	require.NoError(t, err)
	require.NoError(t, n.SetBlob(".data", in))
	require.NoError(t, n.Forward())

	out, err := n.GetBlob(n.LayerName(sum))
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6, 8}, out.AsFloat32())
}

// TestImportJoinTable collects branch outputs into a Concat.
func TestImportJoinTable(t *testing.T) {
	root := NewModule("Sequential", "")
	table := root.Add(NewModule("ConcatTable", ""))
	table.Add(leaf("Identity", "Identity"))
	table.Add(leaf("Identity", "Identity"))
	join := root.Add(NewModule("JoinTable", ""))
	join.Params.Set("dimension", dnn.IntValue(2))

	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(root))

	merge := idsByType(t, n, "Concat")[0]
	idents := idsByType(t, n, "Identity")
	pins, err := n.LayerInputs(merge)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{
		{LayerID: idents[0], OutputID: 0},
		{LayerID: idents[1], OutputID: 0},
	}, pins)

	n.SetNetInputs([]string{"data"})
	in, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})
	require.NoError(t, err)
	require.NoError(t, n.SetBlob(".data", in))
	require.NoError(t, n.Forward())

	out, err := n.GetBlob(n.LayerName(merge))
	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 4, 2}))
}

// TestImportParallel synthesizes Slice, Reshape and Concat nodes.
func TestImportParallel(t *testing.T) {
	root := NewModule("Sequential", "")
	par := root.Add(NewModule("Parallel", ""))
	par.Params.Set("inputDimension", dnn.IntValue(2))
	par.Params.Set("outputDimension", dnn.IntValue(2))
	par.Add(leaf("Identity", "Identity"))
	par.Add(leaf("Identity", "Identity"))

	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(root))

	assert.Equal(t, 1, n.LayersCount("Slice"))
	assert.Equal(t, 1, n.LayersCount("Reshape"))
	assert.Equal(t, 1, n.LayersCount("Concat"))
	assert.Equal(t, 2, n.LayersCount("Identity"))

	slice := idsByType(t, n, "Slice")[0]
	reshape := idsByType(t, n, "Reshape")[0]
	pins, err := n.LayerInputs(reshape)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{
		{LayerID: slice, OutputID: 0},
		{LayerID: slice, OutputID: 1},
	}, pins)
}

// TestImportMaxUnpooling locates the pooling partner by indices blob id
// and wires the indices output as second input.
func TestImportMaxUnpooling(t *testing.T) {
	root := NewModule("Sequential", "")
	pool := root.Add(leaf("SpatialMaxPooling", "Pooling"))
	pool.Params.Set("indices_blob_id", dnn.IntValue(7))
	pool.Params.Set("kernel_h", dnn.IntValue(2))
	pool.Params.Set("kernel_w", dnn.IntValue(2))
	pool.Params.Set("stride_h", dnn.IntValue(2))
	pool.Params.Set("stride_w", dnn.IntValue(2))
	pool.Params.Set("pad_h", dnn.IntValue(0))
	pool.Params.Set("pad_w", dnn.IntValue(0))

	unpool := root.Add(NewModule("SpatialMaxUnpooling", ""))
	unpool.Params.Set("indices_blob_id", dnn.IntValue(7))

	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(root))

	poolID := idsByType(t, n, "Pooling")[0]
	unpoolID := idsByType(t, n, "MaxUnpool")[0]

	pins, err := n.LayerInputs(unpoolID)
	require.NoError(t, err)
	assert.Equal(t, []dnn.Pin{
		{LayerID: poolID, OutputID: 0},
		{LayerID: poolID, OutputID: 1},
	}, pins)

	// Kernel geometry was copied from the partner.
	assert.Equal(t, 2, unpool.Params.GetInt("pool_k_h", -1))
	assert.Equal(t, 2, unpool.Params.GetInt("pool_stride_w", -1))
	assert.Equal(t, 0, unpool.Params.GetInt("pool_pad_h", -1))
}

// TestImportMaxUnpoolingWithoutPartner fails when no pooling layer
// carries the referenced indices blob.
func TestImportMaxUnpoolingWithoutPartner(t *testing.T) {
	root := NewModule("Sequential", "")
	unpool := root.Add(NewModule("SpatialMaxUnpooling", ""))
	unpool.Params.Set("indices_blob_id", dnn.IntValue(9))

	n := dnn.NewNet()
	err := NewImporter(n).Populate(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pooling layer")
}

// TestImportUnknownContainer reports NotImplemented.
func TestImportUnknownContainer(t *testing.T) {
	root := NewModule("Sequential", "")
	root.Add(NewModule("MysteryTable", ""))

	n := dnn.NewNet()
	err := NewImporter(n).Populate(root)
	require.Error(t, err)
	var nErr *dnn.NotImplementedError
	assert.ErrorAs(t, err, &nErr)
}

// TestImportEmptySequential leaves the net with no layers.
func TestImportEmptySequential(t *testing.T) {
	n := dnn.NewNet()
	require.NoError(t, NewImporter(n).Populate(NewModule("Sequential", "")))
	assert.True(t, n.Empty())
}
