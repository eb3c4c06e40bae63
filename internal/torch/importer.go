package torch

import (
	"fmt"

	"github.com/lantern-ml/lantern/internal/dnn"
)

// Importer flattens a module tree into a layer graph. Container
// semantics that depend on position among siblings become explicit
// nodes: Concat splits its input and merges the branch outputs,
// Parallel slices and re-concatenates along its axes, ConcatTable only
// splits and leaves the branch outputs for a later JoinTable or
// CAddTable sibling to collect.
type Importer struct {
	net     *dnn.Net
	counter int
	added   []addedModule
}

// addedModule records an emitted layer for siblings that locate earlier
// emitters, such as unpooling finding its pooling partner.
type addedModule struct {
	layerID int
	module  *Module
}

// NewImporter creates an importer emitting into net.
func NewImporter(net *dnn.Net) *Importer {
	return &Importer{net: net}
}

// Import reads a serialized model from f and populates net.
func Import(f File, net *dnn.Net) error {
	root, err := NewReader(f).ReadModel()
	if err != nil {
		return err
	}
	return NewImporter(net).Populate(root)
}

// Populate emits the whole tree, starting from the network input pin.
func (imp *Importer) Populate(root *Module) error {
	_, err := imp.fill(root, 0, 0)
	return err
}

func (imp *Importer) layerName(label string) string {
	imp.counter++
	return fmt.Sprintf("l%d_%s", imp.counter, label)
}

// fill emits the subtree rooted at m, consuming output prevOut of layer
// prevID, and returns the id of the last emitted layer. Every emitted
// layer has all its declared inputs connected before fill returns to
// its caller.
func (imp *Importer) fill(m *Module, prevID, prevOut int) (int, error) { //nolint:gocognit,gocyclo,cyclop // one case per container kind
	if m == nil {
		return prevID, nil
	}

	if m.APIType != "" {
		id, err := imp.net.AddLayer(imp.layerName(m.APIType), m.APIType, m.Params)
		if err != nil {
			return -1, err
		}
		if err := imp.net.Connect(prevID, prevOut, id, 0); err != nil {
			return -1, err
		}
		imp.added = append(imp.added, addedModule{layerID: id, module: m})
		return id, nil
	}

	switch m.ThName {
	case "Sequential":
		var err error
		for _, child := range m.Children {
			prevID, err = imp.fill(child, prevID, prevOut)
			if err != nil {
				return -1, err
			}
			prevOut = 0
		}
		return prevID, nil

	case "Concat":
		var mergeParams dnn.Params
		mergeParams.Set("axis", dnn.IntValue(int64(m.Params.GetInt("dimension", 1)-1)))

		splitID, err := imp.net.AddLayer(imp.layerName("torchSplit"), "Split", dnn.Params{})
		if err != nil {
			return -1, err
		}
		mergeID, err := imp.net.AddLayer(imp.layerName("torchMerge"), "Concat", mergeParams)
		if err != nil {
			return -1, err
		}
		if err := imp.net.Connect(prevID, prevOut, splitID, 0); err != nil {
			return -1, err
		}
		for i, child := range m.Children {
			newID, err := imp.fill(child, splitID, i)
			if err != nil {
				return -1, err
			}
			if err := imp.net.Connect(newID, 0, mergeID, i); err != nil {
				return -1, err
			}
		}
		imp.added = append(imp.added, addedModule{layerID: mergeID, module: m})
		return mergeID, nil

	case "Parallel":
		inAxis := m.Params.GetInt("inputDimension", 1) - 1
		outAxis := m.Params.GetInt("outputDimension", 1) - 1

		var splitParams, mergeParams, reshapeParams dnn.Params
		splitParams.Set("axis", dnn.IntValue(int64(inAxis)))
		mergeParams.Set("axis", dnn.IntValue(int64(outAxis)))
		reshapeParams.Set("axis", dnn.IntValue(int64(inAxis)))
		reshapeParams.Set("num_axes", dnn.IntValue(1))

		splitID, err := imp.net.AddLayer(imp.layerName("torchSplit"), "Slice", splitParams)
		if err != nil {
			return -1, err
		}
		mergeID, err := imp.net.AddLayer(imp.layerName("torchMerge"), "Concat", mergeParams)
		if err != nil {
			return -1, err
		}
		reshapeID, err := imp.net.AddLayer(imp.layerName("torchReshape"), "Reshape", reshapeParams)
		if err != nil {
			return -1, err
		}
		if err := imp.net.Connect(prevID, prevOut, splitID, 0); err != nil {
			return -1, err
		}
		for i, child := range m.Children {
			if err := imp.net.Connect(splitID, i, reshapeID, i); err != nil {
				return -1, err
			}
			newID, err := imp.fill(child, reshapeID, i)
			if err != nil {
				return -1, err
			}
			if err := imp.net.Connect(newID, 0, mergeID, i); err != nil {
				return -1, err
			}
		}
		imp.added = append(imp.added, addedModule{layerID: mergeID, module: m})
		return mergeID, nil

	case "ConcatTable":
		splitID, err := imp.net.AddLayer(imp.layerName("torchSplit"), "Split", dnn.Params{})
		if err != nil {
			return -1, err
		}
		if err := imp.net.Connect(prevID, prevOut, splitID, 0); err != nil {
			return -1, err
		}
		imp.added = append(imp.added, addedModule{layerID: splitID, module: m})
		// Branch outputs stay unconnected on purpose: a following
		// JoinTable or CAddTable sibling collects them.
		lastID := splitID
		for i, child := range m.Children {
			lastID, err = imp.fill(child, splitID, i)
			if err != nil {
				return -1, err
			}
		}
		return lastID, nil

	case "JoinTable":
		ids := imp.net.UnconnectedOutLayers()

		var mergeParams dnn.Params
		mergeParams.Set("axis", dnn.IntValue(int64(m.Params.GetInt("dimension", 1)-1)))
		mergeID, err := imp.net.AddLayer(imp.layerName("torchMerge"), "Concat", mergeParams)
		if err != nil {
			return -1, err
		}
		imp.added = append(imp.added, addedModule{layerID: mergeID, module: m})
		for i, id := range ids {
			if err := imp.net.Connect(id, 0, mergeID, i); err != nil {
				return -1, err
			}
		}
		return mergeID, nil

	case "CAddTable":
		ids := imp.net.UnconnectedOutLayers()

		var params dnn.Params
		params.Set("operation", dnn.StringValue("sum"))
		sumID, err := imp.net.AddLayer(imp.layerName("torchCAddTable"), "Eltwise", params)
		if err != nil {
			return -1, err
		}
		for i, id := range ids {
			if err := imp.net.Connect(id, 0, sumID, i); err != nil {
				return -1, err
			}
		}
		imp.added = append(imp.added, addedModule{layerID: sumID, module: m})
		return sumID, nil

	case "SpatialMaxUnpooling":
		if !m.Params.Has("indices_blob_id") {
			return -1, fmt.Errorf("torch importer: SpatialMaxUnpooling lacks indices_blob_id")
		}
		blobID := m.Params.GetInt("indices_blob_id", -1)
		partner := addedModule{layerID: -1}
		// First match in insertion order wins when pooling layers
		// share an indices blob id.
		for _, a := range imp.added {
			if a.module.APIType == "Pooling" && a.module.Params.Has("indices_blob_id") &&
				a.module.Params.GetInt("indices_blob_id", -2) == blobID {
				partner = a
				break
			}
		}
		if partner.layerID < 0 {
			return -1, fmt.Errorf("torch importer: no pooling layer with indices blob %d for unpooling", blobID)
		}
		for _, p := range []struct{ dst, src string }{
			{"pool_k_h", "kernel_h"}, {"pool_k_w", "kernel_w"},
			{"pool_stride_h", "stride_h"}, {"pool_stride_w", "stride_w"},
			{"pool_pad_h", "pad_h"}, {"pool_pad_w", "pad_w"},
		} {
			v, ok := partner.module.Params.Get(p.src)
			if !ok {
				return -1, fmt.Errorf("torch importer: partner pooling lacks %q", p.src)
			}
			m.Params.Set(p.dst, v)
		}
		id, err := imp.net.AddLayer(imp.layerName("torchMaxUnpooling"), "MaxUnpool", m.Params)
		if err != nil {
			return -1, err
		}
		if err := imp.net.Connect(prevID, prevOut, id, 0); err != nil {
			return -1, err
		}
		// Input 1 is the pooling layer's second output, the indices.
		if err := imp.net.Connect(partner.layerID, 1, id, 1); err != nil {
			return -1, err
		}
		return id, nil

	default:
		return -1, &dnn.NotImplementedError{What: "torch container " + m.ThName}
	}
}
