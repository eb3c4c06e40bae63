package dnn

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lantern-ml/lantern/internal/tensor"
)

// Pin identifies a specific output port of a layer.
type Pin struct {
	LayerID  int
	OutputID int
}

// Valid reports whether both coordinates are set.
func (p Pin) Valid() bool {
	return p.LayerID >= 0 && p.OutputID >= 0
}

// invalidPin is the placeholder for not-yet-connected inputs.
var invalidPin = Pin{LayerID: -1, OutputID: -1}

// LayerData is the per-layer record inside a net: identity, parameters,
// connectivity, and the tensors the layer owns. Input tensors are
// non-owning references to other layers' outputs.
type LayerData struct {
	ID     int
	Name   string
	Type   string
	Params Params

	// InputPins maps input index to the producing pin.
	InputPins []Pin
	// RequiredOutputs is the set of output indices consumed downstream.
	RequiredOutputs map[int]struct{}

	Outputs []*tensor.Tensor

	parentIDs []int
	inputs    []*tensor.Tensor
	internals []*tensor.Tensor
	instance  Layer
	flag      bool
}

// layerShapes is the shape-inference record for one layer.
type layerShapes struct {
	in, out, internal []tensor.Shape
	inplace           bool
	computed          bool
}

// inputLayerName and inputLayerType identify the synthetic layer at
// id 0 whose outputs are the network inputs.
const (
	inputLayerName = "_input"
	inputLayerType = "__NetInputLayer__"
)

// inputLayer holds the network input names. Its outputs are bound
// through SetBlob rather than computed.
type inputLayer struct {
	outNames []string
}

func (l *inputLayer) GetMemoryShapes(inputs []tensor.Shape, requiredOutputs int) ([]tensor.Shape, []tensor.Shape, bool, error) {
	outputs := make([]tensor.Shape, len(inputs))
	for i, s := range inputs {
		outputs[i] = s.Clone()
	}
	return outputs, nil, false, nil
}

func (l *inputLayer) Finalize(inputs, outputs []*tensor.Tensor) error { return nil }

func (l *inputLayer) Forward(inputs, outputs, internals []*tensor.Tensor) error { return nil }

func (l *inputLayer) InputNameToIndex(name string) int { return -1 }

func (l *inputLayer) OutputNameToIndex(name string) int {
	for i, n := range l.outNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Net is a mutable directed acyclic graph of layers. The zero id is
// reserved for the synthetic input layer; added layers get ids from 1.
type Net struct {
	layers      map[int]*LayerData
	nameToID    map[string]int
	lastLayerID int
	input       *inputLayer
	netOutputs  []int
	allocated   bool
	factory     *Factory
}

// NewNet creates an empty network using the process-wide layer factory.
func NewNet() *Net {
	return NewNetWithFactory(defaultFactory)
}

// NewNetWithFactory creates an empty network with an explicit factory.
func NewNetWithFactory(f *Factory) *Net {
	n := &Net{
		layers:   make(map[int]*LayerData),
		nameToID: make(map[string]int),
		input:    &inputLayer{},
		factory:  f,
	}
	ld := &LayerData{
		ID:              0,
		Name:            inputLayerName,
		Type:            inputLayerType,
		RequiredOutputs: make(map[int]struct{}),
		instance:        n.input,
	}
	n.layers[0] = ld
	n.nameToID[ld.Name] = 0
	return n
}

// AddLayer adds a layer and returns its id. Names must be unique and
// must not contain a dot, which is the pin-alias separator.
func (n *Net) AddLayer(name, typeName string, params Params) (int, error) {
	if strings.Contains(name, ".") {
		return -1, configErr(name, "layer name must not contain a dot")
	}
	if _, ok := n.nameToID[name]; ok {
		return -1, configErr(name, "layer already in the net")
	}
	n.lastLayerID++
	id := n.lastLayerID
	params.Name = name
	params.Type = typeName
	n.layers[id] = &LayerData{
		ID:              id,
		Name:            name,
		Type:            typeName,
		Params:          params,
		RequiredOutputs: make(map[int]struct{}),
	}
	n.nameToID[name] = id
	n.allocated = false
	return id, nil
}

// AddLayerToPrev adds a layer and connects output 0 of the previously
// added layer (the input layer when the net is empty) to its input 0.
func (n *Net) AddLayerToPrev(name, typeName string, params Params) (int, error) {
	prev := n.lastLayerID
	id, err := n.AddLayer(name, typeName, params)
	if err != nil {
		return -1, err
	}
	if err := n.Connect(prev, 0, id, 0); err != nil {
		return -1, err
	}
	return id, nil
}

// Connect wires output outIdx of layer outID into input inIdx of layer
// inID. Rebinding an input to a different pin is an error.
func (n *Net) Connect(outID, outIdx, inID, inIdx int) error {
	ldOut, ok := n.layers[outID]
	if !ok {
		return configErr("", "layer with id %d not found", outID)
	}
	ldIn, ok := n.layers[inID]
	if !ok {
		return configErr("", "layer with id %d not found", inID)
	}
	if outIdx < 0 || inIdx < 0 {
		return configErr(ldIn.Name, "negative pin index")
	}
	for len(ldIn.InputPins) <= inIdx {
		ldIn.InputPins = append(ldIn.InputPins, invalidPin)
	}
	from := Pin{LayerID: outID, OutputID: outIdx}
	if stored := ldIn.InputPins[inIdx]; stored.Valid() && stored != from {
		return configErr(ldIn.Name, "input #%d already connected", inIdx)
	}
	ldIn.InputPins[inIdx] = from
	ldOut.RequiredOutputs[outIdx] = struct{}{}
	n.allocated = false
	return nil
}

// ConnectByName wires two pins given as dotted aliases: "layer.port"
// where port is a numeric index or a pin name resolved by the layer
// instance. An empty layer name addresses the input layer.
func (n *Net) ConnectByName(outAlias, inAlias string) error {
	outPin, err := n.pinByAlias(outAlias, true)
	if err != nil {
		return err
	}
	inPin, err := n.pinByAlias(inAlias, false)
	if err != nil {
		return err
	}
	return n.Connect(outPin.LayerID, outPin.OutputID, inPin.LayerID, inPin.OutputID)
}

// splitPinAlias splits "layer.port" at the first dot.
func splitPinAlias(alias string) (layerName, portName string) {
	layerName, portName, _ = strings.Cut(alias, ".")
	return layerName, portName
}

func (n *Net) pinByAlias(alias string, isOut bool) (Pin, error) {
	layerName, portName := splitPinAlias(alias)
	id := 0
	if layerName != "" {
		var ok bool
		id, ok = n.nameToID[layerName]
		if !ok {
			return invalidPin, configErr(layerName, "layer not found")
		}
	}
	ld := n.layers[id]
	oid, err := n.resolvePinName(ld, portName, isOut)
	if err != nil {
		return invalidPin, err
	}
	return Pin{LayerID: id, OutputID: oid}, nil
}

// resolvePinName maps a port name to an index: empty means 0, a number
// is taken literally, anything else is resolved by the layer instance.
func (n *Net) resolvePinName(ld *LayerData, portName string, isOut bool) (int, error) {
	if portName == "" {
		return 0, nil
	}
	if portName[0] >= '0' && portName[0] <= '9' {
		if v, err := strconv.Atoi(portName); err == nil {
			return v, nil
		}
	}
	inst, err := n.layerInstance(ld)
	if err != nil {
		return -1, err
	}
	var idx int
	if isOut {
		idx = inst.OutputNameToIndex(portName)
	} else {
		idx = inst.InputNameToIndex(portName)
	}
	if idx < 0 {
		return -1, configErr(ld.Name, "cannot resolve pin %q", portName)
	}
	return idx, nil
}

// SetNetInputs names the outputs of the synthetic input layer, making
// them addressable as ".name" pin aliases.
func (n *Net) SetNetInputs(names []string) {
	n.input.outNames = append([]string(nil), names...)
}

// SetBlob assigns a tensor to the output pin named by alias. Changing
// the shape of an existing blob marks the net for re-allocation.
func (n *Net) SetBlob(alias string, t *tensor.Tensor) error {
	pin, err := n.pinByAlias(alias, true)
	if err != nil {
		return err
	}
	ld := n.layers[pin.LayerID]
	need := pin.OutputID + 1
	if len(ld.RequiredOutputs) > need {
		need = len(ld.RequiredOutputs)
	}
	for len(ld.Outputs) < need {
		ld.Outputs = append(ld.Outputs, nil)
	}
	var prevShape tensor.Shape
	if prev := ld.Outputs[pin.OutputID]; prev != nil {
		prevShape = prev.Shape()
	}
	ld.Outputs[pin.OutputID] = t.Clone()
	n.allocated = n.allocated && prevShape.Equal(t.Shape())
	return nil
}

// GetBlob returns the tensor at the output pin named by alias.
func (n *Net) GetBlob(alias string) (*tensor.Tensor, error) {
	pin, err := n.pinByAlias(alias, true)
	if err != nil {
		return nil, err
	}
	ld := n.layers[pin.LayerID]
	if pin.OutputID >= len(ld.Outputs) || ld.Outputs[pin.OutputID] == nil {
		return nil, configErr(ld.Name, "layer produces %d outputs, #%d requested", len(ld.Outputs), pin.OutputID)
	}
	return ld.Outputs[pin.OutputID], nil
}

// Allocate runs shape inference and buffer allocation for the whole
// net. It is a no-op when the net is already allocated and no blob or
// topology change invalidated it.
func (n *Net) Allocate() error {
	return n.setUp()
}

func (n *Net) setUp() error {
	if n.allocated {
		return nil
	}
	if err := n.allocateLayers(); err != nil {
		return err
	}
	n.computeNetOutputs()
	n.allocated = true
	return nil
}

// sortedIDs returns all layer ids in increasing order.
func (n *Net) sortedIDs() []int {
	ids := make([]int, 0, len(n.layers))
	for id := range n.layers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (n *Net) layerInstance(ld *LayerData) (Layer, error) {
	if ld.instance != nil {
		return ld.instance, nil
	}
	inst, err := n.factory.Create(ld.Type, &ld.Params)
	if err != nil {
		return nil, fmt.Errorf("create layer %q: %w", ld.Name, err)
	}
	if inst == nil {
		return nil, configErr(ld.Name, "cannot create layer of type %q", ld.Type)
	}
	ld.instance = inst
	return inst, nil
}

// layerShapesRecursive propagates shapes bottom-up: input shapes are
// copied from each producer's inferred outputs, then the layer instance
// infers its own outputs. Results are memoized per pass.
func (n *Net) layerShapesRecursive(id int, shapes map[int]*layerShapes) error {
	ls := shapes[id]
	if ls == nil {
		ls = &layerShapes{}
		shapes[id] = ls
	}
	if ls.computed {
		return nil
	}
	ld, ok := n.layers[id]
	if !ok {
		return configErr("", "layer with id %d not found", id)
	}
	if len(ls.in) == 0 {
		for _, pin := range ld.InputPins {
			if !pin.Valid() {
				return configErr(ld.Name, "input pin is not connected")
			}
			src := shapes[pin.LayerID]
			if src == nil || !src.computed {
				if err := n.layerShapesRecursive(pin.LayerID, shapes); err != nil {
					return err
				}
				src = shapes[pin.LayerID]
			}
			if pin.OutputID >= len(src.out) {
				return shapeErr(ld.Name, "producer %d has %d outputs, pin wants #%d",
					pin.LayerID, len(src.out), pin.OutputID)
			}
			ls.in = append(ls.in, src.out[pin.OutputID].Clone())
		}
	}
	inst, err := n.layerInstance(ld)
	if err != nil {
		return err
	}
	out, internal, inplace, err := inst.GetMemoryShapes(ls.in, len(ld.RequiredOutputs))
	if err != nil {
		return fmt.Errorf("shape inference for layer %q: %w", ld.Name, err)
	}
	ls.out, ls.internal, ls.inplace = out, internal, inplace
	ls.computed = true
	return nil
}

// layersShapes infers shapes for every layer, seeding the input layer
// with the network input shapes.
func (n *Net) layersShapes(netInputShapes []tensor.Shape, shapes map[int]*layerShapes) error {
	shapes[0] = &layerShapes{in: netInputShapes}
	for _, id := range n.sortedIDs() {
		if err := n.layerShapesRecursive(id, shapes); err != nil {
			return err
		}
	}
	return nil
}

// LayerShapes runs shape inference for a single layer given network
// input shapes, without touching any buffers.
func (n *Net) LayerShapes(netInputShapes []tensor.Shape, id int) (in, out []tensor.Shape, err error) {
	shapes := make(map[int]*layerShapes)
	shapes[0] = &layerShapes{in: netInputShapes}
	if err := n.layerShapesRecursive(id, shapes); err != nil {
		return nil, nil, err
	}
	ls := shapes[id]
	return ls.in, ls.out, nil
}

func (n *Net) allocateLayers() error {
	for _, ld := range n.layers {
		ld.flag = false
	}

	in0 := n.layers[0]
	if len(in0.Outputs) == 0 {
		return configErr(inputLayerName, "network inputs are not set")
	}
	inputShapes := make([]tensor.Shape, 0, len(in0.Outputs))
	for i, t := range in0.Outputs {
		if t == nil || t.NumElements() == 0 {
			return configErr(inputLayerName, "network input #%d is empty", i)
		}
		inputShapes = append(inputShapes, t.Shape().Clone())
	}

	shapes := make(map[int]*layerShapes)
	if err := n.layersShapes(inputShapes, shapes); err != nil {
		return err
	}
	for _, id := range n.sortedIDs() {
		if err := n.allocateLayer(id, shapes); err != nil {
			return err
		}
	}
	return nil
}

// allocateLayer binds input tensors, sizes outputs and internals, and
// finalizes the layer, recursing into parents first. Output buffers are
// only replaced when their recorded shape changed; an in-place layer
// whose element counts match gets reshaped views of its inputs instead
// of fresh storage.
func (n *Net) allocateLayer(id int, shapes map[int]*layerShapes) error {
	ld := n.layers[id]
	if ld.flag {
		return nil
	}

	parents := make(map[int]struct{})
	for _, pin := range ld.InputPins {
		if !pin.Valid() {
			return configErr(ld.Name, "input pin is not connected")
		}
		parents[pin.LayerID] = struct{}{}
	}
	ld.parentIDs = ld.parentIDs[:0]
	for pid := range parents {
		ld.parentIDs = append(ld.parentIDs, pid)
	}
	sort.Ints(ld.parentIDs)
	for _, pid := range ld.parentIDs {
		if err := n.allocateLayer(pid, shapes); err != nil {
			return err
		}
	}

	ld.inputs = make([]*tensor.Tensor, len(ld.InputPins))
	for i, pin := range ld.InputPins {
		src := n.layers[pin.LayerID]
		if pin.OutputID >= len(src.Outputs) || src.Outputs[pin.OutputID] == nil {
			return shapeErr(ld.Name, "producer %q has no output #%d", src.Name, pin.OutputID)
		}
		ld.inputs[i] = src.Outputs[pin.OutputID]
	}

	ls := shapes[id]
	if ls == nil || !ls.computed {
		return configErr(ld.Name, "no inferred shapes for layer")
	}
	if len(ld.RequiredOutputs) > len(ls.out) {
		return shapeErr(ld.Name, "%d outputs required but %d inferred", len(ld.RequiredOutputs), len(ls.out))
	}

	// A layer produces at least one output blob.
	nOut := len(ls.out)
	if nOut == 0 {
		nOut = 1
	}
	for len(ld.Outputs) < nOut {
		ld.Outputs = append(ld.Outputs, nil)
	}
	for i, shape := range ls.out {
		if cur := ld.Outputs[i]; cur != nil && cur.Shape().Equal(shape) {
			continue
		}
		if ls.inplace {
			if len(ld.inputs) < len(ls.out) {
				return shapeErr(ld.Name, "in-place layer has %d inputs for %d outputs", len(ld.inputs), len(ls.out))
			}
			if ld.inputs[i].NumElements() != shape.NumElements() {
				return shapeErr(ld.Name, "in-place aliasing needs matching element counts: %d vs %d",
					ld.inputs[i].NumElements(), shape.NumElements())
			}
			view, err := ld.inputs[i].Reshape(shape)
			if err != nil {
				return shapeErr(ld.Name, "%v", err)
			}
			ld.Outputs[i] = view
		} else {
			t, err := tensor.New(shape, tensor.Float32)
			if err != nil {
				return shapeErr(ld.Name, "%v", err)
			}
			ld.Outputs[i] = t
		}
	}

	for len(ld.internals) < len(ls.internal) {
		ld.internals = append(ld.internals, nil)
	}
	for i, shape := range ls.internal {
		cur := ld.internals[i]
		if (cur == nil || !cur.Shape().Equal(shape)) && shape.NumElements() > 0 {
			t, err := tensor.New(shape, tensor.Float32)
			if err != nil {
				return shapeErr(ld.Name, "%v", err)
			}
			ld.internals[i] = t
		}
	}

	inst, err := n.layerInstance(ld)
	if err != nil {
		return err
	}
	if err := inst.Finalize(ld.inputs, ld.Outputs); err != nil {
		return fmt.Errorf("finalize layer %q: %w", ld.Name, err)
	}
	ld.flag = true
	return nil
}

func (n *Net) computeNetOutputs() {
	n.netOutputs = n.netOutputs[:0]
	for _, id := range n.sortedIDs() {
		if len(n.layers[id].RequiredOutputs) == 0 {
			n.netOutputs = append(n.netOutputs, id)
		}
	}
}

// Forward runs the whole net, allocating first when needed.
func (n *Net) Forward() error {
	if err := n.setUp(); err != nil {
		return err
	}
	for _, ld := range n.layers {
		ld.flag = false
	}
	for _, id := range n.sortedIDs() {
		if err := n.forwardLayer(n.layers[id]); err != nil {
			return err
		}
	}
	return nil
}

// ForwardTo runs the net up to and including the given layer.
func (n *Net) ForwardTo(id int) error {
	if err := n.setUp(); err != nil {
		return err
	}
	ld, ok := n.layers[id]
	if !ok {
		return configErr("", "layer with id %d not found", id)
	}
	for _, l := range n.layers {
		l.flag = false
	}
	return n.forwardLayer(ld)
}

// forwardLayer runs parents first; the visit flag prevents re-execution
// within one pass but never caches across passes.
func (n *Net) forwardLayer(ld *LayerData) error {
	if ld.flag {
		return nil
	}
	for _, pid := range ld.parentIDs {
		if err := n.forwardLayer(n.layers[pid]); err != nil {
			return err
		}
	}
	if ld.instance == nil {
		return configErr(ld.Name, "layer was not allocated")
	}
	if err := ld.instance.Forward(ld.inputs, ld.Outputs, ld.internals); err != nil {
		return fmt.Errorf("forward layer %q: %w", ld.Name, err)
	}
	ld.flag = true
	return nil
}

// Query API.

// LayerID resolves a layer name, -1 when absent.
func (n *Net) LayerID(name string) int {
	if id, ok := n.nameToID[name]; ok {
		return id
	}
	return -1
}

// LayerName returns the name for an id.
func (n *Net) LayerName(id int) string {
	if ld, ok := n.layers[id]; ok {
		return ld.Name
	}
	return "(unknown layer)"
}

// LayerType returns the type for an id.
func (n *Net) LayerType(id int) (string, error) {
	ld, ok := n.layers[id]
	if !ok {
		return "", configErr("", "layer with id %d not found", id)
	}
	return ld.Type, nil
}

// GetLayer returns the layer instance, creating it on first use.
func (n *Net) GetLayer(id int) (Layer, error) {
	ld, ok := n.layers[id]
	if !ok {
		return nil, configErr("", "layer with id %d not found", id)
	}
	return n.layerInstance(ld)
}

// LayerInputs returns a copy of the layer's input pins.
func (n *Net) LayerInputs(id int) ([]Pin, error) {
	ld, ok := n.layers[id]
	if !ok {
		return nil, configErr("", "layer with id %d not found", id)
	}
	return append([]Pin(nil), ld.InputPins...), nil
}

// UnconnectedOutLayers returns the ids of layers none of whose outputs
// is consumed, in increasing id order. After setUp these are exactly
// the network outputs.
func (n *Net) UnconnectedOutLayers() []int {
	var ids []int
	for _, id := range n.sortedIDs() {
		if len(n.layers[id].RequiredOutputs) == 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// OutputLayerIDs allocates the net if needed and returns the network
// output layer ids.
func (n *Net) OutputLayerIDs() ([]int, error) {
	if err := n.setUp(); err != nil {
		return nil, err
	}
	return append([]int(nil), n.netOutputs...), nil
}

// LayerNames returns the names of all added layers, input layer excluded.
func (n *Net) LayerNames() []string {
	var names []string
	for _, id := range n.sortedIDs() {
		if id == 0 {
			continue
		}
		names = append(names, n.layers[id].Name)
	}
	return names
}

// LayerTypes returns the distinct layer types in the net.
func (n *Net) LayerTypes() []string {
	seen := make(map[string]struct{})
	for _, ld := range n.layers {
		seen[ld.Type] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// LayersCount returns how many layers have the given type.
func (n *Net) LayersCount(typeName string) int {
	count := 0
	for _, ld := range n.layers {
		if ld.Type == typeName {
			count++
		}
	}
	return count
}

// Empty reports whether the net has no layers beyond the input layer.
func (n *Net) Empty() bool {
	return len(n.layers) <= 1
}

// GetParam returns a layer's constant blob by index.
func (n *Net) GetParam(id, numParam int) (*tensor.Tensor, error) {
	ld, ok := n.layers[id]
	if !ok {
		return nil, configErr("", "layer with id %d not found", id)
	}
	if numParam < 0 || numParam >= len(ld.Params.Blobs) {
		return nil, configErr(ld.Name, "layer has %d blobs, #%d requested", len(ld.Params.Blobs), numParam)
	}
	return ld.Params.Blobs[numParam], nil
}

// SetParam replaces a layer's constant blob by index. No shape checks
// are made; use carefully.
func (n *Net) SetParam(id, numParam int, t *tensor.Tensor) error {
	ld, ok := n.layers[id]
	if !ok {
		return configErr("", "layer with id %d not found", id)
	}
	if numParam < 0 || numParam >= len(ld.Params.Blobs) {
		return configErr(ld.Name, "layer has %d blobs, #%d requested", len(ld.Params.Blobs), numParam)
	}
	ld.Params.Blobs[numParam] = t
	return nil
}
