// Package sequencemodel implements the stacked recurrent network the climate
// generator trains per location: three recurrent layers of 50 units with
// dropout between them, followed by a dense projection to the target
// dimension. Hand-rolled over gonum/mat in the same Options-struct idiom as
// the module's OLS implementation.
package sequencemodel

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Options follows the module's Options-struct convention (see
// models.OLSOptions).
type Options struct {
	HiddenUnits   int
	NumLayers     int
	DropoutRate   float64
	Epochs        int
	LearningRate  float64
	Seed          int64
	DivergenceTol int // consecutive validation RMSE increases before halving the learning rate once
}

// NewDefaultOptions returns the training defaults: 3 stacked layers of 50
// units, dropout 0.2 between them, 50 epochs, Adam at lr=1e-3 halved once if
// validation RMSE diverges for 3 consecutive epochs.
func NewDefaultOptions() *Options {
	return &Options{
		HiddenUnits:   50,
		NumLayers:     3,
		DropoutRate:   0.2,
		Epochs:        50,
		LearningRate:  1e-3,
		Seed:          42,
		DivergenceTol: 3,
	}
}

// Network is the trained artifact: the stacked recurrent layers plus the dense
// output projection.
type Network struct {
	opt       *Options
	inputDim  int
	outputDim int
	seqLength int

	layers []*recurrentLayer
	dense  *denseLayer

	rng *rand.Rand
}

// New builds an untrained network sized for inputDim features per timestep,
// seqLength timesteps per window, and outputDim targets.
func New(inputDim, outputDim, seqLength int, opt *Options) *Network {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	rng := rand.New(rand.NewSource(opt.Seed))

	layers := make([]*recurrentLayer, opt.NumLayers)
	for l := 0; l < opt.NumLayers; l++ {
		in := inputDim
		if l > 0 {
			in = opt.HiddenUnits
		}
		layers[l] = newRecurrentLayer(opt.HiddenUnits, in, rng)
	}

	return &Network{
		opt:       opt,
		inputDim:  inputDim,
		outputDim: outputDim,
		seqLength: seqLength,
		layers:    layers,
		dense:     newDenseLayer(outputDim, opt.HiddenUnits, rng),
		rng:       rng,
	}
}

type forwardResult struct {
	output []float64
	caches [][]stepCache     // [layer][timestep]
	masks  [][][]float64     // [layer][timestep] dropout mask applied to that layer's output
	layerInputs [][][]float64 // [layer][timestep] input fed to that layer (post previous layer's dropout)
}

func (n *Network) forwardWindow(window [][]float64, training bool) forwardResult {
	res := forwardResult{
		caches:      make([][]stepCache, len(n.layers)),
		masks:       make([][][]float64, len(n.layers)),
		layerInputs: make([][][]float64, len(n.layers)),
	}

	currentInputs := window // [timestep][feature]
	for l, layer := range n.layers {
		res.caches[l] = make([]stepCache, n.seqLength)
		res.masks[l] = make([][]float64, n.seqLength)
		res.layerInputs[l] = make([][]float64, n.seqLength)

		prevH := make([]float64, layer.units)
		outputs := make([][]float64, n.seqLength)
		for t := 0; t < n.seqLength; t++ {
			res.layerInputs[l][t] = currentInputs[t]
			cache := layer.forward(currentInputs[t], prevH)
			res.caches[l][t] = cache
			prevH = cache.h

			out := cache.h
			isLastLayer := l == len(n.layers)-1
			if training && !isLastLayer && n.opt.DropoutRate > 0 {
				mask := make([]float64, layer.units)
				keep := 1 - n.opt.DropoutRate
				dropped := make([]float64, layer.units)
				for i := range out {
					if n.rng.Float64() < keep {
						mask[i] = 1.0 / keep
					} else {
						mask[i] = 0
					}
					dropped[i] = out[i] * mask[i]
				}
				res.masks[l][t] = mask
				outputs[t] = dropped
			} else {
				outputs[t] = out
			}
		}
		currentInputs = outputs
	}

	lastLayer := len(n.layers) - 1
	finalHidden := res.caches[lastLayer][n.seqLength-1].h
	res.output = n.dense.forward(finalHidden)
	return res
}

// Predict runs a single inference forward pass (no dropout) over a window of
// shape (seqLength, inputDim) and returns the outputDim prediction.
func (n *Network) Predict(window [][]float64) ([]float64, error) {
	if len(window) != n.seqLength {
		return nil, fmt.Errorf("window has %d timesteps, expected %d", len(window), n.seqLength)
	}
	for _, row := range window {
		if len(row) != n.inputDim {
			return nil, fmt.Errorf("window row has %d features, expected %d", len(row), n.inputDim)
		}
	}
	res := n.forwardWindow(window, false)
	return res.output, nil
}

type networkGrads struct {
	layers []*layerGrads
	dense  *denseGrads
}

func (n *Network) newGrads() *networkGrads {
	g := &networkGrads{layers: make([]*layerGrads, len(n.layers))}
	for l, layer := range n.layers {
		g.layers[l] = newLayerGrads(layer.units, layer.inputDim)
	}
	g.dense = newDenseGrads(n.dense.outputDim, n.dense.inputDim)
	return g
}

// backward computes gradients for one training sample given the forward
// result and the target vector, using mean squared error loss.
func (n *Network) backward(res forwardResult, target []float64) *networkGrads {
	g := n.newGrads()

	lastLayer := len(n.layers) - 1
	finalHidden := res.caches[lastLayer][n.seqLength-1].h

	dOut := make([]float64, n.outputDim)
	for i := range dOut {
		dOut[i] = 2 * (res.output[i] - target[i]) / float64(n.outputDim)
	}
	dFinalHidden := n.dense.backward(finalHidden, dOut, g.dense)

	// dHiddenOutput[l][t] is the external gradient injected at layer l's output
	// at timestep t (from the layer above, after its dropout mask, or from the
	// dense layer for the very last timestep of the last layer).
	dHiddenOutput := make([][][]float64, len(n.layers))
	for l, layer := range n.layers {
		dHiddenOutput[l] = make([][]float64, n.seqLength)
		for t := 0; t < n.seqLength; t++ {
			dHiddenOutput[l][t] = make([]float64, layer.units)
		}
	}
	copy(dHiddenOutput[lastLayer][n.seqLength-1], dFinalHidden)

	for l := len(n.layers) - 1; l >= 0; l-- {
		layer := n.layers[l]
		dNextH := make([]float64, layer.units)
		for t := n.seqLength - 1; t >= 0; t-- {
			dh := make([]float64, layer.units)
			for i := range dh {
				dh[i] = dHiddenOutput[l][t][i] + dNextH[i]
			}
			dx, dPrevH := layer.backwardStep(res.caches[l][t], dh, g.layers[l])
			dNextH = dPrevH
			if l > 0 {
				mask := res.masks[l-1][t]
				for i := range dx {
					if mask != nil {
						dx[i] *= mask[i]
					}
					dHiddenOutput[l-1][t][i] += dx[i]
				}
			}
		}
	}

	return g
}

type adamState struct {
	layers []struct {
		wx, wh *adamDenseState
		b      *adamVectorState
	}
	denseW *adamDenseState
	denseB *adamVectorState
	t      int
}

func (n *Network) newAdamState() *adamState {
	s := &adamState{t: 0}
	s.layers = make([]struct {
		wx, wh *adamDenseState
		b      *adamVectorState
	}, len(n.layers))
	for l, layer := range n.layers {
		s.layers[l].wx = newAdamDenseState(layer.units, layer.inputDim)
		s.layers[l].wh = newAdamDenseState(layer.units, layer.units)
		s.layers[l].b = newAdamVectorState(layer.units)
	}
	s.denseW = newAdamDenseState(n.dense.outputDim, n.dense.inputDim)
	s.denseB = newAdamVectorState(n.dense.outputDim)
	return s
}

func (n *Network) applyGrads(g *networkGrads, s *adamState, lr float64) {
	s.t++
	for l, layer := range n.layers {
		s.layers[l].wx.update(layer.Wx, g.layers[l].dWx, lr, s.t)
		s.layers[l].wh.update(layer.Wh, g.layers[l].dWh, lr, s.t)
		s.layers[l].b.update(layer.b, g.layers[l].db, lr, s.t)
	}
	s.denseW.update(n.dense.W, g.dense.dW, lr, s.t)
	s.denseB.update(n.dense.b, g.dense.db, lr, s.t)
}

// FitResult is the outcome of a training run: the RMSE measured on the
// provided validation set after the final epoch.
type FitResult struct {
	ValidationRMSE float64
	EpochsRun      int
	FinalLR        float64
}

// Fit trains the network by full-batch BPTT with Adam, for opt.Epochs epochs.
// If validation RMSE increases for opt.DivergenceTol consecutive epochs, the
// learning rate is halved once and training continues.
func (n *Network) Fit(trainX [][][]float64, trainY [][]float64, valX [][][]float64, valY [][]float64) (FitResult, error) {
	if len(trainX) != len(trainY) {
		return FitResult{}, fmt.Errorf("training windows (%d) and targets (%d) length mismatch", len(trainX), len(trainY))
	}
	if len(trainX) == 0 {
		return FitResult{}, fmt.Errorf("no training windows")
	}

	state := n.newAdamState()
	lr := n.opt.LearningRate
	halved := false
	worsening := 0
	prevRMSE := math.Inf(1)

	var result FitResult
	for epoch := 1; epoch <= n.opt.Epochs; epoch++ {
		g := n.newGrads()
		for i := range trainX {
			res := n.forwardWindow(trainX[i], true)
			sampleGrads := n.backward(res, trainY[i])
			accumulateGrads(g, sampleGrads, n)
		}
		scaleGrads(g, 1.0/float64(len(trainX)), n)
		n.applyGrads(g, state, lr)

		valRMSE := n.evaluateRMSE(valX, valY)
		result = FitResult{ValidationRMSE: valRMSE, EpochsRun: epoch, FinalLR: lr}

		if valRMSE > prevRMSE {
			worsening++
		} else {
			worsening = 0
		}
		prevRMSE = valRMSE

		if !halved && worsening >= n.opt.DivergenceTol {
			lr /= 2
			halved = true
			worsening = 0
			slog.Warn("climate generator validation RMSE diverging, halving learning rate",
				"epoch", epoch, "new_lr", lr)
		}

		slog.Debug("climate generator training epoch", "epoch", epoch, "validation_rmse", valRMSE, "lr", lr)
	}
	return result, nil
}

func accumulateGrads(dst, src *networkGrads, n *Network) {
	for l := range n.layers {
		addDense(dst.layers[l].dWx, src.layers[l].dWx)
		addDense(dst.layers[l].dWh, src.layers[l].dWh)
		addVector(dst.layers[l].db, src.layers[l].db)
	}
	addDense(dst.dense.dW, src.dense.dW)
	addVector(dst.dense.db, src.dense.db)
}

func scaleGrads(g *networkGrads, scale float64, n *Network) {
	for l := range n.layers {
		scaleDense(g.layers[l].dWx, scale)
		scaleDense(g.layers[l].dWh, scale)
		scaleVector(g.layers[l].db, scale)
	}
	scaleDense(g.dense.dW, scale)
	scaleVector(g.dense.db, scale)
}

func addDense(dst, src *mat.Dense) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+src.At(i, j))
		}
	}
}

func scaleDense(m *mat.Dense, scale float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)*scale)
		}
	}
}

func addVector(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func scaleVector(v []float64, scale float64) {
	for i := range v {
		v[i] *= scale
	}
}

func denseToSlices(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		copy(row, m.RawRowView(i))
		out[i] = row
	}
	return out
}

func slicesToDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return mat.NewDense(0, 0, nil)
	}
	r := len(rows)
	c := len(rows[0])
	data := make([]float64, 0, r*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

// EvaluateRMSE computes root mean squared error over a set of windows and
// targets, the metric persisted alongside the trained artifact.
func (n *Network) evaluateRMSE(xs [][][]float64, ys [][]float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	count := 0
	for i := range xs {
		res := n.forwardWindow(xs[i], false)
		for j := range res.output {
			d := res.output[j] - ys[i][j]
			sumSq += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}

// EvaluateRMSE is the exported form used by the generator package to score a
// held-out test split after training.
func (n *Network) EvaluateRMSE(xs [][][]float64, ys [][]float64) float64 {
	return n.evaluateRMSE(xs, ys)
}

// gobNetwork is the serializable shape of a Network; unexported fields of the
// real type (layers built on gonum matrices) are flattened into plain slices.
type gobNetwork struct {
	Opt       Options
	InputDim  int
	OutputDim int
	SeqLength int
	LayerWx   [][][]float64
	LayerWh   [][][]float64
	LayerB    [][]float64
	DenseW    [][]float64
	DenseB    []float64
}

// Marshal serializes the trained network through encoding/gob, treating it as
// an immutable blob once trained, per the data model's "Model artifacts"
// design note.
func (n *Network) Marshal() ([]byte, error) {
	g := gobNetwork{
		Opt:       *n.opt,
		InputDim:  n.inputDim,
		OutputDim: n.outputDim,
		SeqLength: n.seqLength,
	}
	for _, layer := range n.layers {
		g.LayerWx = append(g.LayerWx, denseToSlices(layer.Wx))
		g.LayerWh = append(g.LayerWh, denseToSlices(layer.Wh))
		g.LayerB = append(g.LayerB, append([]float64{}, layer.b...))
	}
	g.DenseW = denseToSlices(n.dense.W)
	g.DenseB = append([]float64{}, n.dense.b...)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, fmt.Errorf("marshaling network: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores a network previously produced by Marshal.
func Unmarshal(data []byte) (*Network, error) {
	var g gobNetwork
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("unmarshaling network: %w", err)
	}
	n := New(g.InputDim, g.OutputDim, g.SeqLength, &g.Opt)
	for l := range n.layers {
		n.layers[l].Wx = slicesToDense(g.LayerWx[l])
		n.layers[l].Wh = slicesToDense(g.LayerWh[l])
		n.layers[l].b = g.LayerB[l]
	}
	n.dense.W = slicesToDense(g.DenseW)
	n.dense.b = g.DenseB
	return n, nil
}
