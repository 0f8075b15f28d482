package sequencemodel

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// denseLayer is the final projection from the last recurrent layer's hidden
// state to the |T|-dimensional target.
type denseLayer struct {
	outputDim int
	inputDim  int
	W         *mat.Dense
	b         []float64
}

func newDenseLayer(outputDim, inputDim int, rng *rand.Rand) *denseLayer {
	d := &denseLayer{
		outputDim: outputDim,
		inputDim:  inputDim,
		W:         mat.NewDense(outputDim, inputDim, nil),
		b:         make([]float64, outputDim),
	}
	scale := 1.0 / math.Sqrt(float64(inputDim))
	randomizeDense(d.W, rng, scale)
	return d
}

func (d *denseLayer) forward(x []float64) []float64 {
	out := make([]float64, d.outputDim)
	for i := 0; i < d.outputDim; i++ {
		sum := d.b[i]
		row := d.W.RawRowView(i)
		for j, xv := range x {
			sum += row[j] * xv
		}
		out[i] = sum
	}
	return out
}

type denseGrads struct {
	dW *mat.Dense
	db []float64
}

func newDenseGrads(outputDim, inputDim int) *denseGrads {
	return &denseGrads{
		dW: mat.NewDense(outputDim, inputDim, nil),
		db: make([]float64, outputDim),
	}
}

// backward accumulates gradients given dOut (gradient w.r.t. the layer's
// output) and returns the gradient w.r.t. the layer's input.
func (d *denseLayer) backward(x []float64, dOut []float64, g *denseGrads) []float64 {
	dx := make([]float64, d.inputDim)
	for i := 0; i < d.outputDim; i++ {
		g.db[i] += dOut[i]
		row := d.W.RawRowView(i)
		gRow := g.dW.RawRowView(i)
		for j, xv := range x {
			gRow[j] += dOut[i] * xv
			dx[j] += dOut[i] * row[j]
		}
	}
	return dx
}
