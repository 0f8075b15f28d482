package sequencemodel

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// recurrentLayer is a single stacked recurrent layer: a simple tanh-activated
// Elman cell operating over a fixed-length window. Hand-rolled over gonum/mat
// in the same style as the module's OLS model, since no recurrent network
// library exists anywhere in the retrieval pack.
type recurrentLayer struct {
	units    int
	inputDim int

	// Wx maps the layer's input (units x inputDim), Wh the previous hidden
	// state (units x units), b is the per-unit bias.
	Wx *mat.Dense
	Wh *mat.Dense
	b  []float64
}

func newRecurrentLayer(units, inputDim int, rng *rand.Rand) *recurrentLayer {
	l := &recurrentLayer{
		units:    units,
		inputDim: inputDim,
		Wx:       mat.NewDense(units, inputDim, nil),
		Wh:       mat.NewDense(units, units, nil),
		b:        make([]float64, units),
	}
	scale := 1.0 / math.Sqrt(float64(inputDim+units))
	randomizeDense(l.Wx, rng, scale)
	randomizeDense(l.Wh, rng, scale)
	return l
}

func randomizeDense(m *mat.Dense, rng *rand.Rand, scale float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, (rng.Float64()*2-1)*scale)
		}
	}
}

// stepCache holds everything needed to backpropagate a single timestep.
type stepCache struct {
	input  []float64
	prevH  []float64
	preAct []float64
	h      []float64
}

// forward runs one timestep: h_t = tanh(Wx*x_t + Wh*h_{t-1} + b).
func (l *recurrentLayer) forward(x, prevH []float64) stepCache {
	pre := make([]float64, l.units)
	for i := 0; i < l.units; i++ {
		sum := l.b[i]
		wxRow := l.Wx.RawRowView(i)
		for j, xv := range x {
			sum += wxRow[j] * xv
		}
		whRow := l.Wh.RawRowView(i)
		for j, hv := range prevH {
			sum += whRow[j] * hv
		}
		pre[i] = sum
	}
	h := make([]float64, l.units)
	for i, v := range pre {
		h[i] = math.Tanh(v)
	}
	return stepCache{input: x, prevH: prevH, preAct: pre, h: h}
}

// layerGrads accumulates gradients for one layer's parameters across a window.
type layerGrads struct {
	dWx *mat.Dense
	dWh *mat.Dense
	db  []float64
}

func newLayerGrads(units, inputDim int) *layerGrads {
	return &layerGrads{
		dWx: mat.NewDense(units, inputDim, nil),
		dWh: mat.NewDense(units, units, nil),
		db:  make([]float64, units),
	}
}

// backwardStep propagates dh (gradient w.r.t. this timestep's output hidden
// state) through the tanh nonlinearity and accumulates parameter gradients. It
// returns the gradient w.r.t. the input x_t and w.r.t. the previous hidden
// state, to be added to the recursively accumulated gradient from step t+1.
func (l *recurrentLayer) backwardStep(cache stepCache, dh []float64, g *layerGrads) (dx, dPrevH []float64) {
	dPre := make([]float64, l.units)
	for i, v := range cache.preAct {
		t := math.Tanh(v)
		dPre[i] = dh[i] * (1 - t*t)
	}

	dx = make([]float64, l.inputDim)
	dPrevH = make([]float64, l.units)

	for i := 0; i < l.units; i++ {
		g.db[i] += dPre[i]
		wxRow := l.Wx.RawRowView(i)
		gWxRow := g.dWx.RawRowView(i)
		for j, xv := range cache.input {
			gWxRow[j] += dPre[i] * xv
			dx[j] += dPre[i] * wxRow[j]
		}
		whRow := l.Wh.RawRowView(i)
		gWhRow := g.dWh.RawRowView(i)
		for j, hv := range cache.prevH {
			gWhRow[j] += dPre[i] * hv
			dPrevH[j] += dPre[i] * whRow[j]
		}
	}
	return dx, dPrevH
}
