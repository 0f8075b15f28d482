package sequencemodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// adamDenseState tracks the first and second moment estimates for one weight
// matrix.
type adamDenseState struct {
	m, v *mat.Dense
}

func newAdamDenseState(r, c int) *adamDenseState {
	return &adamDenseState{m: mat.NewDense(r, c, nil), v: mat.NewDense(r, c, nil)}
}

func (s *adamDenseState) update(w, grad *mat.Dense, lr float64, t int) {
	r, c := w.Dims()
	bc1 := 1 - math.Pow(adamBeta1, float64(t))
	bc2 := 1 - math.Pow(adamBeta2, float64(t))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := grad.At(i, j)
			m := adamBeta1*s.m.At(i, j) + (1-adamBeta1)*g
			v := adamBeta2*s.v.At(i, j) + (1-adamBeta2)*g*g
			s.m.Set(i, j, m)
			s.v.Set(i, j, v)
			mHat := m / bc1
			vHat := v / bc2
			w.Set(i, j, w.At(i, j)-lr*mHat/(math.Sqrt(vHat)+adamEps))
		}
	}
}

// adamVectorState is the same bookkeeping for a bias vector.
type adamVectorState struct {
	m, v []float64
}

func newAdamVectorState(n int) *adamVectorState {
	return &adamVectorState{m: make([]float64, n), v: make([]float64, n)}
}

func (s *adamVectorState) update(w, grad []float64, lr float64, t int) {
	bc1 := 1 - math.Pow(adamBeta1, float64(t))
	bc2 := 1 - math.Pow(adamBeta2, float64(t))
	for i := range w {
		g := grad[i]
		m := adamBeta1*s.m[i] + (1-adamBeta1)*g
		v := adamBeta2*s.v[i] + (1-adamBeta2)*g*g
		s.m[i] = m
		s.v[i] = v
		mHat := m / bc1
		vHat := v / bc2
		w[i] -= lr * mHat / (math.Sqrt(vHat) + adamEps)
	}
}
