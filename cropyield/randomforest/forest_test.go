package randomforest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func syntheticRegressionData(n, p int, seed int64) (mat.Matrix, mat.Matrix) {
	rng := rand.New(rand.NewSource(seed))
	xData := make([]float64, n*p)
	yData := make([]float64, n)
	for i := 0; i < n; i++ {
		var y float64
		for j := 0; j < p; j++ {
			v := rng.Float64() * 10
			xData[i*p+j] = v
			y += v
		}
		yData[i] = y
	}
	return mat.NewDense(n, p, xData), mat.NewDense(n, 1, yData)
}

func TestForestFitPredictShape(t *testing.T) {
	x, y := syntheticRegressionData(80, 3, 1)

	opt := NewDefaultOptions()
	opt.NumTrees = 10
	opt.MinSamplesSplit = 5

	f, err := NewForest(opt)
	require.NoError(t, err)

	require.NoError(t, f.Fit(x, y))

	pred, err := f.Predict(x)
	require.NoError(t, err)
	assert.Len(t, pred, 80)
}

func TestForestScoreFitsWellOnSmoothTarget(t *testing.T) {
	x, y := syntheticRegressionData(200, 2, 2)

	opt := NewDefaultOptions()
	opt.NumTrees = 20
	opt.MinSamplesSplit = 5

	f, err := NewForest(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(x, y))

	r2, err := f.Score(x, y)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.5)
}

func TestForestRejectsMismatchedRows(t *testing.T) {
	x := mat.NewDense(5, 2, make([]float64, 10))
	y := mat.NewDense(4, 1, make([]float64, 4))

	f, err := NewForest(NewDefaultOptions())
	require.NoError(t, err)

	err = f.Fit(x, y)
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}

func TestForestPredictBeforeFit(t *testing.T) {
	f, err := NewForest(NewDefaultOptions())
	require.NoError(t, err)

	_, err = f.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestForestMarshalUnmarshalRoundTrip(t *testing.T) {
	x, y := syntheticRegressionData(60, 2, 3)

	opt := NewDefaultOptions()
	opt.NumTrees = 8
	opt.MinSamplesSplit = 5

	f, err := NewForest(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(x, y))

	before, err := f.Predict(x)
	require.NoError(t, err)

	data, err := f.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)

	after, err := restored.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOptionsValidateRejectsBadValues(t *testing.T) {
	_, err := (&Options{NumTrees: 0}).Validate()
	assert.ErrorIs(t, err, ErrNonPositiveNumTrees)

	_, err = (&Options{NumTrees: 1, MinSamplesSplit: 1}).Validate()
	assert.ErrorIs(t, err, ErrMinSamplesSplitTooSmall)

	_, err = (&Options{NumTrees: 1, MinSamplesSplit: 2, MaxDepth: -1}).Validate()
	assert.ErrorIs(t, err, ErrNegativeMaxDepth)
}
