// Package randomforest is a bagged CART regression forest, hand-rolled over
// gonum/mat in the Model-interface idiom used elsewhere in this module (see
// models.Model, models/ols.go).
package randomforest

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/zappai-go/zappai/models"
)

// Forest implements models.Model as a bagged ensemble of CART regression
// trees: each tree is fit on an independent bootstrap resample of the
// training rows, and a prediction is the mean of all trees' leaf values.
type Forest struct {
	opt *Options

	numFeatures int
	trees       []*treeNode

	rng *rand.Rand
}

var _ models.Model = (*Forest)(nil)

// NewForest initializes a forest ready for fitting.
func NewForest(opt *Options) (*Forest, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Forest{opt: opt, rng: rand.New(rand.NewSource(opt.Seed))}, nil
}

// Fit grows opt.NumTrees CART trees, each over an independent bootstrap
// resample of the training rows.
func (f *Forest) Fit(x, y mat.Matrix) error {
	if f.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}

	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}
	if m == 0 {
		return ErrEmptyTrainingSet
	}

	rows := denseRows(x, m, n)
	targets := mat.Col(nil, 0, y)

	f.numFeatures = n
	f.trees = make([]*treeNode, f.opt.NumTrees)
	for i := 0; i < f.opt.NumTrees; i++ {
		bootstrap := make([]int, m)
		for j := range bootstrap {
			bootstrap[j] = f.rng.Intn(m)
		}
		f.trees[i] = buildTree(rows, targets, bootstrap, f.opt, 0)
	}

	return nil
}

// Predict averages every tree's prediction for each row of x.
func (f *Forest) Predict(x mat.Matrix) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	m, n := x.Dims()
	if n != f.numFeatures {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, f.numFeatures, ErrFeatureLenMismatch)
	}

	rows := denseRows(x, m, n)
	out := make([]float64, m)
	for i, row := range rows {
		sum := 0.0
		for _, t := range f.trees {
			sum += predictOne(t, row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// Score computes the coefficient of determination of the prediction.
func (f *Forest) Score(x, y mat.Matrix) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if x == nil {
		return 0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return 0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	pred, err := f.Predict(x)
	if err != nil {
		return 0, err
	}
	actual := mat.Col(nil, 0, y)

	score := stat.RSquaredFrom(pred, actual, nil)
	if math.IsNaN(score) {
		score = 1.0
	}
	return score, nil
}

// Intercept is not meaningful for a tree ensemble; returns 0.0 to satisfy
// models.Model.
func (f *Forest) Intercept() float64 {
	return 0
}

// Coef is not meaningful for a tree ensemble; returns nil to satisfy
// models.Model.
func (f *Forest) Coef() []float64 {
	return nil
}

func denseRows(x mat.Matrix, m, n int) [][]float64 {
	rows := make([][]float64, m)
	for i := 0; i < m; i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = x.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

// gobForest is the serializable shape of a Forest: trees are plain structs so
// gob can walk them directly.
type gobForest struct {
	Opt         Options
	NumFeatures int
	Trees       []*treeNode
}

// Marshal serializes the trained forest through encoding/gob, treating it as
// an immutable blob once trained, per the data model's "Model artifacts"
// design note.
func (f *Forest) Marshal() ([]byte, error) {
	g := gobForest{Opt: *f.opt, NumFeatures: f.numFeatures, Trees: f.trees}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, fmt.Errorf("marshaling forest: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores a forest previously produced by Marshal.
func Unmarshal(data []byte) (*Forest, error) {
	var g gobForest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("unmarshaling forest: %w", err)
	}
	return &Forest{
		opt:         &g.Opt,
		numFeatures: g.NumFeatures,
		trees:       g.Trees,
		rng:         rand.New(rand.NewSource(g.Opt.Seed)),
	}, nil
}
