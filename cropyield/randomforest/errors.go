package randomforest

import "errors"

var (
	ErrNoOptions               = errors.New("no initialized forest options")
	ErrNoTrainingMatrix        = errors.New("no training matrix")
	ErrNoTargetMatrix          = errors.New("no target matrix")
	ErrNoDesignMatrix          = errors.New("no design matrix for inference")
	ErrTargetLenMismatch       = errors.New("training data and target have different row counts")
	ErrFeatureLenMismatch      = errors.New("design matrix has a different number of features than the model was fit with")
	ErrEmptyTrainingSet        = errors.New("no training rows")
	ErrNonPositiveNumTrees     = errors.New("number of trees must be positive")
	ErrMinSamplesSplitTooSmall = errors.New("min samples split must be at least 2")
	ErrNegativeMaxDepth        = errors.New("max depth must not be negative")
	ErrNotFitted               = errors.New("forest has not been fit")
)
