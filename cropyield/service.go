package cropyield

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/cropyield/randomforest"
	zmat "github.com/zappai-go/zappai/mat"
	"github.com/zappai-go/zappai/stats"
)

// ObservationReader is the slice of the climate store the regressor needs to
// read labeled sowing/harvest windows.
type ObservationReader interface {
	ListCropYieldObservations(ctx context.Context, locationID, cropID uuid.UUID) ([]climate.CropYieldObservation, error)
}

// ClimateReader is the slice of the climate store the regressor needs to read
// past climate months for a candidate window.
type ClimateReader interface {
	RangePast(ctx context.Context, locationID uuid.UUID, from, to climate.YearMonth) ([]climate.PastClimateRecord, error)
}

// CropReader resolves crop metadata, surfacing CropNotFound.
type CropReader interface {
	GetCrop(ctx context.Context, cropID uuid.UUID) (*climate.Crop, error)
}

// ModelRepository persists and retrieves the per-crop yield regressor
// artifact plus its held-out MSE and R².
type ModelRepository interface {
	SaveCropYieldModel(ctx context.Context, cropID uuid.UUID, artifact []byte, mse, r2 float64) error
	GetCropYieldModel(ctx context.Context, cropID uuid.UUID) (artifact []byte, mse, r2 float64, err error)
}

// Options configures the regressor's outlier policy and train/test split.
type Options struct {
	Forest          *randomforest.Options
	ZScoreThreshold float64
	TestFraction    float64
	ShuffleSeed     int64
}

// NewDefaultOptions returns the default tuning: z-score threshold 3, an 80/20
// train/test split with a fixed shuffle seed.
func NewDefaultOptions() *Options {
	return &Options{
		Forest:          randomforest.NewDefaultOptions(),
		ZScoreThreshold: 3.0,
		TestFraction:    0.2,
		ShuffleSeed:     42,
	}
}

// Service composes the repositories above with the training options.
type Service struct {
	Observations ObservationReader
	Climate      ClimateReader
	Crops        CropReader
	Models       ModelRepository
	Opt          *Options
}

// NewService wires a cropyield Service from its dependencies. opt may be nil
// to use NewDefaultOptions().
func NewService(observations ObservationReader, climateReader ClimateReader, crops CropReader, models ModelRepository, opt *Options) *Service {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Service{Observations: observations, Climate: climateReader, Crops: crops, Models: models, Opt: opt}
}

// TrainResult summarizes a completed training run.
type TrainResult struct {
	MSE          float64
	R2           float64
	TrainRows    int
	TestRows     int
	ExcludedRows int
}

// Train runs the full training protocol: fetch observations,
// apply the outlier policy, build the feature table from the past climate
// store, fit a bagged CART regressor over an 80/20 split, and persist the
// model alongside its held-out MSE and R².
func (svc *Service) Train(ctx context.Context, locationID, cropID uuid.UUID) (TrainResult, error) {
	if _, err := svc.Crops.GetCrop(ctx, cropID); err != nil {
		return TrainResult{}, fmt.Errorf("resolving crop: %w", err)
	}

	observations, err := svc.Observations.ListCropYieldObservations(ctx, locationID, cropID)
	if err != nil {
		return TrainResult{}, fmt.Errorf("fetching crop yield observations: %w", err)
	}

	observations = dropFlaggedOutliers(observations)
	observations = dropTukeyOutliers(observations)
	observations = dropZScoreOutliers(observations, svc.Opt.ZScoreThreshold)

	var rows [][]float64
	var targets []float64
	excluded := 0
	for _, obs := range observations {
		records, err := svc.Climate.RangePast(ctx, locationID, obs.Sowing, obs.Harvest)
		if err != nil {
			excluded++
			continue
		}
		row, err := BuildFeatureRow(obs.Sowing, obs.Harvest, records)
		if err != nil {
			excluded++
			continue
		}
		rows = append(rows, row)
		targets = append(targets, obs.YieldPerHectare)
	}
	if len(rows) == 0 {
		return TrainResult{}, ErrNoTrainableObservations
	}

	trainX, trainY, testX, testY := splitTrainTest(rows, targets, svc.Opt.TestFraction, svc.Opt.ShuffleSeed)

	forest, err := randomforest.NewForest(svc.Opt.Forest)
	if err != nil {
		return TrainResult{}, fmt.Errorf("initializing random forest: %w", err)
	}
	trainMatrix, err := zmat.NewDenseFromArray(trainX)
	if err != nil {
		return TrainResult{}, fmt.Errorf("building training matrix: %w", err)
	}
	if err := forest.Fit(trainMatrix, colToMatrix(trainY)); err != nil {
		return TrainResult{}, fmt.Errorf("fitting crop yield regressor: %w", err)
	}

	var mse, r2 float64
	if len(testX) > 0 {
		testMatrix, err := zmat.NewDenseFromArray(testX)
		if err != nil {
			return TrainResult{}, fmt.Errorf("building test matrix: %w", err)
		}
		pred, err := forest.Predict(testMatrix)
		if err != nil {
			return TrainResult{}, fmt.Errorf("evaluating crop yield regressor: %w", err)
		}
		mse = meanSquaredError(pred, testY)
		r2, err = forest.Score(testMatrix, colToMatrix(testY))
		if err != nil {
			return TrainResult{}, fmt.Errorf("scoring crop yield regressor: %w", err)
		}
	}

	artifact, err := forest.Marshal()
	if err != nil {
		return TrainResult{}, fmt.Errorf("serializing crop yield regressor: %w", err)
	}
	if err := svc.Models.SaveCropYieldModel(ctx, cropID, artifact, mse, r2); err != nil {
		return TrainResult{}, fmt.Errorf("saving crop yield model: %w", err)
	}

	slog.Info("trained crop yield regressor", "crop_id", cropID, "location_id", locationID,
		"train_rows", len(trainX), "test_rows", len(testX), "excluded_rows", excluded, "mse", mse, "r2", r2)

	return TrainResult{MSE: mse, R2: r2, TrainRows: len(trainX), TestRows: len(testX), ExcludedRows: excluded}, nil
}

// Regressor wraps a loaded forest with the held-out metrics recorded at
// training time, for callers (the optimizer's fitness function) that invoke
// it many times against candidate windows.
type Regressor struct {
	forest *randomforest.Forest
	MSE    float64
	R2     float64
}

// LoadRegressor loads the persisted yield regressor for a crop.
func (svc *Service) LoadRegressor(ctx context.Context, cropID uuid.UUID) (*Regressor, error) {
	artifact, mse, r2, err := svc.Models.GetCropYieldModel(ctx, cropID)
	if err != nil {
		return nil, fmt.Errorf("loading crop yield model: %w", err)
	}
	forest, err := randomforest.Unmarshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling crop yield regressor: %w", err)
	}
	return NewRegressor(forest, mse, r2), nil
}

// NewRegressor wraps an already-fitted forest as a Regressor, for callers
// that did not load it through LoadRegressor (tests, and any future caller
// holding an in-memory forest).
func NewRegressor(forest *randomforest.Forest, mse, r2 float64) *Regressor {
	return &Regressor{forest: forest, MSE: mse, R2: r2}
}

// Predict scores one candidate feature row. The row must have exactly
// len(FeatureColumns()) values, in that order (property 10); any other shape
// is rejected rather than silently truncated or padded.
func (r *Regressor) Predict(row []float64) (float64, error) {
	expected := len(FeatureColumns())
	if len(row) != expected {
		return 0, fmt.Errorf("got %d feature values, expected %d: %w", len(row), expected, ErrFeatureLenMismatch)
	}
	pred, err := r.forest.Predict(mat.NewDense(1, len(row), row))
	if err != nil {
		return 0, fmt.Errorf("predicting crop yield: %w", err)
	}
	return pred[0], nil
}

func dropFlaggedOutliers(observations []climate.CropYieldObservation) []climate.CropYieldObservation {
	out := make([]climate.CropYieldObservation, 0, len(observations))
	for _, obs := range observations {
		if !obs.Outlier {
			out = append(out, obs)
		}
	}
	return out
}

// dropTukeyOutliers removes yields falling outside the 1.5x-IQR Tukey fence,
// run ahead of the z-score filter since it catches skewed distributions the
// symmetric z-score test can miss.
func dropTukeyOutliers(observations []climate.CropYieldObservation) []climate.CropYieldObservation {
	yields := make([]float64, len(observations))
	for i, obs := range observations {
		yields[i] = obs.YieldPerHectare
	}
	outlierIdx := map[int]struct{}{}
	for _, idx := range stats.DetectOutliers(yields, 0.25, 0.75, 1.5) {
		outlierIdx[idx] = struct{}{}
	}

	out := make([]climate.CropYieldObservation, 0, len(observations))
	for i, obs := range observations {
		if _, isOutlier := outlierIdx[i]; !isOutlier {
			out = append(out, obs)
		}
	}
	return out
}

func dropZScoreOutliers(observations []climate.CropYieldObservation, threshold float64) []climate.CropYieldObservation {
	yields := make([]float64, len(observations))
	for i, obs := range observations {
		yields[i] = obs.YieldPerHectare
	}
	outlierIdx := map[int]struct{}{}
	for _, idx := range stats.DetectZScoreOutliers(yields, threshold) {
		outlierIdx[idx] = struct{}{}
	}

	out := make([]climate.CropYieldObservation, 0, len(observations))
	for i, obs := range observations {
		if _, isOutlier := outlierIdx[i]; !isOutlier {
			out = append(out, obs)
		}
	}
	return out
}

// splitTrainTest shuffles rows/targets in lockstep with a fixed seed and
// splits them 80/20 (or whatever testFraction names).
func splitTrainTest(rows [][]float64, targets []float64, testFraction float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(rows)
	order := rand.New(rand.NewSource(seed)).Perm(n)

	testCount := int(math.Round(float64(n) * testFraction))
	testSet := make(map[int]struct{}, testCount)
	for _, idx := range order[:testCount] {
		testSet[idx] = struct{}{}
	}

	for i := 0; i < n; i++ {
		if _, isTest := testSet[i]; isTest {
			testX = append(testX, rows[i])
			testY = append(testY, targets[i])
		} else {
			trainX = append(trainX, rows[i])
			trainY = append(trainY, targets[i])
		}
	}
	return trainX, trainY, testX, testY
}

func colToMatrix(y []float64) *mat.Dense {
	return mat.NewDense(len(y), 1, y)
}

func meanSquaredError(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sumSq float64
	for i := range pred {
		d := pred[i] - actual[i]
		sumSq += d * d
	}
	return sumSq / float64(len(pred))
}

