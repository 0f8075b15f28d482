// Package generator is the climate generator: it trains,
// persists, and invokes a per-location sequence model that predicts the next
// month's ERA-exclusive variables from a 12-month seed and a future
// projection row, and drives the month-by-month rollout.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/climate/generator/sequencemodel"
	"github.com/zappai-go/zappai/store"
	"github.com/zappai-go/zappai/zappaierr"
)

// ClimateReader is the slice of the climate store the generator needs to read
// past data.
type ClimateReader interface {
	RangePast(ctx context.Context, locationID uuid.UUID, from, to climate.YearMonth) ([]climate.PastClimateRecord, error)
	LastNMonths(ctx context.Context, locationID uuid.UUID, n int) ([]climate.PastClimateRecord, error)
}

// FutureReader is the slice of the climate store the generator needs to read
// projection data.
type FutureReader interface {
	RangeFuture(ctx context.Context, longitude, latitude float64, from, to climate.YearMonth) ([]climate.FutureClimateRecord, error)
	NearestFutureCoordinate(ctx context.Context, longitude, latitude float64) (float64, float64, error)
}

// LocationReader resolves a location's coordinates for the nearest-projection
// lookup.
type LocationReader interface {
	GetLocation(ctx context.Context, id uuid.UUID) (*climate.Location, error)
}

// ModelRepository persists and retrieves the per-location generative model
// artifact.
type ModelRepository interface {
	SaveClimateGenerativeModel(ctx context.Context, a store.ClimateGenerativeModelArtifact) error
	GetClimateGenerativeModel(ctx context.Context, locationID uuid.UUID) (*store.ClimateGenerativeModelArtifact, error)
	IsClimateGenerativeModelReady(ctx context.Context, locationID uuid.UUID) (bool, error)
}

// Service composes the repositories above with the training hyperparameters.
type Service struct {
	Climate   ClimateReader
	Future    FutureReader
	Locations LocationReader
	Models    ModelRepository
	TrainOpts *sequencemodel.Options
}

// NewService wires a generator Service from its dependencies. TrainOpts may
// be nil to use sequencemodel.NewDefaultOptions().
func NewService(climateReader ClimateReader, futureReader FutureReader, locations LocationReader, models ModelRepository, trainOpts *sequencemodel.Options) *Service {
	if trainOpts == nil {
		trainOpts = sequencemodel.NewDefaultOptions()
	}
	return &Service{Climate: climateReader, Future: futureReader, Locations: locations, Models: models, TrainOpts: trainOpts}
}

// TrainResult summarizes a completed training run.
type TrainResult struct {
	Skipped bool // true when |T| = 0: nothing to train, rollout passes projections through
	RMSE    float64
}

// Train runs the full training protocol for one location: fetch,
// chronological 70/15/15 split, fit scalers on train only, sliding windows,
// fit the recurrent network, evaluate on held-out test windows, and persist.
func (svc *Service) Train(ctx context.Context, locationID uuid.UUID) (TrainResult, error) {
	t := targetVariables()
	if len(t) == 0 {
		slog.Info("no ERA-exclusive targets after removing CMIP overlap, skipping generator training", "location_id", locationID)
		return TrainResult{Skipped: true}, nil
	}

	records, err := svc.Climate.RangePast(ctx, locationID, climate.MinYearMonth, climate.MaxYearMonth)
	if err != nil {
		return TrainResult{}, fmt.Errorf("fetching past climate data: %w", err)
	}
	if len(records) < climate.SequenceLength+1 {
		return TrainResult{}, fmt.Errorf("location %s has %d months, need at least %d: %w",
			locationID, len(records), climate.SequenceLength+1, zappaierr.ErrInsufficientHistory)
	}

	n := len(records)
	idx70 := int(math.Round(float64(n) * 0.70))
	idx85 := int(math.Round(float64(n) * 0.85))

	featureRows := make([][]float64, n)
	targetRows := make([][]float64, n)
	for i, r := range records {
		featureRows[i] = featureRow(t, r)
		targetRows[i] = targetRow(t, r)
	}

	featureScaler, err := FitStandardScaler(featureRows[:idx70])
	if err != nil {
		return TrainResult{}, fmt.Errorf("fitting feature scaler: %w", err)
	}
	targetScaler, err := FitStandardScaler(targetRows[:idx70])
	if err != nil {
		return TrainResult{}, fmt.Errorf("fitting target scaler: %w", err)
	}

	scaledFeatures := featureScaler.TransformAll(featureRows)
	scaledTargets := targetScaler.TransformAll(targetRows)

	L := climate.SequenceLength
	var trainX, valX, testX [][][]float64
	var trainY, valY, testY [][]float64

	for i := 0; i+L < n; i++ {
		labelIdx := i + L
		window := scaledFeatures[i : i+L]
		label := scaledTargets[labelIdx]
		switch {
		case labelIdx < idx70:
			trainX, trainY = append(trainX, window), append(trainY, label)
		case labelIdx < idx85:
			valX, valY = append(valX, window), append(valY, label)
		default:
			testX, testY = append(testX, window), append(testY, label)
		}
	}
	if len(trainX) == 0 {
		return TrainResult{}, fmt.Errorf("not enough history to form a single training window: %w", zappaierr.ErrInsufficientHistory)
	}

	inputDim := len(featureRows[0])
	net := sequencemodel.New(inputDim, len(t), L, svc.TrainOpts)
	if _, err := net.Fit(trainX, trainY, valX, valY); err != nil {
		return TrainResult{}, fmt.Errorf("fitting climate generative model: %w", err)
	}
	testRMSE := net.EvaluateRMSE(testX, testY)

	networkBlob, err := net.Marshal()
	if err != nil {
		return TrainResult{}, fmt.Errorf("serializing network: %w", err)
	}
	featureScalerBlob, err := featureScaler.Marshal()
	if err != nil {
		return TrainResult{}, fmt.Errorf("serializing feature scaler: %w", err)
	}
	targetScalerBlob, err := targetScaler.Marshal()
	if err != nil {
		return TrainResult{}, fmt.Errorf("serializing target scaler: %w", err)
	}

	artifact := store.ClimateGenerativeModelArtifact{
		LocationID:      locationID,
		Network:         networkBlob,
		FeatureScaler:   featureScalerBlob,
		TargetScaler:    targetScalerBlob,
		RMSE:            testRMSE,
		TrainStart:      records[0].YearMonth,
		ValidationStart: records[min(idx70, n-1)].YearMonth,
		TestStart:       records[min(idx85, n-1)].YearMonth,
	}
	if err := svc.Models.SaveClimateGenerativeModel(ctx, artifact); err != nil {
		return TrainResult{}, fmt.Errorf("saving climate generative model: %w", err)
	}

	slog.Info("trained climate generative model", "location_id", locationID, "test_rmse", testRMSE,
		"train_windows", len(trainX), "validation_windows", len(valX), "test_windows", len(testX))

	return TrainResult{RMSE: testRMSE}, nil
}

// IsReady reports whether a location has a trained generative model, for
// callers polling after a background training kickoff.
func (svc *Service) IsReady(ctx context.Context, locationID uuid.UUID) (bool, error) {
	ready, err := svc.Models.IsClimateGenerativeModelReady(ctx, locationID)
	if err != nil {
		return false, fmt.Errorf("checking generative model readiness: %w", err)
	}
	return ready, nil
}

// Rollout runs the seed-to-horizon rollout protocol for a
// location: it reads the last 12 past months as the seed, the nearest
// projection series for the horizon, and autoregressively emits one forecast
// row per available projection month.
func (svc *Service) Rollout(ctx context.Context, locationID uuid.UUID, horizonMonths int) ([]climate.PastClimateRecord, error) {
	seed, err := svc.Climate.LastNMonths(ctx, locationID, climate.SequenceLength)
	if err != nil {
		return nil, fmt.Errorf("fetching rollout seed: %w", err)
	}

	loc, err := svc.Locations.GetLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("resolving location: %w", err)
	}

	lon, lat, err := svc.Future.NearestFutureCoordinate(ctx, loc.Longitude, loc.Latitude)
	if err != nil {
		return nil, fmt.Errorf("finding nearest projection coordinate: %w", err)
	}

	seedEnd := seed[len(seed)-1].YearMonth
	projStart := climate.NextMonth(seedEnd)
	projEnd := climate.AddMonths(projStart, horizonMonths-1)

	projection, err := svc.Future.RangeFuture(ctx, lon, lat, projStart, projEnd)
	if err != nil {
		return nil, fmt.Errorf("fetching projection series: %w", err)
	}
	if projection[0].YearMonth != projStart {
		return nil, fmt.Errorf("projection starts at %s, expected %s: %w", projection[0].YearMonth, projStart, zappaierr.ErrNonSequentialSeed)
	}

	t := targetVariables()
	if len(t) == 0 {
		return projection, nil
	}

	artifact, err := svc.Models.GetClimateGenerativeModel(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("loading climate generative model: %w", err)
	}
	net, err := sequencemodel.Unmarshal(artifact.Network)
	if err != nil {
		return nil, fmt.Errorf("loading network: %w", err)
	}
	featureScaler, err := UnmarshalStandardScaler(artifact.FeatureScaler)
	if err != nil {
		return nil, fmt.Errorf("loading feature scaler: %w", err)
	}
	targetScaler, err := UnmarshalStandardScaler(artifact.TargetScaler)
	if err != nil {
		return nil, fmt.Errorf("loading target scaler: %w", err)
	}

	window := make([][]float64, climate.SequenceLength)
	for i, r := range seed {
		window[i] = featureRow(t, r)
	}

	out := make([]climate.PastClimateRecord, 0, len(projection))
	for _, p := range projection {
		scaledWindow := featureScaler.TransformAll(window)
		scaledTau, err := net.Predict(scaledWindow)
		if err != nil {
			return nil, fmt.Errorf("rolling out forecast at %s: %w", p.YearMonth, err)
		}
		tau := targetScaler.InverseTransform(scaledTau)

		merged := mergeRolloutRow(t, tau, p)
		out = append(out, merged)

		nextRow := toFeatureRow(t, merged)
		window = append(window[1:], nextRow)
	}

	return out, nil
}
