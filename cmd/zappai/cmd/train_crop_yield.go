package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/config"
	"github.com/zappai-go/zappai/cropyield"
	"github.com/zappai-go/zappai/cropyield/randomforest"
)

var (
	trainYieldLocation string
	trainYieldCrop     string
	trainYieldProfile  bool
)

var trainCropYieldCmd = &cobra.Command{
	Use:   "train-crop-yield",
	Short: "Train the crop-yield regressor for one crop at one location",
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := uuid.Parse(trainYieldLocation)
		if err != nil {
			return fmt.Errorf("parsing --location: %w", err)
		}
		cropID, err := uuid.Parse(trainYieldCrop)
		if err != nil {
			return fmt.Errorf("parsing --crop: %w", err)
		}

		if trainYieldProfile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		cfg := config.Load()
		trainOpts := &cropyield.Options{
			Forest: &randomforest.Options{
				NumTrees:        cfg.ForestNumTrees,
				MinSamplesSplit: cfg.ForestMinSamplesSplit,
				MaxDepth:        cfg.ForestMaxDepth,
				Seed:            cfg.ForestSeed,
			},
			ZScoreThreshold: cfg.YieldZScoreThreshold,
			TestFraction:    cfg.YieldTestFraction,
			ShuffleSeed:     cfg.YieldShuffleSeed,
		}
		svc := cropyield.NewService(s, s, s, s, trainOpts)

		result, err := svc.Train(context.Background(), locationID, cropID)
		if err != nil {
			return fmt.Errorf("training crop yield regressor: %w", err)
		}
		fmt.Printf("mse=%.4f r2=%.4f train_rows=%d test_rows=%d excluded_rows=%d\n",
			result.MSE, result.R2, result.TrainRows, result.TestRows, result.ExcludedRows)
		return nil
	},
}

func init() {
	trainCropYieldCmd.Flags().StringVar(&trainYieldLocation, "location", "", "location id to train for")
	trainCropYieldCmd.Flags().StringVar(&trainYieldCrop, "crop", "", "crop id to train")
	trainCropYieldCmd.Flags().BoolVar(&trainYieldProfile, "profile", false, "write a CPU profile for the training run")
	trainCropYieldCmd.MarkFlagRequired("location")
	trainCropYieldCmd.MarkFlagRequired("crop")
	rootCmd.AddCommand(trainCropYieldCmd)
}
