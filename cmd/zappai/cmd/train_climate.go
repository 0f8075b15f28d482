package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/climate/generator"
	"github.com/zappai-go/zappai/climate/generator/sequencemodel"
	"github.com/zappai-go/zappai/config"
)

var (
	trainClimateLocation string
	trainClimateProfile  bool
)

var trainClimateCmd = &cobra.Command{
	Use:   "train-climate",
	Short: "Train the climate generator for one location",
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := uuid.Parse(trainClimateLocation)
		if err != nil {
			return fmt.Errorf("parsing --location: %w", err)
		}

		if trainClimateProfile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		cfg := config.Load()
		trainOpts := &sequencemodel.Options{
			HiddenUnits:   cfg.GeneratorHiddenUnits,
			NumLayers:     cfg.GeneratorNumLayers,
			DropoutRate:   cfg.GeneratorDropoutRate,
			Epochs:        cfg.GeneratorEpochs,
			LearningRate:  cfg.GeneratorLearningRate,
			Seed:          cfg.GeneratorSeed,
			DivergenceTol: 3,
		}
		svc := generator.NewService(s, s, s, s, trainOpts)

		result, err := svc.Train(context.Background(), locationID)
		if err != nil {
			return fmt.Errorf("training climate generator: %w", err)
		}
		fmt.Printf("skipped=%v rmse=%.4f\n", result.Skipped, result.RMSE)
		return nil
	},
}

func init() {
	trainClimateCmd.Flags().StringVar(&trainClimateLocation, "location", "", "location id to train")
	trainClimateCmd.Flags().BoolVar(&trainClimateProfile, "profile", false, "write a CPU profile for the training run")
	trainClimateCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(trainClimateCmd)
}
