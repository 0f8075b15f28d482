package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/climate/generator"
	"github.com/zappai-go/zappai/climate/generator/sequencemodel"
	"github.com/zappai-go/zappai/config"
)

var (
	ingestPastFile  string
	ingestPastTrain bool
)

var ingestPastCmd = &cobra.Command{
	Use:   "ingest-past",
	Short: "Import a past climate CSV chunk and optionally train the climate generator for every stored location",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(ingestPastFile)
		if err != nil {
			return fmt.Errorf("opening %s: %w", ingestPastFile, err)
		}
		defer f.Close()

		s, err := openStore()
		if err != nil {
			return err
		}

		cfg := config.Load()
		ctx := context.Background()
		count, err := s.ImportPastClimateCSV(ctx, f)
		if err != nil {
			return fmt.Errorf("importing past climate csv: %w", err)
		}
		fmt.Printf("imported %d past climate rows\n", count)

		if !ingestPastTrain {
			return nil
		}

		locations, err := s.ListLocations(ctx)
		if err != nil {
			return fmt.Errorf("listing locations: %w", err)
		}
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

		for _, loc := range locations {
			result, err := svc.Train(ctx, loc.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training location %s: %v\n", loc.ID, err)
				continue
			}
			fmt.Printf("trained climate generator for %s: skipped=%v rmse=%.4f\n", loc.ID, result.Skipped, result.RMSE)
		}
		return nil
	},
}

func init() {
	ingestPastCmd.Flags().StringVar(&ingestPastFile, "file", "", "path to a past-climate CSV file")
	ingestPastCmd.Flags().BoolVar(&ingestPastTrain, "train", true, "train the climate generator for every stored location, not only those in the import")
	ingestPastCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestPastCmd)
}
