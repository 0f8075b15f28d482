package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/climate/generator"
	"github.com/zappai-go/zappai/climate/generator/sequencemodel"
	"github.com/zappai-go/zappai/config"
	"github.com/zappai-go/zappai/cropyield"
	"github.com/zappai-go/zappai/cropyield/randomforest"
	"github.com/zappai-go/zappai/optimizer"
	"github.com/zappai-go/zappai/optimizer/genetic"
)

var (
	predictLocation string
	predictCrop     string
	predictSeed     int64
	predictPlotOut  string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast climate, then search for the top planting windows for a crop at a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := uuid.Parse(predictLocation)
		if err != nil {
			return fmt.Errorf("parsing --location: %w", err)
		}
		cropID, err := uuid.Parse(predictCrop)
		if err != nil {
			return fmt.Errorf("parsing --crop: %w", err)
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		cfg := config.Load()
		generatorSvc := generator.NewService(s, s, s, s, &sequencemodel.Options{
			HiddenUnits:   cfg.GeneratorHiddenUnits,
			NumLayers:     cfg.GeneratorNumLayers,
			DropoutRate:   cfg.GeneratorDropoutRate,
			Epochs:        cfg.GeneratorEpochs,
			LearningRate:  cfg.GeneratorLearningRate,
			Seed:          cfg.GeneratorSeed,
			DivergenceTol: 3,
		})
		cropYieldSvc := cropyield.NewService(s, s, s, s, &cropyield.Options{
			Forest: &randomforest.Options{
				NumTrees:        cfg.ForestNumTrees,
				MinSamplesSplit: cfg.ForestMinSamplesSplit,
				MaxDepth:        cfg.ForestMaxDepth,
				Seed:            cfg.ForestSeed,
			},
			ZScoreThreshold: cfg.YieldZScoreThreshold,
			TestFraction:    cfg.YieldTestFraction,
			ShuffleSeed:     cfg.YieldShuffleSeed,
		})
		optimizerSvc := optimizer.NewService(generatorSvc, s, cropYieldSvc, &optimizer.Options{
			HorizonMonths: cfg.OptimizerHorizonMonths,
			TopK:          cfg.OptimizerTopK,
			Genetic: &genetic.Options{
				ChromosomeLength: 10,
				PopulationSize:   cfg.OptimizerPopulationSize,
				MutationRate:     cfg.OptimizerMutationRate,
				CrossoverRate:    cfg.OptimizerCrossoverRate,
				Generations:      cfg.OptimizerGenerations,
			},
		})

		result, err := optimizerSvc.Optimize(context.Background(), locationID, cropID, predictSeed)
		if err != nil {
			return fmt.Errorf("searching planting windows: %w", err)
		}

		fmt.Printf("forecast: %d months\n", len(result.Forecast))
		for i, w := range result.Windows {
			fmt.Printf("%d. sow %s, harvest %s, yield %.4f\n", i+1, w.Sowing, w.Harvest, w.Yield)
		}

		if predictPlotOut != "" {
			historical, err := s.LastNMonths(context.Background(), locationID, len(result.Forecast))
			if err != nil {
				return fmt.Errorf("loading historical months for plot: %w", err)
			}
			f, err := os.Create(predictPlotOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", predictPlotOut, err)
			}
			defer f.Close()
			if err := generator.PlotRollout(f, historical, result.Forecast, climate.GeneratorFeatures()); err != nil {
				return fmt.Errorf("rendering rollout plot: %w", err)
			}
			fmt.Printf("wrote rollout plot to %s\n", predictPlotOut)
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictLocation, "location", "", "location id to forecast and search")
	predictCmd.Flags().StringVar(&predictCrop, "crop", "", "crop id to search planting windows for")
	predictCmd.Flags().Int64Var(&predictSeed, "seed", 42, "random seed for the genetic search")
	predictCmd.Flags().StringVar(&predictPlotOut, "plot", "", "write an html rollout chart to this path (disabled if empty)")
	predictCmd.MarkFlagRequired("location")
	predictCmd.MarkFlagRequired("crop")
	rootCmd.AddCommand(predictCmd)
}
