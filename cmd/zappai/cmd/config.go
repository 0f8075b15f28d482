package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		cfg.DatabaseDSN = dbDSN
		cfg.LogLevel = logLevel

		fmt.Printf("database_dsn: %s\n", cfg.DatabaseDSN)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("generator: hidden_units=%d num_layers=%d dropout=%.2f epochs=%d lr=%g seed=%d\n",
			cfg.GeneratorHiddenUnits, cfg.GeneratorNumLayers, cfg.GeneratorDropoutRate, cfg.GeneratorEpochs, cfg.GeneratorLearningRate, cfg.GeneratorSeed)
		fmt.Printf("forest: num_trees=%d min_samples_split=%d max_depth=%d seed=%d\n",
			cfg.ForestNumTrees, cfg.ForestMinSamplesSplit, cfg.ForestMaxDepth, cfg.ForestSeed)
		fmt.Printf("yield: zscore_threshold=%.2f test_fraction=%.2f shuffle_seed=%d\n",
			cfg.YieldZScoreThreshold, cfg.YieldTestFraction, cfg.YieldShuffleSeed)
		fmt.Printf("optimizer: horizon_months=%d top_k=%d population=%d generations=%d mutation_rate=%.3f crossover_rate=%.2f\n",
			cfg.OptimizerHorizonMonths, cfg.OptimizerTopK, cfg.OptimizerPopulationSize, cfg.OptimizerGenerations, cfg.OptimizerMutationRate, cfg.OptimizerCrossoverRate)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
