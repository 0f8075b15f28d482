package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zappai-go/zappai/climate"
)

var ingestFutureFile string

// futureClimateCSVColumns is longitude/latitude/year/month followed by the 8
// CMIP-overlap variables; projection sources carry no ERA-exclusive columns.
var futureClimateCSVColumns = append([]string{"longitude", "latitude", "year", "month"}, climate.CMIPOverlapVariables...)

var ingestFutureCmd = &cobra.Command{
	Use:   "ingest-future",
	Short: "Import a future (projection) climate CSV chunk, grouped by raw coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(ingestFutureFile)
		if err != nil {
			return fmt.Errorf("opening %s: %w", ingestFutureFile, err)
		}
		defer f.Close()

		cr := csv.NewReader(f)
		records, err := cr.ReadAll()
		if err != nil {
			return fmt.Errorf("reading future climate csv: %w", err)
		}
		if len(records) <= 1 {
			fmt.Println("imported 0 future climate rows")
			return nil
		}

		type coord struct{ longitude, latitude float64 }
		byCoord := map[coord]map[climate.YearMonth]map[string]float64{}

		for i, rec := range records[1:] {
			if len(rec) != len(futureClimateCSVColumns) {
				return fmt.Errorf("future climate csv row %d: expected %d columns, got %d", i, len(futureClimateCSVColumns), len(rec))
			}
			longitude, err := strconv.ParseFloat(rec[0], 64)
			if err != nil {
				return fmt.Errorf("future climate csv row %d: %w", i, err)
			}
			latitude, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return fmt.Errorf("future climate csv row %d: %w", i, err)
			}
			year, err := strconv.Atoi(rec[2])
			if err != nil {
				return fmt.Errorf("future climate csv row %d: %w", i, err)
			}
			month, err := strconv.Atoi(rec[3])
			if err != nil {
				return fmt.Errorf("future climate csv row %d: %w", i, err)
			}
			vars := map[string]float64{}
			for j, name := range climate.CMIPOverlapVariables {
				v, err := strconv.ParseFloat(rec[4+j], 64)
				if err != nil {
					return fmt.Errorf("future climate csv row %d column %s: %w", i, name, err)
				}
				vars[name] = v
			}
			c := coord{longitude: longitude, latitude: latitude}
			if byCoord[c] == nil {
				byCoord[c] = map[climate.YearMonth]map[string]float64{}
			}
			byCoord[c][climate.YearMonth{Year: year, Month: month}] = vars
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		ctx := context.Background()
		total := 0
		for c, chunk := range byCoord {
			if err := s.SaveFutureClimateChunk(ctx, c.longitude, c.latitude, chunk); err != nil {
				return fmt.Errorf("importing future climate data for (%g, %g): %w", c.longitude, c.latitude, err)
			}
			total += len(chunk)
		}
		fmt.Printf("imported %d future climate rows across %d coordinates\n", total, len(byCoord))
		return nil
	},
}

func init() {
	ingestFutureCmd.Flags().StringVar(&ingestFutureFile, "file", "", "path to a future-climate CSV file (longitude, latitude, year, month, then the CMIP-overlap variables)")
	ingestFutureCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestFutureCmd)
}
