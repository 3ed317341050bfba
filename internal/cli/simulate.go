package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jzOcb/kalshi-trading/internal/app"
)

var (
	simulateSeries    string
	simulateForecast  float64
	simulateThreshold float64
	simulateDirection string
	simulatePrice     int
	simulateSide      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the probability model and edge calculator on a literal scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSeries == "" {
			return errors.New("--series is required")
		}
		if simulatePrice <= 0 || simulatePrice >= 100 {
			return errors.New("--price must be between 1 and 99 cents")
		}
		if simulateDirection != "above" && simulateDirection != "below" {
			return errors.New("--direction must be above or below")
		}
		if simulateSide != "yes" && simulateSide != "no" {
			return errors.New("--side must be yes or no")
		}

		opts := app.SimulateOptions{
			Series:     simulateSeries,
			Forecast:   simulateForecast,
			Threshold:  simulateThreshold,
			Direction:  simulateDirection,
			PriceCents: simulatePrice,
			Side:       simulateSide,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSeries, "series", "", "Series key (GDP, CPI, high_temp, ...)")
	simulateCmd.Flags().Float64Var(&simulateForecast, "forecast", 0, "Point forecast value")
	simulateCmd.Flags().Float64Var(&simulateThreshold, "threshold", 0, "Market settlement threshold")
	simulateCmd.Flags().StringVar(&simulateDirection, "direction", "above", "Payout direction: above or below")
	simulateCmd.Flags().IntVar(&simulatePrice, "price", 0, "YES price in cents")
	simulateCmd.Flags().StringVar(&simulateSide, "side", "yes", "Side to evaluate: yes or no")
}
