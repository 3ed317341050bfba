package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jzOcb/kalshi-trading/internal/app"
)

var (
	classifyTicker string
	classifyText   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the verifiability of a market's rules text",
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyTicker == "" && classifyText == "" {
			return errors.New("either --ticker or --text is required")
		}

		opts := app.ClassifyOptions{
			Ticker: classifyTicker,
			Text:   classifyText,
		}
		return getApp().Classify(cmd.Context(), opts)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTicker, "ticker", "", "Market ticker to fetch and classify")
	classifyCmd.Flags().StringVar(&classifyText, "text", "", "Literal rules text to classify")
}
