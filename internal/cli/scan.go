package cli

import (
	"github.com/spf13/cobra"

	"github.com/jzOcb/kalshi-trading/internal/app"
)

var scanPersist bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			Persist: scanPersist,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanPersist, "persist", false, "Also record findings in the database")
}
