package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	purgeOlderThan time.Duration
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete archived alerts older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeOlderThan <= 0 {
			return fmt.Errorf("--older-than must be greater than zero")
		}

		return getApp().Purge(cmd.Context(), purgeOlderThan)
	},
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 90*24*time.Hour, "Retention window; alerts created earlier are deleted")
}
