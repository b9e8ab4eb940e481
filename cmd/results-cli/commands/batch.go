package commands

import (
	"fmt"
	"os"
	"vturesults-backend/services/results"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rangeCmd)
}

var rangeCmd = &cobra.Command{
	Use:   "range <start-lookup-id> <end-lookup-id>",
	Short: "Fetches results for every lookup id in an inclusive range.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service, config, cleanup := setup(cmd.Context())
		defer cleanup()

		records, err := service.FetchRange(cmd.Context(), results.RangeRequest{
			SitePath:      config.SitePath,
			StartLookupID: args[0],
			EndLookupID:   args[1],
		})
		renderRecords(records)
		exportCsv(records)

		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	},
}
