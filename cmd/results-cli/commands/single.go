package commands

import (
	"fmt"
	"os"
	"vturesults-backend/lib/resultstore"
	"vturesults-backend/lib/scrapers/vturesults"
	"vturesults-backend/services/results"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(singleCmd)
}

var singleCmd = &cobra.Command{
	Use:   "single <lookup-id>",
	Short: "Fetches the result for one lookup id.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, config, cleanup := setup(cmd.Context())
		defer cleanup()

		record, err := service.FetchSingle(cmd.Context(), results.SingleRequest{
			SitePath: config.SitePath,
			LookupID: args[0],
		})
		records := []resultstore.Record{record}
		renderRecords(records)
		exportCsv(records)

		if err != nil {
			failure := vturesults.ClassifyFailure(err)
			fmt.Fprintf(os.Stderr, "%s: %s\n", failure.Kind, failure.Message)
			os.Exit(1)
		}
	},
}
