package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
	"vturesults-backend/lib/htmlutil"
	"vturesults-backend/lib/resultstore"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderRecords(records []resultstore.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Lookup ID", "Outcome", "Attempts", "Result"})

	for _, r := range records {
		t.AppendRow(table.Row{
			r.LookupID,
			r.Outcome,
			r.Attempts,
			htmlutil.Snippet(r.Body, 60),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// exportCsv writes the records out when --csv was passed.
func exportCsv(records []resultstore.Record) {
	if csvPath == "" {
		return
	}

	f, err := os.Create(csvPath)
	if err != nil {
		fatal("create csv file", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"site_path", "lookup_id", "outcome", "attempts", "fetched_at", "body"}); err != nil {
		fatal("write csv header", err)
	}
	for _, r := range records {
		err := w.Write([]string{
			r.SitePath,
			r.LookupID,
			r.Outcome,
			strconv.Itoa(r.Attempts),
			r.FetchedAt.Format(time.RFC3339),
			r.Body,
		})
		if err != nil {
			fatal("write csv row", err)
		}
	}

	fmt.Fprintf(os.Stderr, "wrote %d records to %s\n", len(records), csvPath)
}
