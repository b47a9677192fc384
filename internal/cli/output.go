package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/danhajduk/synthia/internal/store"
)

// printJSON encodes v as indented JSON to stdout.
func printJSON(v any) error {
	return fprintJSON(os.Stdout, v)
}

// fprintJSON encodes v as indented JSON to w.
func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// fprintSummary renders the dashboard summary as an aligned table.
func fprintSummary(w io.Writer, summary *store.Summary) error {
	fmt.Fprintf(w, "Unread: %d  Last fetch: %s  Cutoff: %s  Status: %s\n",
		summary.UnreadTotal, summary.LastFetch, summary.CutoffDate, summary.FetchStatus)
	if len(summary.Senders) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SENDER\tUNREAD")
	for _, sc := range summary.Senders {
		fmt.Fprintf(tw, "%s\t%d\n", sc.Sender, sc.Count)
	}
	return tw.Flush()
}
