package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/storage"
)

func newShowCmd(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show URL|ID",
		Short: "Show one event from the last saved results",
		Long: `Looks an event up in the JSON output of the last scrape by its page URL
or by its ID (the SHA-1 of the URL, as used in calendar exports) and prints
its releases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, &scrapeFlags{output: output})
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.Output.Path)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			rec, err := store.GetEvent(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("event %s not found in %s", args[0], store.Path())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if OutputFormat(g.format) == FormatJSON {
				return writeJSON(out, rec)
			}
			writeEvent(out, rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "JSON results file (overrides config)")
	return cmd
}

// writeEvent prints one record with all of its releases.
func writeEvent(w io.Writer, rec *event.Record) {
	rows := [][]string{
		{"Event:", orDash(rec.EventName)},
		{"Venue:", orDash(rec.Venue)},
		{"Date:", orDash(rec.Date)},
		{"Time:", orDash(rec.Time)},
	}
	if rec.Genres != "" {
		rows = append(rows, []string{"Genres:", rec.Genres})
	}
	rows = append(rows,
		[]string{"URL:", rec.URL},
		[]string{"ID:", rec.ID()},
		[]string{"On sale:", orDash(rec.CurrentRelease)},
	)
	widths := columnWidths(rows)
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}

	if len(rec.Releases) == 0 {
		fmt.Fprintln(w, "\nNo releases.")
		return
	}
	fmt.Fprintf(w, "\nReleases (%d):\n", len(rec.Releases))
	writeReleases(w, rec.Releases, "  ")
}
