package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danisans16/scripts-fomo/internal/storage"
)

func newRunsCmd(g *globalFlags) *cobra.Command {
	var (
		db    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "List past runs stored in the sqlite database",
		Long: `Without arguments lists the most recent runs. With a run id prints the
events recorded by that run, in the same format as scrape.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, &scrapeFlags{db: db})
			if err != nil {
				return err
			}
			if cfg.Output.DBPath == "" {
				return fmt.Errorf("no database configured: pass --db or set output.db_path")
			}
			if limit <= 0 {
				return fmt.Errorf("invalid --limit: %d", limit)
			}

			sink, err := storage.NewSQLite(cfg.Output.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer sink.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := sink.Runs(ctx, limit)
				if err != nil {
					return err
				}
				if OutputFormat(g.format) == FormatJSON {
					if runs == nil {
						runs = []storage.RunSummary{}
					}
					return writeJSON(out, runs)
				}
				writeRuns(out, runs)
				return nil
			}

			records, err := sink.Records(ctx, args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("run %s not found", args[0])
			}
			order, _ := parseSortOrder(g.sortBy)
			sortRecords(records, order, time.Now())
			return WriteOutput(out, &OutputResult{
				RunID:      args[0],
				Events:     records,
				EventCount: len(records),
			}, OutputFormat(g.format), g.verbose)
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "sqlite database (overrides config)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to list")
	return cmd
}

func writeRuns(w io.Writer, runs []storage.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	rows := [][]string{{"RUN", "STARTED", "DURATION", "EVENTS", "FAILED", "EMPTY VENUES"}}
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			strconv.Itoa(r.Events),
			strconv.Itoa(r.Failed),
			orDash(strings.Join(r.EmptyVenues, ", ")),
		})
	}
	widths := columnWidths(rows)
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
}
