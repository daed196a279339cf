package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/danisans16/scripts-fomo/internal/config"
	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/logger"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

type extractFlags struct {
	venue     string
	url       string
	pricing   string
	tolerance float64
}

// ExtractResult is the output of the extract command.
type ExtractResult struct {
	File       string        `json:"file"`
	Source     tier.Source   `json:"source"`
	Candidates int           `json:"candidates"`
	Matched    int           `json:"matched"`
	Record     *event.Record `json:"record"`
}

func newExtractCmd(g *globalFlags) *cobra.Command {
	f := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract ticket releases from a saved event page",
		Long: `Runs the release extraction on an HTML file saved from an event page
(use - for stdin). Useful to check how a changed page layout is read.
A pricing object captured from the page can be supplied with --pricing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, nil)
			if err != nil {
				return err
			}
			if f.tolerance > 0 {
				cfg.Matching.PriceTolerance = f.tolerance
			}

			result, err := extractFile(args[0], cmd.InOrStdin(), cfg, f)
			if err != nil {
				return err
			}

			if OutputFormat(g.format) == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			writeExtraction(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.venue, "venue", "", "Venue slug the page belongs to")
	cmd.Flags().StringVar(&f.url, "url", "", "Event URL to record")
	cmd.Flags().StringVar(&f.pricing, "pricing", "", "JSON file holding the page's pricing object")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Price matching tolerance in euros (overrides config)")
	return cmd
}

func extractFile(path string, stdin io.Reader, cfg *config.Config, f *extractFlags) (*ExtractResult, error) {
	var r io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening page: %w", err)
		}
		defer file.Close()
		r = file
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var global json.RawMessage
	if f.pricing != "" {
		data, err := os.ReadFile(f.pricing)
		if err != nil {
			return nil, fmt.Errorf("reading pricing object: %w", err)
		}
		global = data
	}

	m := tier.NewMatcher(cfg.Origin, cfg.Matching.PriceTolerance)
	ext := tier.Extract(doc, global, m)
	if ext.Source == tier.SourceNone {
		logger.Warn("No ticket data found", logger.Fields{"file": path})
	}

	rec := event.Assemble(event.Meta{Venue: f.venue, URL: f.url}, ext, cfg.Directory())
	return &ExtractResult{
		File:       path,
		Source:     ext.Source,
		Candidates: ext.Candidates,
		Matched:    ext.Matched(),
		Record:     rec,
	}, nil
}

func writeExtraction(w io.Writer, res *ExtractResult) {
	rec := res.Record
	fmt.Fprintf(w, "Source: %s (%d releases, %d linked, %d candidates)\n",
		res.Source, len(rec.Releases), res.Matched, res.Candidates)
	fmt.Fprintf(w, "Current: %s\n", orDash(rec.CurrentRelease))
	if len(rec.Releases) == 0 {
		fmt.Fprintln(w, "No releases found.")
		return
	}
	writeReleases(w, rec.Releases, "  ")
}
