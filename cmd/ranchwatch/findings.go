package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/ranchwatch/internal/availability"
	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/report"
	"github.com/FranksOps/ranchwatch/internal/storage"
)

func (a *app) findingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findings",
		Short: "Inspect recorded availability findings",
	}
	addStorageFlags(cmd.PersistentFlags())
	cmd.AddCommand(a.findingsListCmd())
	cmd.AddCommand(a.findingsReportCmd())
	return cmd
}

func (a *app) findingsListCmd() *cobra.Command {
	var (
		date, format  string
		since         time.Duration
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List findings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				if _, err := time.Parse(availability.DateLayout, date); err != nil {
					return &config.Error{Key: "date", Problem: fmt.Sprintf("invalid date %q", date), Hint: "dates are MM/DD/YYYY"}
				}
			}
			flt := storage.Filter{Date: date, Limit: limit, Offset: offset}
			if since > 0 {
				t := time.Now().Add(-since)
				flt.Since = &t
			}

			findings, err := a.queryFindings(cmd, flt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(findings)
			case "text":
				return writeFindings(out, findings)
			}
			return &config.Error{Key: "format", Problem: fmt.Sprintf("unknown format %q", format), Hint: "use text or json"}
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&date, "date", "", "only this check-in date (MM/DD/YYYY)")
	fs.DurationVar(&since, "since", 0, "only findings recorded within this long ago, e.g. 24h")
	fs.IntVar(&limit, "limit", 0, "maximum findings to show, 0 for all")
	fs.IntVar(&offset, "offset", 0, "skip this many findings")
	fs.StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func (a *app) findingsReportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise all findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			findings, err := a.queryFindings(cmd, storage.Filter{})
			if err != nil {
				return err
			}

			summary := report.GenerateSummary(findings)
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return report.WriteText(out, summary)
			case "json":
				return report.WriteJSON(out, summary)
			case "html":
				return report.WriteHTML(out, summary)
			}
			return &config.Error{Key: "format", Problem: fmt.Sprintf("unknown format %q", format), Hint: "use text, json or html"}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or html")
	return cmd
}

func (a *app) queryFindings(cmd *cobra.Command, flt storage.Filter) ([]*storage.Finding, error) {
	sc, err := config.LoadStorage(a.v)
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(cmd.Context(), sc)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	findings, err := backend.Query(cmd.Context(), flt)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	return findings, nil
}

func writeFindings(w io.Writer, findings []*storage.Finding) error {
	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, "No findings recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNIGHTS\tFOUND AT")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Date, f.Nights, f.FoundAt.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
