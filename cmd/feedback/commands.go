package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dennisdiepolder/monti/feedback/internal/ingestion"
	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/projector"
	"github.com/dennisdiepolder/monti/feedback/internal/trend"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/spf13/cobra"
)

func importCmd(a *app) *cobra.Command {
	var file, month, sheet, roster string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load one month of metrics from a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := types.ParseMonth(month)
			if err != nil {
				return err
			}
			if roster == "" {
				roster = a.cfg.RosterPath
			}
			r, err := ingestion.LoadRoster(roster)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open workbook: %w", err)
			}
			defer f.Close()

			wb, err := ingestion.OpenWorkbook(f, sheet)
			if err != nil {
				return err
			}
			defer wb.Close()

			writer := ingestion.NewMonthWriter(a.repo, a.cfg.WriteRetries, a.logger)
			result, err := ingestion.NewImporter(r, writer, a.logger).Import(cmd.Context(), wb, m)
			if result != nil {
				printImport(cmd.OutOrStdout(), result)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the .xlsx workbook")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month the sheet covers (Outubro, Novembro, Dezembro)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().StringVar(&roster, "roster", "", "roster JSON file (default: ROSTER_PATH)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func printImport(w io.Writer, result *ingestion.ImportResult) {
	fmt.Fprintf(w, "import %s (%s): %d rows, %d written, %d skipped, %d cells nulled\n",
		result.ImportID, result.Month, result.RowsRead, result.Written, len(result.Skipped), result.NulledCells)
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  row %d %q: %s\n", s.Row, s.Name, s.Outcome)
	}
}

func showCmd(a *app) *cobra.Command {
	var email, month string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the flattened metrics of an operator for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rec, err := a.loadRecord(cmd.Context(), out, email)
			if err != nil || rec == nil {
				return err
			}

			view := projector.ProjectView(rec, m)
			if view == nil {
				if m == "" {
					fmt.Fprintf(out, "%s has no metrics\n", rec.Email)
				} else {
					fmt.Fprintf(out, "%s has no metrics for %s\n", rec.Email, m)
				}
				return nil
			}
			return writeJSON(out, view)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "operator email")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month to show (default: latest)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func trendCmd(a *app) *cobra.Command {
	var email, month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare a month against the average of the months before it",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rec, err := a.loadRecord(cmd.Context(), out, email)
			if err != nil || rec == nil {
				return err
			}
			if m == "" {
				_, m = projector.Project(rec, "")
			}

			policy := trend.DefaultPolicy()
			policy.DeadBandPct = a.cfg.TrendDeadBandPct
			report := trend.NewComparator(policy).Compare(rec, m)
			metrics.Get().RecordTrend(report != nil)

			if report == nil {
				fmt.Fprintf(out, "not enough history to compare %s\n", rec.Email)
				return nil
			}
			if asJSON {
				return writeJSON(out, report)
			}
			printTrend(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "operator email")
	cmd.Flags().StringVarP(&month, "month", "m", "", "reference month (default: latest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func printTrend(w io.Writer, report *trend.Report) {
	fmt.Fprintf(w, "%s: %s vs %v\n\n", report.Email, report.ReferenceMonth, report.BaselineMonths)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCURRENT\tAVERAGE\tCHANGE\tSTATUS")
	for _, r := range report.Results() {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%+.2f%%\t%s\n", r.Label, r.Current, r.BaselineAverage, r.PercentChange, r.Status)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n", report.SummaryText)
}

func operatorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List stored operators and the months they have",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tMONTHS")
			for _, rec := range records {
				var months []types.Month
				for _, m := range types.Months {
					if rec.Months[m] != nil {
						months = append(months, m)
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%v\n", rec.Email, rec.DisplayName, months)
			}
			return tw.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
