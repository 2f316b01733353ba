package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/frahmantamala/assignment-tracker/internal/report"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOut    string
	reportParams report.Params
)

var reportCmd = &cobra.Command{
	Use:       "report <history|placements|unassigned|headcount|summary>",
	Short:     "Run a report and write it as JSON, CSV or XLSX",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"history", "placements", "unassigned", "headcount", "summary"},
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "json", "output format: json, csv or xlsx")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (stdout when empty)")
	reportCmd.Flags().StringVar(&reportParams.From, "from", "", "first assignment date, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportParams.To, "to", "", "last assignment date, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportParams.Region, "region", "", "only placements within this region")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	kind, err := report.ParseKind(args[0])
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer storage.Close(deps.DB)

	res, err := deps.Reports.Generate(ctx, kind, reportParams)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", reportOut, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case report.FormatCSV:
		err = report.WriteCSV(w, res.Table)
	case report.FormatXLSX:
		err = report.WriteXLSX(w, res.Table)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if reportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s report to %s\n", kind, reportOut)
	}
	return nil
}
