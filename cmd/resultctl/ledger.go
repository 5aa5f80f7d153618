package main

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

func (cli *commandLine) ledgerCmd() *cobra.Command {
	var scope models.ResultScope
	var mode string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the mark or grade ledger of a school, year and grade",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode = strings.ToLower(strings.TrimSpace(mode))
			table, err := cli.ledgers.Table(cmd.Context(), scope, models.LedgerMode(mode))
			if err != nil {
				return err
			}

			out := tablewriter.NewTable(cmd.OutOrStdout())
			out.Header(cells(table.Headers)...)
			for _, row := range table.Rows {
				if err := out.Append(cells(row)...); err != nil {
					return err
				}
			}
			return out.Render()
		},
	}
	cmd.Flags().StringVar(&scope.SchoolID, "school", "", "school id")
	cmd.Flags().StringVar(&scope.AcademicYear, "year", "", "academic year")
	cmd.Flags().IntVar(&scope.Grade, "grade", 0, "grade level (11 or 12)")
	cmd.Flags().StringVar(&mode, "mode", string(models.LedgerModeGrades), "marks or grades")
	_ = cmd.MarkFlagRequired("school")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
