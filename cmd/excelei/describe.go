package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/v-kabanov/excelei"
)

func init() {
	describeCmd.Flags().String("sheet", "", "sheet to describe (default: first sheet)")
	describeCmd.Flags().Int("header-row", 1, "1-based row holding the column captions")
	rootCmd.AddCommand(describeCmd)
}

var describeCmd = &cobra.Command{
	Use:   "describe [input.xlsx]",
	Short: "Show the columns and cell types of a sheet table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := excelize.OpenFile(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		sheet, _ := cmd.Flags().GetString("sheet")
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
		headerRow, _ := cmd.Flags().GetInt("header-row")
		out, err := excelei.DescribeSheet(f, sheet, headerRow)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
