package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/v-kabanov/excelei"
)

func init() {
	readCmd.Flags().String("sheet", "", "sheet to read (default: first sheet)")
	readCmd.Flags().Int("header-row", 1, "1-based row holding the column captions")
	readCmd.Flags().String("table", "", "read a named table object instead of a header row")
	readCmd.Flags().Int("blank-threshold", excelei.DefaultBlankThreshold, "populated cells a row may have and still count as blank")
	readCmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	readCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	viper.BindPFlag("read.format", readCmd.Flags().Lookup("format"))
	viper.BindPFlag("read.blank-threshold", readCmd.Flags().Lookup("blank-threshold"))
	rootCmd.AddCommand(readCmd)
}

var readCmd = &cobra.Command{
	Use:   "read [input.xlsx]",
	Short: "Print the rows of a sheet table as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func runRead(cmd *cobra.Command, args []string) (err error) {
	f, err := excelize.OpenFile(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	sheet, _ := cmd.Flags().GetString("sheet")
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	opts := []excelei.ReadOption{excelei.WithBlankThreshold(viper.GetInt("read.blank-threshold"))}

	var table *excelei.TableReader
	if name, _ := cmd.Flags().GetString("table"); name != "" {
		table, err = excelei.ReadExcelTable(f, sheet, name, opts...)
	} else {
		headerRow, _ := cmd.Flags().GetInt("header-row")
		table, err = excelei.ReadContiguousExcelTableWithHeader(f, sheet, headerRow, opts...)
	}
	if err != nil {
		return err
	}
	records, err := excelei.ToMaps(table.Rows)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
		out = file
	}
	return writeRecords(out, viper.GetString("read.format"), records)
}

func writeRecords(w io.Writer, format string, records []map[string]any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("invalid format: %s (must be json or yaml)", format)
}
