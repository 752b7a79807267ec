package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/v-kabanov/excelei"
)

func init() {
	validateCmd.Flags().String("layout", "", "YAML layout to check")
	validateCmd.MarkFlagRequired("layout")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate --layout layout.yaml",
	Short: "Check an export layout without touching a database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("layout")
		layout, err := loadLayout(path)
		if err != nil {
			return err
		}
		cfg, err := layout.Configure(nil)
		if err != nil {
			return err
		}
		issues := excelei.ValidateSheetConfig(cfg)
		failed := false
		for _, issue := range issues {
			fmt.Fprintln(cmd.OutOrStdout(), issue)
			failed = failed || issue.Severity == excelei.SeverityError
		}
		if failed {
			return errors.New("layout has errors")
		}
		if len(issues) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d columns\n", path, len(cfg.Columns()))
		}
		return nil
	},
}

func loadLayout(path string) (*excelei.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	layout, err := excelei.LoadLayout(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layout, nil
}
