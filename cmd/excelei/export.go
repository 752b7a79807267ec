package main

import (
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/v-kabanov/excelei"
)

func init() {
	exportCmd.Flags().String("driver", "sqlite", "database/sql driver: sqlite, pgx, mysql or sqlserver")
	exportCmd.Flags().String("dsn", "", "data source name")
	exportCmd.Flags().String("query", "", "query whose result is exported")
	exportCmd.Flags().String("table", "data", "name of the query result table")
	exportCmd.Flags().String("layout", "", "YAML layout of the sheet (default: every column)")
	exportCmd.Flags().Int("max-rows", 0, "stop after this many sheet rows (default: sheet limit)")
	exportCmd.Flags().StringP("out", "o", "export.xlsx", "output workbook path")
	for _, name := range []string{"driver", "dsn", "max-rows"} {
		viper.BindPFlag("export."+name, exportCmd.Flags().Lookup(name))
	}
	exportCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the result of a SQL query into a formatted workbook",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, dsn := viper.GetString("export.driver"), viper.GetString("export.dsn")
	if dsn == "" {
		return fmt.Errorf("--dsn (or EXCELEI_EXPORT_DSN) is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", driver, err)
	}
	defer db.Close()

	query, _ := cmd.Flags().GetString("query")
	name, _ := cmd.Flags().GetString("table")
	table, err := excelei.QueryTable(ctx, db, name, query)
	if err != nil {
		return err
	}
	log.Info().Str("table", name).Int("rows", table.Len()).Msg("query finished")

	sheet, err := sheetConfig(cmd, table)
	if err != nil {
		return err
	}
	for _, issue := range excelei.ValidateSheetConfig(sheet) {
		if issue.Severity == excelei.SeverityError {
			return fmt.Errorf("layout: %s", issue)
		}
		log.Warn().Msg(issue.String())
	}

	wb, err := excelei.NewWorkbookExportConfig(sheet)
	if err != nil {
		return err
	}
	var opts []excelei.ExportOption
	if n := viper.GetInt("export.max-rows"); n > 0 {
		opts = append(opts, excelei.WithMaxRows(n))
	}
	output, _ := cmd.Flags().GetString("out")
	ds := excelei.DataSet{sheet.DataTableName: table}
	if err := excelei.ExportFile(ctx, output, wb, ds, opts...); err != nil {
		return err
	}
	log.Info().Str("file", output).Msg("workbook written")
	return nil
}

func sheetConfig(cmd *cobra.Command, table *excelei.Table) (*excelei.SheetExportConfig, error) {
	path, _ := cmd.Flags().GetString("layout")
	if path == "" {
		return excelei.NewTableExportConfig(table), nil
	}
	layout, err := loadLayout(path)
	if err != nil {
		return nil, err
	}
	if layout.Table == "" {
		layout.Table = table.Name
	}
	if layout.Table != table.Name {
		return nil, fmt.Errorf("layout %s is for table %q, the query result is %q", path, layout.Table, table.Name)
	}
	return layout.Configure(table)
}
