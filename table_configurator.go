package excelei

// TableExportConfigurator builds the export config of a sheet fed with the
// rows of a relational Table.
type TableExportConfigurator struct {
	table  *Table
	config *SheetExportConfig
}

// BeginTable starts an empty sheet config named after t.
func BeginTable(t *Table) *TableExportConfigurator {
	cfg := NewSheetExportConfig(SafeSheetName(t.Name))
	cfg.DataTableName = t.Name
	return &TableExportConfigurator{table: t, config: cfg}
}

// Config returns the sheet config being built.
func (c *TableExportConfigurator) Config() *SheetExportConfig { return c.config }

// AddColumn exports the named data column under caption.
func (c *TableExportConfigurator) AddColumn(dataColumn, caption string, opts ...ColumnOption) (*ColumnExportConfig, error) {
	src, err := NewTableColumn(c.table, dataColumn)
	if err != nil {
		return nil, err
	}
	return c.add(src, caption, opts)
}

// AddConvertingColumn exports the named data column with its non-nil values
// passed through conv.
func AddConvertingColumn[V any](c *TableExportConfigurator, dataColumn, caption string, conv func(any) (V, error), opts ...ColumnOption) (*ColumnExportConfig, error) {
	src, err := NewConvertingTableColumn(c.table, dataColumn, conv)
	if err != nil {
		return nil, err
	}
	return c.add(src, caption, opts)
}

// AddInt64Column exports the named data column converted to int64.
func (c *TableExportConfigurator) AddInt64Column(dataColumn, caption string, opts ...ColumnOption) (*ColumnExportConfig, error) {
	return AddConvertingColumn[int64](c, dataColumn, caption, nil, opts...)
}

// AddFloat64Column exports the named data column converted to float64.
func (c *TableExportConfigurator) AddFloat64Column(dataColumn, caption string, opts ...ColumnOption) (*ColumnExportConfig, error) {
	return AddConvertingColumn[float64](c, dataColumn, caption, nil, opts...)
}

func (c *TableExportConfigurator) add(src ColumnSource, caption string, opts []ColumnOption) (*ColumnExportConfig, error) {
	o := applyColumnOptions(opts)
	if caption != "" {
		o.caption = caption
	}
	return addConfiguredColumn(c.config, src, o)
}
