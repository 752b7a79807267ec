package excelei

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ordersWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	return newWorkbook(t, "Orders", [][]any{
		{"Report"},
		{},
		{"Id", "Customer", "Amount"},
		{1, "Ada", 12.5},
		{2, "Grace", 8},
		{3, "Linus", 7.25},
	})
}

func TestReadContiguousExcelTableWithHeader(t *testing.T) {
	f := ordersWorkbook(t)

	table, err := ReadContiguousExcelTableWithHeader(f, "Orders", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Customer", "Amount"}, table.Columns)

	maps, err := ToMaps(table.Rows)
	require.NoError(t, err)
	require.Len(t, maps, 3)
	assert.Equal(t, map[string]any{"Id": 2.0, "Customer": "Grace", "Amount": 8.0}, maps[1])

	_, err = ReadContiguousExcelTableWithHeader(f, "Orders", 0)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = ReadContiguousExcelTableWithHeader(f, "Missing", 1)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = ReadContiguousExcelTableWithHeader(f, "Orders", 2)
	require.ErrorIs(t, err, ErrConfiguration, "row 2 has no header")
}

func TestReadArbitraryExcelTable(t *testing.T) {
	f := ordersWorkbook(t)

	table, err := ReadArbitraryExcelTable(f, "Orders", 4, 5, map[string]string{
		"amount": "C",
		"id":     "A",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, table.Columns, "columns are ordered by sheet position")

	count, known := table.Rows.Count()
	require.True(t, known)
	assert.Equal(t, 2, count)

	last, err := table.Rows.Row(1)
	require.NoError(t, err)
	amount, err := Get[float64](last, "amount")
	require.NoError(t, err)
	assert.Equal(t, 8.0, amount)

	scanned, err := ReadArbitraryExcelTable(f, "Orders", 4, 0, map[string]string{"id": "A", "customer": "B"})
	require.NoError(t, err)
	_, known = scanned.Rows.Count()
	assert.False(t, known)
	maps, err := ToMaps(scanned.Rows)
	require.NoError(t, err)
	assert.Len(t, maps, 3)

	_, err = ReadArbitraryExcelTable(f, "Orders", 0, 5, map[string]string{"id": "A"})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = ReadArbitraryExcelTable(f, "Orders", 4, 5, map[string]string{"id": "1A"})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestReadExcelTable(t *testing.T) {
	f := ordersWorkbook(t)
	require.NoError(t, f.AddTable("Orders", &excelize.Table{Range: "A3:C6", Name: "OrderList"}))
	f = reopen(t, f)

	table, err := ReadExcelTable(f, "Orders", "OrderList")
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Customer", "Amount"}, table.Columns)

	count, known := table.Rows.Count()
	require.True(t, known)
	assert.Equal(t, 3, count)

	row, err := table.Rows.Row(2)
	require.NoError(t, err)
	name, err := Get[string](row, "Customer")
	require.NoError(t, err)
	assert.Equal(t, "Linus", name)

	_, err = ReadExcelTable(f, "Orders", "Nope")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestExcelRoundTrip_Mapping(t *testing.T) {
	type order struct {
		ID       int
		Customer string
		Amount   float64
	}
	f := ordersWorkbook(t)
	table, err := ReadContiguousExcelTableWithHeader(reopen(t, f), "Orders", 3)
	require.NoError(t, err)

	reader := NewTableMappingReader[order]().
		MapAs("ID", "Id").
		Map("Customer").
		Map("Amount")
	orders, err := reader.Read(table.Rows)
	require.NoError(t, err)
	assert.Equal(t, []order{
		{ID: 1, Customer: "Ada", Amount: 12.5},
		{ID: 2, Customer: "Grace", Amount: 8},
		{ID: 3, Customer: "Linus", Amount: 7.25},
	}, orders)
}

type typedRecord struct {
	Name    string
	Count   int
	Big     int64
	Small   uint16
	Ratio   float64
	Ratio32 float32
	Active  bool
	Status  orderStatus
	When    time.Time
	Due     *time.Time
	Span    time.Duration
	Price   decimal.Decimal
	Key     uuid.UUID
	Note    *string
	Rank    *int
}

func TestExcelRoundTrip_TypedFields(t *testing.T) {
	due := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	note := "rush"
	tests := []struct {
		name string
		rec  typedRecord
	}{
		{"populated", typedRecord{
			Name: "Ada", Count: 42, Big: 1 << 40, Small: 65000, Ratio: -3.75, Ratio32: 0.1,
			Active: true, Status: "shipped",
			When: time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC), Due: &due,
			Span:  1000*24*time.Hour + time.Second,
			Price: decimal.RequireFromString("12.34"),
			Key:   uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
			Note:  &note, Rank: intPtr(3),
		}},
		{"nil pointers and false", typedRecord{
			Name: "Grace", Count: 0, Big: -7, Small: 1, Ratio: 0.5, Ratio32: 2.5,
			Active: false, Status: "open",
			When:  time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC),
			Span:  26 * time.Hour,
			Price: decimal.RequireFromString("-0.5"),
			Key:   uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		}},
		{"sub-second span", typedRecord{
			Name: "Linus", Count: -1, Big: 9, Small: 2, Ratio: 1e-3, Ratio32: 8,
			Active: true, Status: "held",
			When:  time.Date(2000, 1, 1, 23, 59, 59, 0, time.UTC),
			Span:  90*time.Minute + 250*time.Millisecond,
			Price: decimal.Zero,
			Key:   uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		}},
	}

	c, err := NewExportConfigurator[typedRecord]("Typed")
	require.NoError(t, err)
	members := []string{"Name", "Count", "Big", "Small", "Ratio", "Ratio32", "Active", "Status",
		"When", "Due", "Span", "Price", "Note", "Rank"}
	for _, m := range members {
		_, err := c.AddMember(m)
		require.NoError(t, err, m)
	}
	_, err = AddColumn(c, "Key", func(r typedRecord) uuid.UUID { return r.Key })
	require.NoError(t, err)
	cfg, err := NewWorkbookExportConfig(c.Config())
	require.NoError(t, err)

	records := make(SliceTable[typedRecord], len(tests))
	for i, tt := range tests {
		records[i] = tt.rec
	}
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	_, err = NewWorkbookExporter(cfg).Export(context.Background(), f, DataSet{"Typed": records})
	require.NoError(t, err)

	table, err := ReadContiguousExcelTableWithHeader(reopen(t, f), "Typed", 1)
	require.NoError(t, err)
	reader := NewTableMappingReader[typedRecord]()
	for _, m := range append(members, "Key") {
		reader.Map(m)
	}
	back, err := reader.Read(table.Rows)
	require.NoError(t, err)
	require.Len(t, back, len(tests))

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, got := tt.rec, back[i]
			assert.True(t, want.Price.Equal(got.Price), "price %s read back as %s", want.Price, got.Price)
			want.Price, got.Price = decimal.Zero, decimal.Zero
			assert.Equal(t, want, got)
		})
	}
}
