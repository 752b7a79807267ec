package excelei

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	ID      int
	Name    string
	Since   *time.Time
	Address *testAddress
	Rating  float64 `validate:"gte=0,lte=5"`
	Code    string  `validate:"required"`
	hidden  string
}

func customerRows(t *testing.T, rows ...[]any) RowReaderCollection {
	t.Helper()
	header := []any{"Id", "Name", "Since", "City", "Rating", "Code"}
	table, err := ReadContiguousTableWithHeader(NewSheetGrid("S", append([][]any{header}, rows...)), 0, WithBlankThreshold(0))
	require.NoError(t, err)
	return table.Rows
}

func customerReader(opts ...MappingOption) *TableMappingReader[customer] {
	return NewTableMappingReader[customer](opts...).
		MapAs("ID", "Id").
		Map("Name").
		Map("Since").
		MapAs("Address.City", "City").
		Map("Rating").
		Map("Code")
}

func TestTableMappingReader_Read(t *testing.T) {
	rows := customerRows(t,
		[]any{1.0, "Ada", 45292.0, "London", 4.5, "A"},
		[]any{2.0, "Grace", nil, nil, 3.0, "B"},
	)
	got, err := customerReader().Read(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "Ada", got[0].Name)
	require.NotNil(t, got[0].Since)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *got[0].Since)
	require.NotNil(t, got[0].Address)
	assert.Equal(t, "London", got[0].Address.City)
	assert.Equal(t, 4.5, got[0].Rating)

	assert.Nil(t, got[1].Since)
	require.NotNil(t, got[1].Address, "nested pointers are allocated on the way to the field")
	assert.Equal(t, "", got[1].Address.City)
}

func TestTableMappingReader_Empty(t *testing.T) {
	got, err := customerReader().Read(customerRows(t))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTableMappingReader_ReadRow(t *testing.T) {
	rows := customerRows(t, []any{"7", "Linus", nil, "Helsinki", 5.0, "C"})
	row, err := rows.Row(0)
	require.NoError(t, err)

	c, err := customerReader().ReadRow(row)
	require.NoError(t, err)
	assert.Equal(t, 7, c.ID)
	assert.Equal(t, "Helsinki", c.Address.City)
}

func TestMapFunc(t *testing.T) {
	rows := customerRows(t, []any{1.0, "ada lovelace", nil, nil, 4.0, "x"})

	reader := NewTableMappingReader[customer]().MapAs("ID", "Id")
	MapFunc(reader, "Name", func(c *customer, v string) { c.Name = strings.ToUpper(v) }, nil)
	MapFunc(reader, "Code", func(c *customer, v string) { c.Code = v + v }, func(raw any) (string, error) {
		s, err := Convert[string](raw)
		return strings.TrimSpace(s), err
	})

	got, err := reader.Read(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ADA LOVELACE", got[0].Name)
	assert.Equal(t, "xx", got[0].Code)

	assert.Equal(t, []MappedMember{
		{Member: "ID", Column: "Id"},
		{Column: "Name"},
		{Column: "Code"},
	}, reader.MappedMembers())
}

func TestTableMappingReader_ConversionError(t *testing.T) {
	rows := customerRows(t,
		[]any{1.0, "Ada", nil, nil, 1.0, "A"},
		[]any{"two", "Grace", nil, nil, 1.0, "B"},
	)
	_, err := customerReader().Read(rows)
	require.Error(t, err)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Row)
	assert.Equal(t, "Id", me.Column)
	assert.Equal(t, "ID", me.Member)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), `row 1: column "Id" -> ID`)
}

func TestTableMappingReader_UnknownColumn(t *testing.T) {
	rows := customerRows(t, []any{1.0, "Ada", nil, nil, 1.0, "A"})
	reader := NewTableMappingReader[customer]().MapAs("Name", "Full name")

	_, err := reader.Read(rows)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Full name", me.Column)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestTableMappingReader_CompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		reader *TableMappingReader[customer]
	}{
		{"unknown field", NewTableMappingReader[customer]().Map("Missing")},
		{"unexported field", NewTableMappingReader[customer]().Map("hidden")},
		{"path through scalar", NewTableMappingReader[customer]().MapAs("Name.Length", "Name")},
		{"empty column", NewTableMappingReader[customer]().MapAs("Name", "")},
		{"duplicate member", NewTableMappingReader[customer]().Map("Name").MapAs("Name", "Code")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reader.Compile()
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, err, tt.reader.Compile(), "compilation runs once")

			_, err = tt.reader.Read(customerRows(t))
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestTableMappingReader_Validator(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	rows := customerRows(t,
		[]any{1.0, "Ada", nil, nil, 4.0, "A"},
		[]any{2.0, "Grace", nil, nil, 9.0, "B"},
	)

	_, err := customerReader(WithValidator(v)).Read(rows)
	require.Error(t, err)

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Row)
	assert.Empty(t, me.Column)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Rating", verrs[0].Field())

	got, err := customerReader().Read(rows)
	require.NoError(t, err, "without a validator the values are returned as read")
	assert.Len(t, got, 2)
}

func TestTableMappingReader_PointerTarget(t *testing.T) {
	rows := customerRows(t, []any{5.0, "Ada", nil, nil, 1.0, "A"})
	reader := NewTableMappingReader[*customer]().MapAs("ID", "Id").Map("Name")

	got, err := reader.Read(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0])
	assert.Equal(t, 5, got[0].ID)
	assert.Equal(t, "Ada", got[0].Name)
}
