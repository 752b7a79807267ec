package excelei

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		in   string
		want CellRef
	}{
		{"A1", CellRef{Row: 0, Col: 0}},
		{" B5 ", CellRef{Row: 4, Col: 1}},
		{"$AA$10", CellRef{Row: 9, Col: 26}},
		{"Data!C3", CellRef{Sheet: "Data", Row: 2, Col: 2}},
		{"'My Sheet'!$XFD$1", CellRef{Sheet: "My Sheet", Row: 0, Col: 16383}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCellRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "1A", "A0", "Data!", "!!"} {
		_, err := ParseCellRef(bad)
		assert.ErrorIs(t, err, ErrConfiguration, bad)
	}
}

func TestCellRef_String(t *testing.T) {
	assert.Equal(t, "B5", NewCellRef("", 4, 1).String())
	assert.Equal(t, "Data!AB12", NewCellRef("Data", 11, 27).String())
	assert.Equal(t, "AB12", NewCellRef("Data", 11, 27).CellName())
}

func TestColToName(t *testing.T) {
	for col, name := range map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA", 16383: "XFD"} {
		assert.Equal(t, name, ColToName(col), col)
		back, err := NameToCol(name)
		require.NoError(t, err)
		assert.Equal(t, col, back, name)
	}
	assert.Equal(t, "", ColToName(-1))

	_, err := NameToCol("A1")
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = NameToCol("")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestParseAreaRef(t *testing.T) {
	a, err := ParseAreaRef("Data!A2:C5")
	require.NoError(t, err)
	assert.Equal(t, NewCellRef("Data", 1, 0), a.First)
	assert.Equal(t, NewCellRef("Data", 4, 2), a.Last, "the last corner inherits the sheet")
	assert.Equal(t, "Data!A2:C5", a.String())

	a, err = ParseAreaRef("$B$2:$D$9")
	require.NoError(t, err)
	assert.Equal(t, "B2:D9", a.String())

	_, err = ParseAreaRef("A1")
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = ParseAreaRef("A1:ZZZZ1")
	require.ErrorIs(t, err, ErrConfiguration)
}
