package excelei

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHorizontalAlignment(t *testing.T) {
	tests := map[string]HorizontalAlignment{
		"":        AlignGeneral,
		"general": AlignGeneral,
		"Left":    AlignLeft,
		"center":  AlignCenter,
		" centre": AlignCenter,
		"RIGHT":   AlignRight,
	}
	for in, want := range tests {
		got, err := ParseHorizontalAlignment(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseHorizontalAlignment("justify")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestAlignmentNames(t *testing.T) {
	assert.Equal(t, "", AlignGeneral.String())
	assert.Equal(t, "center", AlignCenter.String())
	assert.Equal(t, "right", AlignRight.String())
	assert.Equal(t, "", VAlignDefault.String())
	assert.Equal(t, "top", VAlignTop.String())
	assert.Equal(t, "bottom", VAlignBottom.String())
}

func TestCellStyle(t *testing.T) {
	assert.True(t, CellStyle{}.IsZero())
	assert.False(t, CellStyle{Bold: true}.IsZero())
	assert.False(t, CellStyle{Border: Border{Style: BorderThin}}.IsZero())

	assert.Equal(t, "FAF8F8", Color("#faf8f8").hex())
	assert.Equal(t, "", ColorNone.hex())
}
