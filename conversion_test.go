package excelei

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderStatus string

func TestConvert_Nil(t *testing.T) {
	n, err := Convert[int](nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	p, err := Convert[*int](nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	s, err := Convert[string](nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestConvert_Identity(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	got, err := Convert[time.Time](now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	f, err := Convert[float64](2.25)
	require.NoError(t, err)
	assert.Equal(t, 2.25, f)
}

func TestConvert_Numbers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"text", " 42 ", 42},
		{"float rounds half to even up", 3.5, 4},
		{"float rounds half to even down", 2.5, 2},
		{"bool", true, 1},
		{"int64", int64(-7), -7},
		{"uint", uint16(9), 9},
		{"decimal", decimal.RequireFromString("10.5"), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert[int](tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	f, err := Convert[float64]("1.5e3")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, f)

	u, err := Convert[uint8](255.0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), u)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert[int]("forty")
	require.ErrorIs(t, err, ErrFormat)

	_, err = Convert[int8](300.0)
	require.ErrorIs(t, err, ErrInvalidCast)

	_, err = Convert[uint](-1)
	require.ErrorIs(t, err, ErrInvalidCast)

	_, err = Convert[int](time.Now())
	require.ErrorIs(t, err, ErrInvalidCast)

	_, err = Convert[bool]("maybe")
	require.ErrorIs(t, err, ErrFormat)

	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "maybe", ce.Value)
	assert.Equal(t, reflect.TypeFor[bool](), ce.Target)
	assert.Contains(t, ce.Error(), "cannot convert string(maybe) to bool")
}

func TestConvert_Pointers(t *testing.T) {
	p, err := Convert[*int]("   ")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = Convert[*int](5.0)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 5, *p)

	n := 8
	got, err := Convert[int64](&n)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	var nilPtr *int
	got, err = Convert[int64](nilPtr)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestConvert_Text(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{1.5, "1.5"},
		{int64(7), "7"},
		{true, "true"},
		{decimal.RequireFromString("3.10"), "3.1"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
	}
	for _, tt := range tests {
		got, err := Convert[string](tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	status, err := Convert[orderStatus]("shipped")
	require.NoError(t, err)
	assert.Equal(t, orderStatus("shipped"), status)
}

func TestConvert_Dates(t *testing.T) {
	got, err := Convert[time.Time](45000.5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 15, 12, 0, 0, 0, time.UTC), got)

	got, err = Convert[time.Time]("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = Convert[time.Time]("02-Jan-2024 03:04:05 PM")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), got)

	got, err = Convert[time.Time](90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1899, 12, 30, 1, 30, 0, 0, time.UTC), got)

	_, err = Convert[time.Time]("yesterday")
	require.ErrorIs(t, err, ErrFormat)

	_, err = Convert[time.Time](true)
	require.ErrorIs(t, err, ErrInvalidCast)
}

func TestConvert_Durations(t *testing.T) {
	d, err := Convert[time.Duration]("1.02:03:04")
	require.NoError(t, err)
	assert.Equal(t, 26*time.Hour+3*time.Minute+4*time.Second, d)

	d, err = Convert[time.Duration](0.25)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d)

	d, err = Convert[time.Duration](time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)
}

func TestConvert_SerialDurationChain(t *testing.T) {
	for _, serial := range []float64{0.5, 1, 61.25, 45000.5, 100000.125} {
		date, err := Convert[time.Time](serial)
		require.NoError(t, err, serial)
		span, err := Convert[time.Duration](date)
		require.NoError(t, err, serial)
		direct, err := Convert[time.Duration](serial)
		require.NoError(t, err, serial)
		assert.Equal(t, direct, span, "serial %v", serial)

		back, err := Convert[time.Time](span)
		require.NoError(t, err, serial)
		assert.True(t, date.Equal(back), "serial %v: %s became %s", serial, date, back)
	}
}

func TestConvert_DecimalAndUUID(t *testing.T) {
	d, err := Convert[decimal.Decimal]("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	d, err = Convert[decimal.Decimal](uint64(18446744073709551615))
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", d.String())

	id := uuid.New()
	got, err := Convert[uuid.UUID](id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = Convert[uuid.UUID]("not-a-uuid")
	require.ErrorIs(t, err, ErrFormat)

	_, err = Convert[uuid.UUID](1.0)
	require.ErrorIs(t, err, ErrInvalidCast)
}

func TestConvertTo(t *testing.T) {
	v, err := ConvertTo("12", reflect.TypeFor[int32]())
	require.NoError(t, err)
	assert.Equal(t, int32(12), v)

	v, err = ConvertTo(nil, reflect.TypeFor[*string]())
	require.NoError(t, err)
	assert.Nil(t, v.(*string))
}

func TestSerialToTime(t *testing.T) {
	tests := []struct {
		serial float64
		want   time.Time
	}{
		{0, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{45292, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{-0.5, time.Date(1899, 12, 30, 12, 0, 0, 0, time.UTC)},
		{-1.25, time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := SerialToTime(tt.serial)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "serial %v", tt.serial)
	}

	_, err := SerialToTime(1e7)
	require.Error(t, err)
}

func TestParseTimeSpan(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
	}{
		{"3", 72 * time.Hour},
		{"-00:30", -30 * time.Minute},
		{"12:15:30", 12*time.Hour + 15*time.Minute + 30*time.Second},
		{"00:00:01.5", 1500 * time.Millisecond},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseTimeSpan(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	for _, bad := range []string{"25:00", "10:61", "1.xx:00", "00:00:00.12345678", "soon"} {
		_, err := ParseTimeSpan(bad)
		assert.Error(t, err, bad)
	}
}
