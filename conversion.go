package excelei

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	decimalType         = reflect.TypeFor[decimal.Decimal]()
	uuidType            = reflect.TypeFor[uuid.UUID]()
	anyType             = reflect.TypeFor[any]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// serialEpoch is day 0 of spreadsheet serial dates. It is also the origin used
// when a duration is reinterpreted as a date and back.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	millisPerDay   = 86400000
	minSerialDate  = -657435.0
	maxSerialDate  = 2958466.0
	maxSpanDays    = int64(math.MaxInt64 / int64(24*time.Hour))
	fractionDigits = 9
)

// dateLayouts are tried in order when text is converted to time.Time.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006 03:04:05 PM",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// Convert coerces a weakly typed cell value into T.
//
// A nil value gives the zero T. Blank text converted to a pointer type gives nil.
// Malformed text fails with ErrFormat; any other incompatible value fails with
// ErrInvalidCast.
func Convert[T any](value any) (T, error) {
	var zero T
	v, err := convertValue(value, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	out := v.Interface()
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// ConvertTo is the reflective form of Convert.
func ConvertTo(value any, target reflect.Type) (any, error) {
	v, err := convertValue(value, target)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func convertValue(value any, to reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(to), nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer && rv.Type() != to {
		if rv.IsNil() {
			return reflect.Zero(to), nil
		}
		rv = rv.Elem()
	}
	from := rv.Type()
	if from == to {
		return rv, nil
	}

	if to.Kind() == reflect.Pointer {
		if rv.Kind() == reflect.String && strings.TrimSpace(rv.String()) == "" {
			return reflect.Zero(to), nil
		}
		inner, err := convertValue(rv.Interface(), to.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(to.Elem())
		p.Elem().Set(inner)
		return p, nil
	}

	if to.Kind() == reflect.Interface {
		if from.Implements(to) {
			out := reflect.New(to).Elem()
			out.Set(rv)
			return out, nil
		}
		return reflect.Value{}, castError(value, to, nil)
	}

	switch to {
	case timeType:
		return toTime(rv, to)
	case durationType:
		return toDuration(rv, to)
	case decimalType:
		return toDecimal(rv, to)
	case uuidType:
		if rv.Kind() != reflect.String {
			return reflect.Value{}, castError(value, to, nil)
		}
		id, err := uuid.Parse(strings.TrimSpace(rv.String()))
		if err != nil {
			return reflect.Value{}, formatError(value, to, err)
		}
		return reflect.ValueOf(id), nil
	}

	if from == decimalType {
		return fromDecimal(rv.Interface().(decimal.Decimal), to)
	}
	if to.Kind() == reflect.String {
		return reflect.ValueOf(formatText(rv)).Convert(to), nil
	}
	if from == timeType || from == durationType {
		return reflect.Value{}, castError(value, to, nil)
	}

	switch {
	case isIntKind(to.Kind()):
		return toInt(rv, to)
	case isUintKind(to.Kind()):
		return toUint(rv, to)
	case isFloatKind(to.Kind()):
		return toFloat(rv, to)
	case to.Kind() == reflect.Bool:
		return toBool(rv, to)
	}

	if rv.Kind() == reflect.String && reflect.PointerTo(to).Implements(textUnmarshalerType) {
		p := reflect.New(to)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(rv.String())); err != nil {
			return reflect.Value{}, formatError(value, to, err)
		}
		return p.Elem(), nil
	}
	if from.Kind() == to.Kind() && from.ConvertibleTo(to) {
		return rv.Convert(to), nil
	}
	return reflect.Value{}, castError(value, to, nil)
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumericKind(k reflect.Kind) bool {
	return isIntKind(k) || isUintKind(k) || isFloatKind(k)
}

func toTime(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	switch {
	case rv.Kind() == reflect.Float64:
		t, err := SerialToTime(rv.Float())
		if err != nil {
			return reflect.Value{}, castError(rv.Interface(), to, err)
		}
		return reflect.ValueOf(t), nil
	case rv.Kind() == reflect.String:
		t, err := parseTime(rv.String())
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		return reflect.ValueOf(t), nil
	case rv.Type() == durationType:
		return reflect.ValueOf(serialEpoch.Add(time.Duration(rv.Int()))), nil
	}
	return reflect.Value{}, castError(rv.Interface(), to, nil)
}

func toDuration(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	switch {
	case rv.Kind() == reflect.Float64:
		t, err := SerialToTime(rv.Float())
		if err != nil {
			return reflect.Value{}, castError(rv.Interface(), to, err)
		}
		return sinceEpoch(t, rv.Interface(), to)
	case rv.Kind() == reflect.String:
		d, err := ParseTimeSpan(rv.String())
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		return reflect.ValueOf(d), nil
	case rv.Type() == timeType:
		return sinceEpoch(rv.Interface().(time.Time), rv.Interface(), to)
	}
	return reflect.Value{}, castError(rv.Interface(), to, nil)
}

func sinceEpoch(t time.Time, value any, to reflect.Type) (reflect.Value, error) {
	d := t.Sub(serialEpoch)
	if !serialEpoch.Add(d).Equal(t) {
		return reflect.Value{}, castError(value, to, errors.New("date is outside the duration range"))
	}
	return reflect.ValueOf(d), nil
}

func toDecimal(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	k := rv.Kind()
	switch {
	case k == reflect.String:
		d, err := decimal.NewFromString(strings.TrimSpace(rv.String()))
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		return reflect.ValueOf(d), nil
	case isIntKind(k):
		return reflect.ValueOf(decimal.NewFromInt(rv.Int())), nil
	case isUintKind(k):
		return reflect.ValueOf(decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0)), nil
	case isFloatKind(k):
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Value{}, castError(rv.Interface(), to, nil)
		}
		return reflect.ValueOf(decimal.NewFromFloat(f)), nil
	case k == reflect.Bool:
		if rv.Bool() {
			return reflect.ValueOf(decimal.NewFromInt(1)), nil
		}
		return reflect.ValueOf(decimal.Zero), nil
	}
	return reflect.Value{}, castError(rv.Interface(), to, nil)
}

func fromDecimal(d decimal.Decimal, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	switch k := to.Kind(); {
	case k == reflect.String:
		out.SetString(d.String())
	case k == reflect.Bool:
		out.SetBool(!d.IsZero())
	case isFloatKind(k):
		out.SetFloat(d.InexactFloat64())
	case isIntKind(k):
		r := d.RoundBank(0).BigInt()
		if !r.IsInt64() || out.OverflowInt(r.Int64()) {
			return reflect.Value{}, castError(d, to, errors.New("value out of range"))
		}
		out.SetInt(r.Int64())
	case isUintKind(k):
		r := d.RoundBank(0).BigInt()
		if !r.IsUint64() || out.OverflowUint(r.Uint64()) {
			return reflect.Value{}, castError(d, to, errors.New("value out of range"))
		}
		out.SetUint(r.Uint64())
	default:
		return reflect.Value{}, castError(d, to, nil)
	}
	return out, nil
}

func toInt(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	var n int64
	switch k := rv.Kind(); {
	case k == reflect.String:
		v, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, to.Bits())
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		n = v
	case isIntKind(k):
		n = rv.Int()
	case isUintKind(k):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
		}
		n = int64(u)
	case isFloatKind(k):
		f := math.RoundToEven(rv.Float())
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
		}
		n = int64(f)
	case k == reflect.Bool:
		if rv.Bool() {
			n = 1
		}
	default:
		return reflect.Value{}, castError(rv.Interface(), to, nil)
	}
	if out.OverflowInt(n) {
		return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
	}
	out.SetInt(n)
	return out, nil
}

func toUint(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	var n uint64
	switch k := rv.Kind(); {
	case k == reflect.String:
		v, err := strconv.ParseUint(strings.TrimSpace(rv.String()), 10, to.Bits())
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		n = v
	case isIntKind(k):
		if rv.Int() < 0 {
			return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
		}
		n = uint64(rv.Int())
	case isUintKind(k):
		n = rv.Uint()
	case isFloatKind(k):
		f := math.RoundToEven(rv.Float())
		if math.IsNaN(f) || f < 0 || f >= math.MaxUint64 {
			return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
		}
		n = uint64(f)
	case k == reflect.Bool:
		if rv.Bool() {
			n = 1
		}
	default:
		return reflect.Value{}, castError(rv.Interface(), to, nil)
	}
	if out.OverflowUint(n) {
		return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
	}
	out.SetUint(n)
	return out, nil
}

func toFloat(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	switch k := rv.Kind(); {
	case k == reflect.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), to.Bits())
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		out.SetFloat(v)
	case isIntKind(k):
		out.SetFloat(float64(rv.Int()))
	case isUintKind(k):
		out.SetFloat(float64(rv.Uint()))
	case isFloatKind(k):
		if out.OverflowFloat(rv.Float()) {
			return reflect.Value{}, castError(rv.Interface(), to, errors.New("value out of range"))
		}
		out.SetFloat(rv.Float())
	case k == reflect.Bool:
		if rv.Bool() {
			out.SetFloat(1)
		}
	default:
		return reflect.Value{}, castError(rv.Interface(), to, nil)
	}
	return out, nil
}

func toBool(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	switch k := rv.Kind(); {
	case k == reflect.String:
		b, err := strconv.ParseBool(strings.TrimSpace(rv.String()))
		if err != nil {
			return reflect.Value{}, formatError(rv.Interface(), to, err)
		}
		out.SetBool(b)
	case k == reflect.Bool:
		out.SetBool(rv.Bool())
	case isIntKind(k):
		out.SetBool(rv.Int() != 0)
	case isUintKind(k):
		out.SetBool(rv.Uint() != 0)
	case isFloatKind(k):
		out.SetBool(rv.Float() != 0)
	default:
		return reflect.Value{}, castError(rv.Interface(), to, nil)
	}
	return out, nil
}

// formatText renders a value the way it is shown when read back as text.
func formatText(rv reflect.Value) string {
	switch k := rv.Kind(); {
	case k == reflect.String:
		return rv.String()
	case isFloatKind(k):
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits())
	case rv.Type() == timeType:
		return rv.Interface().(time.Time).Format(time.RFC3339Nano)
	case isIntKind(k) && rv.Type() != durationType:
		return strconv.FormatInt(rv.Int(), 10)
	case isUintKind(k):
		return strconv.FormatUint(rv.Uint(), 10)
	case k == reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return fmt.Sprint(rv.Interface())
}

// SerialToTime converts a spreadsheet serial date to a UTC time, rounded to the
// millisecond. The integral part counts days from 1899-12-30, the fraction is the
// time of day.
func SerialToTime(serial float64) (time.Time, error) {
	if !(serial > minSerialDate && serial < maxSerialDate) {
		return time.Time{}, fmt.Errorf("serial date %v is out of range", serial)
	}
	half := 0.5
	if serial < 0 {
		half = -0.5
	}
	ms := int64(serial*millisPerDay + half)
	if ms < 0 {
		ms -= (ms % millisPerDay) * 2
	}
	days := ms / millisPerDay
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms%millisPerDay) * time.Millisecond), nil
}

func parseTime(s string) (time.Time, error) {
	text := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}

// ParseTimeSpan parses a time span written as "d", "d.hh:mm[:ss[.fffffff]]" or
// "hh:mm[:ss[.fffffff]]", with an optional leading minus. Go duration text such as
// "1h30m" is accepted as well.
func ParseTimeSpan(s string) (time.Duration, error) {
	text := strings.TrimSpace(s)
	body, neg := strings.CutPrefix(text, "-")

	var days int64
	clock := body
	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return time.ParseDuration(text)
		}
		days, clock = n, ""
	} else if dot := strings.IndexByte(body, '.'); dot >= 0 && dot < colon {
		n, err := strconv.ParseInt(body[:dot], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day count in %q", s)
		}
		days, clock = n, body[dot+1:]
	}
	if days < 0 || days > maxSpanDays {
		return 0, fmt.Errorf("day count out of range in %q", s)
	}

	d := time.Duration(days) * 24 * time.Hour
	if clock != "" {
		c, err := parseClock(clock)
		if err != nil {
			return 0, fmt.Errorf("invalid time span %q: %w", s, err)
		}
		d += c
	}
	if neg {
		d = -d
	}
	return d, nil
}

func parseClock(clock string) (time.Duration, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.New("expected hh:mm[:ss]")
	}
	hours, err := clockPart(parts[0], 23)
	if err != nil {
		return 0, err
	}
	minutes, err := clockPart(parts[1], 59)
	if err != nil {
		return 0, err
	}
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if len(parts) == 3 {
		secText, fracText, hasFrac := strings.Cut(parts[2], ".")
		seconds, err := clockPart(secText, 59)
		if err != nil {
			return 0, err
		}
		d += time.Duration(seconds) * time.Second
		if hasFrac {
			if fracText == "" || len(fracText) > 7 {
				return 0, errors.New("invalid fraction of a second")
			}
			ns, err := strconv.Atoi(fracText + strings.Repeat("0", fractionDigits-len(fracText)))
			if err != nil {
				return 0, errors.New("invalid fraction of a second")
			}
			d += time.Duration(ns)
		}
	}
	return d, nil
}

func clockPart(s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, fmt.Errorf("invalid clock component %q", s)
	}
	return n, nil
}
