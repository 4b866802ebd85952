// Package codec converts between Go values and the values stored by the
// engine, one rule per logical column type.
//
// Storage values are limited to what every supported driver accepts as a
// bind parameter and returns from a scan: int64, float64, string and nil.
package codec

import (
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/sqlerr"
)

// Encode converts v into the storage value for a column of type t.
// isNull reports that v was the null sentinel (nil or a nil pointer), in
// which case storage is nil.
func Encode(t ddl.LogicalType, v any) (storage any, isNull bool, err error) {
	v, err = deref(v)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		if !t.Nullable {
			return nil, true, sqlerr.NullabilityViolationf("NULL for non-nullable %s column", t.Kind)
		}
		return nil, true, nil
	}

	switch t.Kind {
	case ddl.Text:
		storage, err = encodeText(t, v)
	case ddl.Integer:
		storage, err = toInt64(v)
	case ddl.Decimal:
		storage, err = encodeDecimal(v)
	case ddl.Boolean:
		storage, err = encodeBool(v)
	case ddl.Date:
		storage, err = encodeDate(v)
	case ddl.Time:
		storage, err = encodeTime(v)
	default:
		err = sqlerr.TypeMismatchf("unknown column type %s", t.Kind)
	}
	if err != nil {
		return nil, false, err
	}
	return storage, false, nil
}

// Decode converts a value scanned from the engine into the Go value for a
// column of type t. NULL decodes to nil for every type.
func Decode(t ddl.LogicalType, storage any) (any, error) {
	if storage == nil {
		return nil, nil
	}

	switch t.Kind {
	case ddl.Text:
		switch s := storage.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case ddl.Integer:
		return toInt64(rawText(storage))
	case ddl.Decimal:
		return toFloat64(rawText(storage))
	case ddl.Boolean:
		return decodeBool(storage)
	case ddl.Date:
		switch s := rawText(storage).(type) {
		case string:
			return ParseDate(s)
		case time.Time:
			return DateOf(s), nil
		}
	case ddl.Time:
		switch s := rawText(storage).(type) {
		case string:
			return ParseTimeOfDay(s)
		case time.Time:
			return TimeOfDayOf(s), nil
		}
	default:
		return nil, sqlerr.TypeMismatchf("unknown column type %s", t.Kind)
	}
	return nil, sqlerr.TypeMismatchf("cannot decode %T as %s", storage, t.Kind)
}

// deref unwraps pointers and driver.Valuer implementations such as
// sql.NullString down to a plain value or nil.
func deref(v any) (any, error) {
	for v != nil {
		if valuer, ok := v.(driver.Valuer); ok {
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil, nil
			}
			inner, err := valuer.Value()
			if err != nil {
				return nil, sqlerr.Wrap(sqlerr.KindTypeMismatch, "value conversion failed", err)
			}
			return inner, nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v, nil
		}
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	return nil, nil
}

// rawText turns driver byte slices into strings so every numeric and
// calendar decoder handles one textual form.
func rawText(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func encodeText(t ddl.LogicalType, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return "", sqlerr.TypeMismatchf("expected string for text column, got %T", v)
		}
		s = rv.String()
	}
	if t.Length > 0 {
		if n := utf8.RuneCountInString(s); n > t.Length {
			return "", sqlerr.TypeMismatchf("string of %d characters exceeds column length %d", n, t.Length)
		}
	}
	return s, nil
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, sqlerr.TypeMismatchf("integer %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
			return 0, sqlerr.TypeMismatchf("%v is not an integer", f)
		}
		return int64(f), nil
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 0, sqlerr.TypeMismatchf("%q is not an integer", rv.String())
		}
		return n, nil
	}
	return 0, sqlerr.TypeMismatchf("expected integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return 0, sqlerr.TypeMismatchf("%q is not a number", rv.String())
		}
		return f, nil
	}
	return 0, sqlerr.TypeMismatchf("expected number, got %T", v)
}

// encodeDecimal rejects NaN and infinities: engines store them as NULL or
// refuse them.
func encodeDecimal(v any) (float64, error) {
	f, err := toFloat64(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, sqlerr.TypeMismatchf("%v is not a finite number", f)
	}
	return f, nil
}

func encodeBool(v any) (int64, error) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.IsZero() {
			return 0, nil
		}
		return 1, nil
	}
	return 0, sqlerr.TypeMismatchf("expected bool, got %T", v)
}

func decodeBool(storage any) (bool, error) {
	switch s := rawText(storage).(type) {
	case bool:
		return s, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "t", "true":
			return true, nil
		case "0", "f", "false":
			return false, nil
		}
		return false, sqlerr.TypeMismatchf("%q is not a boolean", s)
	}
	n, err := toInt64(storage)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func encodeDate(v any) (string, error) {
	var d Date
	switch x := v.(type) {
	case Date:
		d = x
	case time.Time:
		d = DateOf(x)
	case string:
		parsed, err := ParseDate(x)
		if err != nil {
			return "", err
		}
		d = parsed
	default:
		return "", sqlerr.TypeMismatchf("expected codec.Date, got %T", v)
	}
	if !d.Valid() {
		return "", sqlerr.Formatf("invalid date %d-%d-%d", d.Year, int(d.Month), d.Day)
	}
	return d.String(), nil
}

func encodeTime(v any) (string, error) {
	switch t := v.(type) {
	case TimeOfDay:
		if !t.Valid() {
			return "", sqlerr.Formatf("invalid time %02d:%02d:%02d.%d", t.Hour, t.Minute, t.Second, t.Nanosecond)
		}
		return t.String(), nil
	case time.Time:
		return TimeOfDayOf(t).String(), nil
	case string:
		parsed, err := ParseTimeOfDay(t)
		if err != nil {
			return "", err
		}
		return parsed.String(), nil
	}
	return "", sqlerr.TypeMismatchf("expected codec.TimeOfDay, got %T", v)
}
