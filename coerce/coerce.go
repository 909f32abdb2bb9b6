package coerce

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/queryspec/fault"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Literal converts literal text to a value of the target property type.
// Named types over basic kinds (enums) convert through their underlying
// kind. A nil target means the property resolves dynamically; the literal
// is then converted on a best-effort basis (bool, int64, float64, string).
// The "null" keyword is only valid for pointer and dynamic targets.
func Literal(text string, target reflect.Type) (any, error) {
	if target == nil {
		return dynamic(text), nil
	}

	if target.Kind() == reflect.Pointer {
		if text == "null" {
			return reflect.Zero(target).Interface(), nil
		}
		elem, err := Literal(text, target.Elem())
		if err != nil {
			return nil, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(reflect.ValueOf(elem))
		return p.Interface(), nil
	}

	if text == "null" {
		return nil, conversionFault(text, target, nil)
	}

	switch target {
	case timeType:
		t, err := parseDatetime(text)
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		return t, nil
	case uuidType:
		id, err := uuid.Parse(text)
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		return id, nil
	}

	out := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.String:
		out.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(text))
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, target.Bits())
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, target.Bits())
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, target.Bits())
		if err != nil {
			return nil, conversionFault(text, target, err)
		}
		out.SetFloat(f)
	default:
		return nil, conversionFault(text, target, nil)
	}

	return out.Interface(), nil
}

// TypeName is the textual type name recorded on filter descriptors.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func dynamic(text string) any {
	switch text {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

func parseDatetime(v string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,      // Handles 2000-10-10T12:20:23Z or with offsets
		"2006-01-02T15:04:05", // 2000-10-10T12:20:23
		"2006-01-02T15:04",    // 2000-10-10T12:20
		"2006-01-02",          // 2000-10-10
	}

	var t time.Time
	var err error

	for _, layout := range layouts {
		t, err = time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
	}

	// If no layouts matched, return the last error or a custom one
	return time.Time{}, fmt.Errorf("failed to parse datetime '%s': %w", v, err)
}

func conversionFault(text string, target reflect.Type, err error) error {
	f := fault.New(fault.TypeConversionCode, fmt.Sprintf("cannot convert `%s` to %s", text, target))
	if err != nil {
		f = f.WithOriginal(err)
	}
	return f
}
