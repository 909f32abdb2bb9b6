package ast

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/queryspec/fault"
	"github.com/thisisjab/queryspec/metadata"
)

// Matches evaluates an expression as a predicate against one entity.
// Anything other than a clean boolean true result is a non-match: an
// evaluation error, a broken property path, or a non-boolean node such
// as Arithmetic.
func Matches(e Expr, entity any) bool {
	if e == nil {
		return true
	}
	v, err := e.Eval(entity)
	if err != nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (n *Comparison) Eval(entity any) (any, error) {
	acc, err := metadata.Resolve(reflect.TypeOf(entity), n.Path)
	if err != nil {
		return nil, err
	}

	left, ok := acc.Load(entity)
	if !ok {
		return false, nil
	}

	// Null literals and nil properties only answer equality questions.
	if left == nil || n.Value == nil {
		eq := left == nil && n.Value == nil
		switch n.Op {
		case EqualTo:
			return eq, nil
		case NotEqualTo:
			return !eq, nil
		default:
			return false, nil
		}
	}

	cmp, err := CompareValues(left, n.Value)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case EqualTo:
		return cmp == 0, nil
	case NotEqualTo:
		return cmp != 0, nil
	case GreaterThan:
		return cmp > 0, nil
	case GreaterOrEqual:
		return cmp >= 0, nil
	case LessThan:
		return cmp < 0, nil
	case LessOrEqual:
		return cmp <= 0, nil
	default:
		return nil, fault.New(fault.BadInputCode, fmt.Sprintf("operator %s is not a relational comparison", n.Op))
	}
}

func (n *Logical) Eval(entity any) (any, error) {
	left, err := evalBool(n.Left, entity)
	if err != nil {
		return nil, err
	}

	// Short circuit
	if n.Op == AndAlso && !left {
		return false, nil
	}
	if n.Op == OrElse && left {
		return true, nil
	}

	return evalBool(n.Right, entity)
}

func (n *MethodCall) Eval(entity any) (any, error) {
	acc, err := metadata.Resolve(reflect.TypeOf(entity), n.Path)
	if err != nil {
		return nil, err
	}

	v, ok := acc.Load(entity)
	if !ok || v == nil {
		return false, nil
	}

	s, err := stringValue(v)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case Contains:
		return strings.Contains(s, n.Term), nil
	case StartsWith:
		return strings.HasPrefix(s, n.Term), nil
	case EndsWith:
		return strings.HasSuffix(s, n.Term), nil
	default:
		return nil, fault.New(fault.BadInputCode, fmt.Sprintf("operator %s is not a string method", n.Op))
	}
}

func (n *Arithmetic) Eval(entity any) (any, error) {
	acc, err := metadata.Resolve(reflect.TypeOf(entity), n.Path)
	if err != nil {
		return nil, err
	}

	v, ok := acc.Load(entity)
	if !ok {
		return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("property `%s` has no value", n.Path))
	}

	left, err := floatValue(v)
	if err != nil {
		return nil, err
	}

	var right float64
	if n.OperandPath != "" {
		opAcc, err := metadata.Resolve(reflect.TypeOf(entity), n.OperandPath)
		if err != nil {
			return nil, err
		}
		ov, ok := opAcc.Load(entity)
		if !ok {
			return nil, fault.New(fault.PropertyNotFoundCode, fmt.Sprintf("property `%s` has no value", n.OperandPath))
		}
		right, err = floatValue(ov)
		if err != nil {
			return nil, err
		}
	} else {
		right, err = floatValue(n.OperandValue)
		if err != nil {
			return nil, err
		}
	}

	switch n.Op {
	case Add:
		return left + right, nil
	case Subtract:
		return left - right, nil
	case Multiply:
		return left * right, nil
	case Divide:
		if right == 0 {
			return nil, fault.New(fault.BadInputCode, "division by zero")
		}
		return left / right, nil
	case Modulo:
		if right == 0 {
			return nil, fault.New(fault.BadInputCode, "division by zero")
		}
		return float64(int64(left) % int64(right)), nil
	default:
		return nil, fault.New(fault.BadInputCode, fmt.Sprintf("unknown arithmetic operator %s", n.Op))
	}
}

func (n *Bool) Eval(entity any) (any, error) {
	return n.Value, nil
}

func evalBool(e Expr, entity any) (bool, error) {
	v, err := e.Eval(entity)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fault.New(fault.TypeConversionCode, fmt.Sprintf("expression `%s` is not a boolean predicate", e.Source()))
	}
	return b, nil
}

// CompareValues orders two values of compatible types: negative when left
// sorts before right, zero when equal. Numeric kinds compare across widths;
// a string and a number compare numerically when the string parses as one.
func CompareValues(left, right any) (int, error) {
	switch l := left.(type) {
	case time.Time:
		if r, ok := right.(time.Time); ok {
			return l.Compare(r), nil
		}
	case uuid.UUID:
		if r, ok := right.(uuid.UUID); ok {
			return bytes.Compare(l[:], r[:]), nil
		}
	}

	lv := reflect.ValueOf(left)
	rv := reflect.ValueOf(right)

	lf, lNum := numeric(lv)
	rf, rNum := numeric(rv)

	if lNum && rNum {
		return compareFloats(lf, rf), nil
	}

	// JSON-sourced records hold numbers as strings often enough that a
	// numeric literal against a numeric-looking string compares by value.
	if lNum && rv.Kind() == reflect.String {
		if f, err := strconv.ParseFloat(rv.String(), 64); err == nil {
			return compareFloats(lf, f), nil
		}
	}
	if rNum && lv.Kind() == reflect.String {
		if f, err := strconv.ParseFloat(lv.String(), 64); err == nil {
			return compareFloats(f, rf), nil
		}
	}

	if lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return strings.Compare(lv.String(), rv.String()), nil
	}

	if lv.Kind() == reflect.Bool && rv.Kind() == reflect.Bool {
		if lv.Bool() == rv.Bool() {
			return 0, nil
		}
		if !lv.Bool() {
			return -1, nil
		}
		return 1, nil
	}

	return 0, fault.New(fault.TypeConversionCode, fmt.Sprintf("values of types %T and %T are not comparable", left, right))
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func stringValue(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", fault.New(fault.TypeConversionCode, fmt.Sprintf("value of type %T is not a string", v))
}

func floatValue(v any) (float64, error) {
	if v == nil {
		return 0, fault.New(fault.TypeConversionCode, "value is null, not a number")
	}
	if f, ok := numeric(reflect.ValueOf(v)); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	return 0, fault.New(fault.TypeConversionCode, fmt.Sprintf("value of type %T is not a number", v))
}
