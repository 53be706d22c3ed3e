package canonical

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Family is the coercion family a declared data type falls into.
type Family uint8

const (
	FamilyString Family = iota
	FamilyBool
	FamilyDate
	FamilyNumber
)

func (f Family) String() string {
	switch f {
	case FamilyBool:
		return "bool"
	case FamilyDate:
		return "date"
	case FamilyNumber:
		return "number"
	default:
		return "string"
	}
}

// maxEpochMillis bounds the representable timestamp range (±100,000,000 days).
const maxEpochMillis = 8.64e15

var (
	trueTokens  = map[string]bool{"true": true, "1": true, "yes": true, "y": true}
	falseTokens = map[string]bool{"false": true, "0": true, "no": true, "n": true}
)

// FamilyOf classifies a free-text data type. The first matching family wins,
// checked in the order bool, date/time, numeric; anything else is a string.
func FamilyOf(declaredType string) Family {
	t := strings.ToLower(declaredType)
	switch {
	case strings.Contains(t, "bool"):
		return FamilyBool
	case strings.Contains(t, "date"), strings.Contains(t, "time"):
		return FamilyDate
	case strings.Contains(t, "int"),
		strings.Contains(t, "float"),
		strings.Contains(t, "number"),
		strings.Contains(t, "decimal"):
		return FamilyNumber
	default:
		return FamilyString
	}
}

// Coerce converts v into the canonical value for declaredType. The boolean is
// false when v carries no usable value for that type.
func Coerce(v Node, declaredType string) (Value, bool) {
	switch FamilyOf(declaredType) {
	case FamilyBool:
		return coerceBool(v)
	case FamilyDate:
		return coerceDate(v)
	case FamilyNumber:
		return coerceNumber(v)
	default:
		return coerceString(v)
	}
}

func coerceBool(v Node) (Value, bool) {
	switch v.kind {
	case KindBool:
		return BoolValue(v.b), true
	case KindNumber:
		if math.IsNaN(v.num) {
			return BoolValue(false), true
		}
		return BoolValue(v.num != 0), true
	case KindString:
		tok := strings.ToLower(strings.TrimSpace(v.str))
		if trueTokens[tok] {
			return BoolValue(true), true
		}
		if falseTokens[tok] {
			return BoolValue(false), true
		}
	}
	return Value{}, false
}

func coerceDate(v Node) (Value, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.Abs(v.num) > maxEpochMillis {
			return Value{}, false
		}
		return DateValue(time.UnixMilli(int64(math.Trunc(v.num)))), true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return Value{}, false
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return Value{}, false
		}
		// Fragments like "12:" or "1:2:3:4" parse with no year component.
		if t.Year() < 1 || math.Abs(float64(t.UnixMilli())) > maxEpochMillis {
			return Value{}, false
		}
		return DateValue(t), true
	}
	return Value{}, false
}

func coerceNumber(v Node) (Value, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return Value{}, false
		}
		return NumberValue(v.num), true
	case KindString:
		s := strings.TrimSpace(strings.ReplaceAll(v.str, ",", ""))
		if s == "" {
			return Value{}, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, false
		}
		return NumberValue(f), true
	}
	return Value{}, false
}

func coerceString(v Node) (Value, bool) {
	switch v.kind {
	case KindString:
		return StringValue(v.str), true
	case KindNumber:
		return StringValue(FormatNumber(v.num)), true
	case KindBool:
		return StringValue(strconv.FormatBool(v.b)), true
	}
	return Value{}, false
}
