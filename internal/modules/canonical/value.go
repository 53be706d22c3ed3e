package canonical

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the canonical scalar kinds a record may hold.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueDate
)

// ISOLayout renders dates as millisecond-precision UTC timestamps.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Value is a coerced canonical scalar.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
}

func StringValue(s string) Value  { return Value{kind: ValueString, str: s} }
func NumberValue(f float64) Value { return Value{kind: ValueNumber, num: f} }
func BoolValue(b bool) Value      { return Value{kind: ValueBool, b: b} }
func DateValue(t time.Time) Value { return Value{kind: ValueDate, t: t.UTC()} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Str() string     { return v.str }
func (v Value) Num() float64    { return v.num }
func (v Value) Bool() bool      { return v.b }
func (v Value) Time() time.Time { return v.t }

// Interface returns the JSON-friendly form; dates become ISO-8601 strings.
func (v Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	case ValueDate:
		return v.t.Format(ISOLayout)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return FormatNumber(v.num)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueDate:
		return v.t.Format(ISOLayout)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Record maps canonical field names to coerced values.
type Record map[string]Value

// Map returns the record as plain JSON-friendly values.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

// FormatNumber renders f the way ECMAScript's Number#toString does, so
// numbers coerced into string fields keep their legacy textual form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
