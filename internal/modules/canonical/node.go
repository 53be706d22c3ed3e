package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind tags the shape held by a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is an immutable JSON value. The zero Node is null.
type Node struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Node
	obj  map[string]Node
}

var Null = Node{}

func Bool(v bool) Node      { return Node{kind: KindBool, b: v} }
func Number(v float64) Node { return Node{kind: KindNumber, num: v} }
func String(v string) Node  { return Node{kind: KindString, str: v} }
func Array(v ...Node) Node  { return Node{kind: KindArray, arr: v} }
func Object(v map[string]Node) Node {
	if v == nil {
		v = map[string]Node{}
	}
	return Node{kind: KindObject, obj: v}
}

func (n Node) Kind() Kind   { return n.kind }
func (n Node) IsNull() bool { return n.kind == KindNull }
func (n Node) Len() int     { return len(n.arr) }
func (n Node) Elements() []Node {
	if n.kind != KindArray {
		return nil
	}
	return n.arr
}

func (n Node) AsBool() (bool, bool) {
	return n.b, n.kind == KindBool
}

func (n Node) AsNumber() (float64, bool) {
	return n.num, n.kind == KindNumber
}

func (n Node) AsString() (string, bool) {
	return n.str, n.kind == KindString
}

// Get looks up key on an object node.
func (n Node) Get(key string) (Node, bool) {
	if n.kind != KindObject {
		return Null, false
	}
	v, ok := n.obj[key]
	return v, ok
}

// Index returns the i-th element of an array node.
func (n Node) Index(i int) (Node, bool) {
	if n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return Null, false
	}
	return n.arr[i], true
}

// Keys returns object keys in sorted order.
func (n Node) Keys() []string {
	if n.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(n.obj))
	for k := range n.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromAny converts values produced by encoding/json (or equivalent Go
// literals) into a Node. Unsupported types become null.
func FromAny(v any) Node {
	switch t := v.(type) {
	case nil:
		return Null
	case Node:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case []any:
		out := make([]Node, len(t))
		for i, e := range t {
			out[i] = FromAny(e)
		}
		return Array(out...)
	case []Node:
		return Array(t...)
	case map[string]any:
		out := make(map[string]Node, len(t))
		for k, e := range t {
			out[k] = FromAny(e)
		}
		return Object(out)
	case map[string]Node:
		return Object(t)
	default:
		return Null
	}
}

// Parse decodes a JSON document into a Node. Numbers outside the float64
// range are kept as their literal text.
func Parse(raw []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Null, fmt.Errorf("decode document: %w", err)
	}
	if dec.More() {
		return Null, fmt.Errorf("decode document: trailing data after top-level value")
	}
	return FromAny(v), nil
}

// Interface converts the node back into plain Go values.
func (n Node) Interface() any {
	switch n.kind {
	case KindBool:
		return n.b
	case KindNumber:
		return n.num
	case KindString:
		return n.str
	case KindArray:
		out := make([]any, len(n.arr))
		for i, e := range n.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(n.obj))
		for k, e := range n.obj {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.kind == KindNumber && (math.IsNaN(n.num) || math.IsInf(n.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Interface())
}

func (n *Node) UnmarshalJSON(raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
