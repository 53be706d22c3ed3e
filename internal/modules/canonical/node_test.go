package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	n, err := Parse([]byte(`{"a":[1,"two",true,null],"b":{"c":1.5}}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, n.Kind())
	assert.Equal(t, []string{"a", "b"}, n.Keys())

	a, ok := n.Get("a")
	require.True(t, ok)
	require.Equal(t, 4, a.Len())

	first, _ := a.Index(0)
	f, ok := first.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	last, _ := a.Index(3)
	assert.True(t, last.IsNull())

	_, ok = a.Index(4)
	assert.False(t, ok)
}

func TestParseNumbers(t *testing.T) {
	n, err := Parse([]byte(`{"big":1e400,"wide":12345678901234567890,"frac":0.1,"neg":-7}`))
	require.NoError(t, err)

	for key, want := range map[string]float64{"wide": 12345678901234567890, "frac": 0.1, "neg": -7} {
		v, ok := n.Get(key)
		require.True(t, ok, key)
		require.Equal(t, KindNumber, v.Kind(), key)
		got, _ := v.AsNumber()
		assert.Equal(t, want, got, key)
	}

	big, ok := n.Get("big")
	require.True(t, ok)
	assert.Equal(t, "1e400", big.Interface())
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)

	_, err = Parse([]byte(`{"a":`))
	require.Error(t, err)
}

func TestNodeJSONRoundTrip(t *testing.T) {
	src := map[string]any{
		"name":  "Jane",
		"score": 712.0,
		"tags":  []any{"x", false},
		"none":  nil,
	}
	n := FromAny(src)
	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, src, back.Interface())
}

func TestFromAnyIntegers(t *testing.T) {
	n := FromAny(map[string]any{"i": 3, "u": uint64(4), "j": json.Number("5.5")})
	for key, want := range map[string]float64{"i": 3, "u": 4, "j": 5.5} {
		v, ok := n.Get(key)
		require.True(t, ok, key)
		got, ok := v.AsNumber()
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestZeroNodeIsNull(t *testing.T) {
	var n Node
	assert.True(t, n.IsNull())
	assert.Equal(t, "null", n.Kind().String())
	_, ok := n.Get("x")
	assert.False(t, ok)
}
