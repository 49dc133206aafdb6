package imposters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddIfTrueOmitsFalsyValues(t *testing.T) {
	s := Structure{}
	addIfTrue(s, "nil", nil)
	addIfTrue(s, "false", false)
	addIfTrue(s, "zero", 0)
	addIfTrue(s, "zeroFloat", 0.0)
	addIfTrue(s, "empty", "")
	addIfTrue(s, "emptyMap", map[string]string{})
	addIfTrue(s, "nilMap", map[string]string(nil))
	addIfTrue(s, "emptySlice", []string{})
	addIfTrue(s, "nilPointer", (*Response)(nil))
	assert.Empty(t, s)
}

func TestAddIfTrueKeepsTruthyValues(t *testing.T) {
	s := Structure{}
	addIfTrue(s, "bool", true)
	addIfTrue(s, "int", 7)
	addIfTrue(s, "string", "x")
	addIfTrue(s, "map", map[string]string{"k": "v"})
	addIfTrue(s, "slice", []string{"x"})
	assert.Len(t, s, 5)
}

func TestIntValueCoercion(t *testing.T) {
	for _, raw := range []interface{}{200, int64(200), float64(200), json.Number("200")} {
		n, ok := intValue(raw)
		assert.True(t, ok)
		assert.Equal(t, 200, n)
	}

	_, ok := intValue("200")
	assert.False(t, ok)
}

func TestStringMapValueCoercion(t *testing.T) {
	m, ok := stringMapValue(map[string]interface{}{"k": "v"})
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"k": "v"}, m)

	_, ok = stringMapValue(map[string]interface{}{"k": 1})
	assert.False(t, ok)

	_, ok = stringMapValue("not a map")
	assert.False(t, ok)
}

func TestStringListValueCoercion(t *testing.T) {
	single, ok := stringListValue("one")
	assert.True(t, ok)
	assert.Equal(t, []string{"one"}, single)

	many, ok := stringListValue([]interface{}{"one", "two"})
	assert.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, many)

	_, ok = stringListValue([]interface{}{"one", 2})
	assert.False(t, ok)
}

func TestStructureJSONRoundTrip(t *testing.T) {
	original := Structure{"is": Structure{"body": "hi"}}

	data, err := original.JSON()
	assert.NoError(t, err)

	parsed, err := StructureFromJSON(data)
	assert.NoError(t, err)
	nested, ok := nestedStructure(parsed["is"])
	assert.True(t, ok)
	assert.Equal(t, "hi", nested["body"])
}

func TestStructureFromInvalidJSON(t *testing.T) {
	_, err := StructureFromJSON([]byte("{"))
	assert.Error(t, err)
}
