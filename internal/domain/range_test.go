package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeValueJSONIsExternallyTagged(t *testing.T) {
	data, err := json.Marshal(IntegerValue(4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Integer":4}`, string(data))

	var v RangeValue
	require.NoError(t, json.Unmarshal([]byte(`{"Float":2.5}`), &v))
	assert.True(t, v.IsFloat())
	assert.Equal(t, 2.5, *v.Float)
}

func TestRangeValueValid(t *testing.T) {
	assert.True(t, IntegerValue(1).Valid())
	assert.True(t, FloatValue(1).Valid())
	assert.False(t, RangeValue{}.Valid())

	i, f := int64(1), 1.0
	assert.False(t, RangeValue{Integer: &i, Float: &f}.Valid())
	assert.Equal(t, "Integer(1)", IntegerValue(1).String())
	assert.Equal(t, "Invalid", RangeValue{}.String())
}

func TestRangeKindValidate(t *testing.T) {
	assert.NoError(t, RangeKind{Integer: &IntegerRange{Min: 0, Max: 10}}.Validate())
	assert.NoError(t, RangeKind{Float: &FloatRange{Min: -1, Max: 1}}.Validate())
	assert.Error(t, RangeKind{}.Validate())
	assert.Error(t, RangeKind{Integer: &IntegerRange{Min: 5, Max: 1}}.Validate())
	assert.Error(t, RangeKind{Integer: &IntegerRange{}, Float: &FloatRange{}}.Validate())
}

func TestRangeKindContains(t *testing.T) {
	ints := RangeKind{Integer: &IntegerRange{Min: 0, Max: 10}}
	assert.True(t, ints.Contains(IntegerValue(10)))
	assert.False(t, ints.Contains(IntegerValue(11)))
	assert.False(t, ints.Contains(FloatValue(1)))

	floats := RangeKind{Float: &FloatRange{Min: 0, Max: 1}}
	assert.True(t, floats.Contains(FloatValue(0.5)))
	assert.False(t, floats.Contains(IntegerValue(0)))
}

func TestAddressSpace(t *testing.T) {
	assert.Equal(t, SpaceEntity, Address("E3xyz").Space())
	assert.Equal(t, SpaceRevision, Address("R3xyz").Space())
	assert.Equal(t, SpaceUnknown, Address("X3xyz").Space())
	assert.Equal(t, SpaceUnknown, Address("E").Space())
	assert.Equal(t, "revision", SpaceRevision.String())
}
