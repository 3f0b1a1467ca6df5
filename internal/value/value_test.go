package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_ResolvesDottedPath(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"address": map[string]any{
				"city": "london",
			},
		},
	}

	v, ok := Get(data, "user.address.city")
	assert.True(t, ok)
	assert.Equal(t, "london", v)
}

func TestGet_MissingIntermediateKeyFails(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "ada"}}

	_, ok := Get(data, "user.address.city")
	assert.False(t, ok)
}

func TestGet_NonObjectIntermediateFails(t *testing.T) {
	data := map[string]any{"user": "ada"}

	_, ok := Get(data, "user.name")
	assert.False(t, ok)
}

func TestGet_EmptyPathReturnsWholeMap(t *testing.T) {
	data := map[string]any{"a": 1}

	v, ok := Get(data, "")
	assert.True(t, ok)
	assert.Equal(t, data, v)
}

func TestStringify(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "hello", "hello"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"whole float", float64(3), "3"},
		{"fractional float", float64(3.5), "3.5"},
		{"array", []any{"a", "b"}, `["a","b"]`},
		{"object", map[string]any{"x": float64(1)}, `{"x":1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Stringify(c.in))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(true))
	assert.True(t, Truthy("non-empty"))
	assert.True(t, Truthy(float64(1)))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(nil))
}

func TestEqual_StrictAndNumericAware(t *testing.T) {
	assert.True(t, Equal(float64(1), float64(1)))
	assert.True(t, Equal(float64(1), 1))
	assert.False(t, Equal("1", float64(1)))
	assert.True(t, Equal("a", "a"))
	assert.False(t, Equal("a", "b"))
	assert.True(t, Equal(nil, nil))
}

func TestCompare_NumericAndLexicographic(t *testing.T) {
	r, ok := Compare(float64(1), float64(2))
	assert.True(t, ok)
	assert.Equal(t, -1, r)

	r, ok = Compare("b", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, r)

	_, ok = Compare(true, false)
	assert.False(t, ok)
}

func TestMap_CloneIsShallowAndIndependent(t *testing.T) {
	m := Map{"a": 1}
	c := m.Clone()
	c["a"] = 2
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, 2, c["a"])
}
