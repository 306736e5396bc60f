package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
	}{
		{"float passthrough", 450000.0, 450000},
		{"int", 450000, 450000},
		{"numeric string", "450000", 450000},
		{"string with thousands separators", "1,250,000", 1250000},
		{"garbage string", "not-a-number", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"negative clamps to zero", -100.0, 0},
		{"NaN", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 0},
		{"bool is garbage", true, 0},
		{"bytes from sqlite", []byte("325000"), 325000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestFloat(t *testing.T) {
	require.NotNil(t, Float(2.5))
	assert.Equal(t, 2.5, *Float(2.5))
	assert.Nil(t, Float("garbage"))
	assert.Nil(t, Float(nil))
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(-1)))
}

func TestInt(t *testing.T) {
	require.NotNil(t, Int(3.0))
	assert.Equal(t, 3, *Int(3.0))
	assert.Equal(t, 3, *Int("3"))
	assert.Nil(t, Int("three"))
	assert.Nil(t, Int(nil))
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected []string
	}{
		{"native string slice", []string{"a.jpg", "b.jpg"}, []string{"a.jpg", "b.jpg"}},
		{"interface slice", []interface{}{"a.jpg", "b.jpg"}, []string{"a.jpg", "b.jpg"}},
		{"json encoded string", `["a.jpg","b.jpg"]`, []string{"a.jpg", "b.jpg"}},
		{"comma separated string", "a.jpg, b.jpg ,c.jpg", []string{"a.jpg", "b.jpg", "c.jpg"}},
		{"single value wraps", "a.jpg", []string{"a.jpg"}},
		{"empty string", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"nil", nil, []string{}},
		{"malformed json falls through to wrap", `["a.jpg"`, []string{`["a.jpg"`}},
		{"non-string type", 42, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringList(tt.input)
			require.NotNil(t, got, "must always materialize a real slice")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoordinates(t *testing.T) {
	coords := Coordinates(-24.6282, 25.9231)
	require.NotNil(t, coords)
	assert.Equal(t, -24.6282, coords.Lat)
	assert.Equal(t, 25.9231, coords.Lng)

	assert.Nil(t, Coordinates(nil, 25.9231))
	assert.Nil(t, Coordinates(-24.6282, nil))
	assert.Nil(t, Coordinates("garbage", 25.9231))
	assert.Nil(t, Coordinates(math.NaN(), 25.9231))
	assert.Nil(t, Coordinates(-24.6282, math.Inf(1)))

	// String coordinates from degraded providers still parse
	fromStrings := Coordinates("-24.6282", "25.9231")
	require.NotNil(t, fromStrings)
	assert.Equal(t, -24.6282, fromStrings.Lat)
}
