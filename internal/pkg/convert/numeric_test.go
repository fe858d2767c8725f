package convert

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	assert.Equal(t, 1.5, Float(1.5))
	assert.Equal(t, 2.0, Float(int64(2)))
	assert.Equal(t, 3.5, Float("3.5"))
	assert.Equal(t, 4.0, Float([]byte("4")))
	assert.True(t, math.IsNaN(Float(nil)))
	assert.True(t, math.IsNaN(Float("not a number")))
	assert.True(t, math.IsNaN(Float(struct{}{})))
}

func TestString(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "y", String([]byte("y")))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "7", String(int64(7)))
}

func TestTime(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := Time(int64(1704067200))
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = Time(int64(1704067200000))
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = Time("2024-01-01")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = Time(true)
	assert.Error(t, err)
}
