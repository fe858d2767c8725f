package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorizer/internal/series"
)

func TestLookupUnknownName(t *testing.T) {
	r := New()

	_, err := r.Indicator("SMA")
	var unknown *UnknownCapabilityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, KindIndicator, unknown.Kind)
	assert.Equal(t, "SMA", unknown.Name)

	_, err = r.Loader("csv")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, KindLoader, unknown.Kind)

	_, err = r.Writer("csv")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, KindWriter, unknown.Kind)

	_, err = r.Cross("MUL")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, KindCross, unknown.Kind)
}

func TestNamesAreCaseInsensitive(t *testing.T) {
	r := New()
	r.RegisterIndicator("SMA", func(bars *series.Frame, args map[string]any) (*series.ColumnSet, error) {
		return series.NewColumnSet(), nil
	})

	for _, name := range []string{"SMA", "sma", "Sma"} {
		_, err := r.Indicator(name)
		assert.NoError(t, err, name)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	r := New()
	marker := func(tag string) IndicatorFunc {
		return func(bars *series.Frame, args map[string]any) (*series.ColumnSet, error) {
			out := series.NewColumnSet()
			return out, out.Add(tag, nil)
		}
	}
	r.RegisterIndicator("x", marker("first"))
	r.RegisterIndicator("X", marker("second"))

	fn, err := r.Indicator("x")
	require.NoError(t, err)
	out, err := fn(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, out.Names())
}

func TestCrossEntryTraits(t *testing.T) {
	r := New()
	r.RegisterCross("W_SUM", CrossEntry{
		Fn: func(cols *series.ColumnSet, args map[string]any) (*series.ColumnSet, error) {
			return series.NewColumnSet(), nil
		},
		OrderSensitive: true,
		Sequential:     true,
	})

	entry, err := r.Cross("w_sum")
	require.NoError(t, err)
	assert.True(t, entry.OrderSensitive)
	assert.True(t, entry.Sequential)
}
