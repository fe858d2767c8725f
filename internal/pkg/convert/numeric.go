// Package convert turns the loosely typed cell values that loaders receive
// (database drivers, JSON decoders, REST payloads) into the engine's types.
package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"factorizer/internal/series"
)

// Float converts a cell to float64. Nulls and unparseable values come back
// as NaN, the engine's undefined marker.
func Float(v any) float64 {
	switch t := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case []byte:
		return Float(string(t))
	default:
		return math.NaN()
	}
}

// String converts a cell to its text form.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Time converts a cell to a timestamp. Integers are unix epochs, seconds or
// milliseconds by magnitude; text goes through the shared timestamp parser.
func Time(v any) (time.Time, error) {
	switch t := v.(type) {
	case int64:
		if t > 1e12 {
			return time.UnixMilli(t).UTC(), nil
		}
		return time.Unix(t, 0).UTC(), nil
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		return series.ParseTime(t)
	case []byte:
		return series.ParseTime(string(t))
	case time.Time:
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}
