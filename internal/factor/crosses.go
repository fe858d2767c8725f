package factor

import (
	"math"
	"strconv"
	"strings"

	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

// Cross output names carry the cross name as a prefix so derived columns
// never collide with (or masquerade as) indicator columns.

func mulCross(cols *series.ColumnSet, _ map[string]any) (*series.ColumnSet, error) {
	names := cols.Names()
	rows := cols.Rows()
	vals := make([]float64, rows)
	for i := range vals {
		vals[i] = 1
	}
	for _, name := range names {
		col, _ := cols.Column(name)
		for i := range vals {
			vals[i] *= col[i]
		}
	}
	out := series.NewColumnSet()
	if err := out.Add("mul_"+strings.Join(names, "__"), vals); err != nil {
		return nil, err
	}
	return out, nil
}

type wsumArgs struct {
	Weights [][]float64 `mapstructure:"weights"`
}

// wsumCross is registered as sequential: the stage hands it ordered
// permutations, and each weight vector of matching length yields one column.
// Weight vectors of a different length are skipped, so one spec can carry
// weights for several orders.
func wsumCross(cols *series.ColumnSet, raw map[string]any) (*series.ColumnSet, error) {
	a := wsumArgs{Weights: [][]float64{{0.5, 0.5}}}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	names := cols.Names()
	rows := cols.Rows()
	out := series.NewColumnSet()
	for _, w := range a.Weights {
		if len(w) != len(names) {
			continue
		}
		vals := make([]float64, rows)
		for k, name := range names {
			col, _ := cols.Column(name)
			for i := range vals {
				vals[i] += w[k] * col[i]
			}
		}
		parts := make([]string, len(w))
		for k, x := range w {
			parts[k] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		name := "wsum_" + strings.Join(parts, "_") + "_" + strings.Join(names, "__")
		if err := out.Add(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type pcaArgs struct {
	NComponents int `mapstructure:"n_components"`
}

// pcaCross is order-insensitive: it always consumes the full eligible column
// set. NaN cells are replaced with the column mean before standardizing,
// then components are extracted by power iteration with deflation. The
// eigenvector sign is normalized so output is reproducible.
func pcaCross(cols *series.ColumnSet, raw map[string]any) (*series.ColumnSet, error) {
	a := pcaArgs{NComponents: 1}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	names := cols.Names()
	rows := cols.Rows()
	dims := len(names)
	if a.NComponents < 1 {
		a.NComponents = 1
	}
	if a.NComponents > dims {
		a.NComponents = dims
	}

	z := make([][]float64, dims)
	for j, name := range names {
		col, _ := cols.Column(name)
		z[j] = standardize(col)
	}

	// Covariance of the standardized columns.
	cov := make([][]float64, dims)
	denom := float64(rows - 1)
	if denom < 1 {
		denom = 1
	}
	for j := range cov {
		cov[j] = make([]float64, dims)
		for k := 0; k <= j; k++ {
			var sum float64
			for i := 0; i < rows; i++ {
				sum += z[j][i] * z[k][i]
			}
			cov[j][k] = sum / denom
			cov[k][j] = cov[j][k]
		}
	}

	out := series.NewColumnSet()
	for c := 0; c < a.NComponents; c++ {
		vec, eigval := powerIteration(cov)
		vals := make([]float64, rows)
		for i := 0; i < rows; i++ {
			var sum float64
			for j := 0; j < dims; j++ {
				sum += z[j][i] * vec[j]
			}
			vals[i] = sum
		}
		if err := out.Add("pca_"+strconv.Itoa(c+1), vals); err != nil {
			return nil, err
		}
		deflate(cov, vec, eigval)
	}
	return out, nil
}

func standardize(col []float64) []float64 {
	n := len(col)
	var sum float64
	var count int
	for _, v := range col {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	mean := 0.0
	if count > 0 {
		mean = sum / float64(count)
	}
	filled := make([]float64, n)
	var variance float64
	for i, v := range col {
		if math.IsNaN(v) {
			v = mean
		}
		filled[i] = v
		variance += (v - mean) * (v - mean)
	}
	std := 0.0
	if n > 1 {
		std = math.Sqrt(variance / float64(n-1))
	}
	for i := range filled {
		if std > 0 {
			filled[i] = (filled[i] - mean) / std
		} else {
			filled[i] = 0
		}
	}
	return filled
}

const (
	powerIterations = 200
	powerTolerance  = 1e-12
)

func powerIteration(m [][]float64) ([]float64, float64) {
	dims := len(m)
	vec := make([]float64, dims)
	for i := range vec {
		vec[i] = 1 / math.Sqrt(float64(dims))
	}
	next := make([]float64, dims)
	var eigval float64
	for iter := 0; iter < powerIterations; iter++ {
		for j := 0; j < dims; j++ {
			var sum float64
			for k := 0; k < dims; k++ {
				sum += m[j][k] * vec[k]
			}
			next[j] = sum
		}
		norm := vectorNorm(next)
		if norm < powerTolerance {
			break
		}
		var delta float64
		for j := range next {
			next[j] /= norm
			delta += math.Abs(next[j] - vec[j])
		}
		copy(vec, next)
		eigval = norm
		if delta < powerTolerance {
			break
		}
	}
	// Fix the sign on the largest-magnitude entry.
	maxIdx := 0
	for j := 1; j < dims; j++ {
		if math.Abs(vec[j]) > math.Abs(vec[maxIdx]) {
			maxIdx = j
		}
	}
	if vec[maxIdx] < 0 {
		for j := range vec {
			vec[j] = -vec[j]
		}
	}
	return vec, eigval
}

func vectorNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func deflate(m [][]float64, vec []float64, eigval float64) {
	for j := range m {
		for k := range m[j] {
			m[j][k] -= eigval * vec[j] * vec[k]
		}
	}
}
