package frame

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the average of the present values of a numeric column.
// A column with no present values has a NaN mean.
func (d *Dataset) Mean(col string) (float64, error) {
	vals, err := d.presentFloats(col)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(vals, nil), nil
}

// Median returns the middle of the sorted present values, averaging the
// two central values when their count is even
func (d *Dataset) Median(col string) (float64, error) {
	vals, err := d.presentFloats(col)
	if err != nil {
		return 0, err
	}
	sort.Float64s(vals)
	return Quantile(vals, 0.5), nil
}

// Mode returns every most frequent present value in ascending order
func (d *Dataset) Mode(col string) ([]float64, error) {
	vals, err := d.presentFloats(col)
	if err != nil {
		return nil, err
	}
	counts := make(map[float64]int, len(vals))
	best := 0
	for _, v := range vals {
		counts[v]++
		if counts[v] > best {
			best = counts[v]
		}
	}
	modes := make([]float64, 0, 1)
	for v, c := range counts {
		if c == best {
			modes = append(modes, v)
		}
	}
	sort.Float64s(modes)
	return modes, nil
}

// Std returns the sample standard deviation (n-1) of the present values
func (d *Dataset) Std(col string) (float64, error) {
	vals, err := d.presentFloats(col)
	if err != nil {
		return 0, err
	}
	if len(vals) < 2 {
		return math.NaN(), nil
	}
	return stat.StdDev(vals, nil), nil
}

// PresentFloats returns the non-missing values of a numeric column in row order
func (d *Dataset) PresentFloats(col string) ([]float64, error) {
	return d.presentFloats(col)
}

func (d *Dataset) presentFloats(col string) ([]float64, error) {
	all, err := d.Floats(col)
	if err != nil {
		return nil, err
	}
	return DropNaN(all), nil
}

// DropNaN returns the values of vals that are not NaN
func DropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Quantile interpolates linearly between the closest ranks of sorted, the
// type-7 estimator. Empty input yields NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
