package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumeric(t *testing.T) {
	xs := []float64{4, 1, 3, 2}

	assert.Equal(t, 10.0, Sum(xs))
	assert.Equal(t, 0.0, Sum(nil))

	m, ok := Mean(xs)
	assert.True(t, ok)
	assert.Equal(t, 2.5, m)

	med, _ := Median(xs)
	assert.Equal(t, 2.5, med)
	med, _ = Median([]float64{5, 1, 3})
	assert.Equal(t, 3.0, med)

	lo, _ := Min(xs)
	hi, _ := Max(xs)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.Equal(t, []float64{4, 1, 3, 2}, xs, "inputs are not reordered")

	q1, _ := Quantile(xs, 0.25)
	assert.Equal(t, 1.75, q1)
	q3, _ := Quantile(xs, 0.75)
	assert.Equal(t, 3.25, q3)

	sd, ok := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.True(t, ok)
	assert.InDelta(t, 2.138, sd, 0.001)

	sd, _ = StdDev([]float64{1e9 + 4, 1e9 + 7, 1e9 + 13, 1e9 + 16})
	assert.InDelta(t, 5.477, sd, 0.001, "large offsets keep their precision")

	_, ok = StdDev([]float64{1})
	assert.False(t, ok)

	for _, f := range []func([]float64) (float64, bool){Mean, Min, Max, Median} {
		_, ok := f(nil)
		assert.False(t, ok)
	}
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	assert.True(t, ok)
	assert.InDelta(t, 0.8, r, 1e-12)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)
}
