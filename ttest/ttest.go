// Package ttest implements Welch's unequal-variance two-sample t-test.
package ttest

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Result holds the outcome of a two-sided Welch test. Statistic is positive
// when the first sample has the larger mean.
type Result struct {
	Statistic float64
	PValue    float64
	DF        float64

	// N1 and N2 count the non-missing observations that entered the test.
	N1 int
	N2 int
}

// Significant reports whether the p-value falls strictly below alpha. A NaN
// p-value is never significant.
func (r Result) Significant(alpha float64) bool {
	return r.PValue < alpha
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Welch compares the means of x and y without assuming equal variances. NaN
// values are omitted. Fewer than two observations in either sample yields NaN
// for every statistic.
func Welch(x, y []float64) Result {
	x, y = dropNaN(x), dropNaN(y)

	out := Result{
		Statistic: math.NaN(),
		PValue:    math.NaN(),
		DF:        math.NaN(),
		N1:        len(x),
		N2:        len(y),
	}

	if len(x) < 2 || len(y) < 2 {
		return out
	}

	n1, n2 := float64(len(x)), float64(len(y))
	m1, v1 := stat.MeanVariance(x, nil)
	m2, v2 := stat.MeanVariance(y, nil)

	vn1, vn2 := v1/n1, v2/n2

	// Welch-Satterthwaite
	df := (vn1 + vn2) * (vn1 + vn2) / (vn1*vn1/(n1-1) + vn2*vn2/(n2-1))
	if math.IsNaN(df) {
		// Both samples have zero variance. The statistic is then infinite or
		// undefined, so any positive value works here.
		df = 1
	}

	out.DF = df
	out.Statistic = (m1 - m2) / math.Sqrt(vn1+vn2)
	out.PValue = twoSided(out.Statistic, df)

	return out
}

func twoSided(t, df float64) float64 {
	switch {
	case math.IsNaN(t):
		return math.NaN()
	case math.IsInf(t, 0):
		return 0
	}

	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))

	return math.Min(p, 1)
}
