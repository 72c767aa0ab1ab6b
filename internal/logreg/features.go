// Package logreg trains and evaluates the logistic-regression policy that
// imitates a heuristic controller. Inputs are raw observations; the model
// owns feature expansion and standardization so artifacts are self-contained.
package logreg

import (
	"fmt"

	"github.com/vovakirdan/flappy-lab/internal/env"
)

// MaxDegree is the highest supported polynomial degree.
const MaxDegree = 2

// ExpandedSize returns the feature count after expanding n inputs.
func ExpandedSize(n, degree int) int {
	if degree <= 1 {
		return n
	}
	return n + n + n*(n-1)/2
}

// Expand returns x unchanged for degree 1. For degree 2 it appends the
// squares of every input, then the products x[i]*x[j] for i < j.
func Expand(x []float64, degree int) []float64 {
	if degree <= 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	n := len(x)
	out := make([]float64, 0, ExpandedSize(n, degree))
	out = append(out, x...)
	for i := 0; i < n; i++ {
		out = append(out, x[i]*x[i])
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, x[i]*x[j])
		}
	}
	return out
}

// ExpandAll expands every row of xs.
func ExpandAll(xs [][]float64, degree int) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = Expand(x, degree)
	}
	return out
}

// FeatureNames returns the column names of the expanded observation,
// in the order Expand produces them.
func FeatureNames(degree int) []string {
	base := env.FeatureNames[:]
	if degree <= 1 {
		out := make([]string, len(base))
		copy(out, base)
		return out
	}

	n := len(base)
	out := make([]string, 0, ExpandedSize(n, degree))
	out = append(out, base...)
	for i := 0; i < n; i++ {
		out = append(out, base[i]+"^2")
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, fmt.Sprintf("%s*%s", base[i], base[j]))
		}
	}
	return out
}
