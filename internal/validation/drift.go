package validation

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	gonumfloats "gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	KindNumerical   = "numerical"
	KindCategorical = "categorical"

	MethodKolmogorovSmirnov = "ks"
	MethodTotalVariation    = "tvd"
)

// ColumnDrift is the drift verdict for a single column.
type ColumnDrift struct {
	Column    string  `json:"column"`
	Kind      string  `json:"kind"`
	Method    string  `json:"method"`
	Statistic float64 `json:"statistic"`
	Threshold float64 `json:"threshold"`
	Drift     bool    `json:"drift"`
}

// DetectDrift compares the current dataset with the reference for every
// numerical and categorical column of the schema. Columns with no value on
// either side are skipped.
func DetectDrift(s *Schema, reference, current *dataset.Dataset, alpha, categoricalThreshold float64) []ColumnDrift {
	var drifts []ColumnDrift

	for _, col := range s.NumericalColumns {
		ref, cur := floats(reference.Values(col)), floats(current.Values(col))
		if len(ref) == 0 || len(cur) == 0 {
			continue
		}
		stat := KSStatistic(ref, cur)
		threshold := KSCriticalValue(alpha, len(ref), len(cur))
		drifts = append(drifts, ColumnDrift{
			Column:    col,
			Kind:      KindNumerical,
			Method:    MethodKolmogorovSmirnov,
			Statistic: stat,
			Threshold: threshold,
			Drift:     stat > threshold,
		})
	}

	for _, col := range s.CategoricalColumns {
		ref, cur := reference.Values(col), current.Values(col)
		if len(ref) == 0 || len(cur) == 0 {
			continue
		}
		stat := TotalVariationDistance(ref, cur)
		drifts = append(drifts, ColumnDrift{
			Column:    col,
			Kind:      KindCategorical,
			Method:    MethodTotalVariation,
			Statistic: stat,
			Threshold: categoricalThreshold,
			Drift:     stat > categoricalThreshold,
		})
	}

	return drifts
}

// KSStatistic is the two-sample Kolmogorov-Smirnov statistic: the largest
// distance between the empirical distribution functions of a and b.
func KSStatistic(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return stat.KolmogorovSmirnov(x, nil, y, nil)
}

// KSCriticalValue is the asymptotic rejection threshold of the two-sample
// test at significance alpha.
func KSCriticalValue(alpha float64, n, m int) float64 {
	c := math.Sqrt(-math.Log(alpha/2) / 2)
	fn, fm := float64(n), float64(m)
	return c * math.Sqrt((fn+fm)/(fn*fm))
}

// TotalVariationDistance is half the L1 distance between the category
// frequencies of a and b, in [0, 1].
func TotalVariationDistance(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	fa, fb := frequencies(a), frequencies(b)

	categories := make([]string, 0, len(fa)+len(fb))
	for k := range fa {
		categories = append(categories, k)
	}
	for k := range fb {
		if _, ok := fa[k]; !ok {
			categories = append(categories, k)
		}
	}

	p, q := make([]float64, len(categories)), make([]float64, len(categories))
	for i, k := range categories {
		p[i], q[i] = fa[k], fb[k]
	}
	return gonumfloats.Distance(p, q, 1) / 2
}

func frequencies(values []string) map[string]float64 {
	f := make(map[string]float64)
	for _, v := range values {
		f[v]++
	}
	for k := range f {
		f[k] /= float64(len(values))
	}
	return f
}

// floats keeps the values that parse as numbers.
func floats(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
