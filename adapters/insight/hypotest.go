package insight

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

// TestKind identifies a supported A/B hypothesis test
type TestKind string

const (
	TestWelchT      TestKind = "welch_t"
	TestMannWhitney TestKind = "mann_whitney"
	TestProportions TestKind = "proportions"
)

// ParseTestKind resolves a configured test name
func ParseTestKind(name string) (TestKind, error) {
	switch TestKind(name) {
	case TestWelchT, TestMannWhitney, TestProportions:
		return TestKind(name), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownTestKind, name)
}

// KPISeverity selects TotalClaims restricted to claiming policies. The
// other KPIs address the full population.
const KPISeverity = "Severity"

// TestResult is the outcome of one A/B test
type TestResult struct {
	Kind      TestKind `json:"kind"`
	Feature   string   `json:"feature"`
	GroupA    string   `json:"group_a"`
	GroupB    string   `json:"group_b"`
	KPI       string   `json:"kpi"`
	NA        int      `json:"n_a"`
	NB        int      `json:"n_b"`
	Statistic float64  `json:"statistic"`
	PValue    float64  `json:"p_value"`
	Reject    bool     `json:"reject_null"`
}

// Tester runs A/B hypothesis tests at a fixed significance level
type Tester struct {
	Alpha float64
}

// Run segments the frame on a categorical feature and tests whether the
// chosen KPI differs between the two groups
func (t *Tester) Run(f *frame.Frame, kind TestKind, feature, groupA, groupB, kpi string) (*TestResult, error) {
	segmented, kpiColumn, err := segment(f, kpi)
	if err != nil {
		return nil, err
	}

	labels, err := segmented.Categorical(feature)
	if err != nil {
		return nil, err
	}
	values, err := segmented.Numeric(kpiColumn)
	if err != nil {
		return nil, err
	}

	var a, b []float64
	for i, label := range labels {
		if math.IsNaN(values[i]) {
			continue
		}
		switch label {
		case groupA:
			a = append(a, values[i])
		case groupB:
			b = append(b, values[i])
		}
	}
	if len(a) < 2 || len(b) < 2 {
		return nil, fmt.Errorf("%w: groups %q=%d and %q=%d", core.ErrInsufficientData, groupA, len(a), groupB, len(b))
	}

	result := &TestResult{
		Kind: kind, Feature: feature, GroupA: groupA, GroupB: groupB,
		KPI: kpi, NA: len(a), NB: len(b),
	}
	switch kind {
	case TestWelchT:
		result.Statistic, result.PValue = welchT(a, b)
	case TestMannWhitney:
		result.Statistic, result.PValue = mannWhitneyU(a, b)
	case TestProportions:
		result.Statistic, result.PValue = proportionsChi2(a, b)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTestKind, kind)
	}
	result.Reject = result.PValue < t.Alpha
	return result, nil
}

// segment maps the KPI name to a column, filtering to claiming policies
// for the severity KPI
func segment(f *frame.Frame, kpi string) (*frame.Frame, string, error) {
	if kpi != KPISeverity {
		return f, kpi, nil
	}
	claims, err := f.Numeric(ColTotalClaims)
	if err != nil {
		return nil, "", err
	}
	filtered, err := f.Filter(func(row int) bool { return claims[row] > 0 })
	if err != nil {
		return nil, "", err
	}
	if filtered.Rows() == 0 {
		return nil, "", fmt.Errorf("%w: no claiming policies for severity test", core.ErrInsufficientData)
	}
	return filtered, ColTotalClaims, nil
}

// welchT is the unequal-variance t-test with Welch-Satterthwaite
// degrees of freedom
func welchT(a, b []float64) (statistic, p float64) {
	meanA, varA := meanVar(a)
	meanB, varB := meanVar(b)
	na, nb := float64(len(a)), float64(len(b))

	se2 := varA/na + varB/nb
	if se2 == 0 {
		return 0, 1
	}
	statistic = (meanA - meanB) / math.Sqrt(se2)

	df := se2 * se2 / (varA*varA/(na*na*(na-1)) + varB*varB/(nb*nb*(nb-1)))
	if df < 1 || math.IsNaN(df) {
		df = 1
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * (1 - tDist.CDF(math.Abs(statistic)))
	return statistic, p
}

// mannWhitneyU uses the normal approximation with midranks and a tie
// correction on the variance
func mannWhitneyU(a, b []float64) (statistic, p float64) {
	na, nb := float64(len(a)), float64(len(b))
	n := len(a) + len(b)

	pooled := make([]float64, 0, n)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool { return pooled[order[x]] < pooled[order[y]] })

	ranks := make([]float64, n)
	tieTerm := 0.0
	for i := 0; i < n; {
		j := i
		for j < n && pooled[order[j]] == pooled[order[i]] {
			j++
		}
		midrank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = midrank
		}
		tied := float64(j - i)
		tieTerm += tied * (tied*tied - 1)
		i = j
	}

	rankSumA := 0.0
	for i := 0; i < len(a); i++ {
		rankSumA += ranks[i]
	}
	u := rankSumA - na*(na+1)/2

	mu := na * nb / 2
	nf := float64(n)
	sigma2 := na * nb / 12 * ((nf + 1) - tieTerm/(nf*(nf-1)))
	if sigma2 <= 0 {
		return u, 1
	}
	z := (u - mu) / math.Sqrt(sigma2)
	p = 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
	return u, p
}

// proportionsChi2 tests equality of two binomial proportions with a
// 2x2 chi-squared statistic (df = 1)
func proportionsChi2(a, b []float64) (statistic, p float64) {
	successA, successB := countPositive(a), countPositive(b)
	na, nb := float64(len(a)), float64(len(b))

	observed := [2][2]float64{
		{successA, na - successA},
		{successB, nb - successB},
	}

	total := na + nb
	colSuccess := successA + successB
	colFailure := total - colSuccess
	if colSuccess == 0 || colFailure == 0 {
		return 0, 1
	}

	rowTotals := [2]float64{na, nb}
	colTotals := [2]float64{colSuccess, colFailure}
	statistic = 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowTotals[i] * colTotals[j] / total
			d := observed[i][j] - expected
			statistic += d * d / expected
		}
	}

	chiDist := distuv.ChiSquared{K: 1}
	p = 1 - chiDist.CDF(statistic)
	return statistic, p
}

func countPositive(values []float64) float64 {
	count := 0.0
	for _, v := range values {
		if v != 0 {
			count++
		}
	}
	return count
}

func meanVar(values []float64) (mean, variance float64) {
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n - 1
	return mean, variance
}
