package insight

import (
	"errors"
	"math/rand"
	"testing"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

// segregatedFrame builds two provinces with clearly different premium
// levels and claim rates
func segregatedFrame(t *testing.T) *frame.Frame {
	t.Helper()
	rnd := rand.New(rand.NewSource(21))
	n := 400
	province := make([]string, n)
	premium := make([]float64, n)
	claims := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < n/2 {
			province[i] = "Gauteng"
			premium[i] = 200 + rnd.NormFloat64()*20
			if rnd.Float64() < 0.4 {
				claims[i] = 100 + rnd.Float64()*400
			}
		} else {
			province[i] = "WesternCape"
			premium[i] = 120 + rnd.NormFloat64()*20
			if rnd.Float64() < 0.05 {
				claims[i] = 100 + rnd.Float64()*400
			}
		}
	}

	f := frame.New()
	if err := f.AddCategorical("Province", province); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(ColTotalPremium, premium); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(ColTotalClaims, claims); err != nil {
		t.Fatal(err)
	}
	out, err := AddKPIColumns(f)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestWelchT_DetectsShift(t *testing.T) {
	f := segregatedFrame(t)
	tester := &Tester{Alpha: 0.05}

	result, err := tester.Run(f, TestWelchT, "Province", "Gauteng", "WesternCape", ColTotalPremium)
	if err != nil {
		t.Fatalf("test failed: %v", err)
	}
	if result.PValue < 0 || result.PValue > 1 {
		t.Fatalf("p-value %v out of [0,1]", result.PValue)
	}
	if !result.Reject {
		t.Errorf("strongly shifted means not detected: p=%v", result.PValue)
	}
}

func TestMannWhitney_DetectsShift(t *testing.T) {
	f := segregatedFrame(t)
	tester := &Tester{Alpha: 0.05}

	result, err := tester.Run(f, TestMannWhitney, "Province", "Gauteng", "WesternCape", ColTotalPremium)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Reject {
		t.Errorf("rank test missed the shift: p=%v", result.PValue)
	}
}

func TestProportions_DetectsClaimRateGap(t *testing.T) {
	f := segregatedFrame(t)
	tester := &Tester{Alpha: 0.05}

	result, err := tester.Run(f, TestProportions, "Province", "Gauteng", "WesternCape", ColClaimOccurred)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Reject {
		t.Errorf("claim-rate gap not detected: p=%v", result.PValue)
	}
}

func TestWelchT_NoDifference(t *testing.T) {
	n := 200
	group := make([]string, n)
	value := make([]float64, n)
	claims := make([]float64, n)
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			group[i] = "A"
		} else {
			group[i] = "B"
		}
		value[i] = 100 + rnd.NormFloat64()*10
	}

	f := frame.New()
	if err := f.AddCategorical("Group", group); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(ColTotalPremium, value); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(ColTotalClaims, claims); err != nil {
		t.Fatal(err)
	}

	tester := &Tester{Alpha: 0.001}
	result, err := tester.Run(f, TestWelchT, "Group", "A", "B", ColTotalPremium)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reject {
		t.Errorf("identical distributions rejected at alpha=0.001: p=%v", result.PValue)
	}
}

func TestSeverityKPI_FiltersToClaimingPolicies(t *testing.T) {
	f := segregatedFrame(t)
	tester := &Tester{Alpha: 0.05}

	result, err := tester.Run(f, TestWelchT, "Province", "Gauteng", "WesternCape", KPISeverity)
	if err != nil {
		t.Fatalf("severity test failed: %v", err)
	}

	claims, _ := f.Numeric(ColTotalClaims)
	claiming := 0
	for _, v := range claims {
		if v > 0 {
			claiming++
		}
	}
	if result.NA+result.NB > claiming {
		t.Errorf("severity groups total %d exceed claiming rows %d", result.NA+result.NB, claiming)
	}
}

func TestParseTestKind_Unknown(t *testing.T) {
	_, err := ParseTestKind("anova")
	if !errors.Is(err, core.ErrUnknownTestKind) {
		t.Errorf("expected unknown-test sentinel, got %v", err)
	}
	if !core.IsConfigError(err) {
		t.Errorf("unknown test kind should be a config error, got %v", err)
	}
}

func TestRun_TinyGroupIsDataError(t *testing.T) {
	f := frame.New()
	if err := f.AddCategorical("Group", []string{"A", "B", "B", "B"}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric(ColTotalPremium, []float64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	tester := &Tester{Alpha: 0.05}
	_, err := tester.Run(f, TestWelchT, "Group", "A", "B", ColTotalPremium)
	if !core.IsDataError(err) {
		t.Errorf("expected data error for tiny group, got %v", err)
	}
}
