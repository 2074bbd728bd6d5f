// Package testkit generates deterministic synthetic policy books for
// tests. The generator controls the exact number of claiming policies
// so class-imbalance scenarios can be pinned down precisely.
package testkit

import (
	"fmt"
	"math/rand"

	"insurisk/domain/frame"
)

// PolicyBookConfig configures the synthetic policy book generator
type PolicyBookConfig struct {
	Rows      int
	Positives int // rows with TotalClaims > 0, spread over the book
	Seed      int64
}

// DefaultPolicyBookConfig matches the shape of the real dataset: a
// large book with a small claiming fraction
func DefaultPolicyBookConfig() PolicyBookConfig {
	return PolicyBookConfig{Rows: 1000, Positives: 5, Seed: 42}
}

var (
	provinces    = []string{"Gauteng", "WesternCape", "KwaZuluNatal", "EasternCape"}
	genders      = []string{"Male", "Female"}
	vehicleTypes = []string{"Sedan", "SUV", "Truck", "Hatchback"}
)

// GeneratePolicyBook builds a frame with categorical risk features and
// TotalPremium / TotalClaims numerics. Exactly cfg.Positives rows carry
// a positive claim.
func GeneratePolicyBook(cfg PolicyBookConfig) (*frame.Frame, error) {
	if cfg.Positives > cfg.Rows {
		return nil, fmt.Errorf("positives %d exceed rows %d", cfg.Positives, cfg.Rows)
	}
	rnd := rand.New(rand.NewSource(cfg.Seed))

	province := make([]string, cfg.Rows)
	gender := make([]string, cfg.Rows)
	vehicleType := make([]string, cfg.Rows)
	vehicleAge := make([]float64, cfg.Rows)
	sumInsured := make([]float64, cfg.Rows)
	premium := make([]float64, cfg.Rows)
	claims := make([]float64, cfg.Rows)

	positive := map[int]bool{}
	for _, idx := range rnd.Perm(cfg.Rows)[:cfg.Positives] {
		positive[idx] = true
	}

	for i := 0; i < cfg.Rows; i++ {
		province[i] = provinces[rnd.Intn(len(provinces))]
		gender[i] = genders[rnd.Intn(len(genders))]
		vehicleType[i] = vehicleTypes[rnd.Intn(len(vehicleTypes))]
		vehicleAge[i] = float64(rnd.Intn(15))
		sumInsured[i] = 50000 + rnd.Float64()*450000

		// premium loads on sum insured and vehicle age
		premium[i] = sumInsured[i]*0.002 + vehicleAge[i]*12 + rnd.Float64()*50

		if positive[i] {
			claims[i] = 1000 + rnd.Float64()*premium[i]*10
		}
	}

	f := frame.New()
	for _, col := range []struct {
		name   string
		labels []string
	}{
		{"Province", province},
		{"Gender", gender},
		{"VehicleType", vehicleType},
	} {
		if err := f.AddCategorical(col.name, col.labels); err != nil {
			return nil, err
		}
	}
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{"VehicleAge", vehicleAge},
		{"SumInsured", sumInsured},
		{"TotalPremium", premium},
		{"TotalClaims", claims},
	} {
		if err := f.AddNumeric(col.name, col.values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
