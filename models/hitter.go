package models

import (
	"errors"
	"fmt"
	"math"
)

// League-level split of extra-base hits into doubles, triples and home runs
// (56-5-39, 2024). extraBaseWeight is the total bases above a single that split
// produces: 0.56*1 + 0.05*2 + 0.39*3.
const (
	doubleShare     = 0.56
	tripleShare     = 0.05
	homeRunShare    = 0.39
	extraBaseWeight = 1.83

	// DistributionTolerance is how far the component rates may drift from OBP.
	DistributionTolerance = 0.001
)

// ErrInvalidProfile is returned when a hitter's rate stats cannot produce a
// valid outcome distribution.
var ErrInvalidProfile = errors.New("invalid hitter profile")

// HitterProfile is a hypothetical hitter defined by a slash line
type HitterProfile struct {
	AVG float64 `json:"avg" yaml:"avg"`
	OBP float64 `json:"obp" yaml:"obp"`
	SLG float64 `json:"slg" yaml:"slg"`
}

// Key identifies the profile at four decimals for display and message keys.
func (h HitterProfile) Key() string {
	return fmt.Sprintf("%.4f/%.4f/%.4f", h.AVG, h.OBP, h.SLG)
}

// OutcomeDistribution holds ascending cumulative thresholds for a plate
// appearance. Anything at or above HomeRun is an out.
type OutcomeDistribution struct {
	Walk    float64 `json:"walk"`
	Single  float64 `json:"single"`
	Double  float64 `json:"double"`
	Triple  float64 `json:"triple"`
	HomeRun float64 `json:"home_run"`
}

// ComponentRates are the per plate appearance probabilities behind an
// OutcomeDistribution.
type ComponentRates struct {
	Walk    float64 `json:"walk"`
	Single  float64 `json:"single"`
	Double  float64 `json:"double"`
	Triple  float64 `json:"triple"`
	HomeRun float64 `json:"home_run"`
}

// Sum returns the on-base probability implied by the rates.
func (c ComponentRates) Sum() float64 {
	return c.Walk + c.Single + c.Double + c.Triple + c.HomeRun
}

// Out returns the probability of an out.
func (c ComponentRates) Out() float64 {
	return 1 - c.Sum()
}

// Rates derives the per plate appearance outcome probabilities.
//
// BB/AB follows from (OBP-AVG)/(1-OBP). Extra bases (SLG-AVG) are divided
// among doubles, triples and home runs using the league split, then every
// per-at-bat rate is scaled by 1/(1+BB/AB) to become a per-plate-appearance rate.
func (h HitterProfile) Rates() (ComponentRates, error) {
	if err := h.validateDomain(); err != nil {
		return ComponentRates{}, err
	}

	bbPerAB := (h.OBP - h.AVG) / (1.0 - h.OBP)
	perPA := 1.0 + bbPerAB
	iso := h.SLG - h.AVG

	rates := ComponentRates{
		Walk:    bbPerAB / perPA,
		Double:  iso * doubleShare / extraBaseWeight / perPA,
		Triple:  iso * tripleShare / extraBaseWeight / perPA,
		HomeRun: iso * homeRunShare / extraBaseWeight / perPA,
	}
	rates.Single = h.AVG/perPA - rates.Double - rates.Triple - rates.HomeRun

	components := []struct {
		name string
		rate float64
	}{
		{"walk", rates.Walk},
		{"single", rates.Single},
		{"double", rates.Double},
		{"triple", rates.Triple},
		{"home run", rates.HomeRun},
	}
	for _, c := range components {
		if math.IsNaN(c.rate) || c.rate < 0 {
			return ComponentRates{}, fmt.Errorf("%w: %s rate %.5f for %s", ErrInvalidProfile, c.name, c.rate, h.Key())
		}
	}

	if math.Abs(rates.Sum()-h.OBP) >= DistributionTolerance {
		return ComponentRates{}, fmt.Errorf("%w: components sum to %.5f, obp is %.5f", ErrInvalidProfile, rates.Sum(), h.OBP)
	}

	return rates, nil
}

// Distribution stacks the component rates into cumulative thresholds.
func (h HitterProfile) Distribution() (OutcomeDistribution, error) {
	rates, err := h.Rates()
	if err != nil {
		return OutcomeDistribution{}, err
	}
	return rates.Cumulative(), nil
}

// Cumulative stacks the rates in walk, single, double, triple, home run order.
func (c ComponentRates) Cumulative() OutcomeDistribution {
	walk := c.Walk
	single := walk + c.Single
	double := single + c.Double
	triple := double + c.Triple
	return OutcomeDistribution{
		Walk:    walk,
		Single:  single,
		Double:  double,
		Triple:  triple,
		HomeRun: triple + c.HomeRun,
	}
}

func (h HitterProfile) validateDomain() error {
	for _, v := range []float64{h.AVG, h.OBP, h.SLG} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%w: rates must be non-negative (%s)", ErrInvalidProfile, h.Key())
		}
	}
	if h.AVG > 1 || h.SLG > 1 || h.OBP >= 1 {
		return fmt.Errorf("%w: avg and slg must be at most 1 and obp below 1 (%s)", ErrInvalidProfile, h.Key())
	}
	return nil
}
