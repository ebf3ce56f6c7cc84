package simulation

import (
	"github.com/baseball-sim/run-expectancy/models"
)

// CalibrationReport compares sampled outcome frequencies with the rates the
// profile implies.
type CalibrationReport struct {
	Profile  models.HitterProfile   `json:"profile"`
	Draws    int                    `json:"draws"`
	Counts   map[models.Outcome]int `json:"counts"`
	Expected models.ComponentRates  `json:"expected"`
}

// Observed returns the sampled frequency of an outcome.
func (r CalibrationReport) Observed(o models.Outcome) float64 {
	if r.Draws == 0 {
		return 0
	}
	return float64(r.Counts[o]) / float64(r.Draws)
}

// ExpectedRate returns the model probability of an outcome.
func (r CalibrationReport) ExpectedRate(o models.Outcome) float64 {
	switch o {
	case models.Walk:
		return r.Expected.Walk
	case models.Single:
		return r.Expected.Single
	case models.Double:
		return r.Expected.Double
	case models.Triple:
		return r.Expected.Triple
	case models.HomeRun:
		return r.Expected.HomeRun
	default:
		return r.Expected.Out()
	}
}

// Calibrate samples draws plate appearances for a profile without running
// innings.
func Calibrate(profile models.HitterProfile, draws int, rng Source) (CalibrationReport, error) {
	rates, err := profile.Rates()
	if err != nil {
		return CalibrationReport{}, err
	}
	dist := rates.Cumulative()

	report := CalibrationReport{
		Profile:  profile,
		Draws:    draws,
		Counts:   make(map[models.Outcome]int, len(models.Outcomes)),
		Expected: rates,
	}
	for i := 0; i < draws; i++ {
		report.Counts[SamplePlateAppearance(dist, rng)]++
	}
	return report, nil
}
