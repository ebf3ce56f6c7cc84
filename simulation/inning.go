package simulation

import (
	"github.com/baseball-sim/run-expectancy/models"
)

// SamplePlateAppearance draws one outcome from the hitter's distribution.
func SamplePlateAppearance(dist models.OutcomeDistribution, rng Source) models.Outcome {
	return dist.Sample(rng.Float64())
}

// DrawRunnerEvents draws every baserunning event for one plate appearance,
// whether or not the outcome will use it, so the stream advances by the same
// amount on every call.
func DrawRunnerEvents(rng Source) models.RunnerDraws {
	return models.RunnerDraws{
		FirstToThird:     rng.Float64() < models.FirstToThirdRate,
		SecondToHome:     rng.Float64() < models.SecondToHomeRate,
		FirstToHome:      rng.Float64() < models.FirstToHomeRate,
		ExtraBaseOnThrow: rng.Float64() < models.ExtraBaseOnThrowRate,
	}
}

// Transition moves runners for an outcome using freshly drawn baserunning events.
func Transition(state models.BaseOutState, outcome models.Outcome, rng Source) (models.BaseOutState, int) {
	return state.Advance(outcome, DrawRunnerEvents(rng))
}

// SimulateInning plays plate appearances from an empty, no-out state until the
// third out.
func SimulateInning(dist models.OutcomeDistribution, rng Source) models.InningTally {
	var tally models.InningTally
	state := models.NewBaseOutState()

	for !state.IsInningOver() {
		outcome := SamplePlateAppearance(dist, rng)
		tally.Record(outcome)

		var runs int
		state, runs = Transition(state, outcome, rng)
		tally.Runs += runs
	}

	return tally
}

// SimulateHitter runs the given number of independent innings for a profile
// and sums them. The distribution is derived once and reused for every plate
// appearance.
func SimulateHitter(profile models.HitterProfile, innings int, rng Source) (models.HitterSummary, error) {
	dist, err := profile.Distribution()
	if err != nil {
		return models.HitterSummary{}, err
	}

	var totals models.InningTally
	for i := 0; i < innings; i++ {
		totals.Add(SimulateInning(dist, rng))
	}

	return models.HitterSummary{
		AVG:        profile.AVG,
		OBP:        profile.OBP,
		SLG:        profile.SLG,
		NumInnings: innings,
		Runs:       totals.Runs,
		Totals:     totals,
	}, nil
}
