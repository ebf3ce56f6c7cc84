package simulation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseball-sim/run-expectancy/models"
)

// scriptedSource replays fixed values and fails the test when exhausted.
type scriptedSource struct {
	t      *testing.T
	values []float64
	next   int
}

func (s *scriptedSource) Float64() float64 {
	if s.next >= len(s.values) {
		s.t.Fatalf("scripted source exhausted after %d draws", s.next)
	}
	v := s.values[s.next]
	s.next++
	return v
}

// TestDrawRunnerEventsOrder tests the order and thresholds of baserunning draws
func TestDrawRunnerEventsOrder(t *testing.T) {
	src := &scriptedSource{t: t, values: []float64{0.32, 0.61, 0.41, 0.08}}

	draws := DrawRunnerEvents(src)
	assert.Equal(t, models.RunnerDraws{
		FirstToThird:     true,
		SecondToHome:     false,
		FirstToHome:      true,
		ExtraBaseOnThrow: false,
	}, draws)
	assert.Equal(t, 4, src.next)
}

// TestTransitionConsumesFourDraws tests that every transition draws all events
func TestTransitionConsumesFourDraws(t *testing.T) {
	for _, o := range models.Outcomes {
		src := &scriptedSource{t: t, values: []float64{0.9, 0.9, 0.9, 0.9}}
		_, _ = Transition(models.BaseOutState{}, o, src)
		assert.Equal(t, 4, src.next, o.String())
	}
}

// TestSimulateInningAllOuts tests an inning against a hitter who never reaches base
func TestSimulateInningAllOuts(t *testing.T) {
	dist := models.ComponentRates{}.Cumulative()

	tally := SimulateInning(dist, rand.New(rand.NewSource(1)))
	assert.Equal(t, models.InningTally{PlateAppearances: 3, AtBats: 3}, tally)
}

// TestSimulateInningScripted tests a scripted inning end to end
func TestSimulateInningScripted(t *testing.T) {
	dist := models.OutcomeDistribution{Walk: 0.1, Single: 0.3, Double: 0.35, Triple: 0.36, HomeRun: 0.4}
	noRunnerEvents := []float64{0.99, 0.99, 0.99, 0.99}

	var values []float64
	// single, walk, double, walk, home run, then three outs
	for _, x := range []float64{0.2, 0.05, 0.32, 0.05, 0.38, 0.5, 0.5, 0.5} {
		values = append(values, x)
		values = append(values, noRunnerEvents...)
	}
	src := &scriptedSource{t: t, values: values}

	tally := SimulateInning(dist, src)
	assert.Equal(t, 5, tally.Runs)
	assert.Equal(t, 8, tally.PlateAppearances)
	assert.Equal(t, 2, tally.Walks)
	assert.Equal(t, 6, tally.AtBats)
	assert.Equal(t, 3, tally.Hits)
	assert.Equal(t, 7, tally.TotalBases)
	assert.Equal(t, len(values), src.next)
}

// TestSimulateInningInvariants tests tally bounds over many random innings
func TestSimulateInningInvariants(t *testing.T) {
	dist, err := models.HitterProfile{AVG: 0.350, OBP: 0.450, SLG: 0.650}.Distribution()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 5000; i++ {
		tally := SimulateInning(dist, rng)

		require.GreaterOrEqual(t, tally.PlateAppearances, models.OutsPerInning)
		require.Equal(t, tally.PlateAppearances, tally.AtBats+tally.Walks)
		require.LessOrEqual(t, tally.Hits, tally.AtBats)
		require.Equal(t, models.OutsPerInning, tally.AtBats-tally.Hits)
		require.GreaterOrEqual(t, tally.TotalBases, tally.Hits)
		require.LessOrEqual(t, tally.TotalBases, 4*tally.Hits)
		// every run is a batter who reached base and was not left on
		require.GreaterOrEqual(t, tally.Runs, 0)
		require.LessOrEqual(t, tally.Runs, tally.PlateAppearances-models.OutsPerInning)
	}
}

// TestSimulateHitterConvergence tests that a long run reproduces the input slash line
func TestSimulateHitterConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("long simulation")
	}
	profile := models.HitterProfile{AVG: 0.300, OBP: 0.370, SLG: 0.500}

	summary, err := SimulateHitter(profile, 100_000, NewHitterRNG(42, profile.Key()))
	require.NoError(t, err)

	line := summary.SimulatedLine()
	assert.InDelta(t, profile.AVG, line.AVG, 0.005)
	assert.InDelta(t, profile.OBP, line.OBP, 0.005)
	assert.InDelta(t, profile.SLG, line.SLG, 0.005)
	assert.Equal(t, 100_000, summary.NumInnings)
	assert.Equal(t, summary.Runs, summary.Totals.Runs)
	assert.Positive(t, summary.RunsPerNine())
}

// TestSimulateHitterInvalid tests that invalid profiles are rejected before simulating
func TestSimulateHitterInvalid(t *testing.T) {
	profile := models.HitterProfile{AVG: 0.190, OBP: 0.260, SLG: 0.650}
	src := &scriptedSource{t: t}

	_, err := SimulateHitter(profile, 10, src)
	assert.ErrorIs(t, err, models.ErrInvalidProfile)
	assert.Zero(t, src.next)
}

// TestSimulateHitterZeroInnings tests an empty simulation
func TestSimulateHitterZeroInnings(t *testing.T) {
	profile := models.HitterProfile{AVG: 0.300, OBP: 0.370, SLG: 0.500}

	summary, err := SimulateHitter(profile, 0, &scriptedSource{t: t})
	require.NoError(t, err)
	assert.Zero(t, summary.Runs)
	assert.Zero(t, summary.RunsPerNine())
}
