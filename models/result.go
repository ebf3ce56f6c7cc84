package models

// InningTally accumulates batting and scoring counts for one inning, or summed
// across many innings.
type InningTally struct {
	Runs             int `json:"runs"`
	PlateAppearances int `json:"plate_appearances"`
	AtBats           int `json:"at_bats"`
	Hits             int `json:"hits"`
	TotalBases       int `json:"total_bases"`
	Walks            int `json:"walks"`
}

// Record counts one plate appearance. Runs are added separately from the
// base-out transition.
func (t *InningTally) Record(outcome Outcome) {
	t.PlateAppearances++
	if outcome == Walk {
		t.Walks++
		return
	}
	t.AtBats++
	if outcome.IsHit() {
		t.Hits++
		t.TotalBases += outcome.TotalBases()
	}
}

// Add folds another tally into this one.
func (t *InningTally) Add(other InningTally) {
	t.Runs += other.Runs
	t.PlateAppearances += other.PlateAppearances
	t.AtBats += other.AtBats
	t.Hits += other.Hits
	t.TotalBases += other.TotalBases
	t.Walks += other.Walks
}

// SlashLine is a batting line measured from simulated plate appearances
type SlashLine struct {
	AVG float64 `json:"avg"`
	OBP float64 `json:"obp"`
	SLG float64 `json:"slg"`
}

// Line computes AVG, OBP and SLG from the tally.
func (t InningTally) Line() SlashLine {
	var line SlashLine
	if t.AtBats > 0 {
		line.AVG = float64(t.Hits) / float64(t.AtBats)
		line.SLG = float64(t.TotalBases) / float64(t.AtBats)
	}
	if t.PlateAppearances > 0 {
		line.OBP = float64(t.Hits+t.Walks) / float64(t.PlateAppearances)
	}
	return line
}

// HitterSummary is the result of simulating one hitter profile
type HitterSummary struct {
	AVG        float64     `json:"avg"`
	OBP        float64     `json:"obp"`
	SLG        float64     `json:"slg"`
	NumInnings int         `json:"num_innings"`
	Runs       int         `json:"runs"`
	Totals     InningTally `json:"totals"`
}

// Profile returns the input profile the summary was produced for.
func (s HitterSummary) Profile() HitterProfile {
	return HitterProfile{AVG: s.AVG, OBP: s.OBP, SLG: s.SLG}
}

// RunsPerNine scales total runs to a nine-inning game.
func (s HitterSummary) RunsPerNine() float64 {
	if s.NumInnings == 0 {
		return 0
	}
	return float64(s.Runs) / float64(s.NumInnings) * 9.0
}

// SimulatedLine returns the slash line the hitter actually produced.
func (s HitterSummary) SimulatedLine() SlashLine {
	return s.Totals.Line()
}

// HitterFailure records a profile that could not be simulated
type HitterFailure struct {
	Profile HitterProfile `json:"profile"`
	Reason  string        `json:"reason"`
}
