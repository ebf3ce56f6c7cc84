package models

import "fmt"

// Outcome is the result of a single plate appearance
type Outcome int

const (
	Walk Outcome = iota
	Single
	Double
	Triple
	HomeRun
	Out
)

var outcomeNames = [...]string{
	Walk:    "walk",
	Single:  "single",
	Double:  "double",
	Triple:  "triple",
	HomeRun: "home_run",
	Out:     "out",
}

// Outcomes lists every outcome in threshold order.
var Outcomes = []Outcome{Walk, Single, Double, Triple, HomeRun, Out}

func (o Outcome) String() string {
	if o < Walk || o > Out {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	if o < Walk || o > Out {
		return nil, fmt.Errorf("unknown outcome %d", int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// IsHit reports whether the outcome counts as a hit.
func (o Outcome) IsHit() bool {
	return o >= Single && o <= HomeRun
}

// IsAtBat reports whether the outcome is charged as an at bat.
func (o Outcome) IsAtBat() bool {
	return o != Walk
}

// TotalBases returns the bases credited to the batter (0 for walks and outs).
func (o Outcome) TotalBases() int {
	switch o {
	case Single:
		return 1
	case Double:
		return 2
	case Triple:
		return 3
	case HomeRun:
		return 4
	default:
		return 0
	}
}

// Sample maps a uniform draw in [0,1) onto an outcome. Each threshold is the
// exclusive upper bound of its bucket.
func (d OutcomeDistribution) Sample(x float64) Outcome {
	switch {
	case x < d.Walk:
		return Walk
	case x < d.Single:
		return Single
	case x < d.Double:
		return Double
	case x < d.Triple:
		return Triple
	case x < d.HomeRun:
		return HomeRun
	default:
		return Out
	}
}
