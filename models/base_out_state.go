package models

import "strings"

// OutsPerInning ends a half inning.
const OutsPerInning = 3

// Baserunning rates. Approximate MLB averages.
const (
	FirstToThirdRate     = 0.33 // runner on first reaches third on a single
	SecondToHomeRate     = 0.60 // runner on second scores on a single
	FirstToHomeRate      = 0.42 // runner on first scores on a double
	ExtraBaseOnThrowRate = 0.07 // batter takes second on a throw home after a single

	// ThrownOutAtHomeRate is not consulted by any advancement rule.
	// TODO: apply to the runner from second on a single once there is data to
	// calibrate the out against SecondToHomeRate.
	ThrownOutAtHomeRate = 0.05
)

// BaseOutState represents which bases are occupied and how many outs there are
type BaseOutState struct {
	OnFirst  bool `json:"on_first"`
	OnSecond bool `json:"on_second"`
	OnThird  bool `json:"on_third"`
	Outs     int  `json:"outs"`
}

// RunnerDraws holds the independent baserunning events drawn for one plate
// appearance.
type RunnerDraws struct {
	FirstToThird     bool
	SecondToHome     bool
	FirstToHome      bool
	ExtraBaseOnThrow bool
}

// NewBaseOutState returns the empty, no-out state that starts every inning.
func NewBaseOutState() BaseOutState {
	return BaseOutState{}
}

// IsInningOver checks if the half-inning is over
func (s BaseOutState) IsInningOver() bool {
	return s.Outs >= OutsPerInning
}

// IsEmpty checks if all bases are empty
func (s BaseOutState) IsEmpty() bool {
	return !s.OnFirst && !s.OnSecond && !s.OnThird
}

// BaseCount returns the number of runners on base
func (s BaseOutState) BaseCount() int {
	count := 0
	if s.OnFirst {
		count++
	}
	if s.OnSecond {
		count++
	}
	if s.OnThird {
		count++
	}
	return count
}

// Advance applies a plate appearance outcome and returns the new state and the
// runs that scored. The receiver is not modified.
func (s BaseOutState) Advance(outcome Outcome, draws RunnerDraws) (BaseOutState, int) {
	next := s
	runs := 0

	if outcome == Out {
		next.Outs++
	}

	switch outcome {
	case Walk:
		// Only runners forced by the batter move.
		next.OnFirst = true
		next.OnSecond = s.OnFirst || s.OnSecond
		next.OnThird = (s.OnFirst && s.OnSecond) || s.OnThird
		if s.OnFirst && s.OnSecond && s.OnThird {
			runs = 1
		}

	case Single:
		if s.OnSecond && draws.ExtraBaseOnThrow {
			// Throw goes home and the batter takes second.
			next.OnFirst = false
			next.OnSecond = true
			next.OnThird = s.OnFirst || (s.OnSecond && !draws.SecondToHome)
		} else {
			next.OnFirst = true
			next.OnSecond = s.OnFirst && !draws.FirstToThird
			next.OnThird = (s.OnFirst && draws.FirstToThird) || (s.OnSecond && !draws.SecondToHome)
		}
		if s.OnSecond && draws.SecondToHome {
			runs++
		}
		if s.OnThird {
			runs++
		}

	case Double:
		next.OnFirst = false
		next.OnSecond = true
		next.OnThird = s.OnFirst && !draws.FirstToHome
		if s.OnFirst && draws.FirstToHome {
			runs++
		}
		if s.OnSecond {
			runs++
		}
		if s.OnThird {
			runs++
		}

	case Triple:
		next.OnFirst = false
		next.OnSecond = false
		next.OnThird = true
		runs = s.BaseCount()

	case HomeRun:
		next.OnFirst = false
		next.OnSecond = false
		next.OnThird = false
		runs = 1 + s.BaseCount()
	}

	return next, runs
}

// String renders the state as e.g. "1_3 1 out".
func (s BaseOutState) String() string {
	var b strings.Builder
	for _, on := range []struct {
		occupied bool
		mark     byte
	}{{s.OnFirst, '1'}, {s.OnSecond, '2'}, {s.OnThird, '3'}} {
		if on.occupied {
			b.WriteByte(on.mark)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte(' ')
	b.WriteByte(byte('0' + s.Outs))
	if s.Outs == 1 {
		b.WriteString(" out")
	} else {
		b.WriteString(" outs")
	}
	return b.String()
}
