// Package grid enumerates batting profiles over a rectangular OBP/SLG range,
// with every AVG from a floor up to the profile's OBP.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/baseball-sim/run-expectancy/models"
)

// Spec describes a profile grid. High bounds are inclusive within a small
// tolerance so that 0.5001 with step 0.005 still yields 0.500.
type Spec struct {
	OBPLow  float64 `json:"obp_low" yaml:"obp_low"`
	OBPHigh float64 `json:"obp_high" yaml:"obp_high"`
	SLGLow  float64 `json:"slg_low" yaml:"slg_low"`
	SLGHigh float64 `json:"slg_high" yaml:"slg_high"`
	AVGLow  float64 `json:"avg_low" yaml:"avg_low"`
	Step    float64 `json:"step" yaml:"step"`
}

// epsilon absorbs float error when comparing generated values to bounds.
const epsilon = 1e-9

// MinStep is the resolution values are rounded to. A finer step would
// repeat profiles.
const MinStep = 0.0001

// Default returns the standard grid: OBP .260 to .500, SLG .260 to .650,
// AVG from .190 up to OBP, in steps of .005.
func Default() Spec {
	return Spec{
		OBPLow:  0.260,
		OBPHigh: 0.5001,
		SLGLow:  0.260,
		SLGHigh: 0.6501,
		AVGLow:  0.190,
		Step:    0.005,
	}
}

// Validate checks that the grid is well formed.
func (s Spec) Validate() error {
	if !(s.Step > 0) {
		return errors.New("grid step must be positive")
	}
	if s.Step < MinStep-epsilon {
		return fmt.Errorf("grid step %g is finer than %g", s.Step, MinStep)
	}
	if s.OBPHigh < s.OBPLow {
		return fmt.Errorf("grid obp range inverted: %.4f > %.4f", s.OBPLow, s.OBPHigh)
	}
	if s.SLGHigh < s.SLGLow {
		return fmt.Errorf("grid slg range inverted: %.4f > %.4f", s.SLGLow, s.SLGHigh)
	}
	for name, v := range map[string]float64{
		"obp_low": s.OBPLow, "obp_high": s.OBPHigh,
		"slg_low": s.SLGLow, "slg_high": s.SLGHigh,
		"avg_low": s.AVGLow,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("grid %s must be a non-negative number", name)
		}
	}
	return nil
}

// Enumerate returns every profile in the grid, ordered by OBP, then SLG, then
// AVG. Profiles the rate derivation will reject are included; the engine
// reports those as failures.
func (s Spec) Enumerate() []models.HitterProfile {
	if s.Validate() != nil {
		return nil
	}
	var profiles []models.HitterProfile
	for _, obp := range s.values(s.OBPLow, s.OBPHigh) {
		for _, slg := range s.values(s.SLGLow, s.SLGHigh) {
			for _, avg := range s.values(s.AVGLow, obp) {
				profiles = append(profiles, models.HitterProfile{AVG: avg, OBP: obp, SLG: slg})
			}
		}
	}
	return profiles
}

// Size returns the number of profiles Enumerate yields without building them.
func (s Spec) Size() int {
	if s.Validate() != nil {
		return 0
	}
	slgs := s.count(s.SLGLow, s.SLGHigh)
	total := 0
	for _, obp := range s.values(s.OBPLow, s.OBPHigh) {
		total += slgs * s.count(s.AVGLow, obp)
	}
	return total
}

// values generates low, low+step, ... up to high by index so that error
// does not accumulate across steps.
func (s Spec) values(low, high float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := round4(low + float64(i)*s.Step)
		if v > high+epsilon {
			return out
		}
		out = append(out, v)
	}
}

// count returns len(s.values(low, high)) without allocating.
func (s Spec) count(low, high float64) int {
	n := 0
	for round4(low+float64(n)*s.Step) <= high+epsilon {
		n++
	}
	return n
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
