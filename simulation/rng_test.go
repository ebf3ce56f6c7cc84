package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baseball-sim/run-expectancy/models"
)

// TestSeedFor tests per-hitter seed derivation
func TestSeedFor(t *testing.T) {
	a := SeedFor(42, "0.3000/0.3700/0.5000")
	assert.Equal(t, a, SeedFor(42, "0.3000/0.3700/0.5000"), "derivation is deterministic")
	assert.NotEqual(t, a, SeedFor(42, "0.3050/0.3700/0.5000"), "different hitters get different seeds")
	assert.NotEqual(t, a, SeedFor(43, "0.3000/0.3700/0.5000"), "different runs get different seeds")

	// XOR with the key hash means a zero master seed yields the hash itself
	assert.Equal(t, fnv1a64("key"), SeedFor(0, "key"))
}

// TestFNV1a64 tests the hash against known FNV-1a values
func TestFNV1a64(t *testing.T) {
	assert.Equal(t, int64(-3750763034362895579), fnv1a64(""))  // 0xcbf29ce484222325
	assert.Equal(t, int64(-5808556873153909620), fnv1a64("a")) // 0xaf63dc4c8601ec8c
}

// TestNewHitterRNGReproducible tests that equal seeds give equal streams
func TestNewHitterRNGReproducible(t *testing.T) {
	r1 := NewHitterRNG(7, "hitter")
	r2 := NewHitterRNG(7, "hitter")
	for i := 0; i < 100; i++ {
		assert.Equal(t, r1.Float64(), r2.Float64())
	}
}

// TestStreamName tests that streams are separated by exact rates and position
func TestStreamName(t *testing.T) {
	a := models.HitterProfile{AVG: 0.30001, OBP: 0.37, SLG: 0.5}
	b := models.HitterProfile{AVG: 0.30004, OBP: 0.37, SLG: 0.5}
	assert.Equal(t, a.Key(), b.Key(), "both print the same at four decimals")

	tests := []struct {
		name       string
		p1, p2     models.HitterProfile
		idx1, idx2 int
	}{
		{"rates differ past four decimals", a, b, 0, 0},
		{"same profile at different positions", a, a, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n1, n2 := StreamName(tt.p1, tt.idx1), StreamName(tt.p2, tt.idx2)
			assert.NotEqual(t, n1, n2)
			assert.NotEqual(t, SeedFor(42, n1), SeedFor(42, n2))
		})
	}

	assert.Equal(t, StreamName(a, 3), StreamName(a, 3))
}
