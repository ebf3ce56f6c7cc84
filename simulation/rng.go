package simulation

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/baseball-sim/run-expectancy/models"
)

// Source is the uniform [0,1) randomness the simulation draws from.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// SeedFor derives a hitter's seed from the run seed: masterSeed XOR
// fnv1a64(key). The same run seed and key always produce the same stream,
// whichever worker picks the hitter up.
func SeedFor(masterSeed int64, key string) int64 {
	return masterSeed ^ fnv1a64(key)
}

// StreamName names the random stream of the hitter at position index in a
// request. It uses the exact bits of each rate, so profiles that print the same
// at four decimals still get separate streams, as do repeated profiles.
func StreamName(profile models.HitterProfile, index int) string {
	return fmt.Sprintf("%016x/%016x/%016x#%d",
		math.Float64bits(profile.AVG),
		math.Float64bits(profile.OBP),
		math.Float64bits(profile.SLG),
		index)
}

// NewHitterRNG returns an RNG owned by a single hitter's simulation.
// Not safe for concurrent use.
func NewHitterRNG(masterSeed int64, key string) *rand.Rand {
	return rand.New(rand.NewSource(SeedFor(masterSeed, key)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
