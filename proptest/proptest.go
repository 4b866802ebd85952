// Package proptest provides seeded random generation for property tests.
//
// A property is a function of a *Generator that reports whether an
// invariant held for the values it drew. Check runs it many times and,
// on failure, reports the seed so the run can be replayed with
// PROPTEST_SEED:
//
//	proptest.QuickCheck(t, "integer round trip", func(g *proptest.Generator) bool {
//	    n := g.Int64()
//	    stored, _, err := codec.Encode(intType, n)
//	    ...
//	})
package proptest

import (
	"math/rand/v2"
	"time"
)

// Generator draws values from a PCG stream fixed by its seed. Two
// generators with the same seed produce the same values.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New returns a generator for seed; 0 picks a seed from the clock.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// PCG takes two state words.
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &Generator{rng: rand.New(src), seed: seed}
}

func (g *Generator) Seed() int64 { return g.seed }

// Intn returns an int in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int { return g.rng.IntN(n) }

func (g *Generator) Float64() float64 { return g.rng.Float64() }

func (g *Generator) Bool() bool { return g.rng.Uint64()&1 == 1 }

// BoolWithProb returns true with probability prob.
func (g *Generator) BoolWithProb(prob float64) bool {
	return g.rng.Float64() < prob
}
