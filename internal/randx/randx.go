// v0
// internal/randx/randx.go

// Package randx wraps math/rand/v2 with the handful of distributions the
// sensor models draw from. Every engine owns its own *rand.Rand; nothing in
// this package touches a process-wide generator.
package randx

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
)

const streamSalt = 0x9e3779b97f4a7c15

// New returns a PCG-backed generator fully determined by seed.
func New(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^streamSalt))
}

// DeriveSeed mixes a base seed with a name so that distinct sensors in one run
// get distinct, reproducible streams.
func DeriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(splitmix64(uint64(base) ^ h.Sum64()))
}

// DevEUI derives a 16 hex character device identifier from seed. It does not
// consume draws from any engine generator.
func DevEUI(seed int64) string {
	return fmt.Sprintf("%016x", splitmix64(uint64(seed)^0xd1b54a32d192ed03))
}

// Normal draws from N(mu, sigma). A non-positive sigma returns mu without
// consuming a draw.
func Normal(r *rand.Rand, mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	return mu + sigma*r.NormFloat64()
}

// Uniform draws from [lo, hi).
func Uniform(r *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*r.Float64()
}

// IntRange draws an integer uniformly from [lo, hi] inclusive.
func IntRange(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Chance reports true with probability p.
func Chance(r *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}

// Poisson draws a Poisson variate with mean lambda. Small means use Knuth's
// product method; large means fall back to a rounded normal approximation so
// exp(-lambda) never underflows.
func Poisson(r *rand.Rand, lambda float64) int {
	if lambda <= 0 || math.IsNaN(lambda) {
		return 0
	}
	if lambda > 500 {
		v := math.Round(Normal(r, lambda, math.Sqrt(lambda)))
		if v < 0 {
			return 0
		}
		return int(v)
	}
	limit := math.Exp(-lambda)
	k := 0
	p := r.Float64()
	for p > limit {
		k++
		p *= r.Float64()
	}
	return k
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
