package ext

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

var (
	mu    sync.Mutex
	srand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewRand returns an independent source. A seed of 0 means "seed from the clock".
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		mu.Lock()
		seed = srand.Int63()
		mu.Unlock()
	}
	return rand.New(rand.NewSource(seed))
}

// RandInt returns a value in [min, max) drawn from r.
func RandInt[T constraints.Integer](r *rand.Rand, min T, max T) T {
	if max <= min {
		return min
	}
	return T(r.Int63n(int64(max-min))) + min
}

// Shuffle 洗牌 Fisher–Yates, 每种排列等概率
func Shuffle[T any](r *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := RandInt(r, 0, i+1)
		s[i], s[j] = s[j], s[i]
	}
}
