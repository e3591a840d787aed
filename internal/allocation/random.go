package allocation

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource drives the fairness shuffles. *rand.Rand satisfies it.
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
}

// NewRandomSource returns a seeded source. A zero seed derives one from the clock,
// which makes production runs intentionally nondeterministic.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

// lockedSource lets one source back concurrent async runs.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (l *lockedSource) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rnd.Shuffle(n, swap)
}
