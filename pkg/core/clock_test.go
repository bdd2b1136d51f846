package core_test

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/silt/pkg/core"
)

func TestTickClockStrictlyIncreasing(t *testing.T) {
	clock := core.NewTickClock()

	prev := clock.Now()
	for i := 0; i < 1000; i++ {
		next := clock.Now()
		require.True(t, next.After(prev), "instant %d not after previous (%v vs %v)", i, next, prev)
		prev = next
	}
}

func TestTickClockClampsCoarseResolution(t *testing.T) {
	clock := core.NewTickClock()

	// Back-to-back calls land in the same wall-clock tick on fast
	// machines; each must still advance by at least a millisecond.
	a := clock.Now()
	b := clock.Now()
	assert.True(t, b.Sub(a) >= 0, "second instant before first")
	assert.True(t, b.After(a))
}

func TestTickClockConcurrent(t *testing.T) {
	clock := core.NewTickClock()

	const goroutines = 8
	const perGoroutine = 200

	var mu sync.Mutex
	all := make([]time.Time, 0, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Time, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				local = append(local, clock.Now())
			}
			// Each caller must observe increasing values.
			for i := 1; i < len(local); i++ {
				if !local[i].After(local[i-1]) {
					t.Errorf("goroutine observed non-increasing instants")
					return
				}
			}
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// No two callers ever received the same instant.
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	for i := 1; i < len(all); i++ {
		require.True(t, all[i].After(all[i-1]), "duplicate instant issued")
	}
}
