package regret

import (
	"sync"
	"testing"
)

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestEntryStrategyNormalizesPositiveRegrets(t *testing.T) {
	e := newEntry(3)
	e.RegretSum[0] = 1
	e.RegretSum[1] = 2
	e.RegretSum[2] = -5

	strat := e.Strategy()
	if got, want := strat[0], 1.0/3.0; abs(got-want) > 1e-9 {
		t.Fatalf("expected first action %v, got %v", want, got)
	}
	if got, want := strat[1], 2.0/3.0; abs(got-want) > 1e-9 {
		t.Fatalf("expected second action %v, got %v", want, got)
	}
	if strat[2] != 0 {
		t.Fatalf("expected negative regret action to drop to 0, got %v", strat[2])
	}
}

func TestEntryStrategyUniformFallback(t *testing.T) {
	e := newEntry(4)
	strat := e.Strategy()
	for i, s := range strat {
		if abs(s-0.25) > 1e-9 {
			t.Fatalf("expected uniform fallback 0.25 at index %d, got %v", i, s)
		}
	}
}

func TestEntryAddRegretFloorsWhenRequested(t *testing.T) {
	e := newEntry(2)
	e.AddRegret([]float64{-3, 1}, true)
	if e.RegretSum[0] != 0 {
		t.Fatalf("expected floored regret 0, got %v", e.RegretSum[0])
	}
	e.AddRegret([]float64{-3, 1}, false)
	if e.RegretSum[0] != -3 {
		t.Fatalf("expected unfloored regret -3, got %v", e.RegretSum[0])
	}
}

func TestEntryUpdateAndAverage(t *testing.T) {
	e := newEntry(2)
	e.AddStrategy(2.0, []float64{0.6, 0.4})

	if e.StrategySum[0] != 1.2 || e.StrategySum[1] != 0.8 {
		t.Fatalf("unexpected strategy sums: %+v", e.StrategySum)
	}

	avg := e.AverageStrategy()
	if abs(avg[0]-0.6) > 1e-9 || abs(avg[1]-0.4) > 1e-9 {
		t.Fatalf("expected average strategy [0.6,0.4], got %v", avg)
	}
}

func TestEntryDCFRDecayIsIdempotentPerIteration(t *testing.T) {
	e := newEntry(2)
	e.RegretSum[0] = 10
	e.RegretSum[1] = -10
	e.StrategySum[0] = 4

	params := DefaultDCFRParams()
	e.ApplyDCFRDecay(1, params)
	afterFirst := e.RegretSum[0]

	e.ApplyDCFRDecay(1, params) // same iteration: must not decay twice
	if e.RegretSum[0] != afterFirst {
		t.Fatalf("expected decay to be idempotent within an iteration, got %v then %v", afterFirst, e.RegretSum[0])
	}

	e.ApplyDCFRDecay(2, params)
	if e.RegretSum[0] >= afterFirst {
		t.Fatalf("expected a second iteration's decay to shrink positive regret further")
	}
}

func TestEntryDCFRDecayCompoundsSkippedIterations(t *testing.T) {
	stepwise := newEntry(2)
	lazy := newEntry(2)
	for _, e := range []*Entry{stepwise, lazy} {
		e.RegretSum[0] = 10
		e.RegretSum[1] = -10
		e.StrategySum[0] = 4
	}

	params := DefaultDCFRParams()
	for i := 1; i <= 5; i++ {
		stepwise.ApplyDCFRDecay(i, params)
	}
	lazy.ApplyDCFRDecay(5, params) // all five iterations at once

	for i := range stepwise.RegretSum {
		if abs(stepwise.RegretSum[i]-lazy.RegretSum[i]) > 1e-12 {
			t.Fatalf("regret[%d]: stepwise %v != lazy %v", i, stepwise.RegretSum[i], lazy.RegretSum[i])
		}
	}
	if abs(stepwise.StrategySum[0]-lazy.StrategySum[0]) > 1e-12 {
		t.Fatalf("strategy sum: stepwise %v != lazy %v", stepwise.StrategySum[0], lazy.StrategySum[0])
	}
}

func TestTableGetCachesAndGrowsEntries(t *testing.T) {
	table := NewTable()
	entryA := table.Get("k", 2)
	entryB := table.Get("k", 3)
	if entryA != entryB {
		t.Fatalf("expected cached entry to be reused")
	}
	if len(entryB.RegretSum) != 3 {
		t.Fatalf("expected ensureSize to grow to 3 actions, got %d", len(entryB.RegretSum))
	}
}

func TestTableConcurrentAccess(t *testing.T) {
	table := NewTable()
	const workers = 32
	const updates = 100

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < updates; j++ {
				entry := table.Get("shared", 3)
				entry.AddRegret([]float64{1, -0.5, 0.25}, false)
				entry.AddStrategy(1.0, []float64{0.4, 0.3, 0.3})
			}
		}()
	}
	wg.Wait()

	entry := table.Get("shared", 3)
	total := 0.0
	for _, s := range entry.StrategySum {
		total += s
	}
	expected := float64(workers * updates)
	if abs(total-expected) > 1e-6 {
		t.Fatalf("expected accumulated strategy mass %v, got %v", expected, total)
	}
}
