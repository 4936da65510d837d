package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryItem(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		seen := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: item %d visited %d times", n, i, c)
			}
		}
	}
}

func TestParallelizeWithThresholdRunsSequentially(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("got range [%d,%d), want [0,10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected a single sequential call, got %d", calls)
	}
}

func TestMapReduceSum(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		threshold int
	}{
		{name: "sequential", items: 50, threshold: 100},
		{name: "parallel", items: 5000, threshold: 100},
		{name: "empty", items: 0, threshold: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapReduce(tt.items, tt.threshold,
				func(start, end int) int {
					s := 0
					for i := start; i < end; i++ {
						s += i
					}
					return s
				},
				func(acc, part int) int { return acc + part },
			)
			want := tt.items * (tt.items - 1) / 2
			if got != want {
				t.Errorf("MapReduce() = %d, want %d", got, want)
			}
		})
	}
}

func TestNumChunks(t *testing.T) {
	if NumChunks(0) != 0 {
		t.Error("NumChunks(0) should be 0")
	}
	n := 1003
	if got := NumChunks(n); got < 1 || got*ChunkSize(n) < n {
		t.Errorf("NumChunks(%d) = %d does not cover the items", n, got)
	}
}
