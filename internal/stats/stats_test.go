package stats

import (
	"sync"
	"testing"
	"time"
)

func TestLatency_SnapshotPercentiles(t *testing.T) {
	l := NewLatency(time.Hour)
	for _, ms := range []int64{500, 100, 400, 200, 300} {
		l.Record(ms)
	}

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatency_ExpiresOldSamples(t *testing.T) {
	clock := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	l := NewLatency(time.Minute)
	l.now = func() time.Time { return clock }

	l.Record(100)
	clock = clock.Add(2 * time.Minute)
	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after expiry, got %d", snap.Count)
	}

	l.Record(200)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200, got %+v", snap)
	}
}

func TestLatency_NegativeClamped(t *testing.T) {
	l := NewLatency(0)
	l.Record(-10)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected a single zero sample, got %+v", snap)
	}
}

func TestLatency_EmptySnapshot(t *testing.T) {
	if snap := NewLatency(time.Hour).Snapshot(); snap != (LatencySnapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestCounters_AddBatch(t *testing.T) {
	var c Counters
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddBatch(i%5 == 0, 3, 1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	want := CountersSnapshot{Batches: 10, FailedBatches: 2, PagesRendered: 30, RowsSkipped: 10}
	if snap != want {
		t.Errorf("expected %+v, got %+v", want, snap)
	}
}
