package stats

import (
	"slices"
	"sync"
	"time"
)

// LatencySnapshot aggregates the batch durations still inside the window.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

type observation struct {
	at time.Time
	ms int64
}

// Latency keeps batch processing times for a rolling window.
type Latency struct {
	mu     sync.Mutex
	obs    []observation
	window time.Duration
	now    func() time.Time
}

// NewLatency returns a tracker that forgets samples older than window.
// A non-positive window means one hour.
func NewLatency(window time.Duration) *Latency {
	if window <= 0 {
		window = time.Hour
	}
	return &Latency{
		obs:    make([]observation, 0, 128),
		window: window,
		now:    time.Now,
	}
}

// Record adds one duration in milliseconds. Negative values count as zero.
func (l *Latency) Record(ms int64) {
	ms = max(ms, 0)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.expireLocked(now)
	l.obs = append(l.obs, observation{at: now, ms: ms})
}

func (l *Latency) Snapshot() LatencySnapshot {
	l.mu.Lock()
	l.expireLocked(l.now())
	sorted := make([]int64, len(l.obs))
	for i, o := range l.obs {
		sorted[i] = o.ms
	}
	l.mu.Unlock()

	if len(sorted) == 0 {
		return LatencySnapshot{}
	}
	slices.Sort(sorted)

	var total int64
	for _, v := range sorted {
		total += v
	}
	return LatencySnapshot{
		Count: len(sorted),
		MinMs: sorted[0],
		MaxMs: sorted[len(sorted)-1],
		AvgMs: float64(total) / float64(len(sorted)),
		P50Ms: percentile(sorted, 50),
		P95Ms: percentile(sorted, 95),
		P99Ms: percentile(sorted, 99),
	}
}

// expireLocked drops observations older than the window, in place.
func (l *Latency) expireLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	l.obs = slices.DeleteFunc(l.obs, func(o observation) bool {
		return o.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[n-1])
	}

	rank := float64(n-1) * pct / 100
	lo := int(rank)
	if lo+1 >= n {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
