package dashboard

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caselog/caselog/internal/domain/casefile"
)

// Deriver is the pure dashboard metrics engine. It performs no I/O and
// cannot fail; an empty collection yields zeroed metrics. Whole derivations
// are memoized by (collection fingerprint, query, sorted filters), and
// sparkline series are cached per (metric, value) pair for the lifetime of
// the deriver.
type Deriver struct {
	mu     sync.Mutex
	memo   map[string]*Stats
	sparks *sparklineCache
}

func NewDeriver() *Deriver {
	return &Deriver{
		memo:   make(map[string]*Stats),
		sparks: newSparklineCache(),
	}
}

// Derive computes the full dashboard payload for the collection under the
// given search query and quick filters.
func (d *Deriver) Derive(cases []*casefile.MedicalCase, query string, filters []string) *Stats {
	return d.deriveAt(cases, query, filters, time.Now())
}

func (d *Deriver) deriveAt(cases []*casefile.MedicalCase, query string, filters []string, now time.Time) *Stats {
	key := memoKey(cases, query, filters)

	d.mu.Lock()
	defer d.mu.Unlock()
	if stats, ok := d.memo[key]; ok {
		return stats
	}

	filtered := filterCasesAt(cases, query, filters, now)
	total, active, thisMonth, uniquePatients := countStats(filtered, now)

	stats := &Stats{
		Cases:           filtered,
		TotalCases:      d.metric("totalCases", total),
		ActiveCases:     d.metric("activeCases", active),
		CasesThisMonth:  d.metric("casesThisMonth", thisMonth),
		UniquePatients:  d.metric("uniquePatients", uniquePatients),
		TagDistribution: tagDistribution(filtered),
		WeeklyActivity:  weeklyActivity(filtered, now),
	}
	d.memo[key] = stats
	return stats
}

// metric assembles one counter with its estimated trend and cached
// sparkline. Caller holds the lock.
func (d *Deriver) metric(key string, value int) Metric {
	return Metric{
		Value:     value,
		Trend:     estimateTrend(value),
		Sparkline: d.sparks.get(key, value),
	}
}

// Sparkline exposes the per-metric series cache directly.
func (d *Deriver) Sparkline(metricKey string, current int) []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sparks.get(metricKey, current)
}

// memoKey fingerprints the derivation inputs: every case's id and update
// time, the query, and the filter set in canonical order.
func memoKey(cases []*casefile.MedicalCase, query string, filters []string) string {
	h := fnv.New64a()
	for _, mc := range cases {
		fmt.Fprintf(h, "%s@%d;", mc.ID, mc.UpdatedAt.UnixNano())
	}
	sorted := make([]string, len(filters))
	copy(sorted, filters)
	sort.Strings(sorted)
	return fmt.Sprintf("%x|%s|%s", h.Sum64(), strings.ToLower(strings.TrimSpace(query)), strings.Join(sorted, ","))
}
