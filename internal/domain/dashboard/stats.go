package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caselog/caselog/internal/domain/casefile"
)

// trendHistoryOffset estimates the previous value of a metric in the absence
// of real historical data: previous = max(1, current - offset). A display
// heuristic, not an audited comparison.
const trendHistoryOffset = 3

const topTagLimit = 6

// Trend compares a metric's current value against an estimated previous one.
type Trend struct {
	Delta      int  `json:"delta"`
	IsPositive bool `json:"isPositive"`
	Percentage int  `json:"percentage"`
}

// Metric is one dashboard counter with its trend and sparkline series.
type Metric struct {
	Value     int       `json:"value"`
	Trend     Trend     `json:"trend"`
	Sparkline []float64 `json:"sparkline"`
}

// TagCount is one entry of the specialty distribution.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayActivity is one point of the 7-day activity series.
type DayActivity struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

// Stats is the full derived dashboard payload for one (collection, query,
// filters) input.
type Stats struct {
	Cases           []*casefile.MedicalCase `json:"cases"`
	TotalCases      Metric                  `json:"totalCases"`
	ActiveCases     Metric                  `json:"activeCases"`
	CasesThisMonth  Metric                  `json:"casesThisMonth"`
	UniquePatients  Metric                  `json:"uniquePatients"`
	TagDistribution []TagCount              `json:"tagDistribution"`
	WeeklyActivity  []DayActivity           `json:"weeklyActivity"`
}

// ComputeTrend derives the trend against a supplied previous value, clamped
// to at least 1 so the percentage is always finite. A zero current value
// reports a flat trend rather than a fabricated decline.
func ComputeTrend(current, previous int) Trend {
	if current == 0 {
		return Trend{Delta: 0, IsPositive: true, Percentage: 0}
	}
	if previous < 1 {
		previous = 1
	}
	delta := current - previous
	pct := int(math.Round(math.Abs(float64(delta)/float64(previous)) * 100))
	return Trend{Delta: delta, IsPositive: delta >= 0, Percentage: pct}
}

// estimateTrend applies the no-history heuristic.
func estimateTrend(current int) Trend {
	return ComputeTrend(current, current-trendHistoryOffset)
}

func countStats(cases []*casefile.MedicalCase, now time.Time) (total, active, thisMonth, uniquePatients int) {
	total = len(cases)
	patients := make(map[uuid.UUID]bool)
	year, month, _ := now.Date()
	for _, mc := range cases {
		if mc.Status == "active" {
			active++
		}
		cy, cm, _ := mc.CreatedAt.Date()
		if cy == year && cm == month {
			thisMonth++
		}
		patients[mc.PatientID] = true
	}
	uniquePatients = len(patients)
	return total, active, thisMonth, uniquePatients
}

// tagDistribution counts tag-name frequency over the filtered collection,
// sorted descending by count and truncated to the top entries. Ties order
// alphabetically so the output is stable.
func tagDistribution(cases []*casefile.MedicalCase) []TagCount {
	counts := make(map[string]int)
	for _, mc := range cases {
		for _, t := range mc.Tags {
			counts[strings.ToLower(t.Name)]++
		}
	}
	dist := make([]TagCount, 0, len(counts))
	for name, count := range counts {
		dist = append(dist, TagCount{Name: name, Count: count})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Name < dist[j].Name
	})
	if len(dist) > topTagLimit {
		dist = dist[:topTagLimit]
	}
	return dist
}

// weeklyActivity buckets creations and updates per day over the last 7 days,
// oldest day first.
func weeklyActivity(cases []*casefile.MedicalCase, now time.Time) []DayActivity {
	days := make([]DayActivity, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, i-6).Format("2006-01-02")
		days[i] = DayActivity{Date: date}
		index[date] = i
	}
	for _, mc := range cases {
		if i, ok := index[mc.CreatedAt.Format("2006-01-02")]; ok {
			days[i].Created++
		}
		if i, ok := index[mc.UpdatedAt.Format("2006-01-02")]; ok {
			days[i].Updated++
		}
	}
	return days
}
