package dashboard

import (
	"strings"
	"time"

	"github.com/caselog/caselog/internal/domain/casefile"
)

// Quick-filter vocabulary. Any other token matches against tag names as a
// substring.
const (
	FilterRecent    = "recent"
	FilterPriority  = "priority"
	FilterCompleted = "completed"
	FilterActive    = "active"
	FilterThisWeek  = "this-week"
)

// priorityTags are the tag names the "priority" quick filter looks for.
var priorityTags = map[string]bool{
	"urgent": true, "critical": true, "high-priority": true,
}

// FilterCases applies the free-text search and the active quick filters to
// the collection. The search condition is ANDed with the filters; the
// filters themselves are OR-combined, so adding a filter broadens rather
// than narrows the result.
func FilterCases(cases []*casefile.MedicalCase, query string, filters []string) []*casefile.MedicalCase {
	return filterCasesAt(cases, query, filters, time.Now())
}

func filterCasesAt(cases []*casefile.MedicalCase, query string, filters []string, now time.Time) []*casefile.MedicalCase {
	result := make([]*casefile.MedicalCase, 0, len(cases))
	q := strings.ToLower(strings.TrimSpace(query))
	for _, mc := range cases {
		if !matchesSearch(mc, q) {
			continue
		}
		if !matchesAnyFilter(mc, filters, now) {
			continue
		}
		result = append(result, mc)
	}
	return result
}

// matchesSearch is a case-insensitive substring match across title, patient
// name, diagnosis names, and tag names. An empty query matches everything.
func matchesSearch(mc *casefile.MedicalCase, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(mc.Title), q) {
		return true
	}
	if mc.Patient != nil && strings.Contains(strings.ToLower(mc.Patient.Name), q) {
		return true
	}
	for _, d := range mc.Diagnoses {
		if strings.Contains(strings.ToLower(d.Name), q) {
			return true
		}
	}
	for _, t := range mc.Tags {
		if strings.Contains(strings.ToLower(t.Name), q) {
			return true
		}
	}
	return false
}

// matchesAnyFilter returns true when no filters are active or the case
// satisfies at least one of them.
func matchesAnyFilter(mc *casefile.MedicalCase, filters []string, now time.Time) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if matchesFilter(mc, strings.ToLower(strings.TrimSpace(f)), now) {
			return true
		}
	}
	return false
}

func matchesFilter(mc *casefile.MedicalCase, token string, now time.Time) bool {
	switch token {
	case "":
		return false
	case FilterRecent:
		return now.Sub(mc.UpdatedAt) <= 7*24*time.Hour
	case FilterPriority:
		for _, t := range mc.Tags {
			if priorityTags[strings.ToLower(t.Name)] {
				return true
			}
		}
		return false
	case FilterCompleted, FilterActive:
		return mc.Status == token
	case FilterThisWeek:
		return now.Sub(mc.CreatedAt) <= 7*24*time.Hour
	default:
		for _, t := range mc.Tags {
			if strings.Contains(strings.ToLower(t.Name), token) {
				return true
			}
		}
		return false
	}
}
