package dashboard

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caselog/caselog/internal/domain/casefile"
	"github.com/caselog/caselog/internal/domain/tags"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type caseOpt func(*casefile.MedicalCase)

func withStatus(status string) caseOpt {
	return func(mc *casefile.MedicalCase) { mc.Status = status }
}

func withCreatedAt(t time.Time) caseOpt {
	return func(mc *casefile.MedicalCase) { mc.CreatedAt = t }
}

func withUpdatedAt(t time.Time) caseOpt {
	return func(mc *casefile.MedicalCase) { mc.UpdatedAt = t }
}

func withTags(names ...string) caseOpt {
	return func(mc *casefile.MedicalCase) {
		for _, n := range names {
			mc.Tags = append(mc.Tags, tags.CaseTag{ID: uuid.New(), Name: n})
		}
	}
}

func withDiagnosis(name string) caseOpt {
	return func(mc *casefile.MedicalCase) {
		mc.Diagnoses = append(mc.Diagnoses, casefile.Diagnosis{ID: uuid.New(), Name: name})
	}
}

func withPatient(name string) caseOpt {
	return func(mc *casefile.MedicalCase) {
		mc.Patient = &casefile.Patient{ID: mc.PatientID, Name: name}
	}
}

func makeCase(title string, opts ...caseOpt) *casefile.MedicalCase {
	mc := &casefile.MedicalCase{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		Title:     title,
		Status:    "active",
		CreatedAt: testNow.AddDate(0, 0, -30),
		UpdatedAt: testNow.AddDate(0, 0, -30),
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

func titles(cases []*casefile.MedicalCase) []string {
	out := make([]string, len(cases))
	for i, mc := range cases {
		out[i] = mc.Title
	}
	return out
}

func TestFilterCases_SearchFields(t *testing.T) {
	cases := []*casefile.MedicalCase{
		makeCase("Acute Appendicitis", withPatient("Jane Doe")),
		makeCase("Chest Pain Workup", withPatient("John Smith"), withDiagnosis("NSTEMI")),
		makeCase("Routine Followup", withPatient("Ann Lee"), withTags("Cardiology")),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"appendicitis", []string{"Acute Appendicitis"}},
		{"SMITH", []string{"Chest Pain Workup"}},
		{"nstemi", []string{"Chest Pain Workup"}},
		{"cardio", []string{"Routine Followup"}},
		{"", []string{"Acute Appendicitis", "Chest Pain Workup", "Routine Followup"}},
		{"zebra", []string{}},
	}

	for _, tt := range tests {
		got := titles(filterCasesAt(cases, tt.query, nil, testNow))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("query %q: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestFilterCases_QuickFilterVocabulary(t *testing.T) {
	cases := []*casefile.MedicalCase{
		makeCase("fresh", withCreatedAt(testNow.AddDate(0, 0, -2)), withUpdatedAt(testNow.AddDate(0, 0, -1))),
		makeCase("urgent tag", withTags("Urgent")),
		makeCase("done", withStatus("completed")),
		makeCase("neuro", withTags("Neurology")),
		makeCase("stale"),
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{"recent", []string{"fresh"}},
		{"this-week", []string{"fresh"}},
		{"priority", []string{"urgent tag"}},
		{"completed", []string{"done"}},
		{"neuro", []string{"neuro"}},
		{"active", []string{"fresh", "urgent tag", "neuro", "stale"}},
	}

	for _, tt := range tests {
		got := titles(filterCasesAt(cases, "", []string{tt.filter}, testNow))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filter %q: got %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestFilterCases_FiltersCombineAsOR(t *testing.T) {
	// Created this week but still active: must pass ["completed", "this-week"].
	thisWeekActive := makeCase("this week active",
		withCreatedAt(testNow.AddDate(0, 0, -3)), withStatus("active"))
	oldCompleted := makeCase("old completed", withStatus("completed"))
	oldActive := makeCase("old active")

	got := titles(filterCasesAt(
		[]*casefile.MedicalCase{thisWeekActive, oldCompleted, oldActive},
		"", []string{"completed", "this-week"}, testNow))

	want := []string{"this week active", "old completed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterCases_SearchANDsWithFilters(t *testing.T) {
	cases := []*casefile.MedicalCase{
		makeCase("done", withStatus("completed")),
		makeCase("fresh", withCreatedAt(testNow.AddDate(0, 0, -1))),
	}

	// A query matching nothing empties the result no matter how many
	// filters are active.
	got := filterCasesAt(cases, "no-such-case", []string{"completed", "this-week", "active"}, testNow)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", titles(got))
	}
}

func TestComputeTrend_ClampsPrevious(t *testing.T) {
	tr := ComputeTrend(10, 0)
	if tr.Delta != 9 {
		t.Errorf("expected delta 9 against clamped previous 1, got %d", tr.Delta)
	}
	if !tr.IsPositive {
		t.Error("expected positive trend")
	}
	if tr.Percentage != 900 {
		t.Errorf("expected 900%%, got %d", tr.Percentage)
	}
	if math.IsNaN(float64(tr.Percentage)) || math.IsInf(float64(tr.Percentage), 0) {
		t.Error("percentage must be finite")
	}
}

func TestComputeTrend_ZeroCurrentIsFlat(t *testing.T) {
	tr := ComputeTrend(0, 0)
	if tr.Delta != 0 || tr.Percentage != 0 || !tr.IsPositive {
		t.Errorf("expected flat zero trend, got %+v", tr)
	}
}

func TestDerive_EmptyCollection(t *testing.T) {
	d := NewDeriver()
	stats := d.deriveAt(nil, "", nil, testNow)

	for name, m := range map[string]Metric{
		"totalCases":     stats.TotalCases,
		"activeCases":    stats.ActiveCases,
		"casesThisMonth": stats.CasesThisMonth,
		"uniquePatients": stats.UniquePatients,
	} {
		if m.Value != 0 {
			t.Errorf("%s: expected 0, got %d", name, m.Value)
		}
		if m.Trend.Percentage != 0 {
			t.Errorf("%s: expected 0%% trend, got %d", name, m.Trend.Percentage)
		}
	}
	if len(stats.TagDistribution) != 0 {
		t.Errorf("expected empty tag distribution, got %v", stats.TagDistribution)
	}
	if len(stats.Cases) != 0 {
		t.Error("expected empty filtered list")
	}
	if len(stats.WeeklyActivity) != 7 {
		t.Errorf("expected 7 activity buckets, got %d", len(stats.WeeklyActivity))
	}
}

func TestDerive_Counts(t *testing.T) {
	sharedPatient := uuid.New()
	withPatientID := func(id uuid.UUID) caseOpt {
		return func(mc *casefile.MedicalCase) { mc.PatientID = id }
	}

	cases := []*casefile.MedicalCase{
		makeCase("a", withCreatedAt(testNow.AddDate(0, 0, -2)), withPatientID(sharedPatient)),
		makeCase("b", withCreatedAt(testNow.AddDate(0, 0, -5)), withPatientID(sharedPatient), withStatus("completed")),
		makeCase("c", withCreatedAt(testNow.AddDate(0, -2, 0))),
	}

	stats := NewDeriver().deriveAt(cases, "", nil, testNow)
	if stats.TotalCases.Value != 3 {
		t.Errorf("total: got %d", stats.TotalCases.Value)
	}
	if stats.ActiveCases.Value != 2 {
		t.Errorf("active: got %d", stats.ActiveCases.Value)
	}
	if stats.CasesThisMonth.Value != 2 {
		t.Errorf("this month: got %d", stats.CasesThisMonth.Value)
	}
	if stats.UniquePatients.Value != 2 {
		t.Errorf("unique patients: got %d", stats.UniquePatients.Value)
	}
}

func TestTagDistribution_TopSixDescending(t *testing.T) {
	var cases []*casefile.MedicalCase
	names := []string{"cardiology", "neurology", "surgery", "pediatrics", "oncology", "radiology", "urology"}
	for i, name := range names {
		// cardiology appears 7 times, urology once.
		for j := 0; j <= len(names)-1-i; j++ {
			cases = append(cases, makeCase(name, withTags(name)))
		}
	}

	dist := tagDistribution(cases)
	if len(dist) != 6 {
		t.Fatalf("expected top 6, got %d", len(dist))
	}
	if dist[0].Name != "cardiology" || dist[0].Count != 7 {
		t.Errorf("expected cardiology x7 first, got %+v", dist[0])
	}
	for i := 1; i < len(dist); i++ {
		if dist[i].Count > dist[i-1].Count {
			t.Fatalf("distribution not sorted descending: %v", dist)
		}
	}
	for _, tc := range dist {
		if tc.Name == "urology" {
			t.Error("seventh-ranked tag must be truncated")
		}
	}
}

func TestSparkline_CachedPerMetricAndValue(t *testing.T) {
	d := NewDeriver()

	first := d.Sparkline("totalCases", 12)
	second := d.Sparkline("totalCases", 12)
	if !reflect.DeepEqual(first, second) {
		t.Error("same (metric, value) pair must return the identical series")
	}

	changed := d.Sparkline("totalCases", 13)
	if reflect.DeepEqual(first, changed) {
		t.Error("a changed value must produce a freshly generated series")
	}

	otherMetric := d.Sparkline("activeCases", 12)
	if reflect.DeepEqual(first, otherMetric) {
		t.Error("different metrics must not share a cached series")
	}
}

func TestSparkline_ShapeInvariants(t *testing.T) {
	for _, current := range []int{0, 1, 10, 500} {
		series := generateSparkline(current)
		if len(series) != 7 {
			t.Fatalf("current=%d: expected 7 points, got %d", current, len(series))
		}
		if series[6] != float64(current) {
			t.Errorf("current=%d: last point must equal current, got %f", current, series[6])
		}
		for i, p := range series {
			if p < 0 {
				t.Errorf("current=%d: point %d is negative: %f", current, i, p)
			}
		}
	}
}

func TestDerive_Memoized(t *testing.T) {
	d := NewDeriver()
	cases := []*casefile.MedicalCase{makeCase("a"), makeCase("b")}

	first := d.deriveAt(cases, "a", []string{"active", "recent"}, testNow)
	// Filter order must not matter for the memo key.
	second := d.deriveAt(cases, "a", []string{"recent", "active"}, testNow)
	if first != second {
		t.Error("expected identical inputs to return the memoized derivation")
	}

	grown := append(cases, makeCase("c"))
	third := d.deriveAt(grown, "a", []string{"active", "recent"}, testNow)
	if third == first {
		t.Error("a changed collection must recompute")
	}
}

func TestWeeklyActivity_Buckets(t *testing.T) {
	cases := []*casefile.MedicalCase{
		makeCase("today", withCreatedAt(testNow), withUpdatedAt(testNow)),
		makeCase("three days ago", withCreatedAt(testNow.AddDate(0, 0, -3)), withUpdatedAt(testNow)),
		makeCase("too old", withCreatedAt(testNow.AddDate(0, 0, -10))),
	}

	days := weeklyActivity(cases, testNow)
	if len(days) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(days))
	}
	if days[6].Date != testNow.Format("2006-01-02") {
		t.Errorf("expected last bucket to be today, got %s", days[6].Date)
	}
	if days[6].Created != 1 || days[6].Updated != 2 {
		t.Errorf("today: created=%d updated=%d", days[6].Created, days[6].Updated)
	}
	if days[3].Created != 1 {
		t.Errorf("expected one creation three days ago, got %d", days[3].Created)
	}

	var totalCreated int
	for _, day := range days {
		totalCreated += day.Created
	}
	if totalCreated != 2 {
		t.Errorf("cases outside the window must not be bucketed, got %d", totalCreated)
	}
}
