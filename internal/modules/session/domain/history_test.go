package domain_test

import (
	"testing"

	"miso/internal/modules/session/domain"
)

func ids(h domain.History) []string {
	var out []string
	for _, g := range h.Groups {
		for _, s := range g.Sessions {
			out = append(out, g.MonthKey+"/"+s.ID)
		}
	}
	return out
}

func TestMergeAppendsIntoExistingMonthAndPreservesOrder(t *testing.T) {
	t.Parallel()
	first := domain.History{
		Groups: []domain.MonthGroup{
			{MonthName: "March 2026", MonthKey: "2026-03", Sessions: []domain.Summary{{ID: "a"}, {ID: "b"}}},
			{MonthName: "February 2026", MonthKey: "2026-02", Sessions: []domain.Summary{{ID: "c"}}},
		},
		Pagination: domain.Pagination{CurrentPage: 1, HasNext: true},
	}
	second := domain.History{
		Groups: []domain.MonthGroup{
			{MonthName: "February 2026", MonthKey: "2026-02", Sessions: []domain.Summary{{ID: "d"}}},
			{MonthName: "January 2026", MonthKey: "2026-01", Sessions: []domain.Summary{{ID: "e"}}},
		},
		Pagination: domain.Pagination{CurrentPage: 2, HasNext: false},
	}

	merged := first.Merge(second)
	want := []string{"2026-03/a", "2026-03/b", "2026-02/c", "2026-02/d", "2026-01/e"}
	got := ids(merged)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(merged.Groups) != 3 {
		t.Fatalf("expected 3 month groups, got %d", len(merged.Groups))
	}
	if merged.Pagination.CurrentPage != 2 || merged.CanLoadMore() {
		t.Fatalf("expected pagination replaced by page 2, got %+v", merged.Pagination)
	}
	if len(first.Groups[1].Sessions) != 1 {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestRemoveDropsSessionAndEmptyGroups(t *testing.T) {
	t.Parallel()
	h := domain.History{
		Groups: []domain.MonthGroup{
			{MonthKey: "2026-03", Sessions: []domain.Summary{{ID: "a"}}},
			{MonthKey: "2026-02", Sessions: []domain.Summary{{ID: "b"}, {ID: "c"}}},
		},
		Pagination: domain.Pagination{TotalCount: 3},
	}
	out, removed := h.Remove("a")
	if !removed || out.Contains("a") {
		t.Fatalf("expected a removed, got %v", ids(out))
	}
	if len(out.Groups) != 1 || out.Count() != 2 || out.Pagination.TotalCount != 2 {
		t.Fatalf("unexpected history after remove: %+v", out)
	}
	if _, removed := out.Remove("missing"); removed {
		t.Fatalf("removing an unknown id must report false")
	}
}

func TestDetailMetricsRoundLikeTheSessionPage(t *testing.T) {
	t.Parallel()
	d := domain.Detail{Duration: 1530, MoodScore: 7.25, EngagementScore: 6.04, WordCount: 812}
	m := d.Metrics()
	if m.DurationMinutes != 26 || m.MoodPercent != 73 || m.EngagementPercent != 60 || m.Words != 812 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if (domain.Detail{}).DisplayTitle() != "Session Details" {
		t.Fatalf("expected default title for untitled session")
	}
	zero := domain.Detail{}.Metrics()
	if zero != (domain.Metrics{}) {
		t.Fatalf("expected zero metrics for empty detail, got %+v", zero)
	}
}

func TestParseTimestampAcceptsNaiveISO(t *testing.T) {
	t.Parallel()
	if ts := domain.ParseTimestamp("2026-03-04T09:30:00"); ts.IsZero() || ts.Hour() != 9 {
		t.Fatalf("expected naive timestamp parsed, got %v", ts)
	}
	if ts := domain.ParseTimestamp("2026-03-04T09:30:00.123456+00:00"); ts.IsZero() {
		t.Fatalf("expected zoned timestamp parsed")
	}
	if ts := domain.ParseTimestamp("yesterday"); !ts.IsZero() {
		t.Fatalf("expected zero time for garbage, got %v", ts)
	}
}
