package domain

import (
	"testing"
	"time"
)

func TestBuildStatsZeroFills(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := BuildStats(map[Status]int64{StatusPending: 3, StatusApproved: 2}, nil, now)

	if s.Total != 5 {
		t.Fatalf("expected total 5, got %d", s.Total)
	}
	if len(s.ByStatus) != len(Statuses()) || s.ByStatus[StatusRejected] != 0 {
		t.Fatalf("expected every status present, got %v", s.ByStatus)
	}
	if len(s.Monthly) != StatsMonths {
		t.Fatalf("expected %d months, got %d", StatsMonths, len(s.Monthly))
	}
	if s.Monthly[0].Month != "2025-11" || s.Monthly[StatsMonths-1].Month != "2026-10" {
		t.Fatalf("unexpected month range %s..%s", s.Monthly[0].Month, s.Monthly[StatsMonths-1].Month)
	}
}

func TestBuildStatsBucketsByMonth(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	created := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), // before the window
	}
	s := BuildStats(nil, created, now)

	if first := s.Monthly[0]; first.Month != "2025-02" || first.Count != 1 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
	if last := s.Monthly[StatsMonths-1]; last.Month != "2026-01" || last.Count != 2 {
		t.Fatalf("unexpected last bucket: %+v", last)
	}
	var sum int64
	for _, m := range s.Monthly {
		sum += m.Count
	}
	if sum != 3 {
		t.Fatalf("expected 3 applications in window, got %d", sum)
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC))
	want := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
