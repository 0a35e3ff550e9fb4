package domain

import "time"

// StatsMonths number of monthly buckets in Stats
const StatsMonths = 12

// MonthlyCount applications created in one calendar month
type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Stats status breakdown and monthly intake
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[Status]int64 `json:"byStatus"`
	Monthly  []MonthlyCount   `json:"monthly"`
}

// MonthStart first instant of the month StatsMonths-1 months before now, in UTC.
func MonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(StatsMonths - 1), 0)
}

// BuildStats fills every status and every month, oldest month first.
func BuildStats(counts map[Status]int64, created []time.Time, now time.Time) *Stats {
	s := &Stats{ByStatus: make(map[Status]int64, len(Statuses()))}
	for _, st := range Statuses() {
		n := counts[st]
		s.ByStatus[st] = n
		s.Total += n
	}

	start := MonthStart(now)
	index := make(map[string]int, StatsMonths)
	s.Monthly = make([]MonthlyCount, StatsMonths)
	for i := 0; i < StatsMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		s.Monthly[i] = MonthlyCount{Month: key}
		index[key] = i
	}
	for _, t := range created {
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			s.Monthly[i].Count++
		}
	}
	return s
}
