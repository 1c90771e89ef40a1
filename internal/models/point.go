package models

import (
	"sort"
	"time"
)

// PointRecord is a single awarded point as stored by the backend.
type PointRecord struct {
	ID        int64     `json:"id"`
	ClassID   int64     `json:"classId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DayCount is an aggregated number of points awarded on one calendar day.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PointsByDay aggregates point records into per-day counts, sorted by day.
// Used by the report screen to feed its chart.
func PointsByDay(records []PointRecord) []DayCount {
	byDay := make(map[string]int)
	for _, rec := range records {
		day := rec.CreatedAt.Format("2006-01-02")
		byDay[day]++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	counts := make([]DayCount, 0, len(days))
	for _, day := range days {
		counts = append(counts, DayCount{Day: day, Count: byDay[day]})
	}
	return counts
}
