package models

import "time"

// Child represents a child record owned by the backend. Fields are never
// mutated locally; the record is replaced wholesale whenever the roster is
// reloaded.
type Child struct {
	ID          int64         `json:"id"`
	Name        string        `json:"nome"`
	BirthDate   time.Time     `json:"dateOfBirth"`
	Avatar      string        `json:"avatar"`
	TotalPoints int           `json:"pontos"`
	Points      []PointRecord `json:"points"`
}

// PointCount returns the authoritative number of points the backend knows
// about. The server models points as a collection, so size implies total.
func (c Child) PointCount() int {
	if len(c.Points) > 0 {
		return len(c.Points)
	}
	return c.TotalPoints
}

// AgeAt returns the child's age in whole years at the given instant.
func (c Child) AgeAt(now time.Time) int {
	if c.BirthDate.IsZero() || c.BirthDate.After(now) {
		return 0
	}
	age := now.Year() - c.BirthDate.Year()
	anniversary := c.BirthDate.AddDate(age, 0, 0)
	if anniversary.After(now) {
		age--
	}
	return age
}

// ChildPage is one page of a filtered child listing.
type ChildPage struct {
	Total       int     `json:"total"`
	PageSize    int     `json:"pageSize"`
	CurrentSkip int     `json:"currentSkip"`
	HasNextPage bool    `json:"hasNextPage"`
	Data        []Child `json:"data"`
}
