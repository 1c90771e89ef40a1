package models

import "time"

// StaffUser is a staff member as returned by the backend user listing.
type StaffUser struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Position  string     `json:"position"`
	AvatarURL string     `json:"avatarURL"`
	Presence  []Presence `json:"presence"`
}

// Presence is one attendance entry for a staff member.
type Presence struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// PresenceByDay counts presence entries per calendar day. Days with more
// than one entry indicate a double registration the admin screen highlights.
func (u StaffUser) PresenceByDay() map[string]int {
	byDay := make(map[string]int)
	for _, p := range u.Presence {
		day := p.CreatedAt.Format("2006-01-02")
		byDay[day]++
	}
	return byDay
}

// PresenceCount returns the number of distinct days with registered presence.
func (u StaffUser) PresenceCount() int {
	return len(u.PresenceByDay())
}
