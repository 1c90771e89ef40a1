package handlers

import (
	"salapoints/internal/models"
	"salapoints/internal/roster"
)

type LoginViewData struct {
	Title    string
	Username string
	Error    string
	ServerOK bool
	Checked  bool
	Flashes  []Flash
}

type HomeViewData struct {
	Title   string
	Salas   []roster.Sala
	IsAdmin bool
	Flashes []Flash
}

// ChildCard is one child tile on the sala screen: the authoritative record
// plus the session overlay state driving the point dots and the pulse.
type ChildCard struct {
	Child     models.Child
	Age       int
	Points    int
	AtCeiling bool
	Animating bool
}

type SalaViewData struct {
	Title       string
	Sala        roster.Sala
	Cards       []ChildCard
	Search      string
	HasNextPage bool
	IsAdmin     bool
	CSRFToken   string
	Flashes     []Flash
}

// StaffPresenceRow is one staff member on the presence admin screen, with
// per-day counts so double registrations stand out.
type StaffPresenceRow struct {
	User      models.StaffUser
	DayCounts map[string]int
	Total     int
}

type PresenceViewData struct {
	Title     string
	IsAdmin   bool
	Rows      []StaffPresenceRow
	Today     string
	CSRFToken string
	Flashes   []Flash
}

type ChildrenAdminViewData struct {
	Title     string
	IsAdmin   bool
	Children  []models.Child
	CSRFToken string
	Flashes   []Flash
}

type ProfileViewData struct {
	Title     string
	IsAdmin   bool
	User      *models.StaffUser
	CSRFToken string
	Flashes   []Flash
}

type ReportViewData struct {
	Title     string
	IsAdmin   bool
	Children  []models.Child
	Salas     []roster.Sala
	CSRFToken string
	Flashes   []Flash
}
