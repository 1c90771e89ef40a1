package handlers

import (
	"html/template"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"salapoints/internal/backend"
	"salapoints/internal/points"
	"salapoints/internal/roster"
	"salapoints/internal/security"
	"salapoints/internal/session"
	"salapoints/internal/validation"
)

// AdminHandler serves the admin-only screens: presence administration,
// child management and the global point reset.
type AdminHandler struct {
	client    *backend.Client
	cache     *session.Cache
	ledger    *points.Ledger
	registry  *roster.Registry
	csrf      *security.CSRFGenerator
	flashes   *FlashStore
	templates *template.Template
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(client *backend.Client, cache *session.Cache, ledger *points.Ledger, registry *roster.Registry, csrf *security.CSRFGenerator, flashes *FlashStore, templates *template.Template) *AdminHandler {
	return &AdminHandler{
		client:    client,
		cache:     cache,
		ledger:    ledger,
		registry:  registry,
		csrf:      csrf,
		flashes:   flashes,
		templates: templates,
	}
}

// ShowPresence renders the staff presence administration screen
func (h *AdminHandler) ShowPresence(w http.ResponseWriter, r *http.Request) {
	users, err := h.client.ListUsers(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar a equipe"))
	}

	rows := make([]StaffPresenceRow, 0, len(users))
	for _, user := range users {
		rows = append(rows, StaffPresenceRow{
			User:      user,
			DayCounts: user.PresenceByDay(),
			Total:     user.PresenceCount(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].User.Username < rows[j].User.Username
	})

	data := PresenceViewData{
		Title:     "Presenças - SalaPoints",
		IsAdmin:   h.cache.Level().CanAdminister(),
		Rows:      rows,
		Today:     timeNow().Format("2006-01-02"),
		CSRFToken: h.csrfToken(),
		Flashes:   h.flashes.Pop(w, r),
	}
	h.render(w, "presence.tmpl", data)
}

// AddPresence registers presence for one staff member on one day. Future
// days are rejected before any request is sent.
func (h *AdminHandler) AddPresence(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	day, ok := h.parsePresenceDay(w, r)
	if !ok {
		return
	}

	if _, err := h.client.AddPresence(r.Context(), userID, day); err != nil {
		log.Printf("Error adding presence for user %d: %v", userID, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível registrar a presença"))
	} else {
		h.flashes.Success(w, r, "Presença registrada")
	}

	http.Redirect(w, r, "/admin/presence", http.StatusSeeOther)
}

// BulkAddPresence registers presence for every selected staff member on one
// day, continuing past individual failures.
func (h *AdminHandler) BulkAddPresence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	day, ok := h.parsePresenceDay(w, r)
	if !ok {
		return
	}

	var added, failed int
	for _, raw := range r.Form["user_ids"] {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			failed++
			continue
		}
		if _, err := h.client.AddPresence(r.Context(), userID, day); err != nil {
			log.Printf("Error adding presence for user %d: %v", userID, err)
			failed++
			continue
		}
		added++
	}

	switch {
	case added == 0 && failed == 0:
		h.flashes.Error(w, r, "Nenhum membro da equipe selecionado")
	case failed > 0:
		h.flashes.Error(w, r, "Algumas presenças não puderam ser registradas")
	default:
		h.flashes.Success(w, r, "Presenças registradas")
	}

	http.Redirect(w, r, "/admin/presence", http.StatusSeeOther)
}

// RemovePresence deletes one presence entry
func (h *AdminHandler) RemovePresence(w http.ResponseWriter, r *http.Request) {
	presenceID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid presence id", http.StatusBadRequest)
		return
	}

	if err := h.client.RemovePresence(r.Context(), presenceID); err != nil {
		log.Printf("Error removing presence %d: %v", presenceID, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível remover a presença"))
	} else {
		h.flashes.Success(w, r, "Presença removida")
	}

	http.Redirect(w, r, "/admin/presence", http.StatusSeeOther)
}

// ShowChildren renders the child management screen
func (h *AdminHandler) ShowChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.client.AllChildren(r.Context())
	if err != nil {
		log.Printf("Error listing children: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar as crianças"))
	}

	data := ChildrenAdminViewData{
		Title:     "Crianças - SalaPoints",
		IsAdmin:   h.cache.Level().CanAdminister(),
		Children:  children,
		CSRFToken: h.csrfToken(),
		Flashes:   h.flashes.Pop(w, r),
	}
	h.render(w, "children.tmpl", data)
}

// CreateChild registers a new child from the admin form
func (h *AdminHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	params, ok := h.parseChildForm(w, r)
	if !ok {
		return
	}

	if err := h.client.CreateChild(r.Context(), params); err != nil {
		log.Printf("Error creating child: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível cadastrar a criança"))
	} else {
		h.registry.InvalidateAll()
		h.flashes.Success(w, r, "Criança cadastrada")
	}

	http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
}

// UpdateChild replaces a child's mutable fields from the admin form
func (h *AdminHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid child id", http.StatusBadRequest)
		return
	}

	params, ok := h.parseChildForm(w, r)
	if !ok {
		return
	}

	if err := h.client.UpdateChild(r.Context(), childID, params); err != nil {
		log.Printf("Error updating child %d: %v", childID, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível atualizar a criança"))
	} else {
		h.registry.InvalidateAll()
		h.flashes.Success(w, r, "Criança atualizada")
	}

	http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
}

// DeleteChildren removes the selected children in one batch
func (h *AdminHandler) DeleteChildren(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	var ids []int64
	for _, raw := range r.Form["child_ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		h.flashes.Error(w, r, "Nenhuma criança selecionada")
		http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
		return
	}

	if err := h.client.DeleteChildren(r.Context(), ids); err != nil {
		log.Printf("Error deleting children %v: %v", ids, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível excluir as crianças"))
	} else {
		h.registry.InvalidateAll()
		h.flashes.Success(w, r, "Crianças excluídas")
	}

	http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
}

// ResetPoints zeroes every child's points and drops the session overlay
func (h *AdminHandler) ResetPoints(w http.ResponseWriter, r *http.Request) {
	if err := h.client.ResetAllPoints(r.Context()); err != nil {
		log.Printf("Error resetting points: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível zerar os pontos"))
		http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
		return
	}

	h.ledger.Reset()
	h.registry.InvalidateAll()
	h.flashes.Success(w, r, "Pontos zerados")
	http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
}

// parsePresenceDay reads the day field, defaulting to today, and rejects
// future days.
func (h *AdminHandler) parsePresenceDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.FormValue("day"))
	if raw == "" {
		now := timeNow().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}

	day, err := time.Parse("2006-01-02", raw)
	if err != nil || day.After(timeNow()) {
		h.flashes.Error(w, r, "Data de presença inválida")
		http.Redirect(w, r, "/admin/presence", http.StatusSeeOther)
		return time.Time{}, false
	}
	return day, true
}

func (h *AdminHandler) parseChildForm(w http.ResponseWriter, r *http.Request) (backend.ChildParams, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return backend.ChildParams{}, false
	}

	name := r.FormValue("name")
	if err := validation.ValidateChildName(name); err != nil {
		h.flashes.Error(w, r, err.Error())
		http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
		return backend.ChildParams{}, false
	}

	birthDate, err := validation.ParseBirthDate(r.FormValue("birth_date"), timeNow())
	if err != nil {
		h.flashes.Error(w, r, err.Error())
		http.Redirect(w, r, "/admin/children", http.StatusSeeOther)
		return backend.ChildParams{}, false
	}

	pointCount, _ := strconv.Atoi(r.FormValue("points"))
	if pointCount < 0 {
		pointCount = 0
	}

	userID, _ := strconv.ParseInt(h.cache.UserID(), 10, 64)

	return backend.ChildParams{
		Name:      strings.TrimSpace(name),
		BirthDate: birthDate,
		UserID:    userID,
		Points:    pointCount,
	}, true
}

func (h *AdminHandler) csrfToken() string {
	token, err := h.csrf.GenerateToken(h.cache.Token())
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
	}
	return token
}

func (h *AdminHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
