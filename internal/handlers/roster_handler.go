package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"salapoints/internal/backend"
	"salapoints/internal/points"
	"salapoints/internal/roster"
	"salapoints/internal/security"
	"salapoints/internal/session"
)

// RosterHandler serves the sala screens: the per-age-window child listings
// with incremental pagination, search and the point overlay.
type RosterHandler struct {
	client    *backend.Client
	cache     *session.Cache
	ledger    *points.Ledger
	registry  *roster.Registry
	csrf      *security.CSRFGenerator
	flashes   *FlashStore
	templates *template.Template
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(client *backend.Client, cache *session.Cache, ledger *points.Ledger, registry *roster.Registry, csrf *security.CSRFGenerator, flashes *FlashStore, templates *template.Template) *RosterHandler {
	return &RosterHandler{
		client:    client,
		cache:     cache,
		ledger:    ledger,
		registry:  registry,
		csrf:      csrf,
		flashes:   flashes,
		templates: templates,
	}
}

// Home renders the sala picker
func (h *RosterHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := HomeViewData{
		Title:   "Salas - SalaPoints",
		Salas:   h.registry.Salas(),
		IsAdmin: h.cache.Level().CanAdminister(),
		Flashes: h.flashes.Pop(w, r),
	}
	h.render(w, "home.tmpl", data)
}

// ShowSala renders one sala's roster. A search query replaces the result set;
// stale or never-loaded salas are fetched before rendering.
func (h *RosterHandler) ShowSala(w http.ResponseWriter, r *http.Request) {
	sala, loader, ok := h.resolveSala(w, r)
	if !ok {
		return
	}

	if search, present := queryParam(r, "search"); present {
		loader.SetSearch(search)
		if err := loader.Reload(r.Context()); err != nil {
			log.Printf("Error searching sala %s: %v", sala.Slug, err)
			h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível buscar as crianças"))
		}
	} else if loader.NeedsReload() {
		if err := loader.Reload(r.Context()); err != nil {
			log.Printf("Error loading sala %s: %v", sala.Slug, err)
			h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar as crianças"))
		}
	}

	h.renderSala(w, r, sala, loader)
}

// LoadMore appends the next roster page, then re-renders the sala. Dropped
// while a fetch is outstanding.
func (h *RosterHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	sala, loader, ok := h.resolveSala(w, r)
	if !ok {
		return
	}

	if err := loader.LoadMore(r.Context()); err != nil {
		log.Printf("Error loading more for sala %s: %v", sala.Slug, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar mais crianças"))
	}

	http.Redirect(w, r, "/salas/"+sala.Slug, http.StatusSeeOther)
}

// AddPoint awards one point to a child through the optimistic overlay
func (h *RosterHandler) AddPoint(w http.ResponseWriter, r *http.Request) {
	sala, childID, ok := h.resolveChildAction(w, r)
	if !ok {
		return
	}

	err := h.ledger.Add(r.Context(), childID, h.cache.UserID())
	if errors.Is(err, points.ErrNoSession) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("Error adding point for child %d: %v", childID, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível registrar o ponto"))
	}

	http.Redirect(w, r, "/salas/"+sala, http.StatusSeeOther)
}

// RemovePoint takes back the most recent point given to a child
func (h *RosterHandler) RemovePoint(w http.ResponseWriter, r *http.Request) {
	sala, childID, ok := h.resolveChildAction(w, r)
	if !ok {
		return
	}

	if err := h.ledger.Remove(r.Context(), childID); err != nil {
		log.Printf("Error removing point for child %d: %v", childID, err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível remover o ponto"))
	}

	http.Redirect(w, r, "/salas/"+sala, http.StatusSeeOther)
}

// ChildDetails returns one child record as JSON for the detail popover
func (h *RosterHandler) ChildDetails(w http.ResponseWriter, r *http.Request) {
	childID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid child id", http.StatusBadRequest)
		return
	}

	child, err := h.client.ChildByID(r.Context(), childID)
	if err != nil {
		log.Printf("Error fetching child %d: %v", childID, err)
		http.Error(w, backend.UserMessage(err, "Child not found"), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(child); err != nil {
		log.Printf("Error encoding child %d: %v", childID, err)
	}
}

func (h *RosterHandler) resolveSala(w http.ResponseWriter, r *http.Request) (roster.Sala, *roster.Loader, bool) {
	slug := r.PathValue("sala")
	sala, found := h.registry.Sala(slug)
	if !found {
		http.NotFound(w, r)
		return roster.Sala{}, nil, false
	}
	loader, found := h.registry.Loader(slug)
	if !found {
		http.NotFound(w, r)
		return roster.Sala{}, nil, false
	}
	return sala, loader, true
}

func (h *RosterHandler) resolveChildAction(w http.ResponseWriter, r *http.Request) (salaSlug string, childID int64, ok bool) {
	salaSlug = r.PathValue("sala")
	if _, found := h.registry.Sala(salaSlug); !found {
		http.NotFound(w, r)
		return "", 0, false
	}
	childID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid child id", http.StatusBadRequest)
		return "", 0, false
	}
	return salaSlug, childID, true
}

func (h *RosterHandler) renderSala(w http.ResponseWriter, r *http.Request, sala roster.Sala, loader *roster.Loader) {
	children := loader.Children()

	// Seed the overlay so the dots reflect the server totals on first view
	seed := make(map[int64]int, len(children))
	for _, child := range children {
		seed[child.ID] = child.PointCount()
	}
	h.ledger.Seed(seed)

	cards := make([]ChildCard, 0, len(children))
	for _, child := range children {
		count := h.ledger.Count(child.ID)
		cards = append(cards, ChildCard{
			Child:     child,
			Age:       child.AgeAt(timeNow()),
			Points:    count,
			AtCeiling: count >= points.MaxPerChild,
			Animating: h.ledger.Animating(child.ID),
		})
	}

	csrfToken, err := h.csrf.GenerateToken(h.cache.Token())
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
	}

	data := SalaViewData{
		Title:       sala.Label + " - SalaPoints",
		Sala:        sala,
		Cards:       cards,
		Search:      loader.Search(),
		HasNextPage: loader.HasNextPage(),
		IsAdmin:     h.cache.Level().CanAdminister(),
		CSRFToken:   csrfToken,
		Flashes:     h.flashes.Pop(w, r),
	}
	h.render(w, "sala.tmpl", data)
}

func (h *RosterHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// queryParam distinguishes an absent parameter from a present-but-empty one,
// so clearing the search box actually clears the filter.
func queryParam(r *http.Request, key string) (string, bool) {
	values := r.URL.Query()
	if _, present := values[key]; !present {
		return "", false
	}
	return values.Get(key), true
}
