package handlers

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"salapoints/internal/backend"
	"salapoints/internal/points"
	"salapoints/internal/roster"
	"salapoints/internal/session"
)

// AuthHandler handles login, logout and the backend health probe
type AuthHandler struct {
	client    *backend.Client
	cache     *session.Cache
	ledger    *points.Ledger
	registry  *roster.Registry
	flashes   *FlashStore
	templates *template.Template
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(client *backend.Client, cache *session.Cache, ledger *points.Ledger, registry *roster.Registry, flashes *FlashStore, templates *template.Template) *AuthHandler {
	return &AuthHandler{
		client:    client,
		cache:     cache,
		ledger:    ledger,
		registry:  registry,
		flashes:   flashes,
		templates: templates,
	}
}

// ShowLogin renders the login page with the backend reachability indicator
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	// Already logged in with a live token: straight to the salas
	if h.cache.Revalidate() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ok, err := h.client.CheckHealth(r.Context())
	if err != nil {
		log.Printf("Backend health check failed: %v", err)
	}

	data := LoginViewData{
		Title:    "Entrar - SalaPoints",
		ServerOK: ok,
		Checked:  true,
		Flashes:  h.flashes.Pop(w, r),
	}
	h.render(w, "login.tmpl", data)
}

// Login handles the login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	result, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		data := LoginViewData{
			Title:    "Entrar - SalaPoints",
			Username: username,
			Error:    backend.UserMessage(err, "Usuário ou senha inválidos"),
			ServerOK: true,
			Checked:  true,
		}
		h.render(w, "login.tmpl", data)
		return
	}

	if !h.cache.Login(result.Token) {
		// Token came back malformed; treat it the same as a refusal
		log.Printf("Login returned an unusable token for %q", username)
		data := LoginViewData{
			Title:    "Entrar - SalaPoints",
			Username: username,
			Error:    "O servidor retornou uma sessão inválida",
			ServerOK: true,
			Checked:  true,
		}
		h.render(w, "login.tmpl", data)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session and the per-session point overlay
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cache.Logout()
	h.ledger.Reset()
	h.registry.InvalidateAll()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Healthz reports backend reachability as JSON, for probes and the login
// page's async indicator
func (h *AuthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ok, err := h.client.CheckHealth(r.Context())

	w.Header().Set("Content-Type", "application/json")
	status := map[string]any{"ok": ok}
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["error"] = "backend unreachable"
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
