package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"salapoints/internal/backend"
	"salapoints/internal/security"
	"salapoints/internal/session"
	"salapoints/internal/validation"
)

// ProfileHandler serves the staff profile screen
type ProfileHandler struct {
	client        *backend.Client
	cache         *session.Cache
	csrf          *security.CSRFGenerator
	flashes       *FlashStore
	templates     *template.Template
	uploadMaxSize int64
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(client *backend.Client, cache *session.Cache, csrf *security.CSRFGenerator, flashes *FlashStore, templates *template.Template, uploadMaxSize int64) *ProfileHandler {
	return &ProfileHandler{
		client:        client,
		cache:         cache,
		csrf:          csrf,
		flashes:       flashes,
		templates:     templates,
		uploadMaxSize: uploadMaxSize,
	}
}

// ShowProfile renders the profile screen for the logged-in staff member
func (h *ProfileHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.client.UserByToken(r.Context(), h.cache.Token())
	if err != nil {
		log.Printf("Error fetching profile: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível carregar o perfil"))
	}

	token, err := h.csrf.GenerateToken(h.cache.Token())
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
	}

	data := ProfileViewData{
		Title:     "Configurações - SalaPoints",
		IsAdmin:   h.cache.Level().CanAdminister(),
		User:      user,
		CSRFToken: token,
		Flashes:   h.flashes.Pop(w, r),
	}
	if err := h.templates.ExecuteTemplate(w, "profile.tmpl", data); err != nil {
		log.Printf("Error rendering profile.tmpl: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// UpdateProfile applies username, password and avatar changes from the
// multipart profile form. Empty password and missing file mean "keep".
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		h.flashes.Error(w, r, "O arquivo enviado é grande demais")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	if err := validation.ValidateUsername(username); err != nil {
		h.flashes.Error(w, r, err.Error())
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	if password != "" {
		if err := validation.ValidatePassword(password); err != nil {
			h.flashes.Error(w, r, err.Error())
			http.Redirect(w, r, "/profile", http.StatusSeeOther)
			return
		}
	}

	params := backend.UpdateUserParams{
		Username: username,
		Password: password,
	}

	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		params.Avatar = &backend.AvatarUpload{
			Filename: header.Filename,
			Content:  file,
		}
	case errors.Is(err, http.ErrMissingFile):
		// keep the current avatar
	default:
		h.flashes.Error(w, r, "Não foi possível ler a imagem enviada")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	if err := h.client.UpdateUser(r.Context(), h.cache.UserID(), params); err != nil {
		log.Printf("Error updating profile: %v", err)
		h.flashes.Error(w, r, backend.UserMessage(err, "Não foi possível atualizar o perfil"))
	} else {
		h.flashes.Success(w, r, "Perfil atualizado")
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
