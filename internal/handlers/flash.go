package handlers

import (
	"encoding/gob"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"salapoints/internal/security"
)

const flashSessionName = "salapoints_flash"

// Flash is a one-shot status message carried across a redirect, rendered as
// the transient modal on the next page.
type Flash struct {
	Kind    string // "error" or "success"
	Message string
}

func init() {
	gob.Register(Flash{})
}

// FlashStore moves flash messages between requests via a signed cookie.
type FlashStore struct {
	store *sessions.CookieStore
}

// NewFlashStore creates a flash store sealed with the given secret.
func NewFlashStore(secret string) *FlashStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store}
}

// Error queues an error flash for the next rendered page.
func (f *FlashStore) Error(w http.ResponseWriter, r *http.Request, message string) {
	f.add(w, r, Flash{Kind: "error", Message: message})
}

// Success queues a success flash for the next rendered page.
func (f *FlashStore) Success(w http.ResponseWriter, r *http.Request, message string) {
	f.add(w, r, Flash{Kind: "success", Message: message})
}

func (f *FlashStore) add(w http.ResponseWriter, r *http.Request, flash Flash) {
	sess, err := f.store.Get(r, flashSessionName)
	if err != nil {
		// a corrupt cookie still yields a fresh session; only log
		log.Printf("Warning: flash cookie reset: %v", err)
	}
	sess.Options.Secure = security.IsSecureRequest(r)
	sess.AddFlash(flash)
	if err := sess.Save(r, w); err != nil {
		log.Printf("Warning: could not save flash: %v", err)
	}
}

// Pop drains queued flashes for rendering.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := f.store.Get(r, flashSessionName)
	if err != nil {
		log.Printf("Warning: flash cookie reset: %v", err)
	}

	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		log.Printf("Warning: could not clear flashes: %v", err)
	}

	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		if flash, ok := item.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}
