package roster

import (
	"fmt"
	"strconv"
	"strings"
)

// Sala is an age-banded grouping of children used to partition the roster
// views.
type Sala struct {
	Slug   string
	Label  string
	MinAge int
	MaxAge int
}

// DefaultSalas returns the age bands the home screen offers.
func DefaultSalas() []Sala {
	return []Sala{
		{Slug: "3-5", Label: "Sala 3 a 5 anos", MinAge: 3, MaxAge: 5},
		{Slug: "6-8", Label: "Sala 6 a 8 anos", MinAge: 6, MaxAge: 8},
		{Slug: "9-11", Label: "Sala 9 a 11 anos", MinAge: 9, MaxAge: 11},
	}
}

// ParseWindow parses an age-window slug like "3-5" into its bounds.
func ParseWindow(slug string) (minAge, maxAge int, err error) {
	parts := strings.SplitN(slug, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed age window %q", slug)
	}
	minAge, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed age window %q", slug)
	}
	maxAge, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed age window %q", slug)
	}
	if minAge < 0 || maxAge < minAge {
		return 0, 0, fmt.Errorf("invalid age window %q", slug)
	}
	return minAge, maxAge, nil
}

// Registry owns one loader per sala so results and pagination state persist
// across page views.
type Registry struct {
	salas   []Sala
	loaders map[string]*Loader
}

// NewRegistry builds a registry with one loader per sala.
func NewRegistry(fetcher Fetcher, salas []Sala) *Registry {
	loaders := make(map[string]*Loader, len(salas))
	for _, sala := range salas {
		loaders[sala.Slug] = NewLoader(fetcher, sala.MinAge, sala.MaxAge)
	}
	return &Registry{salas: salas, loaders: loaders}
}

// Salas lists the configured age bands in display order.
func (r *Registry) Salas() []Sala {
	return r.salas
}

// Sala finds a configured sala by slug.
func (r *Registry) Sala(slug string) (Sala, bool) {
	for _, sala := range r.salas {
		if sala.Slug == slug {
			return sala, true
		}
	}
	return Sala{}, false
}

// Loader returns the loader owning the given sala's results.
func (r *Registry) Loader(slug string) (*Loader, bool) {
	loader, ok := r.loaders[slug]
	return loader, ok
}

// InvalidateAll marks every sala's results stale. Called after a confirmed
// point mutation so server-computed totals catch up on the next view.
func (r *Registry) InvalidateAll() {
	for _, loader := range r.loaders {
		loader.Invalidate()
	}
}
