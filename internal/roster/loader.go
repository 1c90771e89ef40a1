package roster

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"salapoints/internal/backend"
	"salapoints/internal/models"
)

// Fetcher retrieves one page of children for an age window.
type Fetcher interface {
	FilterByAge(ctx context.Context, params backend.FilterByAgeParams) (*models.ChildPage, error)
}

const defaultPageSize = 10

// Loader fetches the children of one age window with incremental "load
// more" pagination and an overriding free-text search. A single-slot
// in-flight guard ensures at most one outstanding fetch, so responses are
// applied in the order their requests were issued.
type Loader struct {
	fetcher Fetcher
	minAge  int
	maxAge  int
	take    int

	mu       sync.Mutex
	inFlight bool
	loaded   bool
	stale    bool
	skip     int
	hasNext  bool
	search   string
	children []models.Child
}

// NewLoader creates a loader for the given age window.
func NewLoader(fetcher Fetcher, minAge, maxAge int) *Loader {
	return &Loader{
		fetcher: fetcher,
		minAge:  minAge,
		maxAge:  maxAge,
		take:    defaultPageSize,
		hasNext: true,
	}
}

// Reload resets pagination, clears current results and fetches the first
// page. Always replaces the result set. A reload while another fetch is in
// flight is dropped.
func (l *Loader) Reload(ctx context.Context) error {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		return nil
	}
	l.inFlight = true
	l.children = nil
	l.skip = 0
	l.hasNext = true
	search := l.search
	l.mu.Unlock()
	defer l.release()

	return l.fetch(ctx, 0, true, search)
}

// LoadMore fetches the next page and appends it to the existing set. A
// no-op when no next page exists or a fetch is already outstanding.
func (l *Loader) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if !l.hasNext || l.inFlight {
		l.mu.Unlock()
		return nil
	}
	l.inFlight = true
	skip := l.skip
	search := l.search
	l.mu.Unlock()
	defer l.release()

	return l.fetch(ctx, skip, false, search)
}

func (l *Loader) release() {
	l.mu.Lock()
	l.inFlight = false
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, skip int, replace bool, search string) error {
	page, err := l.fetcher.FilterByAge(ctx, backend.FilterByAgeParams{
		MinAge: l.minAge,
		MaxAge: l.maxAge,
		Skip:   skip,
		Take:   l.take,
		Search: search,
	})
	if err != nil {
		if replace {
			// back to a clean, retryable baseline
			l.mu.Lock()
			l.children = nil
			l.skip = 0
			l.hasNext = true
			l.loaded = false
			l.mu.Unlock()
			return fmt.Errorf("reload children %d-%d: %w", l.minAge, l.maxAge, err)
		}
		// partial failure leaves already-displayed data untouched
		return fmt.Errorf("load more children %d-%d: %w", l.minAge, l.maxAge, err)
	}

	searching := strings.TrimSpace(search) != ""

	l.mu.Lock()
	if replace || searching {
		l.children = append([]models.Child(nil), page.Data...)
	} else {
		l.children = append(l.children, page.Data...)
	}
	if searching {
		l.skip = 0
		l.hasNext = false
	} else {
		l.skip = page.CurrentSkip + l.take
		l.hasNext = page.HasNextPage
	}
	l.loaded = true
	l.stale = false
	l.mu.Unlock()
	return nil
}

// SetSearch updates the active free-text filter. While the term is
// non-empty the next fetch replaces results and pagination is disabled.
func (l *Loader) SetSearch(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = term
}

// Search returns the active filter term.
func (l *Loader) Search() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

// Children returns a copy of the currently loaded result set.
func (l *Loader) Children() []models.Child {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Child(nil), l.children...)
}

// HasNextPage reports whether another page is known to exist.
func (l *Loader) HasNextPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasNext
}

// Loading reports whether a fetch is currently outstanding.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Invalidate marks the loaded results as stale so the next view refreshes
// them from the server.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stale = true
}

// NeedsReload reports whether the loader has nothing usable to show: never
// loaded, or invalidated since the last fetch.
func (l *Loader) NeedsReload() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.loaded || l.stale
}

// Window returns the loader's age window.
func (l *Loader) Window() (minAge, maxAge int) {
	return l.minAge, l.maxAge
}
