package session

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Level is the role carried inside the session token.
type Level string

const (
	LevelAdmin Level = "ADMIN"
	LevelStaff Level = "STAFF"
)

// CanAdminister reports whether this level grants access to admin-only
// actions (child editing, presence administration, resets). All role gating
// goes through this check.
func (l Level) CanAdminister() bool {
	return l == LevelAdmin
}

// Identity is the decoded, validated content of a session token.
type Identity struct {
	UserID string
	Level  Level
	Expiry time.Time
}

var (
	errMissingClaims = errors.New("token missing required claims")
	errExpired       = errors.New("token expired")
)

// decodeAndValidate extracts the identity from a token. The signature is
// trusted as backend-issued; validation covers required claims and expiry
// only. Any defect yields an error, never a partial identity.
func decodeAndValidate(token string, now time.Time) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	userID := stringClaim(claims, "userId")
	level := stringClaim(claims, "level")
	if userID == "" || level == "" {
		return nil, errMissingClaims
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil, errMissingClaims
	}
	if !expiry.Time.After(now) {
		return nil, errExpired
	}

	return &Identity{
		UserID: userID,
		Level:  Level(level),
		Expiry: expiry.Time,
	}, nil
}

// stringClaim normalizes a claim that backends emit either as a string or a
// number.
func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	}
	return ""
}

// Cache holds the authenticated identity for the running process and
// mediates every transition between logged-out and logged-in. Invalid or
// expired tokens always degrade to the logged-out state; ambiguous
// credentials never grant access.
type Cache struct {
	store TokenStore

	mu    sync.RWMutex
	token string
	ident *Identity
}

// NewCache creates a session cache backed by the given token store.
func NewCache(store TokenStore) *Cache {
	return &Cache{store: store}
}

// Initialize seeds the cache from a previously persisted token. A missing,
// malformed or expired token leaves the cache logged out and discards the
// stored value.
func (c *Cache) Initialize() {
	token, err := c.store.Load()
	if err != nil {
		log.Printf("Warning: could not load stored token: %v", err)
		return
	}
	if token == "" {
		return
	}

	ident, err := decodeAndValidate(token, time.Now())
	if err != nil {
		c.clearStore()
		return
	}

	c.mu.Lock()
	c.token = token
	c.ident = ident
	c.mu.Unlock()
}

// Login adopts a freshly issued token. On success the token is persisted
// and the decoded identity becomes current. An invalid token silently
// produces the logged-out state; this never returns an error to the caller.
func (c *Cache) Login(token string) bool {
	ident, err := decodeAndValidate(token, time.Now())
	if err != nil {
		c.Logout()
		return false
	}

	if err := c.store.Save(token); err != nil {
		log.Printf("Warning: could not persist token: %v", err)
	}

	c.mu.Lock()
	c.token = token
	c.ident = ident
	c.mu.Unlock()
	return true
}

// Logout clears the persisted token and all session fields unconditionally.
func (c *Cache) Logout() {
	c.clearStore()
	c.mu.Lock()
	c.token = ""
	c.ident = nil
	c.mu.Unlock()
}

// Revalidate re-checks the current token's expiry and forces a logout when
// it has lapsed. Returns whether the cache is still logged in.
func (c *Cache) Revalidate() bool {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return false
	}
	if _, err := decodeAndValidate(token, time.Now()); err != nil {
		c.Logout()
		return false
	}
	return true
}

// LoggedIn reports whether a valid session is present.
func (c *Cache) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ident != nil
}

// Token returns the current session token, or empty when logged out.
func (c *Cache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Identity returns a copy of the current identity and whether one exists.
func (c *Cache) Identity() (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ident == nil {
		return Identity{}, false
	}
	return *c.ident, true
}

// UserID returns the authenticated user's id, or empty when logged out.
func (c *Cache) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ident == nil {
		return ""
	}
	return c.ident.UserID
}

// Level returns the authenticated user's role level, or empty when logged
// out.
func (c *Cache) Level() Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ident == nil {
		return ""
	}
	return c.ident.Level
}

func (c *Cache) clearStore() {
	if err := c.store.Clear(); err != nil {
		log.Printf("Warning: could not clear stored token: %v", err)
	}
}
