package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salapoints/internal/models"
)

// Client is a typed HTTP client for the childcare REST backend. All durable
// domain state lives behind these endpoints; callers only cache what they
// render.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// LoginResult is the payload of a successful authentication.
type LoginResult struct {
	Token       string `json:"token"`
	Level       string `json:"level"`
	UserID      int64  `json:"userId"`
	AccessAdmin bool   `json:"AceesAdmin"`
}

// Login authenticates a staff member and returns the issued session token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, body, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

// FilterByAgeParams narrows a child listing to an age window, with
// cursor-based pagination and an optional free-text search.
type FilterByAgeParams struct {
	MinAge int
	MaxAge int
	Skip   int
	Take   int
	Search string
}

// FilterByAge fetches one page of children inside an age window.
func (c *Client) FilterByAge(ctx context.Context, params FilterByAgeParams) (*models.ChildPage, error) {
	query := url.Values{}
	query.Set("minAge", strconv.Itoa(params.MinAge))
	query.Set("maxAge", strconv.Itoa(params.MaxAge))
	query.Set("skip", strconv.Itoa(params.Skip))
	query.Set("take", strconv.Itoa(params.Take))
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var page models.ChildPage
	if err := c.doJSON(ctx, http.MethodGet, "/children/filterByAge", query, nil, &page); err != nil {
		return nil, fmt.Errorf("filter children by age: %w", err)
	}
	return &page, nil
}

// ChildByID fetches a single child record.
func (c *Client) ChildByID(ctx context.Context, id int64) (*models.Child, error) {
	var child models.Child
	path := fmt.Sprintf("/children/filterById/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &child); err != nil {
		return nil, fmt.Errorf("fetch child %d: %w", id, err)
	}
	return &child, nil
}

// AllChildren fetches the unfiltered child list. Doubles as the backend
// health probe on the login screen.
func (c *Client) AllChildren(ctx context.Context) ([]models.Child, error) {
	var children []models.Child
	if err := c.doJSON(ctx, http.MethodGet, "/children", nil, nil, &children); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// CheckHealth reports whether the backend is reachable and seeded. The login
// screen shows this as its "server OK" indicator.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	children, err := c.AllChildren(ctx)
	if err != nil {
		return false, err
	}
	return len(children) > 0, nil
}

// ChildParams is the mutable portion of a child record. Points is a count;
// the server stores points as a collection, so the payload carries that many
// empty entries.
type ChildParams struct {
	Name      string
	BirthDate time.Time
	UserID    int64
	Points    int
}

func (p ChildParams) payload() map[string]any {
	points := make([]struct{}, 0)
	if p.Points > 0 {
		points = make([]struct{}, p.Points)
	}
	return map[string]any{
		"nome":        p.Name,
		"dateOfBirth": p.BirthDate.Format(time.RFC3339),
		"userId":      p.UserID,
		"points":      points,
	}
}

// CreateChild registers a new child.
func (c *Client) CreateChild(ctx context.Context, params ChildParams) error {
	if err := c.doJSON(ctx, http.MethodPost, "/children", nil, params.payload(), nil); err != nil {
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// UpdateChild replaces the mutable fields of an existing child.
func (c *Client) UpdateChild(ctx context.Context, id int64, params ChildParams) error {
	path := fmt.Sprintf("/children/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, nil, params.payload(), nil); err != nil {
		return fmt.Errorf("update child %d: %w", id, err)
	}
	return nil
}

// DeleteChildren removes the given children in one batch request.
func (c *Client) DeleteChildren(ctx context.Context, ids []int64) error {
	body := map[string][]int64{"ids": ids}
	if err := c.doJSON(ctx, http.MethodDelete, "/delete/", nil, body, nil); err != nil {
		return fmt.Errorf("delete children: %w", err)
	}
	return nil
}

// AddPoint records one point for a child, attributed to the acting user.
func (c *Client) AddPoint(ctx context.Context, childID int64, userID string) error {
	path := fmt.Sprintf("/addPoint/%d/%s", childID, url.PathEscape(userID))
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return fmt.Errorf("add point for child %d: %w", childID, err)
	}
	return nil
}

// DeletePoint removes the most recently recorded point for a child.
func (c *Client) DeletePoint(ctx context.Context, childID int64) error {
	path := fmt.Sprintf("/deletePoint/%d", childID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete point for child %d: %w", childID, err)
	}
	return nil
}

// ClassPoints is every point recorded for one class.
type ClassPoints struct {
	ClassID int64                `json:"classId"`
	Points  []models.PointRecord `json:"points"`
}

// AllPointsByClass fetches every point recorded for a class, newest first.
func (c *Client) AllPointsByClass(ctx context.Context, classID int64) (*ClassPoints, error) {
	var result ClassPoints
	path := fmt.Sprintf("/children/getAllPoints/%d", classID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetch points for class %d: %w", classID, err)
	}
	return &result, nil
}

// ResetAllPoints zeroes every child's points. Admin only.
func (c *Client) ResetAllPoints(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/reset/all/points", nil, nil, nil); err != nil {
		return fmt.Errorf("reset all points: %w", err)
	}
	return nil
}

// UserByToken fetches the profile of the user a session token belongs to.
func (c *Client) UserByToken(ctx context.Context, token string) (*models.StaffUser, error) {
	query := url.Values{}
	query.Set("token", token)

	var user models.StaffUser
	if err := c.doJSON(ctx, http.MethodGet, "/listUsers", query, nil, &user); err != nil {
		return nil, fmt.Errorf("fetch user profile: %w", err)
	}
	return &user, nil
}

// ListUsers fetches all staff users with their presence records.
func (c *Client) ListUsers(ctx context.Context) ([]models.StaffUser, error) {
	var users []models.StaffUser
	if err := c.doJSON(ctx, http.MethodGet, "/listUsers", nil, nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AvatarUpload is an optional avatar image attached to a profile update.
type AvatarUpload struct {
	Filename string
	Content  io.Reader
}

// UpdateUserParams carries a profile update. Password and Avatar are
// optional; empty values are omitted from the request.
type UpdateUserParams struct {
	Username string
	Password string
	Avatar   *AvatarUpload
}

// UpdateUser updates a staff profile via multipart form, matching the
// backend's upload handling.
func (c *Client) UpdateUser(ctx context.Context, id string, params UpdateUserParams) error {
	var buf bytes.Buffer
	form := multipartForm{buf: &buf}
	if err := form.build(params); err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}

	path := fmt.Sprintf("/updateUser/%s", url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	req.Header.Set("Content-Type", form.contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("update user %s: %w", id, errorFromResponse(resp))
	}
	return nil
}

// AddPresence registers presence for a staff member on a given day and
// returns the created entry.
func (c *Client) AddPresence(ctx context.Context, userID int64, day time.Time) (*models.Presence, error) {
	body := map[string]string{"createdAt": day.UTC().Format(time.RFC3339)}

	var created models.Presence
	path := fmt.Sprintf("/AddPresence/%d", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &created); err != nil {
		return nil, fmt.Errorf("add presence for user %d: %w", userID, err)
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = day.UTC()
	}
	return &created, nil
}

// RemovePresence deletes a presence entry.
func (c *Client) RemovePresence(ctx context.Context, presenceID int64) error {
	path := fmt.Sprintf("/removePresence/%d", presenceID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("remove presence %d: %w", presenceID, err)
	}
	return nil
}

// doJSON performs a JSON request and decodes the response into out when out
// is non-nil. Non-2xx responses become *APIError values.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
