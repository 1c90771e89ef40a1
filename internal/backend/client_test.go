package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return New(server.URL, 5*time.Second), server
}

func TestLogin(t *testing.T) {
	var gotBody map[string]string

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "tok-123",
			"level":      "ADMIN",
			"userId":     42,
			"AceesAdmin": true,
		})
	})
	defer server.Close()

	result, err := client.Login(context.Background(), "joana", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if gotBody["username"] != "joana" || gotBody["password"] != "secret" {
		t.Errorf("request body = %v, want credentials", gotBody)
	}
	if result.Token != "tok-123" || result.Level != "ADMIN" || result.UserID != 42 {
		t.Errorf("Login() = %+v", result)
	}
	if !result.AccessAdmin {
		t.Error("Login().AccessAdmin = false, want true")
	}
}

func TestFilterByAge(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("minAge") != "3" || q.Get("maxAge") != "5" {
			t.Errorf("age window = %s-%s, want 3-5", q.Get("minAge"), q.Get("maxAge"))
		}
		if q.Get("skip") != "10" || q.Get("take") != "10" {
			t.Errorf("pagination = skip %s take %s", q.Get("skip"), q.Get("take"))
		}
		if q.Get("search") != "ana" {
			t.Errorf("search = %q, want %q", q.Get("search"), "ana")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"total":       25,
			"pageSize":    10,
			"currentSkip": 10,
			"hasNextPage": true,
			"data": []map[string]any{
				{"id": 7, "nome": "Ana", "pontos": 3},
			},
		})
	})
	defer server.Close()

	page, err := client.FilterByAge(context.Background(), FilterByAgeParams{
		MinAge: 3, MaxAge: 5, Skip: 10, Take: 10, Search: "ana",
	})
	if err != nil {
		t.Fatalf("FilterByAge() error = %v", err)
	}

	if !page.HasNextPage || page.CurrentSkip != 10 {
		t.Errorf("page = %+v", page)
	}
	if len(page.Data) != 1 || page.Data[0].Name != "Ana" {
		t.Errorf("page data = %+v", page.Data)
	}
}

func TestFilterByAgeOmitsEmptySearch(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["search"]; present {
			t.Error("search parameter sent for empty term")
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})
	defer server.Close()

	if _, err := client.FilterByAge(context.Background(), FilterByAgeParams{MinAge: 3, MaxAge: 5, Take: 10}); err != nil {
		t.Fatalf("FilterByAge() error = %v", err)
	}
}

func TestAddPointSurfacesServerMessage(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/addPoint/7/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "limite diário atingido"})
	})
	defer server.Close()

	err := client.AddPoint(context.Background(), 7, "42")
	if err == nil {
		t.Fatal("AddPoint() error = nil, want error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("AddPoint() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Message != "limite diário atingido" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if got := UserMessage(err, "fallback"); got != "limite diário atingido" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestUserMessageFallback(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", errors.New("plain failure"))
	if got := UserMessage(err, "algo deu errado"); got != "algo deu errado" {
		t.Errorf("UserMessage() = %q, want fallback", got)
	}
}

func TestDeletePoint(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/deletePoint/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte("{}"))
	})
	defer server.Close()

	if err := client.DeletePoint(context.Background(), 7); err != nil {
		t.Fatalf("DeletePoint() error = %v", err)
	}
}

func TestDeleteChildrenBatchBody(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/delete/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string][]int64
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body["ids"]) != 3 || body["ids"][1] != 8 {
			t.Errorf("ids = %v, want [7 8 9]", body["ids"])
		}
		w.Write([]byte("{}"))
	})
	defer server.Close()

	if err := client.DeleteChildren(context.Background(), []int64{7, 8, 9}); err != nil {
		t.Fatalf("DeleteChildren() error = %v", err)
	}
}

func TestUpdateUserMultipart(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/updateUser/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("username"); got != "joana" {
			t.Errorf("username = %q", got)
		}
		if got := r.FormValue("password"); got != "nova-senha" {
			t.Errorf("password = %q", got)
		}
		file, header, err := r.FormFile("avatar")
		if err != nil {
			t.Fatalf("avatar part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "avatar.png" {
			t.Errorf("avatar filename = %q", header.Filename)
		}
		w.Write([]byte("{}"))
	})
	defer server.Close()

	err := client.UpdateUser(context.Background(), "42", UpdateUserParams{
		Username: "joana",
		Password: "nova-senha",
		Avatar:   &AvatarUpload{Filename: "avatar.png", Content: strings.NewReader("png-bytes")},
	})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
}

func TestUpdateUserOmitsEmptyOptionalFields(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, present := r.MultipartForm.Value["password"]; present {
			t.Error("password field sent for empty password")
		}
		if len(r.MultipartForm.File) != 0 {
			t.Error("avatar part sent without upload")
		}
		w.Write([]byte("{}"))
	})
	defer server.Close()

	if err := client.UpdateUser(context.Background(), "42", UpdateUserParams{Username: "joana"}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
}

func TestAddPresence(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/AddPresence/5" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["createdAt"] != "2026-08-20T00:00:00Z" {
			t.Errorf("createdAt = %q", body["createdAt"])
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 99})
	})
	defer server.Close()

	created, err := client.AddPresence(context.Background(), 5, day)
	if err != nil {
		t.Fatalf("AddPresence() error = %v", err)
	}
	if created.ID != 99 {
		t.Errorf("created.ID = %d, want 99", created.ID)
	}
	if !created.CreatedAt.Equal(day) {
		t.Errorf("created.CreatedAt = %v, want %v", created.CreatedAt, day)
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
		wantErr bool
	}{
		{
			name: "seeded backend",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"id":1,"nome":"Ana"}]`))
			},
			want: true,
		},
		{
			name: "reachable but empty",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
			want: false,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(tt.handler)
			defer server.Close()

			ok, err := client.CheckHealth(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckHealth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.want {
				t.Errorf("CheckHealth() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestAllPointsByClass(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/children/getAllPoints/12" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"classId": 12,
			"points": []map[string]any{
				{"id": 1, "classId": 12, "createdAt": "2026-08-20T10:00:00Z"},
				{"id": 2, "classId": 12, "createdAt": "2026-08-21T10:00:00Z"},
			},
		})
	})
	defer server.Close()

	result, err := client.AllPointsByClass(context.Background(), 12)
	if err != nil {
		t.Fatalf("AllPointsByClass() error = %v", err)
	}
	if result.ClassID != 12 || len(result.Points) != 2 {
		t.Errorf("result = %+v", result)
	}
}
