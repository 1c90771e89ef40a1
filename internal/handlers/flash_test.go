package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlashRoundTrip(t *testing.T) {
	flashes := NewFlashStore("test-flash-secret")

	// first request queues the flash
	first := httptest.NewRecorder()
	flashes.Error(first, httptest.NewRequest(http.MethodPost, "/", nil), "algo deu errado")

	cookies := first.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no flash cookie set")
	}

	// second request, carrying the cookie, drains it
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()
	got := flashes.Pop(second, req)

	if len(got) != 1 {
		t.Fatalf("Pop() returned %d flashes, want 1", len(got))
	}
	if got[0].Kind != "error" || got[0].Message != "algo deu errado" {
		t.Errorf("flash = %+v, want error/algo deu errado", got[0])
	}
}

func TestFlashPopEmpty(t *testing.T) {
	flashes := NewFlashStore("test-flash-secret")

	rec := httptest.NewRecorder()
	if got := flashes.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Errorf("Pop() = %v on empty store, want nil", got)
	}
}
