package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/db"
)

func TestHealthzIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := db.New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	h := &Handler{Repo: store, Logger: zerolog.Nop()}

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthzMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Repo: db.NewMemoryStore(), Logger: zerolog.Nop()}

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStatusForCode(t *testing.T) {
	cases := map[string]int{
		"GRIEVANCE_NOT_FOUND":   http.StatusNotFound,
		"ALREADY_ASSIGNED":      http.StatusConflict,
		"NOT_SUBMITTER":         http.StatusForbidden,
		"NO_OFFICERS_AVAILABLE": http.StatusUnprocessableEntity,
		"INVALID_INPUT":         http.StatusBadRequest,
		"INTERNAL_ERROR":        http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := statusForCode(code); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}
