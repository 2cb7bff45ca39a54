package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clauseguard/contractreview/backend/model"
)

func TestClauseHandlerCreateAndList(t *testing.T) {
	store := newHandlerStore(t)
	handler := NewClauseHandler(store)

	router := gin.New()
	router.POST("/clauses", asOrganization("test-org", handler.Create))
	router.GET("/clauses", asOrganization("test-org", handler.List))

	body, _ := json.Marshal(map[string]string{
		"title":    "Limitation of Liability",
		"category": "Risk",
		"content":  "Liability is capped at fees paid in the preceding twelve months.",
	})
	req := httptest.NewRequest("POST", "/clauses", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/clauses", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response struct {
		Clauses []model.Clause `json:"clauses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Clauses) != 1 || response.Clauses[0].Title != "Limitation of Liability" {
		t.Errorf("Unexpected clause list: %+v", response.Clauses)
	}
}

func TestClauseHandlerCreateMissingFields(t *testing.T) {
	store := newHandlerStore(t)
	handler := NewClauseHandler(store)

	router := gin.New()
	router.POST("/clauses", asOrganization("test-org", handler.Create))

	body, _ := json.Marshal(map[string]string{"title": "No content"})
	req := httptest.NewRequest("POST", "/clauses", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestClauseHandlerFindSimilar(t *testing.T) {
	store := newHandlerStore(t)
	handler := NewClauseHandler(store)
	ctx := context.Background()

	org, err := store.GetOrganizationByName(ctx, "test-org")
	if err != nil {
		t.Fatalf("Failed to load organization: %v", err)
	}
	if err := store.CreateClause(ctx, &model.Clause{
		OrganizationID: org.ID,
		Title:          "Indemnification",
		Content:        "Each party shall indemnify and hold harmless the other party.",
	}); err != nil {
		t.Fatalf("CreateClause failed: %v", err)
	}
	if err := store.CreateClause(ctx, &model.Clause{
		OrganizationID: org.ID,
		Title:          "Payment",
		Content:        "Invoices are due net thirty.",
	}); err != nil {
		t.Fatalf("CreateClause failed: %v", err)
	}

	router := gin.New()
	router.POST("/clauses/find-similar", asOrganization("test-org", handler.FindSimilar))

	body, _ := json.Marshal(map[string]any{
		"text": "Each party shall indemnify and hold harmless the other party.",
	})
	req := httptest.NewRequest("POST", "/clauses/find-similar", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response struct {
		Matches []struct {
			Clause model.Clause `json:"clause"`
			Score  float64      `json:"similarity_score"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(response.Matches))
	}
	if response.Matches[0].Clause.Title != "Indemnification" {
		t.Errorf("Expected Indemnification match, got %q", response.Matches[0].Clause.Title)
	}
	if response.Matches[0].Score != 1.0 {
		t.Errorf("Expected score 1.0, got %f", response.Matches[0].Score)
	}
}
