package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clauseguard/contractreview/backend/model"
	"github.com/clauseguard/contractreview/backend/service"
)

type ClauseHandler struct {
	store *service.Store
}

func NewClauseHandler(store *service.Store) *ClauseHandler {
	return &ClauseHandler{store: store}
}

func (h *ClauseHandler) organization(c *gin.Context) (*model.Organization, bool) {
	return resolveOrganization(c, h.store)
}

type clauseRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category"`
	Content  string `json:"content" binding:"required"`
}

// Create adds a clause to the organization's library.
func (h *ClauseHandler) Create(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	var req clauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	clause := &model.Clause{
		OrganizationID: org.ID,
		Title:          req.Title,
		Category:       req.Category,
		Content:        req.Content,
	}
	if err := h.store.CreateClause(c.Request.Context(), clause); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create clause"})
		return
	}

	c.JSON(http.StatusCreated, clause)
}

// List returns the organization's clause library.
func (h *ClauseHandler) List(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	clauses, err := h.store.ListClauses(c.Request.Context(), org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clauses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clauses": clauses})
}

// Get returns a single clause.
func (h *ClauseHandler) Get(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid clause id"})
		return
	}

	clause, err := h.store.GetClause(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clause not found"})
		return
	}

	c.JSON(http.StatusOK, clause)
}

// Delete removes a clause from the library.
func (h *ClauseHandler) Delete(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid clause id"})
		return
	}

	if err := h.store.DeleteClause(c.Request.Context(), id, org.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clause not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Clause deleted"})
}

type similarRequest struct {
	Text  string `json:"text" binding:"required"`
	Limit int    `json:"limit"`
}

// FindSimilar matches a text span against the clause library and returns the
// best matches above the similarity threshold.
func (h *ClauseHandler) FindSimilar(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	var req similarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	library, err := h.store.ListClauses(c.Request.Context(), org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load clause library"})
		return
	}

	matches := service.FindSimilarClauses(req.Text, library, req.Limit)
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
