package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clauseguard/contractreview/backend/middleware"
	"github.com/clauseguard/contractreview/backend/model"
	"github.com/clauseguard/contractreview/backend/service"
)

// DraftHandler covers AI-assisted drafting: template filling, clause
// generation and turning a finished draft into a reviewable contract.
type DraftHandler struct {
	store     *service.Store
	storage   *service.DocumentStorage
	generator service.TextGenerator
	analyzer  *service.Analyzer
	log       *slog.Logger
}

func NewDraftHandler(store *service.Store, storage *service.DocumentStorage, generator service.TextGenerator, analyzer *service.Analyzer, log *slog.Logger) *DraftHandler {
	return &DraftHandler{
		store:     store,
		storage:   storage,
		generator: generator,
		analyzer:  analyzer,
		log:       log,
	}
}

func (h *DraftHandler) organization(c *gin.Context) (*model.Organization, bool) {
	return resolveOrganization(c, h.store)
}

func generationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrGenerationUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Generation service unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed"})
}

type fillTemplateRequest struct {
	Template  string            `json:"template" binding:"required"`
	Variables map[string]string `json:"variables"`
}

// FillTemplate populates a contract template's placeholders.
func (h *DraftHandler) FillTemplate(c *gin.Context) {
	if _, ok := h.organization(c); !ok {
		return
	}

	var req fillTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	filled, err := h.generator.FillTemplate(c.Request.Context(), req.Template, req.Variables)
	if err != nil {
		generationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": filled})
}

type generateClauseRequest struct {
	Prompt       string `json:"prompt" binding:"required"`
	ContractType string `json:"contract_type"`
}

// GenerateClause drafts a single clause from a natural-language request.
func (h *DraftHandler) GenerateClause(c *gin.Context) {
	if _, ok := h.organization(c); !ok {
		return
	}

	var req generateClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	clause, err := h.generator.GenerateClause(c.Request.Context(), req.Prompt, req.ContractType)
	if err != nil {
		generationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": clause})
}

type finalizeDraftRequest struct {
	Filename string `json:"filename" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// Finalize turns drafted text into a contract with version 1 and sends it
// through the standard analysis pipeline.
func (h *DraftHandler) Finalize(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}
	username := middleware.GetUsername(c)

	var req finalizeDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	filename := req.Filename
	if !strings.HasSuffix(strings.ToLower(filename), ".txt") {
		filename += ".txt"
	}
	data := []byte(req.Content)

	contractID := uuid.New()
	objectKey := service.ObjectKey(org.ID, contractID, filename)
	if err := h.storage.PutDocument(c.Request.Context(), objectKey, data, "text/plain"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store draft: " + err.Error()})
		return
	}

	contract, err := h.store.CreateContract(c.Request.Context(), contractID, org.ID, filename, username, objectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}

	version := contract.LatestVersion()
	go func() {
		if err := h.analyzer.Analyze(context.Background(), version.ID, data, filename); err != nil {
			h.log.Error("draft analysis failed", "version_id", version.ID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"id":              contract.ID,
		"filename":        contract.Filename,
		"version_id":      version.ID,
		"version_number":  version.VersionNumber,
		"analysis_status": version.AnalysisStatus,
	})
}
