package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clauseguard/contractreview/backend/middleware"
	"github.com/clauseguard/contractreview/backend/model"
	"github.com/clauseguard/contractreview/backend/service"
)

type ContractHandler struct {
	store    *service.Store
	storage  *service.DocumentStorage
	analyzer *service.Analyzer
	redliner *service.Redliner
	notifier service.Notifier
	log      *slog.Logger
}

func NewContractHandler(store *service.Store, storage *service.DocumentStorage, analyzer *service.Analyzer, redliner *service.Redliner, notifier service.Notifier, log *slog.Logger) *ContractHandler {
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	return &ContractHandler{
		store:    store,
		storage:  storage,
		analyzer: analyzer,
		redliner: redliner,
		notifier: notifier,
		log:      log,
	}
}

func (h *ContractHandler) organization(c *gin.Context) (*model.Organization, bool) {
	return resolveOrganization(c, h.store)
}

func contentTypeFor(ext string) string {
	if ext == ".pdf" {
		return "application/pdf"
	}
	return "text/plain"
}

// Upload accepts a contract document, stores the original bytes and kicks off
// analysis of version 1 in the background.
func (h *ContractHandler) Upload(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}
	username := middleware.GetUsername(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and TXT files are allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	contractID := uuid.New()
	objectKey := service.ObjectKey(org.ID, contractID, header.Filename)
	if err := h.storage.PutDocument(c.Request.Context(), objectKey, data, contentTypeFor(ext)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file: " + err.Error()})
		return
	}

	contract, err := h.store.CreateContract(c.Request.Context(), contractID, org.ID, header.Filename, username, objectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}

	version := contract.LatestVersion()
	go h.runAnalysis(version.ID, data, header.Filename)

	c.JSON(http.StatusAccepted, gin.H{
		"id":              contract.ID,
		"filename":        contract.Filename,
		"version_id":      version.ID,
		"version_number":  version.VersionNumber,
		"analysis_status": version.AnalysisStatus,
	})
}

// UploadVersion appends a new version to an existing contract and analyzes it.
func (h *ContractHandler) UploadVersion(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}
	contract, err := h.store.GetContract(c.Request.Context(), contractID, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and TXT files are allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	objectKey := service.ObjectKey(org.ID, contract.ID, header.Filename)
	if err := h.storage.PutDocument(c.Request.Context(), objectKey, data, contentTypeFor(ext)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file: " + err.Error()})
		return
	}

	version, err := h.store.CreateVersion(c.Request.Context(), contract.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create version: " + err.Error()})
		return
	}
	// Reanalysis fetches from the contract's object key, which must follow
	// the newest uploaded document.
	if err := h.store.SetObjectKey(c.Request.Context(), contract.ID, org.ID, objectKey); err != nil {
		h.log.Warn("could not update contract object key", "contract_id", contract.ID, "error", err)
	}

	go h.runAnalysis(version.ID, data, header.Filename)

	c.JSON(http.StatusAccepted, gin.H{
		"id":              contract.ID,
		"version_id":      version.ID,
		"version_number":  version.VersionNumber,
		"analysis_status": version.AnalysisStatus,
	})
}

func (h *ContractHandler) runAnalysis(versionID uuid.UUID, data []byte, filename string) {
	if err := h.analyzer.Analyze(context.Background(), versionID, data, filename); err != nil {
		h.log.Error("background analysis failed", "version_id", versionID, "error", err)
	}
}

// List returns the organization's contracts, without version bodies.
func (h *ContractHandler) List(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	contracts, err := h.store.ListContracts(c.Request.Context(), org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// Get returns a single contract with its versions.
func (h *ContractHandler) Get(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.store.GetContract(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, contract)
}

// GetStatus returns the latest version's analysis status.
func (h *ContractHandler) GetStatus(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.store.GetContract(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	version := contract.LatestVersion()
	c.JSON(http.StatusOK, gin.H{
		"id":              contract.ID,
		"version_number":  version.VersionNumber,
		"analysis_status": version.AnalysisStatus,
		"error_msg":       version.ErrorMsg,
	})
}

// Delete removes a contract, its versions and its stored document.
func (h *ContractHandler) Delete(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.store.GetContract(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if err := h.store.DeleteContract(c.Request.Context(), id, org.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract"})
		return
	}

	if contract.ObjectKey != "" {
		if err := h.storage.DeleteDocument(c.Request.Context(), contract.ObjectKey); err != nil {
			h.log.Warn("could not delete stored document", "contract_id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

// Reanalyze re-runs analysis on a contract's latest version from the stored
// original document. The previous suggestion set is replaced atomically when
// the run completes.
func (h *ContractHandler) Reanalyze(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.store.GetContract(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	version := contract.LatestVersion()
	if version.AnalysisStatus == model.AnalysisInProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "Analysis already in progress"})
		return
	}

	data, err := h.storage.GetDocument(c.Request.Context(), contract.ObjectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stored document"})
		return
	}

	go h.runAnalysis(version.ID, data, contract.Filename)

	c.JSON(http.StatusAccepted, gin.H{
		"id":              contract.ID,
		"version_id":      version.ID,
		"analysis_status": model.AnalysisPending,
	})
}

type negotiationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateNegotiationStatus moves a contract through the negotiation workflow.
// Marking a contract signed triggers post-signature extraction over the
// latest analyzed text.
func (h *ContractHandler) UpdateNegotiationStatus(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	var req negotiationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	switch req.Status {
	case model.NegotiationDrafting, model.NegotiationInternalReview, model.NegotiationExternalReview,
		model.NegotiationSigned, model.NegotiationArchived:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid negotiation status"})
		return
	}

	contract, err := h.store.GetContract(c.Request.Context(), id, org.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if err := h.store.UpdateNegotiationStatus(c.Request.Context(), id, org.ID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	if req.Status == model.NegotiationSigned {
		if version := contract.LatestVersion(); version != nil && version.FullText != nil {
			go h.analyzer.ExtractSignedContract(context.Background(), contract.ID, *version.FullText)
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "negotiation_status": req.Status})
}

// Redline creates an autonomous redline version from an analyzed version.
func (h *ContractHandler) Redline(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid version id"})
		return
	}

	version, err := h.store.GetVersion(c.Request.Context(), versionID)
	if err != nil || version.Contract == nil || version.Contract.OrganizationID != org.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}
	if version.AnalysisStatus != model.AnalysisCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Version has not completed analysis"})
		return
	}

	newVersion, err := h.redliner.CreateAutonomousRedline(c.Request.Context(), version)
	if err != nil {
		if errors.Is(err, service.ErrOverlappingSuggestions) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create redline"})
		return
	}
	if newVersion == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, newVersion)
}

// ListSuggestions returns a version's suggestions in positional order.
func (h *ContractHandler) ListSuggestions(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid version id"})
		return
	}

	version, err := h.store.GetVersion(c.Request.Context(), versionID)
	if err != nil || version.Contract == nil || version.Contract.OrganizationID != org.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}

	suggestions, err := h.store.ListSuggestions(c.Request.Context(), versionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type suggestionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSuggestionStatus records an accept/reject decision on one suggestion.
func (h *ContractHandler) UpdateSuggestionStatus(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	suggestionID, err := uuid.Parse(c.Param("suggestionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid suggestion id"})
		return
	}

	var req suggestionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !model.ValidSuggestionStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid suggestion status"})
		return
	}

	suggestion, err := h.store.GetSuggestion(c.Request.Context(), suggestionID)
	if err != nil || suggestion.Version == nil || suggestion.Version.Contract == nil ||
		suggestion.Version.Contract.OrganizationID != org.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Suggestion not found"})
		return
	}

	updated, err := h.store.UpdateSuggestionStatus(c.Request.Context(), suggestionID, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update suggestion"})
		return
	}

	h.notifier.Broadcast(c.Request.Context(), service.EventSuggestionUpdated,
		suggestion.Version.ContractID.String(), map[string]any{
			"suggestion_id": updated.ID,
			"status":        updated.Status,
		})

	c.JSON(http.StatusOK, updated)
}

type commentRequest struct {
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Text       string `json:"text" binding:"required"`
}

// AddComment appends a positional annotation to a version.
func (h *ContractHandler) AddComment(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}
	username := middleware.GetUsername(c)

	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid version id"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.StartIndex < 0 || req.EndIndex < req.StartIndex {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment span"})
		return
	}

	version, err := h.store.GetVersion(c.Request.Context(), versionID)
	if err != nil || version.Contract == nil || version.Contract.OrganizationID != org.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}

	comment, err := h.store.AddComment(c.Request.Context(), versionID, req.StartIndex, req.EndIndex, req.Text, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	h.notifier.Broadcast(c.Request.Context(), service.EventCommentAdded,
		version.ContractID.String(), map[string]any{
			"comment_id": comment.ID,
			"author":     comment.Author,
		})

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns a version's comments, oldest first.
func (h *ContractHandler) ListComments(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid version id"})
		return
	}

	version, err := h.store.GetVersion(c.Request.Context(), versionID)
	if err != nil || version.Contract == nil || version.Contract.OrganizationID != org.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), versionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// ListMilestones returns the key dates extracted from a signed contract.
func (h *ContractHandler) ListMilestones(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}
	if _, err := h.store.GetContract(c.Request.Context(), id, org.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	milestones, err := h.store.ListMilestones(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list milestones"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// ListObligations returns the commitments extracted from a signed contract.
func (h *ContractHandler) ListObligations(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}
	if _, err := h.store.GetContract(c.Request.Context(), id, org.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	obligations, err := h.store.ListObligations(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list obligations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"obligations": obligations})
}
