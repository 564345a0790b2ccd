package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/util"
	"go.uber.org/zap"
)

func validateWorkspaceName(c *gin.Context, name string) bool {
	if utf8.RuneCountInString(name) > models.MaxWorkspaceNameLength {
		util.RespondBadRequest(c, fmt.Sprintf("name must be at most %d characters", models.MaxWorkspaceNameLength))
		return false
	}
	return true
}

func validateCustomURL(c *gin.Context, customURL string) bool {
	if !models.ValidCustomURL(customURL) {
		util.RespondBadRequest(c, "invalid custom url format")
		return false
	}
	return true
}

func validateLinkStyle(c *gin.Context, style models.LinkStyle) bool {
	if !style.Valid() {
		util.RespondBadRequest(c, "linkStyle must be wa_me or api")
		return false
	}
	return true
}

// CreateWorkspace creates a workspace bound to a custom URL
// POST /api/workspace
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.CustomURL = strings.TrimSpace(req.CustomURL)
	if req.Name == "" || req.CustomURL == "" {
		util.RespondBadRequest(c, "name and customUrl are required")
		return
	}
	if !validateCustomURL(c, req.CustomURL) || !validateWorkspaceName(c, req.Name) {
		return
	}
	if req.LinkStyle == "" {
		req.LinkStyle = models.LinkStyleWaMe
	}
	if !validateLinkStyle(c, req.LinkStyle) {
		return
	}

	ctx := c.Request.Context()
	count, err := h.repos.Workspaces.CountByUser(ctx, user.ID)
	if util.HandleServiceError(c, err, "workspace") {
		return
	}
	if err := plans.CheckWorkspaceQuota(user.Plan, count); err != nil {
		util.RespondPlanLimit(c, err.Error())
		return
	}

	ws := &models.Workspace{
		UserID:    user.ID,
		Name:      req.Name,
		CustomURL: req.CustomURL,
		LinkStyle: req.LinkStyle,
	}
	if req.UTMParameters != nil {
		ws.UTMParameters = *req.UTMParameters
	}
	if err := h.repos.Workspaces.Create(ctx, ws); util.HandleServiceError(c, err, "workspace") {
		return
	}
	// A cached miss for this slug may exist from before it was claimed.
	h.invalidateRoutes(ctx, ws.CustomURL)

	logger.Log.Info("Workspace created",
		logger.WithUserID(user.ID),
		logger.WithWorkspaceID(ws.ID),
		logger.WithCustomURL(ws.CustomURL),
	)
	c.JSON(http.StatusCreated, ws)
}

// ListWorkspaces lists the caller's workspaces, newest first
// GET /api/workspaces
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	workspaces, err := h.repos.Workspaces.ListByUser(c.Request.Context(), user.ID)
	if util.HandleServiceError(c, err, "workspace") {
		return
	}
	if workspaces == nil {
		workspaces = []models.Workspace{}
	}
	c.JSON(http.StatusOK, gin.H{
		"workspaces": workspaces,
		"count":      len(workspaces),
		"limits":     plans.For(user.Plan),
	})
}

// GetWorkspace returns one workspace with its numbers
// GET /api/workspace/:id
func (h *Handlers) GetWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}

	numbers, err := h.repos.Numbers.ListByWorkspace(c.Request.Context(), ws.ID)
	if util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	if numbers == nil {
		numbers = []models.WhatsappNumber{}
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace": ws,
		"numbers":   numbers,
		"link":      h.ShortLink(ws.CustomURL),
	})
}

// UpdateWorkspace changes name, custom URL, link style or default UTM parameters
// PUT /api/workspace/:id
func (h *Handlers) UpdateWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}

	var req dto.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			util.RespondBadRequest(c, "name must not be empty")
			return
		}
		if !validateWorkspaceName(c, name) {
			return
		}
		updates["name"] = name
	}
	if req.CustomURL != nil {
		customURL := strings.TrimSpace(*req.CustomURL)
		if !validateCustomURL(c, customURL) {
			return
		}
		if customURL != ws.CustomURL {
			updates["custom_url"] = customURL
		}
	}
	if req.LinkStyle != nil {
		if !validateLinkStyle(c, *req.LinkStyle) {
			return
		}
		updates["link_style"] = *req.LinkStyle
	}
	if req.UTMParameters != nil {
		updates["utm_parameters"] = *req.UTMParameters
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	ctx := c.Request.Context()
	previousURL := ws.CustomURL
	if err := h.repos.Workspaces.Update(ctx, ws, updates); util.HandleServiceError(c, err, "workspace") {
		return
	}
	h.invalidateRoutes(ctx, previousURL, ws.CustomURL)

	logger.Log.Info("Workspace updated",
		logger.WithWorkspaceID(ws.ID),
		zap.Int("fields", len(updates)),
	)
	c.JSON(http.StatusOK, ws)
}

// DeleteWorkspace removes the workspace with its numbers and history
// DELETE /api/workspace/:id
func (h *Handlers) DeleteWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.repos.Workspaces.Delete(ctx, ws.ID); util.HandleServiceError(c, err, "workspace") {
		return
	}
	h.invalidateRoutes(ctx, ws.CustomURL)
	if h.redis != nil {
		if err := h.redis.ForgetVisitors(ctx, ws.ID); err != nil {
			logger.Log.Warn("Failed to drop visitor HyperLogLog", logger.WithWorkspaceID(ws.ID), zap.Error(err))
		}
	}

	logger.Log.Info("Workspace deleted", logger.WithUserID(user.ID), logger.WithWorkspaceID(ws.ID))
	c.JSON(http.StatusOK, gin.H{"message": "workspace deleted", "id": ws.ID})
}

// GetWorkspaceLink returns the public short link, the value a QR code would encode
// GET /api/workspace/:id/link
func (h *Handlers) GetWorkspaceLink(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.WorkspaceLinkResponse{
		WorkspaceID: ws.ID,
		CustomURL:   ws.CustomURL,
		URL:         h.ShortLink(ws.CustomURL),
	})
}
