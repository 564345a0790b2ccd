package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/util"
	"github.com/zaplinker/backend/internal/utm"
	"go.uber.org/zap"
)

// normalizeNumber strips formatting and answers 400 unless 8 to 15 digits remain
func normalizeNumber(c *gin.Context, raw string) (string, bool) {
	digits := utm.NormalizeNumber(raw)
	if !utm.ValidNumber(digits) {
		util.RespondBadRequest(c, "number must contain 8 to 15 digits including the country code")
		return "", false
	}
	return digits, true
}

// CreateNumber adds a WhatsApp number to a workspace
// POST /api/whatsapp
func (h *Handlers) CreateNumber(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "workspaceId and number are required")
		return
	}
	digits, ok := normalizeNumber(c, req.Number)
	if !ok {
		return
	}

	ws, ok := h.ownedWorkspace(c, user, req.WorkspaceID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	count, err := h.repos.Numbers.CountByWorkspace(ctx, ws.ID)
	if util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	if err := plans.CheckNumberQuota(user.Plan, count); err != nil {
		util.RespondPlanLimit(c, err.Error())
		return
	}

	number := &models.WhatsappNumber{
		WorkspaceID: ws.ID,
		Number:      digits,
		Text:        req.Text,
		IsActive:    true,
		Weight:      1,
	}
	if req.Weight != nil {
		number.Weight = *req.Weight
	}
	if req.IsActive != nil {
		number.IsActive = *req.IsActive
	}
	if err := h.repos.Numbers.Create(ctx, number); util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	h.invalidateRoutes(ctx, ws.CustomURL)

	logger.Log.Info("WhatsApp number added",
		logger.WithWorkspaceID(ws.ID),
		logger.WithNumberID(number.ID),
	)
	c.JSON(http.StatusCreated, number)
}

// ListNumbers lists every number of a workspace, active or not
// GET /api/whatsapp/:workspaceId
func (h *Handlers) ListNumbers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("workspaceId"))
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
		"numbers": numbers,
		"count":   len(numbers),
	})
}

// UpdateNumber changes the number, message text, weight or active flag
// PUT /api/whatsapp/:numberId
func (h *Handlers) UpdateNumber(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	updates := make(map[string]interface{})
	if req.Number != nil {
		digits, ok := normalizeNumber(c, *req.Number)
		if !ok {
			return
		}
		updates["number"] = digits
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	number, ws, ok := h.ownedNumber(c, user, c.Param("numberId"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.repos.Numbers.Update(ctx, number, updates); util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	h.invalidateRoutes(ctx, ws.CustomURL)

	c.JSON(http.StatusOK, number)
}

// ToggleNumber sets whether a number takes part in redirects
// PUT /api/whatsapp/:numberId/toggle
func (h *Handlers) ToggleNumber(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ToggleNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "isActive is required")
		return
	}

	number, ws, ok := h.ownedNumber(c, user, c.Param("numberId"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	updated, err := h.repos.Numbers.SetActive(ctx, number.ID, *req.IsActive)
	if util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	h.invalidateRoutes(ctx, ws.CustomURL)

	logger.Log.Info("WhatsApp number toggled",
		logger.WithNumberID(updated.ID),
		zap.Bool("active", updated.IsActive),
	)
	c.JSON(http.StatusOK, updated)
}

// DeleteNumber removes a number and its access log
// DELETE /api/whatsapp/:numberId
func (h *Handlers) DeleteNumber(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	number, ws, ok := h.ownedNumber(c, user, c.Param("numberId"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.repos.Numbers.Delete(ctx, number.ID); util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	h.invalidateRoutes(ctx, ws.CustomURL)

	logger.Log.Info("WhatsApp number deleted", logger.WithWorkspaceID(ws.ID), logger.WithNumberID(number.ID))
	c.JSON(http.StatusOK, gin.H{"message": "whatsapp number deleted", "id": number.ID})
}
