package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/util"
	"go.uber.org/zap"
)

// CreateOrUpdateUser registers the user on first sign-in and refreshes the profile afterwards
// POST /api/user
func (h *Handlers) CreateOrUpdateUser(c *gin.Context) {
	var req dto.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "firebaseUid is required")
		return
	}

	user, created, err := h.repos.Users.Upsert(c.Request.Context(), req.ToUser())
	if util.HandleServiceError(c, err, "user") {
		return
	}

	if created {
		logger.Log.Info("User registered", logger.WithUserID(user.ID), zap.String("firebase_uid", user.FirebaseUID))
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// GetMe returns the authenticated user with the limits of their plan
// GET /api/user/me
func (h *Handlers) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// IssueAPIToken creates a bearer token for programmatic access
// POST /api/user/token
func (h *Handlers) IssueAPIToken(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !plans.AllowsAPITokens(user.Plan) {
		util.RespondPlanLimit(c, "api tokens require the premium plan")
		return
	}
	if h.tokens == nil {
		util.RespondInternalError(c, "api tokens are not configured")
		return
	}

	issued, err := h.tokens.Issue(user)
	if err != nil {
		logger.Log.Error("Failed to issue API token", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to issue token")
		return
	}

	logger.Log.Info("API token issued", logger.WithUserID(user.ID), zap.String("token_id", issued.TokenID))
	c.JSON(http.StatusCreated, issued)
}
