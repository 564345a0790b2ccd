package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/auth"
	"github.com/zaplinker/backend/internal/cache"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/redirect"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/util"
	"gorm.io/gorm"
)

// DefaultVisitorCookie names the cookie carrying the visitor ID
const DefaultVisitorCookie = "zl_vid"

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db         *gorm.DB
	repos      *repository.Repositories
	routes     *cache.RouteCache
	redirect   *redirect.Service
	tokens     *auth.TokenIssuer
	redis      *cache.RedisClient
	publicURL  string
	cookieName string
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, repos *repository.Repositories, routes *cache.RouteCache, svc *redirect.Service) *Handlers {
	return &Handlers{
		db:         db,
		repos:      repos,
		routes:     routes,
		redirect:   svc,
		publicURL:  "http://localhost:5000",
		cookieName: DefaultVisitorCookie,
	}
}

// SetTokenIssuer enables API token issuing for premium users
func (h *Handlers) SetTokenIssuer(tokens *auth.TokenIssuer) {
	h.tokens = tokens
}

// SetRedisClient enables HyperLogLog estimates and the Redis health check
func (h *Handlers) SetRedisClient(rc *cache.RedisClient) {
	h.redis = rc
}

// SetPublicURL sets the origin short links are served from
func (h *Handlers) SetPublicURL(publicURL string) {
	if publicURL != "" {
		h.publicURL = strings.TrimRight(publicURL, "/")
	}
}

// SetVisitorCookie overrides the visitor cookie name
func (h *Handlers) SetVisitorCookie(name string) {
	if name != "" {
		h.cookieName = name
	}
}

// ShortLink returns the public URL of a custom URL
func (h *Handlers) ShortLink(customURL string) string {
	return h.publicURL + "/" + customURL
}

// currentUser returns the authenticated user; GetUserFromContext answers 401 itself
func currentUser(c *gin.Context) (*models.User, bool) {
	return util.GetUserFromContext(c)
}

// ownedWorkspace loads a workspace and checks the caller owns it (404 missing, 403 foreign)
func (h *Handlers) ownedWorkspace(c *gin.Context, user *models.User, workspaceID string) (*models.Workspace, bool) {
	ws, err := h.repos.Workspaces.Get(c.Request.Context(), workspaceID)
	if util.HandleServiceError(c, err, "workspace") {
		return nil, false
	}
	if ws.UserID != user.ID {
		util.RespondForbidden(c, "workspace belongs to another user")
		return nil, false
	}
	return ws, true
}

// ownedNumber loads a number and checks the caller owns its workspace
func (h *Handlers) ownedNumber(c *gin.Context, user *models.User, numberID string) (*models.WhatsappNumber, *models.Workspace, bool) {
	number, err := h.repos.Numbers.Get(c.Request.Context(), numberID)
	if util.HandleServiceError(c, err, "whatsapp number") {
		return nil, nil, false
	}
	ws, err := h.repos.Workspaces.Get(c.Request.Context(), number.WorkspaceID)
	if util.HandleServiceError(c, err, "workspace") {
		return nil, nil, false
	}
	if ws.UserID != user.ID {
		util.RespondForbidden(c, "whatsapp number belongs to another user")
		return nil, nil, false
	}
	return number, ws, true
}

// invalidateRoutes drops cached redirect snapshots after a write
func (h *Handlers) invalidateRoutes(ctx context.Context, customURLs ...string) {
	if h.routes != nil {
		h.routes.Invalidate(ctx, customURLs...)
	}
}
