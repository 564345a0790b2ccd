package handlers

import "github.com/gin-gonic/gin"

// RouteOptions carries the middleware attached to each route group
type RouteOptions struct {
	// Auth resolves the calling user on /api routes other than POST /api/user.
	Auth gin.HandlerFunc
	// API runs on every /api route, before Auth.
	API []gin.HandlerFunc
	// Redirect runs on the short link routes.
	Redirect []gin.HandlerFunc
}

// RegisterRoutes mounts the health check, the JSON API and the short link routes on r
func (h *Handlers) RegisterRoutes(r *gin.Engine, opts RouteOptions) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api", opts.API...)
	{
		// Public: the web app calls this right after Firebase sign-in
		api.POST("/user", h.CreateOrUpdateUser)

		authed := api.Group("")
		if opts.Auth != nil {
			authed.Use(opts.Auth)
		}

		authed.GET("/user/me", h.GetMe)
		authed.POST("/user/token", h.IssueAPIToken)

		authed.POST("/workspace", h.CreateWorkspace)
		authed.GET("/workspaces", h.ListWorkspaces)
		authed.GET("/workspace/:id", h.GetWorkspace)
		authed.PUT("/workspace/:id", h.UpdateWorkspace)
		authed.DELETE("/workspace/:id", h.DeleteWorkspace)
		authed.GET("/workspace/:id/link", h.GetWorkspaceLink)

		authed.GET("/workspaces/:id/stats", h.GetWorkspaceStats)
		authed.GET("/workspaces/:id/numbers/stats", h.GetNumberStats)

		authed.POST("/whatsapp", h.CreateNumber)
		authed.GET("/whatsapp/:workspaceId", h.ListNumbers)
		authed.PUT("/whatsapp/:numberId", h.UpdateNumber)
		authed.PUT("/whatsapp/:numberId/toggle", h.ToggleNumber)
		authed.DELETE("/whatsapp/:numberId", h.DeleteNumber)
	}

	links := r.Group("", opts.Redirect...)
	links.GET("/:customUrl", h.Redirect)
	links.GET("/:customUrl/*params", h.Redirect)
}
