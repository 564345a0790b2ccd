package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/metrics"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/redirect"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/util"
	"github.com/zaplinker/backend/internal/utm"
	"github.com/zaplinker/backend/internal/visitor"
	"go.uber.org/zap"
)

// previewPage is served to link preview crawlers instead of the redirect
var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chat on WhatsApp</title>
<meta property="og:title" content="Chat on WhatsApp">
<meta property="og:description" content="Tap to start a conversation on WhatsApp.">
<meta property="og:type" content="website">
<meta property="og:url" content="{{.URL}}">
<meta name="robots" content="noindex">
</head>
<body><p>Chat on WhatsApp: <a href="{{.URL}}">{{.URL}}</a></p></body>
</html>
`))

func (h *Handlers) renderPreview(c *gin.Context, customURL string) {
	var buf bytes.Buffer
	if err := previewPage.Execute(&buf, struct{ URL string }{URL: h.ShortLink(customURL)}); err != nil {
		c.Status(http.StatusOK)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Redirect sends a visitor to one of the workspace's active WhatsApp numbers
// GET /:customUrl and GET /:customUrl/*params
func (h *Handlers) Redirect(c *gin.Context) {
	start := time.Now()
	m := metrics.Get()
	outcome := metrics.OutcomeError
	defer func() {
		m.RedirectsTotal.WithLabelValues(outcome).Inc()
		m.RedirectDuration.Observe(time.Since(start).Seconds())
	}()

	customURL, pathParams := utm.ParsePath(c.Param("customUrl"), c.Param("params"))
	if !models.ValidCustomURL(customURL) {
		outcome = metrics.OutcomeNotFound
		util.RespondNotFound(c, "workspace")
		return
	}

	userAgent := c.Request.UserAgent()
	if bot := visitor.MatchBot(userAgent); bot != "" {
		m.BotHitsTotal.WithLabelValues(bot).Inc()
		_, err := h.routes.Get(c.Request.Context(), customURL)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			outcome = metrics.OutcomeNotFound
			util.RespondNotFound(c, "workspace")
		case err != nil:
			logger.Log.Error("Preview lookup failed", logger.WithCustomURL(customURL), zap.Error(err))
			util.RespondInternalError(c, "failed to resolve link")
		default:
			outcome = metrics.OutcomeBot
			h.renderPreview(c, customURL)
		}
		return
	}

	cookieID := visitor.EnsureCookie(c.Writer, c.Request, h.cookieName)
	ip := c.ClientIP()

	result, err := h.redirect.Resolve(c.Request.Context(), redirect.Request{
		CustomURL:  customURL,
		PathParams: pathParams,
		Query:      c.Request.URL.Query(),
		VisitorKey: visitor.Key(cookieID, ip, userAgent),
		IP:         ip,
		UserAgent:  userAgent,
		Referer:    c.Request.Referer(),
		At:         start.UTC(),
	})
	switch {
	case errors.Is(err, redirect.ErrWorkspaceNotFound):
		outcome = metrics.OutcomeNotFound
		util.RespondNotFound(c, "workspace")
		return
	case errors.Is(err, redirect.ErrNoActiveNumbers):
		outcome = metrics.OutcomeNoNumber
		logger.Log.Warn("Workspace has no active numbers",
			logger.WithCustomURL(customURL),
			logger.WithWorkspaceID(result.Workspace.ID),
		)
		util.HandleServiceError(c, err, "whatsapp number")
		return
	case err != nil:
		logger.Log.Error("Redirect failed", logger.WithCustomURL(customURL), zap.Error(err))
		util.RespondInternalError(c, "failed to resolve link")
		return
	}

	outcome = metrics.OutcomeRedirected
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, result.Target)
}
