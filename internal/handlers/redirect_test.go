package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/zaplinker/backend/internal/models"
)

func (s *HandlersTestSuite) visit(path, userAgent string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", userAgent)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func visitorCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultVisitorCookie {
			return c
		}
	}
	return nil
}

func (s *HandlersTestSuite) reload(ws *models.Workspace) *models.Workspace {
	stored, err := s.repos.Workspaces.Get(context.Background(), ws.ID)
	s.Require().NoError(err)
	return stored
}

func (s *HandlersTestSuite) TestRedirectMergesParameters() {
	ws := &models.Workspace{
		UserID:        s.owner.ID,
		Name:          "Shop",
		CustomURL:     "shop",
		UTMParameters: models.UTMParameters{Source: "default", Medium: "default"},
	}
	s.Require().NoError(s.repos.Workspaces.Create(context.Background(), ws))
	n := s.createNumber(ws, "5511987654321", true)

	w := s.visit("/shop/utm_medium=bio/utm_campaign=path?utm_campaign=query", browserUA)
	s.Require().Equal(http.StatusFound, w.Code, w.Body.String())
	s.Equal("no-store", w.Header().Get("Cache-Control"))

	target, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("wa.me", target.Host)
	s.Equal("/5511987654321", target.Path)

	q := target.Query()
	s.Equal("Hi", q.Get("text"))
	s.Equal("default", q.Get("utm_source"))
	s.Equal("bio", q.Get("utm_medium"))
	s.Equal("query", q.Get("utm_campaign"))

	jobs := s.jobs.Jobs()
	s.Require().Len(jobs, 1)
	s.Equal(n.ID, jobs[0].NumberID)
	s.Equal(ws.ID, jobs[0].WorkspaceID)
	s.Equal(models.DeviceMobile, jobs[0].Device)
	s.Equal("query", jobs[0].UTM.Campaign)
}

func (s *HandlersTestSuite) TestRedirectAPILinkStyle() {
	ws := &models.Workspace{UserID: s.owner.ID, Name: "Shop", CustomURL: "api-style", LinkStyle: models.LinkStyleAPI}
	s.Require().NoError(s.repos.Workspaces.Create(context.Background(), ws))
	s.createNumber(ws, "5511987654321", true)

	w := s.visit("/api-style", browserUA)
	s.Require().Equal(http.StatusFound, w.Code)

	target, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("api.whatsapp.com", target.Host)
	s.Equal("/send", target.Path)
	s.Equal("5511987654321", target.Query().Get("phone"))
}

func (s *HandlersTestSuite) TestRedirectCountsReturningVisitorOnce() {
	ws := s.createWorkspace(s.owner, "shop")
	s.createNumber(ws, "5511987654321", true)

	first := s.visit("/shop", browserUA)
	s.Require().Equal(http.StatusFound, first.Code)
	cookie := visitorCookie(first)
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)

	second := s.visit("/shop", browserUA, cookie)
	s.Require().Equal(http.StatusFound, second.Code)
	s.Equal(cookie.Value, visitorCookie(second).Value)

	stored := s.reload(ws)
	s.Equal(int64(2), stored.AccessCount)
	s.Equal(int64(2), stored.MobileAccessCount)
	s.Equal(int64(1), stored.UniqueVisitorCount)
}

func (s *HandlersTestSuite) TestRedirectSkipsBots() {
	ws := s.createWorkspace(s.owner, "shop")
	s.createNumber(ws, "5511987654321", true)

	w := s.visit("/shop", "WhatsApp/2.23.20.0 A")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	s.Contains(w.Body.String(), testPublicURL+"/shop")
	s.Nil(visitorCookie(w))

	s.Empty(s.jobs.Jobs())
	s.Zero(s.reload(ws).AccessCount)
}

func (s *HandlersTestSuite) TestRedirectSendsInAppBrowsersToWhatsApp() {
	ws := s.createWorkspace(s.owner, "shop")
	s.createNumber(ws, "5511987654321", true)

	w := s.visit("/shop", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 [Pinterest/iOS]")
	s.Require().Equal(http.StatusFound, w.Code, w.Body.String())
	s.Contains(w.Header().Get("Location"), "wa.me/5511987654321")
	s.NotNil(visitorCookie(w))

	s.Len(s.jobs.Jobs(), 1)
	s.Equal(int64(1), s.reload(ws).MobileAccessCount)
}

func (s *HandlersTestSuite) TestRedirectUnknownWorkspace() {
	s.Equal(http.StatusNotFound, s.visit("/nobody-here", browserUA).Code)
	s.Equal(http.StatusNotFound, s.visit("/bad.slug", browserUA).Code)
	s.Empty(s.jobs.Jobs())
}

func (s *HandlersTestSuite) TestPreviewOfUnknownWorkspace() {
	w := s.visit("/does-not-exist", "facebookexternalhit/1.1")
	s.Equal(http.StatusNotFound, w.Code)
	s.NotContains(w.Header().Get("Content-Type"), "text/html")
	s.Empty(s.jobs.Jobs())
}

func (s *HandlersTestSuite) TestRedirectWithoutActiveNumbersStillAttributes() {
	ws := s.createWorkspace(s.owner, "shop")
	s.createNumber(ws, "5511987654321", false)

	w := s.visit("/shop", browserUA)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "NO_ACTIVE_NUMBER")

	s.Equal(int64(1), s.reload(ws).AccessCount)
	jobs := s.jobs.Jobs()
	s.Require().Len(jobs, 1)
	s.Empty(jobs[0].NumberID)
}

func (s *HandlersTestSuite) TestRedirectSeesNumberChangesImmediately() {
	ws := s.createWorkspace(s.owner, "shop")
	n := s.createNumber(ws, "5511987654321", true)
	s.Require().Equal(http.StatusFound, s.visit("/shop", browserUA).Code)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPut, "/api/whatsapp/"+n.ID+"/toggle", map[string]bool{"isActive": false}, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusNotFound, s.visit("/shop", browserUA).Code)
}
