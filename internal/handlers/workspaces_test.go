package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
)

func (s *HandlersTestSuite) TestCreateWorkspace() {
	w := s.do(http.MethodPost, "/api/workspace", gin.H{
		"name":          "Loja",
		"customUrl":     "loja-centro",
		"utmParameters": gin.H{"utm_source": "instagram"},
	}, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var ws models.Workspace
	s.decode(w, &ws)
	s.Equal(s.owner.ID, ws.UserID)
	s.Equal("loja-centro", ws.CustomURL)
	s.Equal(models.LinkStyleWaMe, ws.LinkStyle)
	s.Equal("instagram", ws.UTMParameters.Source)
}

func (s *HandlersTestSuite) TestCreateWorkspaceValidation() {
	cases := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"customUrl": "shop"}},
		{"missing url", gin.H{"name": "Shop"}},
		{"invalid url", gin.H{"name": "Shop", "customUrl": "my shop!"}},
		{"reserved url", gin.H{"name": "Shop", "customUrl": "API"}},
		{"long url", gin.H{"name": "Shop", "customUrl": strings.Repeat("a", models.MaxCustomURLLength+1)}},
		{"long name", gin.H{"name": strings.Repeat("n", models.MaxWorkspaceNameLength+1), "customUrl": "shop"}},
		{"bad link style", gin.H{"name": "Shop", "customUrl": "shop", "linkStyle": "sms"}},
	}
	for _, tc := range cases {
		w := s.do(http.MethodPost, "/api/workspace", tc.body, s.owner.FirebaseUID)
		s.Equal(http.StatusBadRequest, w.Code, tc.name)
	}
}

func (s *HandlersTestSuite) TestCreateWorkspaceCustomURLTaken() {
	s.createWorkspace(s.other, "shop")

	w := s.do(http.MethodPost, "/api/workspace", gin.H{"name": "Shop", "customUrl": "shop"}, s.owner.FirebaseUID)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestCreateWorkspacePlanLimit() {
	for i := 0; i < 10; i++ {
		s.createWorkspace(s.owner, fmt.Sprintf("shop-%d", i))
	}

	w := s.do(http.MethodPost, "/api/workspace", gin.H{"name": "One more", "customUrl": "one-more"}, s.owner.FirebaseUID)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "PLAN_LIMIT")
}

func (s *HandlersTestSuite) TestListWorkspacesOnlyReturnsOwn() {
	s.createWorkspace(s.owner, "mine")
	s.createWorkspace(s.other, "theirs")

	w := s.do(http.MethodGet, "/api/workspaces", nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Workspaces []models.Workspace `json:"workspaces"`
		Count      int                `json:"count"`
	}
	s.decode(w, &resp)
	s.Equal(1, resp.Count)
	s.Equal("mine", resp.Workspaces[0].CustomURL)
}

func (s *HandlersTestSuite) TestGetWorkspaceOwnership() {
	ws := s.createWorkspace(s.other, "theirs")

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/workspace/"+ws.ID, nil, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/workspace/missing", nil, s.owner.FirebaseUID).Code)

	w := s.do(http.MethodGet, "/api/workspace/"+ws.ID, nil, s.other.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), testPublicURL+"/theirs")
}

func (s *HandlersTestSuite) TestUpdateWorkspace() {
	ws := s.createWorkspace(s.owner, "old-url")

	w := s.do(http.MethodPut, "/api/workspace/"+ws.ID, gin.H{
		"name":          "Renamed",
		"customUrl":     "new-url",
		"linkStyle":     "api",
		"utmParameters": gin.H{"utm_campaign": "launch"},
	}, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	stored, err := s.repos.Workspaces.Get(context.Background(), ws.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", stored.Name)
	s.Equal("new-url", stored.CustomURL)
	s.Equal(models.LinkStyleAPI, stored.LinkStyle)
	s.Equal("launch", stored.UTMParameters.Campaign)
}

func (s *HandlersTestSuite) TestUpdateWorkspaceRejectsTakenURL() {
	ws := s.createWorkspace(s.owner, "mine")
	s.createWorkspace(s.other, "taken")

	w := s.do(http.MethodPut, "/api/workspace/"+ws.ID, gin.H{"customUrl": "taken"}, s.owner.FirebaseUID)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestUpdateWorkspaceRequiresFields() {
	ws := s.createWorkspace(s.owner, "mine")
	w := s.do(http.MethodPut, "/api/workspace/"+ws.ID, gin.H{}, s.owner.FirebaseUID)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestDeleteWorkspace() {
	ws := s.createWorkspace(s.owner, "gone")
	s.createNumber(ws, "5511987654321", true)

	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/workspace/"+ws.ID, nil, s.other.FirebaseUID).Code)

	w := s.do(http.MethodDelete, "/api/workspace/"+ws.ID, nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)

	_, err := s.repos.Workspaces.Get(context.Background(), ws.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	numbers, err := s.repos.Numbers.ListByWorkspace(context.Background(), ws.ID)
	s.Require().NoError(err)
	s.Empty(numbers)
}

func (s *HandlersTestSuite) TestGetWorkspaceLink() {
	ws := s.createWorkspace(s.owner, "promo")

	w := s.do(http.MethodGet, "/api/workspace/"+ws.ID+"/link", nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.WorkspaceLinkResponse
	s.decode(w, &resp)
	s.Equal(testPublicURL+"/promo", resp.URL)
	s.Equal(ws.ID, resp.WorkspaceID)
}
