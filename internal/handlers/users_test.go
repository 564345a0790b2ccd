package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/auth"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/models"
)

func (s *HandlersTestSuite) TestCreateOrUpdateUserCreates() {
	w := s.do(http.MethodPost, "/api/user", gin.H{"firebaseUid": "new-uid", "email": "new@example.com"}, "")
	s.Equal(http.StatusOK, w.Code)

	var resp dto.UserResponse
	s.decode(w, &resp)
	s.Equal("new-uid", resp.FirebaseUID)
	s.Len(resp.PersonalHash, 32)
	s.Equal(models.PlanFree, resp.Plan)
	s.Equal(10, resp.Limits.MaxWorkspaces)
}

func (s *HandlersTestSuite) TestCreateOrUpdateUserRefreshesProfile() {
	first := s.do(http.MethodPost, "/api/user", gin.H{"firebaseUid": "new-uid", "displayName": "Ana"}, "")
	s.Require().Equal(http.StatusOK, first.Code)
	second := s.do(http.MethodPost, "/api/user", gin.H{"firebaseUid": "new-uid", "displayName": "Ana Maria"}, "")
	s.Require().Equal(http.StatusOK, second.Code)

	var a, b dto.UserResponse
	s.decode(first, &a)
	s.decode(second, &b)
	s.Equal(a.ID, b.ID)
	s.Equal(a.PersonalHash, b.PersonalHash)
	s.Equal("Ana Maria", b.DisplayName)
}

func (s *HandlersTestSuite) TestCreateOrUpdateUserRequiresUID() {
	w := s.do(http.MethodPost, "/api/user", gin.H{"email": "x@example.com"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestGetMe() {
	w := s.do(http.MethodGet, "/api/user/me", nil, s.owner.FirebaseUID)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.UserResponse
	s.decode(w, &resp)
	s.Equal(s.owner.ID, resp.ID)
}

func (s *HandlersTestSuite) TestGetMeRequiresAuthentication() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/user/me", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/user/me", nil, "unknown-uid").Code)
}

func (s *HandlersTestSuite) TestIssueAPITokenRequiresPremium() {
	w := s.do(http.MethodPost, "/api/user/token", nil, s.owner.FirebaseUID)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestIssuedTokenAuthenticates() {
	premium := s.createUser("premium-uid", models.PlanPremium)

	w := s.do(http.MethodPost, "/api/user/token", nil, premium.FirebaseUID)
	s.Require().Equal(http.StatusCreated, w.Code)

	var issued auth.IssuedToken
	s.decode(w, &issued)
	s.NotEmpty(issued.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)

	var me dto.UserResponse
	s.decode(rec, &me)
	s.Equal(premium.ID, me.ID)
}

func (s *HandlersTestSuite) TestTokenOfDowngradedUserIsRejected() {
	premium := s.createUser("premium-uid", models.PlanPremium)
	issued, err := s.tokens.Issue(premium)
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Users.SetPlan(context.Background(), premium.ID, models.PlanPro))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)
}
