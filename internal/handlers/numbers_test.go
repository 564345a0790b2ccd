package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
)

func (s *HandlersTestSuite) TestCreateNumberNormalizesDigits() {
	ws := s.createWorkspace(s.owner, "shop")

	w := s.do(http.MethodPost, "/api/whatsapp", gin.H{
		"workspaceId": ws.ID,
		"number":      "+55 (11) 98765-4321",
		"text":        "Olá!",
	}, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var n models.WhatsappNumber
	s.decode(w, &n)
	s.Equal("5511987654321", n.Number)
	s.True(n.IsActive)
	s.Equal(1, n.Weight)
	s.Equal("Olá!", n.Text)
}

func (s *HandlersTestSuite) TestCreateNumberValidation() {
	ws := s.createWorkspace(s.owner, "shop")

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/whatsapp", gin.H{"workspaceId": ws.ID}, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/whatsapp", gin.H{"workspaceId": ws.ID, "number": "123"}, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/whatsapp", gin.H{"workspaceId": "missing", "number": "5511987654321"}, s.owner.FirebaseUID).Code)
}

func (s *HandlersTestSuite) TestCreateNumberInForeignWorkspace() {
	ws := s.createWorkspace(s.other, "theirs")

	w := s.do(http.MethodPost, "/api/whatsapp", gin.H{"workspaceId": ws.ID, "number": "5511987654321"}, s.owner.FirebaseUID)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestCreateNumberPlanLimit() {
	ws := s.createWorkspace(s.owner, "shop")
	for i := 0; i < 5; i++ {
		s.createNumber(ws, fmt.Sprintf("551198765432%d", i), true)
	}

	w := s.do(http.MethodPost, "/api/whatsapp", gin.H{"workspaceId": ws.ID, "number": "5511987654329"}, s.owner.FirebaseUID)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestListNumbers() {
	ws := s.createWorkspace(s.owner, "shop")
	s.createNumber(ws, "5511987654321", true)
	s.createNumber(ws, "5511987654322", false)

	w := s.do(http.MethodGet, "/api/whatsapp/"+ws.ID, nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Numbers []models.WhatsappNumber `json:"numbers"`
	}
	s.decode(w, &resp)
	s.Len(resp.Numbers, 2)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/whatsapp/"+ws.ID, nil, s.other.FirebaseUID).Code)
}

func (s *HandlersTestSuite) TestUpdateNumber() {
	ws := s.createWorkspace(s.owner, "shop")
	n := s.createNumber(ws, "5511987654321", true)

	w := s.do(http.MethodPut, "/api/whatsapp/"+n.ID, gin.H{"text": "Novo texto", "weight": 3}, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	stored, err := s.repos.Numbers.Get(context.Background(), n.ID)
	s.Require().NoError(err)
	s.Equal("Novo texto", stored.Text)
	s.Equal(3, stored.Weight)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/api/whatsapp/"+n.ID, gin.H{}, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPut, "/api/whatsapp/"+n.ID, gin.H{"text": "x"}, s.other.FirebaseUID).Code)
}

func (s *HandlersTestSuite) TestToggleNumber() {
	ws := s.createWorkspace(s.owner, "shop")
	n := s.createNumber(ws, "5511987654321", true)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/api/whatsapp/"+n.ID+"/toggle", gin.H{}, s.owner.FirebaseUID).Code)

	w := s.do(http.MethodPut, "/api/whatsapp/"+n.ID+"/toggle", gin.H{"isActive": false}, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code)

	var updated models.WhatsappNumber
	s.decode(w, &updated)
	s.False(updated.IsActive)

	active, err := s.repos.Numbers.ListActive(context.Background(), ws.ID)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *HandlersTestSuite) TestDeleteNumber() {
	ws := s.createWorkspace(s.owner, "shop")
	n := s.createNumber(ws, "5511987654321", true)

	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/whatsapp/missing", nil, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/whatsapp/"+n.ID, nil, s.other.FirebaseUID).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/whatsapp/"+n.ID, nil, s.owner.FirebaseUID).Code)

	_, err := s.repos.Numbers.Get(context.Background(), n.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}
