package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
)

func (s *HandlersTestSuite) seedEvents(ws *models.Workspace, at ...time.Time) {
	ctx := context.Background()
	for i, ts := range at {
		key := "visitor-a"
		if i%2 == 1 {
			key = "visitor-b"
		}
		_, err := s.repos.Analytics.RecordVisit(ctx, repository.Visit{
			WorkspaceID: ws.ID,
			VisitorKey:  key,
			Device:      models.DeviceDesktop,
			At:          ts,
		})
		s.Require().NoError(err)
		s.Require().NoError(s.repos.Analytics.AppendEvent(ctx, &models.AccessEvent{
			WorkspaceID: ws.ID,
			VisitorKey:  key,
			DeviceType:  models.DeviceDesktop,
			Country:     "BR",
			Timestamp:   ts,
		}))
	}
}

func (s *HandlersTestSuite) TestGetWorkspaceStats() {
	ws := s.createWorkspace(s.owner, "shop")
	day := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s.seedEvents(ws, day, day.Add(time.Hour), day.Add(48*time.Hour))

	w := s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats", nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.WorkspaceStatsResponse
	s.decode(w, &resp)
	s.Equal(int64(3), resp.AccessCount)
	s.Equal(int64(3), resp.DesktopAccessCount)
	s.Equal(int64(2), resp.UniqueVisitorCount)
	s.Nil(resp.ApproxUniqueVisitors)
	s.Equal(int64(3), resp.TotalEvents)
	s.Len(resp.AccessDetails, 3)
	s.Equal(int64(2), resp.Summary.Unique)
	s.Equal(int64(3), resp.Summary.ByCountry["BR"])
	s.Len(resp.Summary.ByDay, 2)
	s.False(resp.Summary.Truncated)
}

func (s *HandlersTestSuite) TestGetWorkspaceStatsRangeAndLimit() {
	ws := s.createWorkspace(s.owner, "shop")
	day := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s.seedEvents(ws, day, day.Add(time.Hour), day.Add(48*time.Hour))

	w := s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats?from=2025-05-10&to=2025-05-10&limit=1", nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.WorkspaceStatsResponse
	s.decode(w, &resp)
	s.Equal(int64(2), resp.TotalEvents)
	s.Len(resp.AccessDetails, 1)
	s.True(resp.Summary.Truncated)
	// Counters are lifetime totals regardless of the range.
	s.Equal(int64(3), resp.AccessCount)
}

func (s *HandlersTestSuite) TestGetWorkspaceStatsRejectsBadRange() {
	ws := s.createWorkspace(s.owner, "shop")

	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats?from=yesterday", nil, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats?from=2025-05-11&to=2025-05-01", nil, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats", nil, s.other.FirebaseUID).Code)
}

func (s *HandlersTestSuite) TestStatsRejectsBadLimit() {
	ws := s.createWorkspace(s.owner, "shop")

	for _, limit := range []string{"abc", "-1", "0", "1.5"} {
		w := s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats?limit="+limit, nil, s.owner.FirebaseUID)
		s.Equal(http.StatusUnprocessableEntity, w.Code, limit)
		s.Contains(w.Body.String(), "limit", limit)
	}
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/numbers/stats?limit=ten", nil, s.owner.FirebaseUID).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/stats?limit=99999", nil, s.owner.FirebaseUID).Code)
}

func (s *HandlersTestSuite) TestGetNumberStats() {
	ws := s.createWorkspace(s.owner, "shop")
	busy := s.createNumber(ws, "5511987654321", true)
	idle := s.createNumber(ws, "5511987654322", true)

	ctx := context.Background()
	now := time.Now().UTC()
	s.Require().NoError(s.repos.Numbers.RecordHit(ctx, busy.ID, ws.ID, now))
	s.Require().NoError(s.repos.Numbers.RecordHit(ctx, busy.ID, ws.ID, now))

	w := s.do(http.MethodGet, "/api/workspaces/"+ws.ID+"/numbers/stats", nil, s.owner.FirebaseUID)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Numbers []dto.NumberStatsResponse `json:"numbers"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Numbers, 2)

	byID := map[string]dto.NumberStatsResponse{}
	for _, n := range resp.Numbers {
		byID[n.NumberID] = n
	}
	s.Equal(int64(2), byID[busy.ID].Hits)
	s.Equal(int64(2), byID[busy.ID].AccessCount)
	s.NotNil(byID[busy.ID].LastAccessAt)
	s.Zero(byID[idle.ID].Hits)
}
