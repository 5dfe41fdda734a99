package handlers_test

import (
	"bytes"
	"image/png"
	"net/http"
	"testing"

	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
	"github.com/abrezinsky/courtboard/internal/services"
)

func TestListCourts(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", "/api/courts/001/points", map[string]interface{}{"side": "B", "delta": 2}, s.courtToken)

	rr := s.do(t, "GET", "/api/courts", nil, "")
	expectStatus(t, rr, http.StatusOK)

	var courts []services.CourtStatus
	decode(t, rr, &courts)
	if len(courts) != 3 {
		t.Fatalf("expected 3 courts, got %d", len(courts))
	}
	if !courts[0].Active || courts[0].ScoreB != 2 || courts[0].LastUpdated == "" {
		t.Errorf("court 001 = %+v", courts[0])
	}
	if courts[1].Active {
		t.Errorf("court 002 was never opened, got %+v", courts[1])
	}
}

func TestGetState_NormalizesOnFirstRead(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "GET", "/api/courts/3/state", nil, "")
	expectStatus(t, rr, http.StatusOK)

	var state models.MatchState
	decode(t, rr, &state)
	if len(state.TeamA.Timeouts) != 3 {
		t.Errorf("court 003 has three timeout slots, got %v", state.TeamA.Timeouts)
	}
	if state.SetScore != nil || state.TeamA.SetsWon == nil {
		t.Errorf("court 003 tracks sets per team, got setScore=%v setsWon=%v", state.SetScore, state.TeamA.SetsWon)
	}
	if state.TeamA.Name != "Home" || state.CurrentSet != 1 {
		t.Errorf("unexpected defaults %+v", state)
	}
}

func TestGetView(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", "/api/courts/001/points", map[string]interface{}{"side": "A", "delta": 5}, s.courtToken)
	s.do(t, "POST", "/api/courts/001/swap", nil, s.courtToken)

	rr := s.do(t, "GET", "/api/courts/001/view", nil, "")
	expectStatus(t, rr, http.StatusOK)
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("views must not be cached")
	}

	var view presentation.View
	decode(t, rr, &view)
	if view.RightScore != 5 || view.LeftScore != 0 || view.RightTeamID != models.TeamA {
		t.Errorf("unexpected view %+v", view)
	}

	expectStatus(t, s.do(t, "GET", "/api/courts/404/view", nil, ""), http.StatusNotFound)
}

func TestGetLinks(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "GET", "/api/courts/002/links", nil, "")
	expectStatus(t, rr, http.StatusOK)

	var links []services.CourtLink
	decode(t, rr, &links)
	if len(links) != 2 || links[0].CourtID != "001" || links[1].CourtID != "003" {
		t.Fatalf("unexpected links %+v", links)
	}
	if links[1].DisplayURL != "/courts/003/display" {
		t.Errorf("display url = %q", links[1].DisplayURL)
	}
}

func TestGetQRImage(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "GET", "/api/courts/001/qr", nil, "")
	expectStatus(t, rr, http.StatusBadRequest)

	s.do(t, "POST", "/api/admin/settings", map[string]string{"base_url": "http://scores.local"}, s.adminToken)
	rr = s.do(t, "GET", "/api/courts/001/qr", nil, "")
	expectStatus(t, rr, http.StatusOK)
	if rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(bytes.NewReader(rr.Body.Bytes())); err != nil {
		t.Errorf("expected a PNG: %v", err)
	}
}
