package services_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/persistence"
	"github.com/abrezinsky/courtboard/internal/repository/mock"
	"github.com/abrezinsky/courtboard/internal/services"
	"github.com/abrezinsky/courtboard/internal/testutil"
)

type courtHarness struct {
	courts   *services.CourtService
	control  *services.ControlService
	settings *services.SettingsService
	repo     *mock.Repository
}

func setupCourtService(t *testing.T) *courtHarness {
	t.Helper()
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	store := persistence.NewStore(logger.Nop(), repo)
	t.Cleanup(store.Close)
	registry := testCourts()
	settings := services.NewSettingsService(logger.Nop(), repo)
	return &courtHarness{
		courts:   services.NewCourtService(logger.Nop(), repo, store, registry, settings),
		control:  services.NewControlService(logger.Nop(), store, registry),
		settings: settings,
		repo:     repo,
	}
}

func TestCourtService_ListCourts(t *testing.T) {
	h := setupCourtService(t)
	ctx := context.Background()
	h.settings.SetBaseURL(ctx, "http://192.168.1.20:8080")

	h.control.AddPoints(ctx, "002", models.SideRight, 4)
	h.control.AdjustSetScore(ctx, "002", models.SideLeft, 1)

	list, err := h.courts.ListCourts(ctx)
	if err != nil {
		t.Fatalf("ListCourts failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 courts, got %d", len(list))
	}

	if list[0].CourtID != "001" || list[0].Active {
		t.Errorf("court 001 should be listed inactive: %+v", list[0])
	}
	if list[0].DisplayName != "Court 001" {
		t.Errorf("default display name = %q", list[0].DisplayName)
	}

	center := list[1]
	if !center.Active || center.DisplayName != "Center Court" {
		t.Errorf("court 002 = %+v", center)
	}
	if center.ScoreB != 4 || center.SetsA != 1 || center.CurrentSet != 2 {
		t.Errorf("court 002 summary = %+v", center)
	}
	if center.LastUpdated == "" {
		t.Error("expected last updated timestamp")
	}
	if center.DisplayURL != "http://192.168.1.20:8080/courts/002/display" {
		t.Errorf("display URL = %q", center.DisplayURL)
	}
	if center.Variant.SwapPolicy != match.SwapExchange {
		t.Errorf("variant = %+v", center.Variant)
	}
}

func TestCourtService_ListCourts_RepositoryError(t *testing.T) {
	h := setupCourtService(t)
	h.repo.ListScoreboardsError = errors.New("database locked")

	if _, err := h.courts.ListCourts(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestCourtService_Status(t *testing.T) {
	h := setupCourtService(t)
	ctx := context.Background()

	status, err := h.courts.Status(ctx, "3")
	if err != nil {
		t.Fatal(err)
	}
	if status.Active {
		t.Error("unopened court should be inactive")
	}
	if h.repo.Saves != 0 {
		t.Error("status must not initialize the court")
	}
	if status.ControlURL != "/courts/003/control" {
		t.Errorf("relative control URL = %q", status.ControlURL)
	}

	h.control.AddPoints(ctx, "003", models.SideLeft, 2)
	status, _ = h.courts.Status(ctx, "003")
	if !status.Active || status.ScoreA != 2 || status.TeamA != match.DefaultTeamAName {
		t.Errorf("status = %+v", status)
	}

	if _, err := h.courts.Status(ctx, "404"); !errors.Is(err, services.ErrCourtNotFound) {
		t.Errorf("expected court not found, got %v", err)
	}
}

func TestCourtService_Links(t *testing.T) {
	h := setupCourtService(t)
	ctx := context.Background()

	links, err := h.courts.Links(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	for _, link := range links {
		if link.CourtID == "001" {
			t.Error("links should exclude the current court")
		}
	}
	if links[0].ControlURL != "/courts/002/control" {
		t.Errorf("link = %+v", links[0])
	}
}

func TestCourtService_GenerateQRImage(t *testing.T) {
	h := setupCourtService(t)
	ctx := context.Background()

	if _, err := h.courts.GenerateQRImage(ctx, "001"); !errors.Is(err, services.ErrBaseURLNotConfigured) {
		t.Fatalf("expected base URL error, got %v", err)
	}

	h.settings.SetBaseURL(ctx, "http://scores.local")
	data, err := h.courts.GenerateQRImage(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	if _, err := h.courts.GenerateQRImage(ctx, "abc"); !errors.Is(err, services.ErrCourtNotFound) {
		t.Errorf("expected court not found, got %v", err)
	}
}

func TestCourtService_ClearCourt(t *testing.T) {
	h := setupCourtService(t)
	ctx := context.Background()

	h.control.AddPoints(ctx, "001", models.SideLeft, 5)
	if err := h.courts.ClearCourt(ctx, "001"); err != nil {
		t.Fatal(err)
	}
	status, _ := h.courts.Status(ctx, "001")
	if status.Active {
		t.Error("cleared court should be inactive")
	}
	state, _ := h.control.State(ctx, "001")
	if state.TeamA.Points != 0 {
		t.Errorf("cleared court should start fresh, got %d", state.TeamA.Points)
	}

	h.repo.DeleteScoreboardError = errors.New("disk full")
	if err := h.courts.ClearCourt(ctx, "001"); err == nil {
		t.Error("expected error")
	}
}
