package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/abrezinsky/courtboard/internal/court"
	apperrors "github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/persistence"
	"github.com/abrezinsky/courtboard/internal/repository/mock"
	"github.com/abrezinsky/courtboard/internal/services"
	"github.com/abrezinsky/courtboard/internal/testutil"
)

type published struct {
	kind    string
	courtID string
	state   models.MatchState
	team    models.Team
	number  int
}

// recordingPublisher captures topic messages
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) PublishUpdate(_ context.Context, courtID string, state models.MatchState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{kind: "update", courtID: courtID, state: state})
	return p.err
}

func (p *recordingPublisher) PublishTimeout(_ context.Context, courtID string, team models.Team, number int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{kind: "timeout", courtID: courtID, team: team, number: number})
	return p.err
}

func (p *recordingPublisher) timeouts() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.msgs {
		if m.kind == "timeout" {
			out = append(out, m)
		}
	}
	return out
}

func testCourts() *court.Registry {
	return court.NewRegistry([]court.Entry{
		{ID: "001", Password: "court001"},
		{ID: "002", Name: "Center Court", Password: "court002",
			Variant: match.Variant{SwapPolicy: match.SwapExchange}},
		{ID: "003", Password: "court003",
			Variant: match.Variant{TimeoutSlots: 3, SetTracking: match.SetTrackingPerTeam}},
	})
}

type controlHarness struct {
	svc       *services.ControlService
	store     *persistence.Store
	repo      *mock.Repository
	publisher *recordingPublisher
	registry  *prometheus.Registry
}

func setupControlService(t *testing.T) *controlHarness {
	t.Helper()
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	store := persistence.NewStore(logger.Nop(), repo)
	t.Cleanup(store.Close)

	reg := prometheus.NewRegistry()
	pub := &recordingPublisher{}
	clock := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)
	svc := services.NewControlService(logger.Nop(), store, testCourts(),
		services.WithPublisher(pub),
		services.WithMetrics(metrics.New(reg)),
		services.WithTracer(noop.NewTracerProvider().Tracer("test")),
		services.WithClock(func() time.Time { return clock }),
	)
	return &controlHarness{svc: svc, store: store, repo: repo, publisher: pub, registry: reg}
}

func operations(t *testing.T, reg *prometheus.Registry, op, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, family := range families {
		if family.GetName() != "courtboard_control_operations_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["op"] == op && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// ==================== AddPoints ====================

func TestControlService_AddPoints_Unswapped(t *testing.T) {
	h := setupControlService(t)

	state, err := h.svc.AddPoints(context.Background(), "001", models.SideLeft, 1)
	if err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	if state.TeamA.Points != 1 || state.TeamB.Points != 0 {
		t.Errorf("expected A=1 B=0, got A=%d B=%d", state.TeamA.Points, state.TeamB.Points)
	}
	if state.ServingTeam != models.TeamA {
		t.Errorf("expected A serving, got %q", state.ServingTeam)
	}

	last := state.ActionHistory[len(state.ActionHistory)-1]
	if last.Action != match.ActionScore || last.Timestamp != "2026-05-01T14:30:00.000Z" {
		t.Errorf("audit record = %+v", last)
	}
}

func TestControlService_AddPoints_SwappedResolvesToOtherTeam(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	if _, err := h.svc.ToggleCourtSwap(ctx, "001"); err != nil {
		t.Fatal(err)
	}
	state, err := h.svc.AddPoints(ctx, "001", models.SideLeft, 1)
	if err != nil {
		t.Fatal(err)
	}
	if state.TeamB.Points != 1 || state.TeamA.Points != 0 {
		t.Errorf("left press while swapped should score B, got A=%d B=%d", state.TeamA.Points, state.TeamB.Points)
	}
	if state.ServingTeam != models.TeamB {
		t.Errorf("expected B serving, got %q", state.ServingTeam)
	}
}

func TestControlService_AddPoints_NegativeCorrection(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideRight, 2)
	state, err := h.svc.AddPoints(ctx, "001", models.SideRight, -5)
	if err != nil {
		t.Fatal(err)
	}
	if state.TeamB.Points != 0 {
		t.Errorf("points should clamp at 0, got %d", state.TeamB.Points)
	}
	if state.ServingTeam != models.TeamB {
		t.Errorf("a correction must not move the serve, got %q", state.ServingTeam)
	}
}

func TestControlService_AddPoints_ExchangePolicyKeepsPositions(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "002", models.SideLeft, 3)
	state, err := h.svc.ToggleCourtSwap(ctx, "002")
	if err != nil {
		t.Fatal(err)
	}
	if state.TeamB.Points != 3 || state.TeamA.Name != match.DefaultTeamBName {
		t.Fatalf("exchange should move the records, got %+v", state)
	}

	state, _ = h.svc.AddPoints(ctx, "002", models.SideLeft, 1)
	if state.TeamA.Points != 1 {
		t.Errorf("left stays bound to the A record under exchange, got A=%d", state.TeamA.Points)
	}
}

func TestControlService_Errors(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	_, err := h.svc.AddPoints(ctx, "042", models.SideLeft, 1)
	if !errors.Is(err, services.ErrCourtNotFound) || !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("unknown court: got %v", err)
	}

	_, err = h.svc.AddPoints(ctx, "001", models.Side("middle"), 1)
	if !errors.Is(err, services.ErrInvalidSide) {
		t.Errorf("invalid side: got %v", err)
	}

	if got := operations(t, h.registry, services.OpAddPoints, metrics.ResultError); got != 2 {
		t.Errorf("error count = %v", got)
	}
}

// ==================== Timeouts ====================

func TestControlService_ToggleTimeout_PublishesSlot(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	var numbers []int
	for i := 0; i < 3; i++ {
		_, res, err := h.svc.ToggleTimeout(ctx, "1", models.SideRight)
		if err != nil {
			t.Fatal(err)
		}
		if res.Team != models.TeamB {
			t.Errorf("right side unswapped is B, got %q", res.Team)
		}
		numbers = append(numbers, res.TimeoutNumber)
	}
	if numbers[0] != 1 || numbers[1] != 2 || numbers[2] != 0 {
		t.Errorf("timeout numbers = %v, want [1 2 0]", numbers)
	}

	msgs := h.publisher.timeouts()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 timeout messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.courtID != "001" || m.team != models.TeamB || m.number != numbers[i] {
			t.Errorf("message %d = %+v", i, m)
		}
	}
}

func TestControlService_ToggleTimeout_ThreeSlotCourt(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	var state models.MatchState
	for i := 0; i < 3; i++ {
		state, _, _ = h.svc.ToggleTimeout(ctx, "003", models.SideLeft)
	}
	if len(state.TeamA.Timeouts) != 3 || !state.TeamA.Timeouts[2] {
		t.Errorf("timeouts = %v", state.TeamA.Timeouts)
	}
}

// ==================== Confirmation ====================

func TestControlService_ResetSet_RequiresConfirmation(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideLeft, 7)
	saves := h.repo.Saves

	_, err := h.svc.ResetSet(ctx, "001", false)
	if !errors.Is(err, services.ErrConfirmationRequired) || !apperrors.IsKind(err, apperrors.ErrConfirmation) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if h.repo.Saves != saves {
		t.Error("unconfirmed reset should not write")
	}

	state, err := h.svc.ResetSet(ctx, "001", true)
	if err != nil {
		t.Fatal(err)
	}
	if state.TeamA.Points != 0 || state.ServingTeam != models.NoTeam {
		t.Errorf("reset left %+v", state)
	}
}

func TestControlService_ResetAll(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideLeft, 7)
	if _, err := h.svc.ResetAll(ctx, "001", false, nil); !errors.Is(err, services.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}

	state, err := h.svc.ResetAll(ctx, "001", true, &match.Setup{TournamentName: "Beach Open", TeamA: "Sharks"})
	if err != nil {
		t.Fatal(err)
	}
	if state.TournamentName != "Beach Open" || state.TeamA.Name != "Sharks" || state.TeamB.Name != match.DefaultTeamBName {
		t.Errorf("setup not applied: %+v", state)
	}
	if state.TeamA.Points != 0 || len(state.ActionHistory) != 0 {
		t.Errorf("reset all should clear everything, got %+v", state)
	}
}

// ==================== Sets ====================

func TestControlService_FinalizeSet_RejectsTie(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideLeft, 20)
	h.svc.AddPoints(ctx, "001", models.SideRight, 20)
	saves := h.repo.Saves

	_, _, err := h.svc.FinalizeSet(ctx, "001")
	if !errors.Is(err, services.ErrTiedSet) {
		t.Fatalf("expected tied set error, got %v", err)
	}
	if h.repo.Saves != saves {
		t.Error("rejected finalize should not write")
	}
}

func TestControlService_FinalizeSet_MatchOver(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AdjustSetScore(ctx, "001", models.SideLeft, 2)
	h.svc.AdjustSetScore(ctx, "001", models.SideRight, 2)
	h.svc.AddPoints(ctx, "001", models.SideLeft, 15)
	h.svc.AddPoints(ctx, "001", models.SideRight, 12)

	state, result, err := h.svc.FinalizeSet(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	if !result.MatchOver || result.Winner != models.TeamA {
		t.Errorf("result = %+v", result)
	}
	if result.Summary != "Home 3 - 2 Away" {
		t.Errorf("summary = %q", result.Summary)
	}
	if state.SetScore[0] != 3 || state.SetScore[1] != 2 {
		t.Errorf("setScore = %v", state.SetScore)
	}
	if state.ActionHistory[len(state.ActionHistory)-1].Action != match.ActionGameEnd {
		t.Error("expected game_end audit record")
	}
}

func TestControlService_FinalizeSet_Advances(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "003", models.SideRight, 25)
	state, result, err := h.svc.FinalizeSet(ctx, "003")
	if err != nil {
		t.Fatal(err)
	}
	if result.MatchOver || result.Winner != models.TeamB {
		t.Errorf("result = %+v", result)
	}
	if state.CurrentSet != 2 || state.TeamB.SetsWon == nil || *state.TeamB.SetsWon != 1 {
		t.Errorf("state = %+v", state)
	}
	if state.SetScore != nil {
		t.Errorf("per-team court should not carry setScore, got %v", state.SetScore)
	}
}

// ==================== Video review & edits ====================

func TestControlService_VideoReview(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	state, err := h.svc.ToggleVideoReview(ctx, "001", "Net touch")
	if err != nil {
		t.Fatal(err)
	}
	if !state.VideoReviewActive || state.VideoReviewType == nil || *state.VideoReviewType != "Net touch" {
		t.Errorf("review not started: %+v", state)
	}

	state, _ = h.svc.EndVideoReview(ctx, "001")
	if state.VideoReviewActive {
		t.Error("review not ended")
	}
}

func TestControlService_Edit(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()
	h.svc.ToggleCourtSwap(ctx, "001")

	state, err := h.svc.Edit(ctx, "001", services.EditRequest{Field: match.FieldTeamName, Side: models.SideRight, Value: "  Sharks "})
	if err != nil {
		t.Fatal(err)
	}
	if state.TeamA.Name != "Sharks" {
		t.Errorf("right side while swapped is team A, got A=%q B=%q", state.TeamA.Name, state.TeamB.Name)
	}

	state, err = h.svc.Edit(ctx, "001", services.EditRequest{Field: match.FieldTournamentName, Value: "Summer Cup"})
	if err != nil || state.TournamentName != "Summer Cup" {
		t.Errorf("tournament edit: %v %q", err, state.TournamentName)
	}

	tests := []struct {
		name string
		req  services.EditRequest
		want error
	}{
		{"too long", services.EditRequest{Field: match.FieldTeamName, Side: models.SideLeft, Value: "Volleyballers"}, services.ErrNameTooLong},
		{"empty", services.EditRequest{Field: match.FieldTournamentName, Value: "   "}, services.ErrEmptyName},
		{"unknown field", services.EditRequest{Field: "score", Value: "1"}, services.ErrUnknownField},
		{"missing side", services.EditRequest{Field: match.FieldTeamName, Value: "Gulls"}, services.ErrInvalidSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Edit(ctx, "001", tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if !apperrors.IsKind(err, apperrors.ErrValidation) {
				t.Errorf("expected validation kind, got %v", err)
			}
		})
	}

	if got, _ := h.svc.State(ctx, "001"); got.TeamA.Name != "Sharks" {
		t.Errorf("failed edits changed state: %+v", got)
	}
}

// ==================== Propagation ====================

func TestControlService_PublishesEveryWrite(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideLeft, 1)
	h.svc.ToggleCourtSwap(ctx, "001")
	h.svc.ResetSet(ctx, "001", false)

	h.publisher.mu.Lock()
	defer h.publisher.mu.Unlock()
	if len(h.publisher.msgs) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(h.publisher.msgs))
	}
	if !h.publisher.msgs[1].state.CourtSwapped {
		t.Error("update should carry the new state")
	}
}

func TestControlService_PublishFailureDoesNotFailOperation(t *testing.T) {
	h := setupControlService(t)
	h.publisher.err = errors.New("broker down")

	state, err := h.svc.AddPoints(context.Background(), "001", models.SideLeft, 1)
	if err != nil || state.TeamA.Points != 1 {
		t.Errorf("got %+v, %v", state.TeamA, err)
	}
}

func TestControlService_View(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	h.svc.AddPoints(ctx, "001", models.SideLeft, 4)
	h.svc.ToggleCourtSwap(ctx, "001")

	view, err := h.svc.View(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	if view.RightScore != 4 || view.ServerSide != models.SideRight {
		t.Errorf("view = %+v", view)
	}
}

func TestControlService_ConcurrentPresses(t *testing.T) {
	h := setupControlService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := models.SideLeft
			if i%2 == 1 {
				side = models.SideRight
			}
			if _, err := h.svc.AddPoints(ctx, "001", side, 1); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	state, _ := h.svc.State(ctx, "001")
	if state.TeamA.Points != 15 || state.TeamB.Points != 15 {
		t.Errorf("lost updates: A=%d B=%d", state.TeamA.Points, state.TeamB.Points)
	}
}
