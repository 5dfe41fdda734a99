package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/models"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

var historyHeader = []interface{}{"#", "Timestamp", "Action", "Team", "Details"}

// HistoryService exports a court's audit trail
type HistoryService struct {
	log     logger.Logger
	control ControlServicer
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(log logger.Logger, control ControlServicer) *HistoryService {
	return &HistoryService{log: log, control: control}
}

// ExportXLSX builds a workbook with a summary sheet and one row per action.
// It returns the workbook bytes and a suggested file name.
func (s *HistoryService) ExportXLSX(ctx context.Context, courtID string) ([]byte, string, error) {
	id, err := s.control.Court(courtID)
	if err != nil {
		return nil, "", err
	}
	state, err := s.control.State(ctx, id.CourtID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summarySheet); err != nil {
		return nil, "", fmt.Errorf("failed to name summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Court", id.DisplayName},
		{"Tournament", state.TournamentName},
		{"Current set", state.CurrentSet},
		{"Team", "Points", "Sets"},
		{state.TeamA.Name, state.TeamA.Points, match.SetWins(&state, id.Variant, models.TeamA)},
		{state.TeamB.Name, state.TeamB.Points, match.SetWins(&state, id.Variant, models.TeamB)},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, "", err
	}

	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, "", fmt.Errorf("failed to create history sheet: %w", err)
	}
	rows := [][]interface{}{historyHeader}
	for i, rec := range state.ActionHistory {
		rows = append(rows, historyRow(i+1, rec))
	}
	if err := writeRows(f, historySheet, rows); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	s.log.Debug("Exported history", "court_id", id.CourtID, "actions", len(state.ActionHistory))
	return buf.Bytes(), fmt.Sprintf("court-%s-history.xlsx", id.CourtID), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// historyRow flattens a record: the team field gets its own column and the
// remaining fields are listed as key=value in name order.
func historyRow(n int, rec models.ActionRecord) []interface{} {
	team := ""
	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		if k == "team" {
			if raw := string(rec.Fields[k]); raw != "null" {
				team = strings.Trim(raw, `"`)
			}
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, k+"="+string(rec.Fields[k]))
	}
	return []interface{}{n, rec.Timestamp, rec.Action, team, strings.Join(details, " ")}
}
