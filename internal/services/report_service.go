package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

const (
	sheetPredictions = "Predictions"
	sheetAttempts    = "Attempts"

	// attempts included in an export
	exportAttemptLimit = 500
)

var (
	predictionHeader = []any{
		"Date", "Step 1 Score", "Step 2 Score", "Pass Probability Step 1", "Pass Probability Step 2",
		"Match Probability", "Confidence Low", "Confidence High", "Percentile",
		"Question Accuracy", "Clinical Reasoning", "Knowledge Coverage", "Speed Efficiency", "Performance Trend",
	}
	attemptHeader = []any{
		"Completed At", "Source", "Session", "Total Questions", "Correct Answers", "Accuracy %", "Time Taken (s)",
	}
)

type reportService struct {
	serviceDeps
	predictions PredictionService
}

func NewReportService(deps serviceDeps) ReportService {
	return &reportService{
		serviceDeps: deps,
		predictions: &predictionService{serviceDeps: deps},
	}
}

func (s *reportService) ExportHistory(ctx context.Context, userID string, query *HistoryQuery, w io.Writer) error {
	history, err := s.predictions.History(ctx, userID, query)
	if err != nil {
		return err
	}

	attempts, _, err := s.repo.Attempt().ListByUser(ctx, nil, userID, repositories.AttemptFilters{
		Limit:     exportAttemptLimit,
		SortOrder: "desc",
	})
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close export workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetPredictions); err != nil {
		return fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if _, err := f.NewSheet(sheetAttempts); err != nil {
		return fmt.Errorf("failed to prepare workbook: %w", err)
	}

	rows := make([][]any, 0, len(history.Snapshots)+1)
	rows = append(rows, predictionHeader)
	for _, snap := range history.Snapshots {
		factors := snap.ContributingFactors.Data()
		rows = append(rows, []any{
			snap.SnapshotDate, snap.PredictedStep1Score, snap.PredictedStep2Score,
			snap.PassProbabilityStep1, snap.PassProbabilityStep2, snap.MatchProbability,
			snap.ConfidenceLow, snap.ConfidenceHigh, snap.Percentile,
			factors.QuestionAccuracy, factors.ClinicalReasoning, factors.KnowledgeCoverage,
			factors.SpeedEfficiency, factors.PerformanceTrend,
		})
	}
	if err := writeRows(f, sheetPredictions, rows); err != nil {
		return err
	}

	rows = rows[:0]
	rows = append(rows, attemptHeader)
	for _, a := range attempts {
		session := ""
		if a.SessionID != nil {
			session = *a.SessionID
		}
		rows = append(rows, []any{
			a.CreatedAt.UTC().Format("2006-01-02 15:04:05"), string(a.Source), session,
			a.TotalQuestions, a.CorrectAnswers, a.Accuracy(), a.TimeTakenSeconds,
		})
	}
	if err := writeRows(f, sheetAttempts, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Prediction history exported",
		"user_id", userID,
		"snapshots", len(history.Snapshots),
		"attempts", len(attempts))
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
