package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
)

// Import columns, matched case-insensitively against the header row. Options
// are read from option_a through option_j; correct_answer is a letter or a
// 1-based number.
const (
	colSubject       = "subject"
	colSystem        = "system"
	colTopic         = "topic"
	colDifficulty    = "difficulty"
	colSpecialty     = "specialty_id"
	colStem          = "stem"
	colCorrectAnswer = "correct_answer"
	colExplanation   = "explanation"
)

const maxImportOptions = 10

var requiredImportColumns = []string{colSubject, colSystem, colTopic, colStem, colCorrectAnswer}

// Import reads the first sheet of an xlsx workbook. Rows are validated like
// batch items; any invalid row rejects the whole file.
func (s *questionService) Import(ctx context.Context, r io.Reader, creatorID string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close import workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidImport)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidImport)
	}
	if len(rows)-1 > s.config.MaxImportRows {
		return nil, fmt.Errorf("%w: more than %d rows", ErrInvalidImport, s.config.MaxImportRows)
	}

	header := importHeader(rows[0])
	for _, col := range requiredImportColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidImport, col)
		}
	}

	result := &ImportResult{}
	questions := make([]*models.Question, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			continue
		}

		req, err := parseImportRow(header, row)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if errs := s.validator.ValidateQuestionCreate(req); len(errs) > 0 {
			for _, e := range errs {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: e.Field + " " + e.Message})
			}
			continue
		}
		questions = append(questions, newQuestion(req, creatorID))
	}

	if len(result.Errors) > 0 {
		s.logger.Info("Question import rejected", "errors", len(result.Errors), "creator_id", creatorID)
		return result, nil
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidImport)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.Question().CreateBatch(ctx, tx, questions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import questions: %w", err)
	}
	cache.InvalidateQuestionCache(ctx, s.cache)

	result.Created = len(questions)
	s.logger.Info("Questions imported", "count", result.Created, "creator_id", creatorID)
	return result, nil
}

func importHeader(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if key != "" {
			header[key] = i
		}
	}
	return header
}

func parseImportRow(header map[string]int, row []string) (*CreateQuestionRequest, error) {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	req := &CreateQuestionRequest{
		Subject:    cell(colSubject),
		System:     cell(colSystem),
		Topic:      cell(colTopic),
		Difficulty: models.DifficultyLevel(strings.ToLower(cell(colDifficulty))),
		Stem:       cell(colStem),
	}
	if v := cell(colSpecialty); v != "" {
		req.SpecialtyID = &v
	}
	if v := cell(colExplanation); v != "" {
		req.Explanation = &v
	}

	for i := range maxImportOptions {
		v := cell("option_" + string(rune('a'+i)))
		if v == "" {
			break
		}
		req.Options = append(req.Options, v)
	}

	answer := cell(colCorrectAnswer)
	index, err := parseAnswerIndex(answer)
	if err != nil {
		return nil, err
	}
	req.CorrectAnswerIndex = &index
	return req, nil
}

// parseAnswerIndex accepts "B" or "2" for the second option
func parseAnswerIndex(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("correct_answer is required")
	}
	if len(v) == 1 {
		c := strings.ToUpper(v)[0]
		if c >= 'A' && c < 'A'+maxImportOptions {
			return int(c - 'A'), nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxImportOptions {
		return 0, fmt.Errorf("correct_answer %q is not an option letter or number", v)
	}
	return n - 1, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
