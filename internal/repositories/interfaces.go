package repositories

import (
	"github.com/SAP-F-2025/prep-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// QuestionFilters narrows the pool. Dimensions combine with AND; an empty
// slice places no restriction on its dimension.
type QuestionFilters struct {
	Subjects     []string                 `json:"subjects"`
	Systems      []string                 `json:"systems"`
	Difficulties []models.DifficultyLevel `json:"difficulties"`
	SpecialtyIDs []string                 `json:"specialty_ids"`
	Topic        *string                  `json:"topic"`
	IsActive     *bool                    `json:"is_active"`
	Limit        int                      `json:"limit"`
	Offset       int                      `json:"offset"`
	SortBy       string                   `json:"sort_by"`    // "id", "subject", "system", "topic", "difficulty", "created_at"
	SortOrder    string                   `json:"sort_order"` // "asc", "desc"
}

// ActivePool turns session filters into a query over active questions only
func ActivePool(f models.SessionFilters) QuestionFilters {
	active := true
	return QuestionFilters{
		Subjects:     f.Subjects,
		Systems:      f.Systems,
		Difficulties: f.Difficulties,
		SpecialtyIDs: f.SpecialtyIDs,
		IsActive:     &active,
	}
}

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	Mode      *models.SessionMode   `json:"mode"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortOrder string                `json:"sort_order"` // by created_at, "asc" or "desc"
}

type AttemptFilters struct {
	Source    *models.AttemptSource `json:"source"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortOrder string                `json:"sort_order"` // by created_at, default "desc"
}

// PredictionFilters bound snapshot history by inclusive YYYY-MM-DD dates
type PredictionFilters struct {
	DateFrom *string `json:"date_from"`
	DateTo   *string `json:"date_to"`
	Limit    int     `json:"limit"`
}
