package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

// SharedHelpers contains common query building used by several repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyQuestionFilters applies pool filters; dimensions combine with AND
func (h *SharedHelpers) ApplyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if len(filters.Subjects) > 0 {
		query = query.Where("subject IN ?", filters.Subjects)
	}
	if len(filters.Systems) > 0 {
		query = query.Where("system IN ?", filters.Systems)
	}
	if len(filters.Difficulties) > 0 {
		query = query.Where("difficulty IN ?", filters.Difficulties)
	}
	if len(filters.SpecialtyIDs) > 0 {
		query = query.Where("specialty_id IN ?", filters.SpecialtyIDs)
	}
	if filters.Topic != nil {
		query = query.Where("topic = ?", *filters.Topic)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	return query
}

// ApplyPaginationAndSort orders by a whitelisted column and pages the query
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool, defaultSort string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = defaultSort
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	// id breaks ties so pages are stable
	query = query.Order(sortBy + " " + sortOrder)
	if sortBy != "id" {
		query = query.Order("id " + sortOrder)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
