package services

import (
	"errors"

	"github.com/SAP-F-2025/prep-service/internal/practice"
)

// ===== SESSION ERRORS =====

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAccessDenied  = errors.New("access denied to session")
	ErrSessionNotActive     = practice.ErrSessionNotActive
	ErrSessionTimeExpired   = practice.ErrTimeExpired
	ErrQuestionNotInSession = practice.ErrQuestionNotInSession
	ErrInvalidOptionIndex   = practice.ErrInvalidOption
	ErrIndexOutOfRange      = practice.ErrIndexOutOfRange
	ErrNoAnswerSelected     = practice.ErrNoSelection
	ErrAnswerLocked         = practice.ErrAnswerLocked
	ErrInvalidHighlight     = practice.ErrInvalidHighlight
	ErrNegativeTime         = practice.ErrNegativeTime
	ErrInvalidQuestionCount = practice.ErrInvalidQuestionCount
	ErrInvalidMode          = practice.ErrInvalidMode
)

// ===== POOL ERRORS =====

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidImport    = errors.New("invalid question import file")
)

// ===== GENERIC ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)

// IsInputError reports whether err is caused by the request rather than by
// the service or its storage
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrValidationFailed, ErrInvalidOptionIndex, ErrIndexOutOfRange,
		ErrNoAnswerSelected, ErrInvalidHighlight, ErrNegativeTime,
		ErrInvalidQuestionCount, ErrInvalidMode, ErrInvalidImport,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
