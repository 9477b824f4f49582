package practice

import "errors"

var (
	ErrInvalidQuestionCount = errors.New("question count must be positive")
	ErrInvalidMode          = errors.New("invalid session mode")
	ErrInvalidTimeLimit     = errors.New("time limit must be positive")
	ErrEmptyQuestionOrder   = errors.New("session has no questions")
	ErrDuplicateQuestion    = errors.New("question appears twice in session")
	ErrSessionNotActive     = errors.New("session is not in progress")
	ErrQuestionNotInSession = errors.New("question is not part of this session")
	ErrIndexOutOfRange      = errors.New("question index out of range")
	ErrInvalidOption        = errors.New("option index out of range")
	ErrNoSelection          = errors.New("no answer selected")
	ErrAnswerLocked         = errors.New("answer already submitted")
	ErrInvalidHighlight     = errors.New("highlight range is invalid")
	ErrNegativeTime         = errors.New("time spent cannot decrease")
	ErrTimeExpired          = errors.New("session time limit exceeded")
)
