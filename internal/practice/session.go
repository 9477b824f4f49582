package practice

import (
	"slices"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/prep-service/internal/models"
)

// Outcome tags the result of a submission
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeAlreadySubmitted Outcome = "already_submitted"
)

// SubmitResult is returned for every submission. On a repeat submission the
// originally graded values are returned with OutcomeAlreadySubmitted.
type SubmitResult struct {
	Outcome        Outcome `json:"outcome"`
	QuestionID     uint    `json:"question_id"`
	SelectedAnswer int     `json:"selected_answer"`
	IsCorrect      bool    `json:"is_correct"`
}

// Summary is computed when a session completes
type Summary struct {
	Answered         int                     `json:"answered"`
	Correct          int                     `json:"correct"`
	ScorePercent     float64                 `json:"score_percent"`
	TimeSpentSeconds int                     `json:"time_spent_seconds"`
	TopicPerformance models.TopicPerformance `json:"topic_performance"`
}

// Session applies the practice rules to a persisted session and its states.
// It never touches storage; callers persist Record and the returned states.
type Session struct {
	Record *models.PracticeSession
	states map[uint]*models.SessionQuestionState
}

// New creates a fresh in-progress session over order
func New(id, userID string, mode models.SessionMode, order []uint, timeLimitMinutes *int, filters models.SessionFilters, now time.Time) (*Session, error) {
	if mode != models.ModeTutor && mode != models.ModeTimed {
		return nil, ErrInvalidMode
	}
	if len(order) == 0 {
		return nil, ErrEmptyQuestionOrder
	}
	if timeLimitMinutes != nil && *timeLimitMinutes <= 0 {
		return nil, ErrInvalidTimeLimit
	}
	seen := make(map[uint]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateQuestion
		}
		seen[id] = struct{}{}
	}

	record := &models.PracticeSession{
		ID:               id,
		UserID:           userID,
		Mode:             mode,
		Status:           models.SessionInProgress,
		QuestionOrder:    slices.Clone(order),
		TimeLimitMinutes: timeLimitMinutes,
		Filters:          datatypes.NewJSONType(filters),
		StartedAt:        now,
	}

	return Load(record, nil), nil
}

// Load wraps an existing session and its stored question states
func Load(record *models.PracticeSession, states []*models.SessionQuestionState) *Session {
	s := &Session{
		Record: record,
		states: make(map[uint]*models.SessionQuestionState, len(states)),
	}
	for _, st := range states {
		s.states[st.QuestionID] = st
	}
	return s
}

func (s *Session) Len() int {
	return len(s.Record.QuestionOrder)
}

// Contains reports whether questionID belongs to the session
func (s *Session) Contains(questionID uint) bool {
	return slices.Contains(s.Record.QuestionOrder, questionID)
}

// State returns the stored state for questionID, or a blank one
func (s *Session) State(questionID uint) *models.SessionQuestionState {
	if st, ok := s.states[questionID]; ok {
		return st
	}
	st := &models.SessionQuestionState{
		UserID:     s.Record.UserID,
		SessionID:  s.Record.ID,
		QuestionID: questionID,
	}
	s.states[questionID] = st
	return st
}

// States returns the state of every question in order, blank where untouched
func (s *Session) States() []*models.SessionQuestionState {
	out := make([]*models.SessionQuestionState, 0, s.Len())
	for _, id := range s.Record.QuestionOrder {
		out = append(out, s.State(id))
	}
	return out
}

// Expired reports whether a time limit exists and now is past it
func (s *Session) Expired(now time.Time) bool {
	deadline, ok := s.Record.Deadline()
	return ok && !now.Before(deadline)
}

// Revealed reports whether the correct answer and explanation of questionID
// may be shown. Tutor mode reveals on submission, timed mode on completion.
func (s *Session) Revealed(questionID uint) bool {
	if s.Record.Status == models.SessionCompleted {
		return true
	}
	if s.Record.Mode == models.ModeTimed {
		return false
	}
	st, ok := s.states[questionID]
	return ok && st.Submitted()
}

// GoTo moves to index i. Navigation is allowed in any status for review.
func (s *Session) GoTo(i int) (uint, error) {
	if i < 0 || i >= s.Len() {
		return 0, ErrIndexOutOfRange
	}
	s.Record.CurrentQuestionIndex = i
	return s.Record.QuestionOrder[i], nil
}

// Select records a tentative answer to q
func (s *Session) Select(q *models.Question, option int) (*models.SessionQuestionState, error) {
	st, err := s.mutable(q.ID)
	if err != nil {
		return nil, err
	}
	if st.Submitted() {
		return nil, ErrAnswerLocked
	}
	if !q.ValidOption(option) {
		return nil, ErrInvalidOption
	}
	st.SelectedAnswer = &option
	return st, nil
}

// Submit grades the current selection against correctIndex
func (s *Session) Submit(questionID uint, correctIndex int, now time.Time) (SubmitResult, *models.SessionQuestionState, error) {
	st, err := s.mutable(questionID)
	if err != nil {
		return SubmitResult{}, nil, err
	}

	if st.Submitted() {
		res := SubmitResult{Outcome: OutcomeAlreadySubmitted, QuestionID: questionID, IsCorrect: *st.IsCorrect}
		if st.SelectedAnswer != nil {
			res.SelectedAnswer = *st.SelectedAnswer
		}
		return res, st, nil
	}
	if st.SelectedAnswer == nil {
		return SubmitResult{}, nil, ErrNoSelection
	}

	correct := *st.SelectedAnswer == correctIndex
	st.IsCorrect = &correct
	st.SubmittedAt = &now

	return SubmitResult{
		Outcome:        OutcomeOK,
		QuestionID:     questionID,
		SelectedAnswer: *st.SelectedAnswer,
		IsCorrect:      correct,
	}, st, nil
}

func (s *Session) ToggleFlag(questionID uint) (*models.SessionQuestionState, error) {
	st, err := s.mutable(questionID)
	if err != nil {
		return nil, err
	}
	st.IsFlagged = !st.IsFlagged
	return st, nil
}

// ToggleStrikethrough adds or removes option from the struck set of q
func (s *Session) ToggleStrikethrough(q *models.Question, option int) (*models.SessionQuestionState, error) {
	st, err := s.mutable(q.ID)
	if err != nil {
		return nil, err
	}
	if !q.ValidOption(option) {
		return nil, ErrInvalidOption
	}

	if i := slices.Index(st.Strikethroughs, option); i >= 0 {
		st.Strikethroughs = slices.Delete(st.Strikethroughs, i, i+1)
	} else {
		st.Strikethroughs = append(st.Strikethroughs, option)
		slices.Sort(st.Strikethroughs)
	}
	return st, nil
}

func (s *Session) AddHighlight(questionID uint, h models.Highlight) (*models.SessionQuestionState, error) {
	st, err := s.mutable(questionID)
	if err != nil {
		return nil, err
	}
	if h.Start < 0 || h.End <= h.Start {
		return nil, ErrInvalidHighlight
	}
	st.Highlights = append(st.Highlights, h)
	return st, nil
}

// AddTime accumulates time spent on a question; it never decreases.
func (s *Session) AddTime(questionID uint, seconds int) (*models.SessionQuestionState, error) {
	if seconds < 0 {
		return nil, ErrNegativeTime
	}
	st, err := s.mutable(questionID)
	if err != nil {
		return nil, err
	}
	st.TimeSpentSeconds += seconds
	return st, nil
}

// Complete scores every selected answer and ends the session. A selection
// that was never submitted is graded here against its question in items and
// returned with the other states it changed. Questions missing from items keep
// their submitted grade and add nothing to the topic breakdown.
func (s *Session) Complete(items map[uint]*models.Question, now time.Time) (Summary, []*models.SessionQuestionState, error) {
	if s.Record.Status != models.SessionInProgress {
		return Summary{}, nil, ErrSessionNotActive
	}

	var graded []*models.SessionQuestionState
	sum := Summary{TopicPerformance: models.TopicPerformance{}}
	for _, id := range s.Record.QuestionOrder {
		st, ok := s.states[id]
		if !ok || st.SelectedAnswer == nil {
			continue
		}
		q := items[id]
		if !st.Submitted() {
			if q == nil {
				continue
			}
			correct := *st.SelectedAnswer == q.CorrectAnswerIndex
			st.IsCorrect = &correct
			st.SubmittedAt = &now
			graded = append(graded, st)
		}

		sum.Answered++
		sum.TimeSpentSeconds += st.TimeSpentSeconds
		if *st.IsCorrect {
			sum.Correct++
		}
		if q != nil {
			ts := sum.TopicPerformance[q.Topic]
			ts.Total++
			if *st.IsCorrect {
				ts.Correct++
			}
			sum.TopicPerformance[q.Topic] = ts
		}
	}
	if sum.Answered > 0 {
		sum.ScorePercent = 100 * float64(sum.Correct) / float64(sum.Answered)
	}

	score := sum.ScorePercent
	s.Record.Status = models.SessionCompleted
	s.Record.ScorePercent = &score
	s.Record.CompletedAt = &now

	return sum, graded, nil
}

// Abandon ends an in-progress session without scoring it
func (s *Session) Abandon(now time.Time) error {
	if s.Record.Status != models.SessionInProgress {
		return ErrSessionNotActive
	}
	s.Record.Status = models.SessionAbandoned
	s.Record.CompletedAt = &now
	return nil
}

func (s *Session) mutable(questionID uint) (*models.SessionQuestionState, error) {
	if s.Record.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}
	if !s.Contains(questionID) {
		return nil, ErrQuestionNotInSession
	}
	return s.State(questionID), nil
}
