package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/observability"
	"github.com/SAP-F-2025/prep-service/internal/practice"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type sessionService struct {
	serviceDeps
	shuffler practice.Shuffler
}

func NewSessionService(deps serviceDeps, shuffler practice.Shuffler) SessionService {
	if shuffler == nil {
		shuffler = practice.DefaultShuffler()
	}
	return &sessionService{
		serviceDeps: deps,
		shuffler:    shuffler,
	}
}

// completion is what a completing transaction hands to the post-commit steps
type completion struct {
	session *models.PracticeSession
	summary practice.Summary
	attempt *models.AttemptRecord
}

// ===== LIFECYCLE =====

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest, userID string) (*SessionCreateResponse, error) {
	s.logger.Info("Creating practice session",
		"user_id", userID,
		"mode", req.Mode,
		"question_count", req.QuestionCount)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "session.create")
	defer span.End()

	filters := req.Filters()
	pool, err := s.repo.Question().ListIDs(ctx, nil, repositories.ActivePool(filters))
	if err != nil {
		span.SetStatus(codes.Error, "pool query failed")
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	order, err := practice.SelectQuestions(pool, req.QuestionCount, s.shuffler)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		s.logger.Info("No questions match session filters", "user_id", userID)
		return &SessionCreateResponse{
			Available: false,
			Message:   "No questions match the selected filters",
		}, nil
	}

	ps, err := practice.New(uuid.NewString(), userID, req.Mode, order, req.TimeLimitMinutes, filters, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Session().Create(ctx, nil, ps.Record); err != nil {
		span.SetStatus(codes.Error, "session insert failed")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("session.id", ps.Record.ID),
		attribute.String("session.mode", string(ps.Record.Mode)),
		attribute.Int("session.questions", len(order)))

	resp, err := s.buildResponse(ctx, nil, ps)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Practice session created",
		"session_id", ps.Record.ID,
		"user_id", userID,
		"questions", len(order),
		"pool_size", len(pool))

	return &SessionCreateResponse{Available: true, Session: resp}, nil
}

// Get resumes a session with its fixed order and per-question state
func (s *sessionService) Get(ctx context.Context, sessionID, userID string) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.withSession(ctx, sessionID, userID, true, func(tx *gorm.DB, ps *practice.Session) error {
		var err error
		resp, err = s.buildResponse(ctx, tx, ps)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *sessionService) List(ctx context.Context, query *SessionListQuery, userID string) (*SessionListResponse, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}

	filters := repositories.SessionFilters{
		Limit:  s.pageSize(query.Limit),
		Offset: query.Offset,
	}
	if query.Status != "" {
		status := query.Status
		filters.Status = &status
	}
	if query.Mode != "" {
		mode := query.Mode
		filters.Mode = &mode
	}

	sessions, total, err := s.repo.Session().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &SessionListResponse{
		Sessions: sessions,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID, userID string) (*SessionSummaryResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "session.complete",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	var done *completion
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		ps, err := s.load(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}
		if ps.Record.Status != models.SessionInProgress {
			return ErrSessionNotActive
		}
		done, err = s.complete(ctx, tx, ps, s.now().UTC())
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.afterComplete(ctx, done)

	s.logger.Info("Practice session completed",
		"session_id", sessionID,
		"user_id", userID,
		"answered", done.summary.Answered,
		"correct", done.summary.Correct,
		"score_percent", done.summary.ScorePercent)

	return &SessionSummaryResponse{
		Session:   done.session,
		Summary:   done.summary,
		AttemptID: done.attempt.ID,
	}, nil
}

// Abandon ends an in-progress session without producing an attempt record
func (s *sessionService) Abandon(ctx context.Context, sessionID, userID string) (*models.PracticeSession, error) {
	var record *models.PracticeSession
	answered := 0
	err := s.withSession(ctx, sessionID, userID, false, func(tx *gorm.DB, ps *practice.Session) error {
		if err := ps.Abandon(s.now().UTC()); err != nil {
			return err
		}
		if err := s.repo.Session().Update(ctx, tx, ps.Record); err != nil {
			return fmt.Errorf("failed to abandon session: %w", err)
		}
		for _, st := range ps.States() {
			if st.SelectedAnswer != nil {
				answered++
			}
		}
		record = ps.Record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionAbandoned, userID, events.SessionAbandonedEvent{
		SessionID: sessionID,
		Answered:  answered,
	})

	s.logger.Info("Practice session abandoned", "session_id", sessionID, "user_id", userID)
	return record, nil
}

// ===== QUESTION INTERACTION =====

// GoTo moves the session cursor. Review navigation works in any status.
func (s *sessionService) GoTo(ctx context.Context, sessionID, userID string, req *NavigateRequest) (*SessionQuestionView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var view *SessionQuestionView
	err := s.withSession(ctx, sessionID, userID, true, func(tx *gorm.DB, ps *practice.Session) error {
		questionID, err := ps.GoTo(*req.Index)
		if err != nil {
			return err
		}
		// the cursor of a finished session is not persisted
		if !ps.Record.Status.IsTerminal() {
			if err := s.repo.Session().Update(ctx, tx, ps.Record); err != nil {
				return fmt.Errorf("failed to update session position: %w", err)
			}
		}
		q, err := s.question(ctx, tx, questionID)
		if err != nil {
			return err
		}
		view = s.view(ps, *req.Index, q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Answer records a selection and grades it unless the request asks not to.
// A repeat submission returns the originally graded answer.
func (s *sessionService) Answer(ctx context.Context, sessionID string, questionID uint, userID string, req *AnswerRequest) (*AnswerResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var resp *AnswerResponse
	err := s.withSession(ctx, sessionID, userID, false, func(tx *gorm.DB, ps *practice.Session) error {
		q, err := s.sessionQuestion(ctx, tx, ps, questionID)
		if err != nil {
			return err
		}

		st := ps.State(questionID)
		changed := false
		// a locked answer is reported through the submission, not as an error
		if req.SelectedAnswer != nil && !(st.Submitted() && req.ShouldSubmit()) {
			if st, err = ps.Select(q, *req.SelectedAnswer); err != nil {
				return err
			}
			changed = true
		}

		resp = &AnswerResponse{QuestionID: questionID}
		if req.ShouldSubmit() {
			result, graded, err := ps.Submit(questionID, q.CorrectAnswerIndex, s.now().UTC())
			if err != nil {
				return err
			}
			st = graded
			resp.Outcome = result.Outcome
			changed = changed || result.Outcome == practice.OutcomeOK
		}

		if changed {
			if err := s.repo.Session().UpsertState(ctx, tx, st); err != nil {
				return fmt.Errorf("failed to save answer: %w", err)
			}
		}

		resp.Submitted = st.Submitted()
		resp.SelectedAnswer = st.SelectedAnswer
		resp.State = visibleState(ps, st)
		if ps.Revealed(questionID) {
			correct := q.CorrectAnswerIndex
			resp.IsCorrect = st.IsCorrect
			resp.CorrectAnswerIndex = &correct
			resp.Explanation = q.Explanation
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Answer processed",
		"session_id", sessionID,
		"question_id", questionID,
		"outcome", resp.Outcome)

	return resp, nil
}

func (s *sessionService) ToggleFlag(ctx context.Context, sessionID string, questionID uint, userID string) (*models.SessionQuestionState, error) {
	return s.mutateState(ctx, sessionID, questionID, userID, "flag",
		func(ps *practice.Session, _ *models.Question) (*models.SessionQuestionState, error) {
			return ps.ToggleFlag(questionID)
		})
}

func (s *sessionService) ToggleStrikethrough(ctx context.Context, sessionID string, questionID uint, userID string, req *StrikethroughRequest) (*models.SessionQuestionState, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateState(ctx, sessionID, questionID, userID, "strikethrough",
		func(ps *practice.Session, q *models.Question) (*models.SessionQuestionState, error) {
			return ps.ToggleStrikethrough(q, *req.Option)
		})
}

func (s *sessionService) AddHighlight(ctx context.Context, sessionID string, questionID uint, userID string, req *HighlightRequest) (*models.SessionQuestionState, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateState(ctx, sessionID, questionID, userID, "highlight",
		func(ps *practice.Session, _ *models.Question) (*models.SessionQuestionState, error) {
			return ps.AddHighlight(questionID, models.Highlight{Start: req.Start, End: req.End})
		})
}

func (s *sessionService) AddTime(ctx context.Context, sessionID string, questionID uint, userID string, req *AddTimeRequest) (*models.SessionQuestionState, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateState(ctx, sessionID, questionID, userID, "time spent",
		func(ps *practice.Session, _ *models.Question) (*models.SessionQuestionState, error) {
			return ps.AddTime(questionID, req.Seconds)
		})
}

// ===== INTERNALS =====

// withSession runs fn on the caller's session inside one transaction. A timed
// session past its deadline is completed first; fn then runs only when
// allowExpired is set, otherwise ErrSessionTimeExpired is returned after the
// completion commits.
func (s *sessionService) withSession(ctx context.Context, sessionID, userID string, allowExpired bool, fn func(tx *gorm.DB, ps *practice.Session) error) error {
	var done *completion
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		ps, err := s.load(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if ps.Record.Status == models.SessionInProgress && ps.Expired(now) {
			if done, err = s.complete(ctx, tx, ps, now); err != nil {
				return err
			}
			s.logger.Info("Timed session expired", "session_id", sessionID, "user_id", userID)
			if !allowExpired {
				return nil
			}
		}
		return fn(tx, ps)
	})
	if err != nil {
		return err
	}

	if done != nil {
		s.afterComplete(ctx, done)
		if !allowExpired {
			return ErrSessionTimeExpired
		}
	}
	return nil
}

// mutateState applies one annotation change and stores the question state
func (s *sessionService) mutateState(ctx context.Context, sessionID string, questionID uint, userID, what string, fn func(ps *practice.Session, q *models.Question) (*models.SessionQuestionState, error)) (*models.SessionQuestionState, error) {
	var out *models.SessionQuestionState
	err := s.withSession(ctx, sessionID, userID, false, func(tx *gorm.DB, ps *practice.Session) error {
		q, err := s.sessionQuestion(ctx, tx, ps, questionID)
		if err != nil {
			return err
		}
		st, err := fn(ps, q)
		if err != nil {
			return err
		}
		if err := s.repo.Session().UpsertState(ctx, tx, st); err != nil {
			return fmt.Errorf("failed to save %s: %w", what, err)
		}
		out = visibleState(ps, st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sessionService) load(ctx context.Context, tx *gorm.DB, sessionID, userID string) (*practice.Session, error) {
	record, err := s.repo.Session().GetByID(ctx, tx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if record.UserID != userID {
		return nil, ErrSessionAccessDenied
	}

	states, err := s.repo.Session().GetStates(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session states: %w", err)
	}
	return practice.Load(record, states), nil
}

// sessionQuestion checks the session accepts changes to questionID and loads it
func (s *sessionService) sessionQuestion(ctx context.Context, tx *gorm.DB, ps *practice.Session, questionID uint) (*models.Question, error) {
	if ps.Record.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}
	if !ps.Contains(questionID) {
		return nil, ErrQuestionNotInSession
	}
	return s.question(ctx, tx, questionID)
}

func (s *sessionService) question(ctx context.Context, tx *gorm.DB, questionID uint) (*models.Question, error) {
	q, err := s.repo.Question().GetByID(ctx, tx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// complete scores the session and writes its attempt record within tx
func (s *sessionService) complete(ctx context.Context, tx *gorm.DB, ps *practice.Session, now time.Time) (*completion, error) {
	questions, err := s.repo.Question().GetByIDs(ctx, tx, ps.Record.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to get session questions: %w", err)
	}
	items := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		items[q.ID] = q
	}

	summary, graded, err := ps.Complete(items, now)
	if err != nil {
		return nil, err
	}
	for _, st := range graded {
		if err := s.repo.Session().UpsertState(ctx, tx, st); err != nil {
			return nil, fmt.Errorf("failed to grade pending answer: %w", err)
		}
	}
	if err := s.repo.Session().Update(ctx, tx, ps.Record); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	sessionID := ps.Record.ID
	if _, err := s.repo.Attempt().GetBySession(ctx, tx, sessionID); err == nil {
		return nil, fmt.Errorf("attempt already recorded for session %s: %w", sessionID, ErrSessionNotActive)
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check attempt record: %w", err)
	}

	attempt := &models.AttemptRecord{
		UserID:           ps.Record.UserID,
		Source:           models.AttemptSourcePractice,
		SessionID:        &sessionID,
		TotalQuestions:   summary.Answered,
		CorrectAnswers:   summary.Correct,
		TimeTakenSeconds: summary.TimeSpentSeconds,
		TopicPerformance: datatypes.NewJSONType(summary.TopicPerformance),
		CreatedAt:        now,
	}
	if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	return &completion{session: ps.Record, summary: summary, attempt: attempt}, nil
}

// afterComplete runs once the completing transaction has committed
func (s *sessionService) afterComplete(ctx context.Context, c *completion) {
	userID := c.session.UserID
	cache.InvalidatePredictionCache(ctx, s.cache, userID)

	s.publish(ctx, events.EventSessionCompleted, userID, events.SessionCompletedEvent{
		SessionID:        c.session.ID,
		Mode:             string(c.session.Mode),
		Answered:         c.summary.Answered,
		Correct:          c.summary.Correct,
		ScorePercent:     c.summary.ScorePercent,
		TimeSpentSeconds: c.summary.TimeSpentSeconds,
		Topics:           slices.Sorted(maps.Keys(c.summary.TopicPerformance)),
	})
	s.publish(ctx, events.EventAttemptRecorded, userID, events.AttemptRecordedEvent{
		AttemptID:      c.attempt.ID,
		Source:         string(c.attempt.Source),
		SessionID:      c.session.ID,
		TotalQuestions: c.attempt.TotalQuestions,
		CorrectAnswers: c.attempt.CorrectAnswers,
	})
}

func (s *sessionService) buildResponse(ctx context.Context, tx *gorm.DB, ps *practice.Session) (*SessionResponse, error) {
	questions, err := s.repo.Question().GetByIDs(ctx, tx, ps.Record.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to get session questions: %w", err)
	}
	byID := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	resp := &SessionResponse{
		PracticeSession: ps.Record,
		Questions:       make([]*SessionQuestionView, 0, ps.Len()),
	}
	for i, id := range ps.Record.QuestionOrder {
		if ps.State(id).SelectedAnswer != nil {
			resp.Answered++
		}
		resp.Questions = append(resp.Questions, s.view(ps, i, byID[id]))
	}

	if deadline, ok := ps.Record.Deadline(); ok {
		resp.ExpiresAt = &deadline
		if ps.Record.Status == models.SessionInProgress {
			remaining := max(0, int(deadline.Sub(s.now()).Seconds()))
			resp.RemainingSeconds = &remaining
		}
	}
	return resp, nil
}

// view masks q and its state unless the question is revealed
func (s *sessionService) view(ps *practice.Session, index int, q *models.Question) *SessionQuestionView {
	id := ps.Record.QuestionOrder[index]
	revealed := ps.Revealed(id)

	v := &SessionQuestionView{
		Index:    index,
		State:    visibleState(ps, ps.State(id)),
		Revealed: revealed,
	}
	if q != nil {
		if revealed {
			v.Question = q
		} else {
			v.Question = q.Masked()
		}
	}
	return v
}

// visibleState hides correctness until the question is revealed
func visibleState(ps *practice.Session, st *models.SessionQuestionState) *models.SessionQuestionState {
	if ps.Revealed(st.QuestionID) {
		return st
	}
	masked := *st
	masked.IsCorrect = nil
	return &masked
}
