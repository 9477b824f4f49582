package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/testutil"
	"github.com/SAP-F-2025/prep-service/internal/utils"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

const (
	studentToken = "student-token"
	otherToken   = "other-token"
	teacherToken = "teacher-token"
	adminToken   = "admin-token"
)

// fakeParser accepts a fixed set of tokens
type fakeParser map[string]*casdoorsdk.Claims

func (p fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	claims, ok := p[token]
	if !ok {
		return nil, errors.New("signature is invalid")
	}
	return claims, nil
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// reverseShuffler reverses the pool so selections are predictable
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func claimsFor(id, userType string) *casdoorsdk.Claims {
	return &casdoorsdk.Claims{User: casdoorsdk.User{
		Id:          id,
		Type:        userType,
		DisplayName: "User " + id,
		Email:       id + "@example.com",
	}}
}

type APISuite struct {
	suite.Suite
	db      *gorm.DB
	redis   *miniredis.Miniredis
	clock   *testutil.Clock
	users   *mockUserRepo
	manager services.ServiceManager
	router  *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := s.T()

	s.db = testutil.NewTestDB(t)
	client, mr := testutil.NewTestRedis(t)
	s.redis = mr
	s.clock = testutil.NewClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	logger := testutil.NewTestLogger()

	s.manager = services.NewDefaultServiceManager(s.db, testutil.NewTestRepository(s.db, client), logger, validator.New(),
		services.WithRedis(client),
		services.WithShuffler(reverseShuffler{}),
		services.WithClock(s.clock.Now))
	require.NoError(t, s.manager.Initialize(context.Background()))

	s.users = &mockUserRepo{}
	s.users.On("GetByID", mock.Anything, "admin-1").
		Return(&models.User{ID: "admin-1", FullName: "Ada Admin", Role: models.RoleAdmin}, nil)
	s.users.On("GetByID", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)

	parser := fakeParser{
		studentToken: claimsFor("stud-1", "student"),
		otherToken:   claimsFor("stud-2", ""),
		teacherToken: claimsFor("teach-1", "teacher"),
		adminToken:   claimsFor("admin-1", ""),
	}

	httpLogger := utils.NewSlogLogger(logger)
	s.router = gin.New()
	SetupMiddleware(s.router, httpLogger, MiddlewareConfig{ServiceName: "prep-service-test"})
	NewHandlerManager(s.manager, NewAuthMiddleware(parser, s.users, httpLogger), httpLogger).SetupRoutes(s.router)

	testutil.SeedQuestions(t, s.db,
		testutil.NewQuestion("Pathology", "Cardiovascular", "Heart failure", models.DifficultyMedium),
		testutil.NewQuestion("Pathology", "Cardiovascular", "Arrhythmia", models.DifficultyHard),
		testutil.NewQuestion("Pharmacology", "Cardiovascular", "Heart failure", models.DifficultyMedium),
	)
}

func (s *APISuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionBody struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Answered  int    `json:"answered"`
	Questions []struct {
		Question struct {
			ID                 uint `json:"id"`
			CorrectAnswerIndex int  `json:"correct_answer_index"`
		} `json:"question"`
		Revealed bool `json:"revealed"`
	} `json:"questions"`
}

type createBody struct {
	Available bool        `json:"available"`
	Message   string      `json:"message"`
	Session   sessionBody `json:"session"`
}

type answerBody struct {
	Submitted          bool   `json:"submitted"`
	Outcome            string `json:"outcome"`
	IsCorrect          *bool  `json:"is_correct"`
	CorrectAnswerIndex *int   `json:"correct_answer_index"`
}

func (s *APISuite) createSession(token string, body gin.H) sessionBody {
	rec := s.do(http.MethodPost, "/api/v1/sessions", token, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[createBody](s.T(), rec)
	s.Require().True(created.Available)
	return created.Session
}

func (s *APISuite) TestAuthentication() {
	rec := s.do(http.MethodGet, "/api/v1/sessions", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sessions", "forged", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "invalid token")

	rec = s.do(http.MethodGet, "/api/v1/sessions", studentToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestCurrentUser() {
	rec := s.do(http.MethodGet, "/api/v1/users/me", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	admin := decode[models.User](s.T(), rec)
	s.Equal("Ada Admin", admin.FullName)
	s.Equal(models.RoleAdmin, admin.Role)
	s.users.AssertCalled(s.T(), "GetByID", mock.Anything, "admin-1")

	// unknown to the provider, so the token claims are used
	rec = s.do(http.MethodGet, "/api/v1/users/me", teacherToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	teacher := decode[models.User](s.T(), rec)
	s.Equal("teach-1", teacher.ID)
	s.Equal("teach-1@example.com", teacher.Email)
	s.Equal(models.RoleTeacher, teacher.Role)
}

func (s *APISuite) TestRoleChecks() {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"student cannot list pool", http.MethodGet, "/api/v1/questions", studentToken, http.StatusForbidden},
		{"teacher lists pool", http.MethodGet, "/api/v1/questions", teacherToken, http.StatusOK},
		{"admin lists pool", http.MethodGet, "/api/v1/questions", adminToken, http.StatusOK},
		{"student counts availability", http.MethodGet, "/api/v1/questions/available", studentToken, http.StatusOK},
		{"teacher cannot create", http.MethodPost, "/api/v1/questions/batch", teacherToken, http.StatusForbidden},
		{"student cannot import", http.MethodPost, "/api/v1/questions/import", studentToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, tt.token, nil)
			s.Equal(tt.want, rec.Code, rec.Body.String())
		})
	}
}

func (s *APISuite) TestSessionFlow() {
	session := s.createSession(studentToken, gin.H{"mode": "tutor", "question_count": 2})
	s.Equal("in_progress", session.Status)
	s.Require().Len(session.Questions, 2)
	s.Equal(uint(3), session.Questions[0].Question.ID)
	s.Equal(-1, session.Questions[0].Question.CorrectAnswerIndex, "answer key is masked")

	base := "/api/v1/sessions/" + session.ID

	rec := s.do(http.MethodPost, base+"/questions/3/answer", studentToken, gin.H{"selected_answer": 0})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	answer := decode[answerBody](s.T(), rec)
	s.True(answer.Submitted)
	s.Equal("ok", answer.Outcome)
	s.Require().NotNil(answer.IsCorrect)
	s.True(*answer.IsCorrect)
	s.Require().NotNil(answer.CorrectAnswerIndex)
	s.Equal(0, *answer.CorrectAnswerIndex)

	rec = s.do(http.MethodPost, base+"/questions/3/answer", studentToken, gin.H{"selected_answer": 1})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("already_submitted", decode[answerBody](s.T(), rec).Outcome)

	rec = s.do(http.MethodPost, base+"/questions/3/answer", studentToken, gin.H{"selected_answer": 1, "submit": false})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, base+"/questions/2/flag", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(decode[models.SessionQuestionState](s.T(), rec).IsFlagged)

	rec = s.do(http.MethodPost, base+"/questions/2/highlights", studentToken, gin.H{"start": 4, "end": 2})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, base+"/questions/2/time", studentToken, gin.H{"seconds": 45})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(45, decode[models.SessionQuestionState](s.T(), rec).TimeSpentSeconds)

	rec = s.do(http.MethodPut, base+"/position", studentToken, gin.H{"index": 1})
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodPut, base+"/position", studentToken, gin.H{"index": 5})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, base, studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	resumed := decode[sessionBody](s.T(), rec)
	s.Equal(1, resumed.Answered)
	s.True(resumed.Questions[0].Revealed)
	s.False(resumed.Questions[1].Revealed)

	rec = s.do(http.MethodPost, base+"/complete", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[struct {
		Session   sessionBody `json:"session"`
		AttemptID uint        `json:"attempt_id"`
	}](s.T(), rec)
	s.Equal("completed", summary.Session.Status)
	s.NotZero(summary.AttemptID)

	rec = s.do(http.MethodPost, base+"/questions/2/answer", studentToken, gin.H{"selected_answer": 0})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/attempts", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, decode[services.AttemptListResponse](s.T(), rec).Total)
}

func (s *APISuite) TestSessionErrors() {
	session := s.createSession(studentToken, gin.H{"mode": "tutor", "question_count": 1})
	base := "/api/v1/sessions/" + session.ID

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"other user", http.MethodGet, base, otherToken, nil, http.StatusForbidden},
		{"unknown session", http.MethodGet, "/api/v1/sessions/does-not-exist", studentToken, nil, http.StatusNotFound},
		{"bad question id", http.MethodPost, base + "/questions/abc/flag", studentToken, nil, http.StatusBadRequest},
		{"question not in session", http.MethodPost, base + "/questions/1/flag", studentToken, nil, http.StatusBadRequest},
		{"option out of range", http.MethodPost, base + "/questions/3/answer", studentToken, gin.H{"selected_answer": 9}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, base + "/questions/3/time", studentToken, "not an object", http.StatusBadRequest},
		{"invalid mode", http.MethodPost, "/api/v1/sessions", studentToken, gin.H{"mode": "speedrun", "question_count": 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, tt.token, tt.body)
			s.Equal(tt.want, rec.Code, rec.Body.String())
		})
	}
}

func (s *APISuite) TestCreateSessionWithoutMatches() {
	rec := s.do(http.MethodPost, "/api/v1/sessions", studentToken, gin.H{
		"mode": "tutor", "question_count": 5, "subjects": []string{"Biochemistry"},
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	created := decode[createBody](s.T(), rec)
	s.False(created.Available)
	s.NotEmpty(created.Message)
}

func (s *APISuite) TestTimedSessionExpires() {
	session := s.createSession(studentToken, gin.H{"mode": "timed", "question_count": 1, "time_limit_minutes": 1})
	base := "/api/v1/sessions/" + session.ID

	s.clock.Advance(2 * time.Minute)

	rec := s.do(http.MethodPost, base+"/questions/3/answer", studentToken, gin.H{"selected_answer": 0})
	s.Equal(http.StatusGone, rec.Code)

	rec = s.do(http.MethodGet, base, studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("completed", decode[sessionBody](s.T(), rec).Status)
}

func (s *APISuite) TestAbandonSession() {
	session := s.createSession(studentToken, gin.H{"mode": "tutor", "question_count": 1})
	base := "/api/v1/sessions/" + session.ID

	rec := s.do(http.MethodPost, base+"/abandon", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("abandoned", decode[sessionBody](s.T(), rec).Status)

	rec = s.do(http.MethodPost, base+"/complete", studentToken, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sessions?status=abandoned", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, decode[services.SessionListResponse](s.T(), rec).Total)

	rec = s.do(http.MethodGet, "/api/v1/sessions?status=paused", studentToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestAttemptsAndProgress() {
	rec := s.do(http.MethodPost, "/api/v1/attempts", studentToken, gin.H{
		"total_questions": 10, "correct_answers": 12,
	})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Validation failed", decode[ErrorResponse](s.T(), rec).Message)

	rec = s.do(http.MethodPost, "/api/v1/attempts", studentToken, gin.H{
		"total_questions": 10, "correct_answers": 7, "time_taken_seconds": 600,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/attempts?source=assessment", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, decode[services.AttemptListResponse](s.T(), rec).Total)

	rec = s.do(http.MethodPut, "/api/v1/progress/modules/cardiology", studentToken, gin.H{"completion_percent": 50})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPut, "/api/v1/progress/modules/renal", studentToken, gin.H{"completion_percent": 101})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/progress", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	progress := decode[services.ProgressResponse](s.T(), rec)
	s.Len(progress.Modules, 1)
	s.Require().NotNil(progress.AverageCoverage)
	s.InDelta(50.0, *progress.AverageCoverage, 1e-9)
}

func (s *APISuite) TestPredictions() {
	rec := s.do(http.MethodGet, "/api/v1/predictions/current", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	current := decode[struct {
		SnapshotDate string `json:"snapshot_date"`
	}](s.T(), rec)
	s.Equal("2026-03-14", current.SnapshotDate)

	rec = s.do(http.MethodGet, "/api/v1/predictions/history?days=7", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	history := decode[struct {
		Days      int   `json:"days"`
		Snapshots []any `json:"snapshots"`
	}](s.T(), rec)
	s.Equal(7, history.Days)
	s.Len(history.Snapshots, 1)

	rec = s.do(http.MethodGet, "/api/v1/predictions/history?days=400", studentToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/predictions/history?days=many", studentToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestExportPredictionHistory() {
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/v1/predictions/current", studentToken, nil).Code)

	rec := s.do(http.MethodGet, "/api/v1/predictions/history/export", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(xlsxContentType, rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "attachment; filename=\"prediction-history-")

	f, err := excelize.OpenReader(rec.Body)
	s.Require().NoError(err)
	defer f.Close()
	s.Len(f.GetSheetList(), 2)

	rec = s.do(http.MethodGet, "/api/v1/predictions/history/export?days=0", studentToken, nil)
	s.Equal(http.StatusOK, rec.Code, "zero falls back to the default window")
	rec = s.do(http.MethodGet, "/api/v1/predictions/history/export?days=-3", studentToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func (s *APISuite) TestCreateQuestionsBatch() {
	rec := s.do(http.MethodPost, "/api/v1/questions/batch", adminToken, gin.H{
		"questions": []gin.H{{
			"subject": "Physiology", "system": "Renal", "topic": "GFR",
			"stem": "What raises GFR?", "options": []string{"Afferent dilation", "Efferent dilation"},
			"correct_answer_index": 0,
		}},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.EqualValues(1, decode[gin.H](s.T(), rec)["created"])

	rec = s.do(http.MethodGet, "/api/v1/questions/available?subject=Physiology", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, decode[services.AvailabilityResponse](s.T(), rec).Available)
}

func (s *APISuite) TestSetQuestionActive() {
	rec := s.do(http.MethodGet, "/api/v1/questions/available", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(3, decode[services.AvailabilityResponse](s.T(), rec).Available)

	rec = s.do(http.MethodPatch, "/api/v1/questions/1/active", adminToken, gin.H{"is_active": false})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.False(decode[models.Question](s.T(), rec).IsActive)

	rec = s.do(http.MethodGet, "/api/v1/questions/available", studentToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.EqualValues(2, decode[services.AvailabilityResponse](s.T(), rec).Available)

	tests := []struct {
		name  string
		path  string
		token string
		body  any
		want  int
	}{
		{"student forbidden", "/api/v1/questions/1/active", studentToken, gin.H{"is_active": true}, http.StatusForbidden},
		{"unknown question", "/api/v1/questions/99/active", adminToken, gin.H{"is_active": true}, http.StatusNotFound},
		{"missing flag", "/api/v1/questions/1/active", adminToken, gin.H{}, http.StatusBadRequest},
		{"bad id", "/api/v1/questions/abc/active", adminToken, gin.H{"is_active": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPatch, tt.path, tt.token, tt.body)
			s.Equal(tt.want, rec.Code, rec.Body.String())
		})
	}
}

func (s *APISuite) upload(token string, file []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if file != nil {
		part, err := w.CreateFormFile("file", "pool.xlsx")
		s.Require().NoError(err)
		_, err = part.Write(file)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) workbook(rows ...[]any) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		s.Require().NoError(err)
		s.Require().NoError(f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	s.Require().NoError(err)
	return buf.Bytes()
}

func (s *APISuite) TestImportQuestions() {
	header := []any{"Subject", "System", "Topic", "Difficulty", "Stem", "Option_A", "Option_B", "Correct_Answer"}

	rec := s.upload(adminToken, s.workbook(header,
		[]any{"Pathology", "Renal", "Nephritic syndrome", "hard", "Which finding is expected?", "Hematuria", "Lipiduria", "A"},
	))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(1, decode[services.ImportResult](s.T(), rec).Created)

	rec = s.upload(adminToken, s.workbook(header,
		[]any{"Pathology", "Renal", "Nephrotic syndrome", "hard", "Which finding is expected?", "Hematuria", "Lipiduria", "Z"},
	))
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)
	rejected := decode[services.ImportResult](s.T(), rec)
	s.Zero(rejected.Created)
	s.Require().Len(rejected.Errors, 1)
	s.Equal(2, rejected.Errors[0].Row)

	rec = s.upload(adminToken, []byte("not a workbook"))
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.upload(adminToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Missing import file", decode[ErrorResponse](s.T(), rec).Message)
}

func (s *APISuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("healthy", decode[gin.H](s.T(), rec)["status"])

	s.redis.SetError("LOADING")
	defer s.redis.SetError("")
	rec = s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *APISuite) TestRequestID() {
	rec := s.do(http.MethodGet, "/health", "", nil)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal("req-42", rec.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"any origin", nil, "https://app.example.com", "*"},
		{"wildcard", []string{"*"}, "https://app.example.com", "*"},
		{"listed origin", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowed))
			router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
		{"Basic abc", "", true},
		{"Bearer a b", "", true},
	}

	for _, tt := range tests {
		got, err := bearerToken(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestCreateUserFromClaims(t *testing.T) {
	claims := claimsFor("u-1", "instructor")
	claims.User.Avatar = "https://cdn.example.com/u-1.png"
	claims.User.EmailVerified = true

	user := createUserFromClaims(claims)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, models.RoleTeacher, user.Role)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/u-1.png", *user.AvatarURL)
	assert.True(t, user.EmailVerified)

	claims.User.IsAdmin = true
	assert.Equal(t, models.RoleAdmin, createUserFromClaims(claims).Role)

	assert.Nil(t, createUserFromClaims(claimsFor("u-2", "")).AvatarURL)
}
