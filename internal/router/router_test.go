package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/handler"
	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/service"
	"github.com/noah-isme/ecampus-api/pkg/storage"
)

type teacherDirectoryStub struct{}

func (teacherDirectoryStub) List(ctx context.Context) ([]models.TeacherContact, bool, error) {
	return []models.TeacherContact{{ID: "t-1", Name: "Mr Smith"}}, true, nil
}

type noteServiceStub struct{}

func (noteServiceStub) Create(ctx context.Context, input models.NoteInput) (*models.Note, error) {
	return &models.Note{ID: "n-1", Title: input.Title, File: input.File}, nil
}

func (noteServiceStub) List(ctx context.Context, subject string) ([]models.Note, error) {
	return []models.Note{}, nil
}

type auditSpy struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (s *auditSpy) Record(ctx context.Context, entry models.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

type fixture struct {
	engine  *gin.Engine
	tokens  *service.TokenService
	metrics *service.MetricsService
	audit   *auditSpy
}

func newFixture(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	uploads := handler.NewUploader(store, 1024, zap.NewNop())

	tokens := service.NewTokenService(service.TokenConfig{Secret: "router-test", Issuer: "ecampus-api"})
	metrics := service.NewMetricsService()
	audit := &auditSpy{}

	engine := New(Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Registration: handler.NewRegistrationHandler(nil, nil),
		Teachers:     handler.NewTeacherHandler(teacherDirectoryStub{}),
		Students:     handler.NewStudentHandler(nil, uploads),
		Assignments:  handler.NewAssignmentHandler(nil, uploads),
		Exams:        handler.NewExamHandler(nil, uploads),
		Notes:        handler.NewNoteHandler(noteServiceStub{}, uploads),
		Reports:      handler.NewReportHandler(nil),
		Metrics:      handler.NewMetricsHandler(metrics, nil),
	}, Options{
		UploadsDir: store.Dir(),
		Tokens:     tokens,
		Metrics:    metrics,
		Audit:      audit,
	})
	return &fixture{engine: engine, tokens: tokens, metrics: metrics, audit: audit}
}

func (f *fixture) do(t *testing.T, req *http.Request, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	if role != "" {
		token, _, err := f.tokens.Issue("acc-"+string(role), role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestRouterHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterRequiresToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/students", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterGateDeniesStudentWrites(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/examresults/r-1", nil), models.RoleStudent)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().AccessDeniedTotal)
	assert.Empty(t, f.audit.entries)
}

func TestRouterGateLetsStudentsSubmit(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, multipartRequest(t, "/api/assignments/a-1/submit", map[string]string{"note": "x"}), models.RoleStudent)

	// The gate passes; the handler rejects the missing file.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.metrics.Snapshot().AccessDeniedTotal)
}

func TestRouterTeacherDirectoryReportsCache(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/teachers", nil), models.RoleStudent)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
	assert.Contains(t, w.Body.String(), "processing_time_ms")
}

func TestRouterAuditsSuccessfulWrites(t *testing.T) {
	f := newFixture(t)
	req := multipartRequest(t, "/api/notes", map[string]string{"title": "Algebra", "content": "x", "subject": "Math"})
	w := f.do(t, req, models.RoleTeacher)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, models.AuditActionCreate, entry.Action)
	assert.Equal(t, "note", entry.Resource)
	require.NotNil(t, entry.AccountID)
	assert.Equal(t, "acc-teacher", *entry.AccountID)
}

func TestRouterUnknownRoute(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
