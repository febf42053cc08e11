package token

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/service/audit"
	"github.com/jwalitptl/qtrack-api/internal/service/directory"
	"github.com/jwalitptl/qtrack-api/internal/service/notification"
	tokensvc "github.com/jwalitptl/qtrack-api/internal/service/token"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
	"github.com/jwalitptl/qtrack-api/pkg/httputil"
	"github.com/jwalitptl/qtrack-api/pkg/metrics"
)

// Shared across the package: promauto panics on duplicate registration.
var handlerMetrics = metrics.New("token_handler_test")

type memTokenRepo struct {
	mu        sync.Mutex
	tokens    map[uuid.UUID]*model.Token
	sequences map[string]int
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		tokens:    make(map[uuid.UUID]*model.Token),
		sequences: make(map[string]int),
	}
}

func (r *memTokenRepo) Create(_ context.Context, token *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	token.ID = uuid.New()
	token.IssuedAt = now
	token.CreatedAt = now
	token.UpdatedAt = now
	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *memTokenRepo) Get(_ context.Context, id uuid.UUID) (*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.DeletedAt != nil {
		return nil, apperrors.NewNotFound("token", nil)
	}
	copied := *token
	return &copied, nil
}

func (r *memTokenRepo) ListForDate(_ context.Context, serviceID uuid.UUID, _ time.Time) ([]*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Token
	for _, t := range r.tokens {
		if t.ServiceID == serviceID && t.DeletedAt == nil {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memTokenRepo) ListWaiting(_ context.Context, serviceID uuid.UUID, _ time.Time) ([]*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Token
	for _, t := range r.tokens {
		if t.ServiceID == serviceID && t.Status == model.TokenStatusWaiting && t.DeletedAt == nil {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memTokenRepo) CurrentCalling(_ context.Context, serviceID uuid.UUID, _ time.Time) (*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *model.Token
	for _, t := range r.tokens {
		if t.ServiceID != serviceID || t.Status != model.TokenStatusCalling || t.DeletedAt != nil {
			continue
		}
		if current == nil || t.UpdatedAt.After(current.UpdatedAt) {
			current = t
		}
	}
	if current == nil {
		return nil, nil
	}
	copied := *current
	return &copied, nil
}

func (r *memTokenRepo) Transition(_ context.Context, id uuid.UUID, target model.TokenStatus) (*model.Token, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.DeletedAt != nil {
		return nil, false, apperrors.NewNotFound("token", nil)
	}
	if token.Status == target {
		copied := *token
		return &copied, false, nil
	}
	if !model.CanTransition(token.Status, target) {
		return nil, false, apperrors.NewIllegalTransition(string(token.Status), string(target))
	}
	token.Status = target
	token.UpdatedAt = time.Now()
	copied := *token
	return &copied, true, nil
}

func (r *memTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[id]; ok && token.DeletedAt == nil {
		now := time.Now()
		token.DeletedAt = &now
	}
	return nil
}

func (r *memTokenRepo) NextTokenNumber(_ context.Context, serviceID uuid.UUID, issueDate time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := serviceID.String() + ":" + issueDate.Format("2006-01-02")
	r.sequences[key]++
	return r.sequences[key], nil
}

type memNotificationRepo struct{}

func (memNotificationRepo) Create(context.Context, *model.Notification) error        { return nil }
func (memNotificationRepo) CreateBatch(context.Context, []*model.Notification) error { return nil }
func (memNotificationRepo) ListForRecipient(context.Context, uuid.UUID) ([]*model.Notification, error) {
	return nil, nil
}
func (memNotificationRepo) MarkRead(context.Context, uuid.UUID) error { return nil }
func (memNotificationRepo) ClearAll(context.Context, uuid.UUID) error { return nil }
func (memNotificationRepo) DeleteReadBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memDirectoryRepo struct {
	serviceID uuid.UUID
}

func (r memDirectoryRepo) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	if id == r.serviceID {
		return &model.Service{ID: id, Name: "Radiology", Status: "Active"}, nil
	}
	return nil, apperrors.NewNotFound("service", nil)
}

func (r memDirectoryRepo) GetProvider(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	return &model.Provider{ID: id}, nil
}

func (memDirectoryRepo) ListProviders(context.Context) ([]*model.Provider, error) { return nil, nil }
func (memDirectoryRepo) ListServices(context.Context, uuid.UUID) ([]*model.Service, error) {
	return nil, nil
}

type memAuditRepo struct{}

func (memAuditRepo) Create(context.Context, *model.AuditLog) error { return nil }
func (memAuditRepo) List(context.Context, uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}
func (memAuditRepo) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type memOutboxRepo struct{}

func (memOutboxRepo) Create(context.Context, *model.OutboxEvent) error { return nil }
func (memOutboxRepo) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (memOutboxRepo) UpdateStatus(context.Context, uuid.UUID, model.OutboxStatus, *string) error {
	return nil
}
func (memOutboxRepo) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func setupRouter(t *testing.T) (*gin.Engine, uuid.UUID, *memTokenRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	serviceID := uuid.New()
	repo := newMemTokenRepo()
	svc := tokensvc.NewService(
		repo,
		memOutboxRepo{},
		notification.NewService(memNotificationRepo{}),
		directory.NewService(memDirectoryRepo{serviceID: serviceID}, directory.DefaultConfig()),
		audit.NewService(memAuditRepo{}),
		handlerMetrics,
	)

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine, serviceID, repo
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) *model.Token {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    *model.Token    `json:"data"`
		Error   *httputil.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *httputil.Error {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Error   *httputil.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestCreateToken(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{
		"service_id":   serviceID,
		"visitor_name": "Asha Rao",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeToken(t, w)
	assert.Equal(t, 1, created.TokenNumber)
	assert.Equal(t, model.TokenStatusWaiting, created.Status)
	assert.Equal(t, serviceID, created.ServiceID)
}

func TestCreateTokenUnknownService(t *testing.T) {
	engine, _, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{
		"service_id": uuid.New(),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTokenRejectsMalformedBody(t *testing.T) {
	engine, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTokenNotFound(t *testing.T) {
	engine, _, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodGet, "/api/v1/tokens/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTokenInvalidID(t *testing.T) {
	engine, _, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodGet, "/api/v1/tokens/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionFlow(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeToken(t, w)

	w = doRequest(t, engine, http.MethodPost, "/api/v1/tokens/"+created.ID.String()+"/transition", gin.H{
		"status": "calling",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.TokenStatusCalling, decodeToken(t, w).Status)

	w = doRequest(t, engine, http.MethodPost, "/api/v1/tokens/"+created.ID.String()+"/transition", gin.H{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.TokenStatusCompleted, decodeToken(t, w).Status)
}

func TestIllegalTransitionConflict(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeToken(t, w)

	// waiting -> completed skips the calling step
	w = doRequest(t, engine, http.MethodPost, "/api/v1/tokens/"+created.ID.String()+"/transition", gin.H{
		"status": "completed",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	apiErr := decodeError(t, w)
	assert.Equal(t, "waiting", apiErr.CurrentStatus)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeToken(t, w)

	w = doRequest(t, engine, http.MethodPost, "/api/v1/tokens/"+created.ID.String()+"/transition", gin.H{
		"status": "paused",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueSnapshot(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	for i := 0; i < 3; i++ {
		w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(t, engine, http.MethodGet, "/api/v1/services/"+serviceID.String()+"/queue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    *model.QueueSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, serviceID, resp.Data.ServiceID)
	assert.Len(t, resp.Data.Tokens, 3)
	assert.Nil(t, resp.Data.Current)
}

func TestCallNextEmptyQueue(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/services/"+serviceID.String()+"/call-next", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelAllRequiresReason(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/services/"+serviceID.String()+"/cancel-all", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAllReportsCount(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	for i := 0; i < 2; i++ {
		w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(t, engine, http.MethodPost, "/api/v1/services/"+serviceID.String()+"/cancel-all", gin.H{
		"reason": "clinic closed early",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    *model.CancelAllResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, 2, resp.Data.CancelledCount)
}

func TestDeleteTokenIdempotent(t *testing.T) {
	engine, serviceID, _ := setupRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/tokens", gin.H{"service_id": serviceID})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeToken(t, w)

	w = doRequest(t, engine, http.MethodDelete, "/api/v1/tokens/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, engine, http.MethodDelete, "/api/v1/tokens/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, engine, http.MethodGet, "/api/v1/tokens/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
