package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/qtrack-api/internal/model"
	notifsvc "github.com/jwalitptl/qtrack-api/internal/service/notification"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
)

type memRepo struct {
	rows []*model.Notification
}

func (r *memRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	r.rows = append(r.rows, n)
	return nil
}

func (r *memRepo) CreateBatch(ctx context.Context, ns []*model.Notification) error {
	for _, n := range ns {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID) ([]*model.Notification, error) {
	var out []*model.Notification
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].RecipientID == recipientID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *memRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, n := range r.rows {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return apperrors.NewNotFound("notification", nil)
}

func (r *memRepo) ClearAll(_ context.Context, recipientID uuid.UUID) error {
	var kept []*model.Notification
	for _, n := range r.rows {
		if n.RecipientID != recipientID {
			kept = append(kept, n)
		}
	}
	r.rows = kept
	return nil
}

func (r *memRepo) DeleteReadBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memRepo{}
	engine := gin.New()
	NewHandler(notifsvc.NewService(repo)).RegisterRoutes(engine.Group("/api/v1"))
	return engine, repo
}

func TestMarkReadUnknownIDReturns404(t *testing.T) {
	engine, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkReadKnownID(t *testing.T) {
	engine, repo := setupRouter(t)
	recipient := uuid.New()
	n := &model.Notification{RecipientID: recipient, Message: "Token #3 is now being served."}
	require.NoError(t, repo.Create(context.Background(), n))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, n.IsRead)
}

func TestListNotificationsForRecipient(t *testing.T) {
	engine, repo := setupRouter(t)
	recipient := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &model.Notification{RecipientID: recipient, Message: "first"}))
	require.NoError(t, repo.Create(context.Background(), &model.Notification{RecipientID: uuid.New(), Message: "other"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?recipient_id="+recipient.String(), nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                  `json:"success"`
		Data    []*model.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "first", resp.Data[0].Message)
}

func TestClearAllRequiresRecipient(t *testing.T) {
	engine, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
