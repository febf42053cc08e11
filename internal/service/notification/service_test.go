package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/qtrack-api/internal/model"
)

type memoryRepo struct {
	mu      sync.Mutex
	created []*model.Notification
}

func (r *memoryRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	r.created = append(r.created, n)
	return nil
}

func (r *memoryRepo) CreateBatch(ctx context.Context, ns []*model.Notification) error {
	for _, n := range ns {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for i := len(r.created) - 1; i >= 0; i-- {
		if r.created[i].RecipientID == recipientID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.created {
		if n.ID == id {
			n.IsRead = true
			break
		}
	}
	return nil
}

func (r *memoryRepo) ClearAll(_ context.Context, recipientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*model.Notification
	for _, n := range r.created {
		if n.RecipientID != recipientID {
			kept = append(kept, n)
		}
	}
	r.created = kept
	return nil
}

func (r *memoryRepo) DeleteReadBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestTokenCalledMessage(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	userID := uuid.New()

	token := &model.Token{
		Base:        model.Base{ID: uuid.New()},
		TokenNumber: 12,
		UserID:      &userID,
	}
	require.NoError(t, svc.TokenCalled(context.Background(), token))

	require.Len(t, repo.created, 1)
	assert.Equal(t, "Token #12 is now being served.", repo.created[0].Message)
	assert.Equal(t, userID, repo.created[0].RecipientID)
	assert.Equal(t, token.ID, *repo.created[0].TokenID)
	assert.False(t, repo.created[0].IsRead)
}

func TestTokenCalledSkipsAnonymousWalkins(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	token := &model.Token{Base: model.Base{ID: uuid.New()}, TokenNumber: 3}
	require.NoError(t, svc.TokenCalled(context.Background(), token))
	assert.Empty(t, repo.created)
}

func TestBatchCancelledSharesBatchID(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	var tokens []*model.Token
	for i := 1; i <= 3; i++ {
		userID := uuid.New()
		tokens = append(tokens, &model.Token{
			Base:        model.Base{ID: uuid.New()},
			TokenNumber: i,
			UserID:      &userID,
		})
	}
	// Anonymous walk-in produces no row.
	tokens = append(tokens, &model.Token{Base: model.Base{ID: uuid.New()}, TokenNumber: 4})

	batchID, err := svc.BatchCancelled(context.Background(), tokens, "clinic closing early")
	require.NoError(t, err)
	require.Len(t, repo.created, 3)

	for _, n := range repo.created {
		assert.Equal(t, batchID, *n.BatchID)
		assert.Contains(t, n.Message, "clinic closing early")
	}
}

func TestListNewestFirstAndMarkRead(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	userID := uuid.New()

	for i := 1; i <= 3; i++ {
		token := &model.Token{Base: model.Base{ID: uuid.New()}, TokenNumber: i, UserID: &userID}
		require.NoError(t, svc.TokenCalled(context.Background(), token))
	}

	listed, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Token #3 is now being served.", listed[0].Message)

	require.NoError(t, svc.MarkRead(context.Background(), listed[0].ID))
	// Marking read twice stays a success.
	require.NoError(t, svc.MarkRead(context.Background(), listed[0].ID))

	require.NoError(t, svc.ClearAll(context.Background(), userID))
	listed, err = svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
