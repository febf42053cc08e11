package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/qtrack-api/internal/model"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
)

// All token repository methods here

const tokenColumns = `
	id, service_id, user_id, token_number, visitor_name, status,
	appointment_date, appointment_time, remarks, issued_at,
	created_at, updated_at, deleted_at
`

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	query := `
		INSERT INTO tokens (
			id, service_id, user_id, token_number, visitor_name, status,
			appointment_date, appointment_time, remarks, issued_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	token.ID = uuid.New()
	token.IssuedAt = now
	token.CreatedAt = now
	token.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.ServiceID,
		token.UserID,
		token.TokenNumber,
		token.VisitorName,
		token.Status,
		token.AppointmentDate,
		token.AppointmentTime,
		token.Remarks,
		token.IssuedAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAllocationConflict(err)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (r *tokenRepository) Get(ctx context.Context, id uuid.UUID) (*model.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE id = $1 AND deleted_at IS NULL
	`
	var token model.Token
	err := r.db.GetContext(ctx, &token, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("token", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// ListForDate returns every non-deleted token for the service issued on the
// given date, scheduled slots first, walk-ins last, token number breaking
// ties. The same ordering serves both the full poll snapshot and the
// waiting-queue view.
func (r *tokenRepository) ListForDate(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE service_id = $1
		AND issued_at::date = $2::date
		AND deleted_at IS NULL
		ORDER BY appointment_time ASC NULLS LAST, token_number ASC
	`
	var tokens []*model.Token
	err := r.db.SelectContext(ctx, &tokens, query, serviceID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

func (r *tokenRepository) ListWaiting(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE service_id = $1
		AND issued_at::date = $2::date
		AND status = $3
		AND deleted_at IS NULL
		ORDER BY appointment_time ASC NULLS LAST, token_number ASC
	`
	var tokens []*model.Token
	err := r.db.SelectContext(ctx, &tokens, query, serviceID, date, model.TokenStatusWaiting)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting tokens: %w", err)
	}
	return tokens, nil
}

// CurrentCalling resolves the advisory "now serving" token: the most recently
// transitioned-to-calling token still in calling, ties broken by highest
// token number.
func (r *tokenRepository) CurrentCalling(ctx context.Context, serviceID uuid.UUID, date time.Time) (*model.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE service_id = $1
		AND issued_at::date = $2::date
		AND status = $3
		AND deleted_at IS NULL
		ORDER BY updated_at DESC, token_number DESC
		LIMIT 1
	`
	var token model.Token
	err := r.db.GetContext(ctx, &token, query, serviceID, date, model.TokenStatusCalling)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current calling token: %w", err)
	}
	return &token, nil
}

// Transition performs the serialized per-token read-modify-write. The row is
// locked for the duration of the check so no transition can be lost. Returns
// the token after the call and whether the stored status actually changed;
// re-applying the already-reached target is a no-op success.
func (r *tokenRepository) Transition(ctx context.Context, id uuid.UUID, target model.TokenStatus) (*model.Token, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	var token model.Token
	err = tx.GetContext(ctx, &token, query, id)
	if err == sql.ErrNoRows {
		return nil, false, apperrors.NewNotFound("token", err)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read token for transition: %w", err)
	}

	if token.Status == target {
		// Idempotent re-apply: retries must not surface spurious failures.
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &token, false, nil
	}

	if !model.CanTransition(token.Status, target) {
		return nil, false, apperrors.NewIllegalTransition(string(token.Status), string(target))
	}

	token.Status = target
	token.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`UPDATE tokens SET status = $1, updated_at = $2 WHERE id = $3`,
		token.Status, token.UpdatedAt, token.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update token status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &token, true, nil
}

// Delete soft-deletes a token. Deleting an already deleted or unknown token
// is a no-op so the operation stays idempotent under retry.
func (r *tokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tokens
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// NextTokenNumber atomically claims the next number in the (service, day)
// sequence. The counter-row upsert serializes concurrent allocations, so two
// callers can never observe the same number.
func (r *tokenRepository) NextTokenNumber(ctx context.Context, serviceID uuid.UUID, issueDate time.Time) (int, error) {
	query := `
		INSERT INTO token_sequences (service_id, issue_date, next_number)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (service_id, issue_date)
		DO UPDATE SET next_number = token_sequences.next_number + 1
		RETURNING next_number
	`
	var next int
	if err := r.db.GetContext(ctx, &next, query, serviceID, issueDate); err != nil {
		return 0, fmt.Errorf("failed to allocate token number: %w", err)
	}
	return next, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
