package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vaultline/account-service/internal/domain"
)

// UserRepository looks up account owners. This service never creates or
// mutates users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.AccountUser, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM account_users
		WHERE id = $1
	`
	var user domain.AccountUser
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
