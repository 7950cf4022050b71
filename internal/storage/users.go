package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rohankatakam/internhub/internal/models"
)

// User operations

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.GitHubUsername != nil && isBlank(*user.GitHubUsername) {
		user.GitHubUsername = nil
	}

	query := `
		INSERT INTO users (id, name, email, role, github_username, mentor_id, created_at, updated_at)
		VALUES (:id, :name, :email, :role, :github_username, :mentor_id, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.Email, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.rebind(`SELECT * FROM users WHERE id = ?`), id)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SetGitHubUsername sets or clears (nil/blank) the user's GitHub username
func (s *SQLStore) SetGitHubUsername(ctx context.Context, id string, username *string) error {
	if username != nil && isBlank(*username) {
		username = nil
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET github_username = ?, updated_at = ? WHERE id = ?`),
		username, s.now(), id)
	if err != nil {
		return fmt.Errorf("set github username: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInternsWithGitHub returns interns that can be fetched from GitHub
func (s *SQLStore) ListInternsWithGitHub(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.db.SelectContext(ctx, &users, s.rebind(`
		SELECT * FROM users
		WHERE role = ? AND github_username IS NOT NULL AND github_username <> ''
		ORDER BY created_at
	`), models.RoleIntern)
	if err != nil {
		return nil, fmt.Errorf("list interns: %w", err)
	}
	return users, nil
}

// DeleteUser removes the user; metrics records and summaries cascade
func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
