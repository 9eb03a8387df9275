package repository

import (
	"context"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

const userColumns = `username, password_hash, full_name, email, role, team_id, telegram_chat_id, notify_channel, is_active, created_at, version`

func (r *Repository) CreateUser(user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, team_id, telegram_chat_id, notify_channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_active, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role, user.TeamID, user.TelegramChatID, user.NotifyChannel}
	dst := []any{&user.ID, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.TeamID, &user.TelegramChatID, &user.NotifyChannel, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, team_id, telegram_chat_id, notify_channel, is_active, created_at, version
		FROM users WHERE username = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	user := &domain.User{
		Username: username,
	}

	dst := []any{&user.ID, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.TeamID, &user.TelegramChatID, &user.NotifyChannel, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetAllUsers() ([]*domain.User, error) {
	query := `
		SELECT id, ` + userColumns + `
		FROM users
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.TeamID, &user.TelegramChatID, &user.NotifyChannel, &user.IsActive, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			role = $4,
			team_id = $5,
			telegram_chat_id = $6,
			notify_channel = $7,
			is_active = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{user.PasswordHash, user.FullName, user.Email, user.Role, user.TeamID, user.TelegramChatID, user.NotifyChannel, user.IsActive, user.ID, user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteUser(id int64) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
