package repository

import (
	"context"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) CreateTeam(team *domain.Team) error {
	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, team.Name).Scan(&team.ID, &team.CreatedAt, &team.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTeamByID(id int64) (*domain.Team, error) {
	query := `
		SELECT name, created_at, version
		FROM teams WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	team := &domain.Team{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&team.Name, &team.CreatedAt, &team.Version); err != nil {
		return nil, err
	}

	return team, nil
}

func (r *Repository) GetAllTeams() ([]*domain.Team, error) {
	query := `
		SELECT id, name, created_at, version
		FROM teams
		ORDER BY id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedAt, &team.Version); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *Repository) GetTeamMembers(teamID int64) ([]*domain.User, error) {
	query := `
		SELECT id, ` + userColumns + `
		FROM users
		WHERE team_id = $1 AND is_active
		ORDER BY full_name
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, teamID)
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
