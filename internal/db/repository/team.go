package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/domain"
)

// TeamRepo implements domain.MembershipAdmin over the SQLite membership
// store. Reads go to the read pool, writes to the single-writer pool.
type TeamRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewTeamRepo(writeDB, readDB *sql.DB) *TeamRepo {
	return &TeamRepo{writeDB: writeDB, readDB: readDB}
}

// ListMemberships returns the user's membership rows with the team record
// embedded via LEFT JOIN. A membership whose team row is missing comes back
// with a nil Team so the resolver can discard it as dangling.
func (r *TeamRepo) ListMemberships(ctx context.Context, userID string) ([]domain.MembershipWithTeam, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT ut.user_id, ut.team_id, ut.is_default,
		       t.id, t.name, t.slug, t.created_at
		FROM users_teams ut
		LEFT JOIN teams t ON t.id = ut.team_id
		WHERE ut.user_id = ?
		ORDER BY ut.team_id`,
		userID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var memberships []domain.MembershipWithTeam
	for rows.Next() {
		var (
			m         domain.MembershipWithTeam
			isDefault int64
			teamID    sql.NullString
			teamName  sql.NullString
			teamSlug  sql.NullString
			createdAt sql.NullTime
		)
		if err := rows.Scan(&m.UserID, &m.TeamID, &isDefault,
			&teamID, &teamName, &teamSlug, &createdAt); err != nil {
			return nil, err
		}
		m.IsDefault = isDefault != 0
		if teamID.Valid {
			team := &domain.Team{ID: teamID.String, Name: teamName.String}
			if teamSlug.Valid {
				slug := teamSlug.String
				team.Slug = &slug
			}
			if createdAt.Valid {
				team.CreatedAt = createdAt.Time
			}
			m.Team = team
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// ListDefaultRelations returns every is_default membership row across all
// members of the given teams.
func (r *TeamRepo) ListDefaultRelations(ctx context.Context, teamIDs []string) ([]domain.Membership, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inArgs(teamIDs)
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT user_id, team_id, is_default
		FROM users_teams
		WHERE team_id IN (`+placeholders+`) AND is_default = 1`,
		args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var relations []domain.Membership
	for rows.Next() {
		var (
			m         domain.Membership
			isDefault int64
		)
		if err := rows.Scan(&m.UserID, &m.TeamID, &isDefault); err != nil {
			return nil, err
		}
		m.IsDefault = isDefault != 0
		relations = append(relations, m)
	}
	return relations, rows.Err()
}

// ListDefaultMemberEmails returns userID -> email for the default members of
// the given teams, projected from the auth user mirror.
func (r *TeamRepo) ListDefaultMemberEmails(ctx context.Context, teamIDs []string) (map[string]string, error) {
	if len(teamIDs) == 0 {
		return map[string]string{}, nil
	}
	placeholders, args := inArgs(teamIDs)
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT au.id, au.email
		FROM users_teams ut
		JOIN auth_users au ON au.id = ut.user_id
		WHERE ut.team_id IN (`+placeholders+`) AND ut.is_default = 1`,
		args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	emails := make(map[string]string)
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		emails[id] = email
	}
	return emails, rows.Err()
}

// CreateTeam inserts a new team and returns it.
func (r *TeamRepo) CreateTeam(ctx context.Context, req domain.CreateTeamRequest) (*domain.Team, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	team := &domain.Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	var slug any
	if req.Slug != "" {
		team.Slug = &req.Slug
		slug = req.Slug
	}

	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO teams (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		team.ID, team.Name, slug, team.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return team, nil
}

// UpsertAuthUser mirrors a provider user record into the local store.
func (r *TeamRepo) UpsertAuthUser(ctx context.Context, id, email string) error {
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO auth_users (id, email) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email`,
		id, email)
	return mapDBError(err)
}

// AddMembership inserts a (user, team) relation row.
func (r *TeamRepo) AddMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO users_teams (user_id, team_id, is_default) VALUES (?, ?, ?)`,
		m.UserID, m.TeamID, boolToInt(m.IsDefault))
	return mapDBError(err)
}

// CountTeams returns the number of team rows.
func (r *TeamRepo) CountTeams(ctx context.Context) (int64, error) {
	var count int64
	if err := r.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
