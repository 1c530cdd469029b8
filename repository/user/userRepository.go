package userrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/util/database"
)

// Repo is the read-only user directory. Account management lives in the
// surrounding system; this service only resolves identity and status.
type Repo interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const userCols = `id, username, email, name, surname, role, status`

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
		SELECT ` + userCols + `
		FROM users
		WHERE id = $1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *repo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Surname, &u.Role, &u.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
