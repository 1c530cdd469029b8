package loanrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/util/database"
)

// OverdueRow is one line item of the overdue report: the loan dates plus
// the book and borrower fields needed to render it.
type OverdueRow struct {
	LoanID      uuid.UUID `json:"loan_id"`
	BookID      uuid.UUID `json:"book_id"`
	BookName    string    `json:"book_name"`
	BookAuthor  string    `json:"book_author"`
	BorrowedAt  time.Time `json:"borrowed_at"`
	DueAt       time.Time `json:"due_at"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserSurname string    `json:"user_surname"`
	UserEmail   string    `json:"user_email"`
}

type Repo interface {
	Insert(ctx context.Context, l *model.Loan) error
	ByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevertReturned(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]model.Loan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
	ListOverdue(ctx context.Context, now time.Time) ([]OverdueRow, error)
	Count(ctx context.Context) (int64, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const loanCols = `id, book_id, user_id, borrow_date, due_date, return_date, returned`

func (r *repo) Insert(ctx context.Context, l *model.Loan) error {
	const q = `
		INSERT INTO borrowings (id, book_id, user_id, borrow_date, due_date, return_date, returned)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Pool.Exec(ctx, q, l.ID, l.BookID, l.UserID, l.BorrowedAt, l.DueAt, l.ReturnedAt, l.Returned)
	return err
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM borrowings
		WHERE id = $1`
	var l model.Loan
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.BookID, &l.UserID, &l.BorrowedAt, &l.DueAt, &l.ReturnedAt, &l.Returned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkReturned only matches a still-active row; the caller treats zero
// affected rows as an already-returned loan.
func (r *repo) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	const q = `
		UPDATE borrowings
		SET returned = TRUE,
			return_date = $2
		WHERE id = $1
		AND returned = FALSE`
	tag, err := r.db.Pool.Exec(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) RevertReturned(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE borrowings
		SET returned = FALSE,
			return_date = NULL
		WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM borrowings WHERE id = $1`, id)
	return err
}

func (r *repo) ListAll(ctx context.Context) ([]model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM borrowings
		ORDER BY borrow_date DESC, id DESC`
	return r.queryLoans(ctx, q)
}

func (r *repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM borrowings
		WHERE user_id = $1
		ORDER BY borrow_date DESC, id DESC`
	return r.queryLoans(ctx, q, userID)
}

func (r *repo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM borrowings
		WHERE user_id = $1
		AND returned = FALSE
		ORDER BY borrow_date DESC, id DESC`
	return r.queryLoans(ctx, q, userID)
}

func (r *repo) queryLoans(ctx context.Context, q string, args ...any) ([]model.Loan, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.ID, &l.BookID, &l.UserID, &l.BorrowedAt, &l.DueAt, &l.ReturnedAt, &l.Returned); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repo) ListOverdue(ctx context.Context, now time.Time) ([]OverdueRow, error) {
	const q = `
		SELECT
		l.id          AS loan_id,
		l.book_id     AS book_id,
		b.name        AS book_name,
		b.author      AS book_author,
		l.borrow_date AS borrowed_at,
		l.due_date    AS due_at,
		l.user_id     AS user_id,
		u.name        AS user_name,
		u.surname     AS user_surname,
		u.email       AS user_email
		FROM borrowings l
		JOIN books b ON b.id = l.book_id
		JOIN users u ON u.id = l.user_id
		WHERE l.returned = FALSE
		AND l.due_date < $1
		ORDER BY l.due_date, l.id`
	rows, err := r.db.Pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueRow
	for rows.Next() {
		var o OverdueRow
		if err := rows.Scan(
			&o.LoanID, &o.BookID, &o.BookName, &o.BookAuthor,
			&o.BorrowedAt, &o.DueAt, &o.UserID, &o.UserName, &o.UserSurname, &o.UserEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM borrowings`).Scan(&n)
	return n, err
}
