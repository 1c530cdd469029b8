package bookrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/util/database"
)

type Repo interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context, limit, offset int) ([]model.Book, error)
	CountAll(ctx context.Context) (int64, error)
	Insert(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	SetAvailableQuantity(ctx context.Context, id uuid.UUID, n int) (*model.Book, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const bookCols = `id, name, isbn, author, publisher, number_of_pages, quantity, available_quantity, genre`

func (r *repo) scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Name, &b.ISBN, &b.Author, &b.Publisher,
		&b.NumberOfPages, &b.Quantity, &b.AvailableQuantity, &b.Genre)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	const q = `
		SELECT ` + bookCols + `
		FROM books
		WHERE id = $1`
	return r.scanBook(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *repo) ByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	const q = `
		SELECT ` + bookCols + `
		FROM books
		WHERE isbn = $1`
	return r.scanBook(r.db.Pool.QueryRow(ctx, q, isbn))
}

func (r *repo) List(ctx context.Context, limit, offset int) ([]model.Book, error) {
	const q = `
		SELECT ` + bookCols + `
		FROM books
		ORDER BY name, id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.ISBN, &b.Author, &b.Publisher,
			&b.NumberOfPages, &b.Quantity, &b.AvailableQuantity, &b.Genre); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

func (r *repo) Insert(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (id, name, isbn, author, publisher, number_of_pages, quantity, available_quantity, genre)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.Pool.Exec(ctx, q, b.ID, b.Name, b.ISBN, b.Author, b.Publisher,
		b.NumberOfPages, b.Quantity, b.AvailableQuantity, b.Genre)
	return err
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
		UPDATE books
		SET name = $2,
			isbn = $3,
			author = $4,
			publisher = $5,
			number_of_pages = $6,
			quantity = $7,
			available_quantity = $8,
			genre = $9
		WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, b.ID, b.Name, b.ISBN, b.Author, b.Publisher,
		b.NumberOfPages, b.Quantity, b.AvailableQuantity, b.Genre)
	return err
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	return err
}

// ReserveCopy is a single conditional read-modify-write: the decrement
// only lands while a copy is left, so two racing reservations of the
// last copy cannot both succeed.
func (r *repo) ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	const q = `
		UPDATE books
		SET available_quantity = available_quantity - 1
		WHERE id = $1
		AND available_quantity > 0
		RETURNING ` + bookCols
	return r.scanBook(r.db.Pool.QueryRow(ctx, q, id))
}

// ReleaseCopy clamps at the total so a stray double release can never
// push available above quantity.
func (r *repo) ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	const q = `
		UPDATE books
		SET available_quantity = LEAST(available_quantity + 1, quantity)
		WHERE id = $1
		RETURNING ` + bookCols
	return r.scanBook(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *repo) SetAvailableQuantity(ctx context.Context, id uuid.UUID, n int) (*model.Book, error) {
	const q = `
		UPDATE books
		SET available_quantity = $2
		WHERE id = $1
		RETURNING ` + bookCols
	return r.scanBook(r.db.Pool.QueryRow(ctx, q, id, n))
}
