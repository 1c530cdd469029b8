package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ilhanozkan/library-management-app/model"
)

type Repo interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context, limit, offset int) ([]model.Book, error)
	CountAll(ctx context.Context) (int64, error)
	Insert(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveCopy decrements available_quantity only while it is > 0 and
	// returns the updated row, or nil when no row qualified.
	ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// ReleaseCopy increments available_quantity clamped at quantity and
	// returns the updated row, or nil when the book is missing.
	ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	SetAvailableQuantity(ctx context.Context, id uuid.UUID, n int) (*model.Book, error)
}

// Publisher receives an event for every committed counter change.
// A publish failure never fails the mutation that produced it.
type Publisher interface {
	Publish(ev model.AvailabilityEvent) error
}

type Service interface {
	Create(ctx context.Context, spec model.BookSpec) (*model.Book, error)
	Update(ctx context.Context, id uuid.UUID, spec model.BookSpec) (*model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context, page, size int) ([]model.Book, int64, error)

	// ReserveCopy takes one available copy of the book. Exactly one of N
	// concurrent reservations against a single remaining copy succeeds.
	ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// ReleaseCopy puts one copy back, never above the total quantity.
	ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// SetAvailableQuantity is the administrative override.
	SetAvailableQuantity(ctx context.Context, id uuid.UUID, n int) (*model.Book, error)
}

// ----- Service implementation -----

type service struct {
	r     Repo
	pub   Publisher
	locks *bookLocks
}

func New(r Repo, pub Publisher) Service {
	return &service{r: r, pub: pub, locks: newBookLocks()}
}

func (s *service) Create(ctx context.Context, spec model.BookSpec) (*model.Book, error) {
	normalizeSpec(&spec)

	b := &model.Book{
		ID:            uuid.New(),
		Name:          spec.Name,
		ISBN:          spec.ISBN,
		Author:        spec.Author,
		Publisher:     spec.Publisher,
		NumberOfPages: spec.NumberOfPages,
		Quantity:      spec.Quantity,
		// a new book starts with every copy on the shelf
		AvailableQuantity: spec.Quantity,
		Genre:             spec.Genre,
	}

	if err := s.r.Insert(ctx, b); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}

	s.publish(b)
	return b, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, spec model.BookSpec) (*model.Book, error) {
	defer s.locks.acquire(id)()

	cur, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, makeErr(ErrBookNotFound)
	}

	normalizeSpec(&spec)

	oldQuantity := cur.Quantity
	oldAvailable := cur.AvailableQuantity

	cur.Name = spec.Name
	cur.ISBN = spec.ISBN
	cur.Author = spec.Author
	cur.Publisher = spec.Publisher
	cur.NumberOfPages = spec.NumberOfPages
	cur.Quantity = spec.Quantity
	cur.Genre = spec.Genre

	// the on-loan share survives a total change; available is re-clamped
	if cur.AvailableQuantity > cur.Quantity {
		cur.AvailableQuantity = cur.Quantity
	}
	if cur.AvailableQuantity < 0 {
		cur.AvailableQuantity = 0
	}

	if err := s.r.Update(ctx, cur); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}

	if cur.Quantity != oldQuantity || cur.AvailableQuantity != oldAvailable {
		s.publish(cur)
	}
	return cur, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	defer s.locks.acquire(id)()

	cur, err := s.r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return makeErr(ErrBookNotFound)
	}
	return s.r.Delete(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	return b, nil
}

func (s *service) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	b, err := s.r.ByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	return b, nil
}

func (s *service) List(ctx context.Context, page, size int) ([]model.Book, int64, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	rows, err := s.r.List(ctx, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *service) ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	defer s.locks.acquire(id)()

	b, err := s.r.ReserveCopy(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		// no row qualified: missing book or no copies left
		cur, err := s.r.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, makeErr(ErrBookNotAvailable)
	}

	s.publish(b)
	return b, nil
}

func (s *service) ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	defer s.locks.acquire(id)()

	b, err := s.r.ReleaseCopy(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrBookNotFound)
	}

	s.publish(b)
	return b, nil
}

func (s *service) SetAvailableQuantity(ctx context.Context, id uuid.UUID, n int) (*model.Book, error) {
	defer s.locks.acquire(id)()

	cur, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	if n < 0 || n > cur.Quantity {
		return nil, makeErr(ErrInvalidQuantity)
	}
	if n == cur.AvailableQuantity {
		return cur, nil
	}

	b, err := s.r.SetAvailableQuantity(ctx, id, n)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrBookNotFound)
	}

	s.publish(b)
	return b, nil
}

// publish emits an availability event after the repository write has
// committed, so a rolled-back mutation never produces a ghost event.
func (s *service) publish(b *model.Book) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(model.NewAvailabilityEvent(b)); err != nil {
		slog.Warn("availability publish", "book_id", b.ID, "err", err)
	}
}

func normalizeSpec(spec *model.BookSpec) {
	if spec.Quantity < 0 {
		spec.Quantity = 0
	}
	if spec.NumberOfPages < 0 {
		spec.NumberOfPages = 0
	}
	if spec.Genre == "" {
		spec.Genre = model.GenreOther
	}
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		msg := strings.ToLower(pgErr.Message)

		if strings.Contains(cn, "books_isbn") || strings.Contains(msg, "isbn") {
			return makeErr(ErrISBNTaken)
		}
	}
	return nil
}
