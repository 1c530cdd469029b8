package lending

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/service/inventory"
)

type Repo interface {
	Insert(ctx context.Context, l *model.Loan) error
	ByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// MarkReturned flips returned only while it is still false; reports
	// whether a row actually changed.
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevertReturned(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]model.Loan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
}

// UserDirectory is the external user-status lookup. ByID returns
// (nil, nil) for an unknown user.
type UserDirectory interface {
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Ledger is the slice of the inventory service the workflow drives.
type Ledger interface {
	ReserveCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ReleaseCopy(ctx context.Context, id uuid.UUID) (*model.Book, error)
}

type Service interface {
	// Create validates user and book state, reserves a copy and persists
	// the loan. The due date is fixed at creation time.
	Create(ctx context.Context, bookID, userID uuid.UUID) (*model.Loan, error)

	// Return marks the loan returned exactly once and releases the copy.
	Return(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)

	// Delete removes the record, releasing the copy first when the loan
	// is still active.
	Delete(ctx context.Context, loanID uuid.UUID) error

	GetByID(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	ListAll(ctx context.Context) ([]model.Loan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error)
}

// ----- Service implementation -----

type service struct {
	r      Repo
	users  UserDirectory
	ledger Ledger
	now    func() time.Time
}

func New(r Repo, users UserDirectory, ledger Ledger) Service {
	return &service{r: r, users: users, ledger: ledger, now: time.Now}
}

func (s *service) Create(ctx context.Context, bookID, userID uuid.UUID) (*model.Loan, error) {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrUserNotFound)
	}
	if u.Status != model.UserActive {
		return nil, makeErr(ErrUserNotActive)
	}

	if _, err := s.ledger.ReserveCopy(ctx, bookID); err != nil {
		return nil, mapLedgerErr(err)
	}

	now := s.now().UTC()
	loan := &model.Loan{
		ID:         uuid.New(),
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      now.Add(model.LoanPeriod),
		Returned:   false,
	}

	if err := s.r.Insert(ctx, loan); err != nil {
		// the copy was reserved but the loan never existed; put it back
		if _, rerr := s.ledger.ReleaseCopy(ctx, bookID); rerr != nil {
			slog.Error("compensating release failed", "book_id", bookID, "err", rerr)
		}
		return nil, err
	}

	return loan, nil
}

func (s *service) Return(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.r.ByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, makeErr(ErrBorrowingNotFound)
	}
	if loan.Returned {
		return nil, makeErr(ErrBookAlreadyReturned)
	}

	at := s.now().UTC()

	// the guarded update is the idempotence point: a losing concurrent
	// return sees zero rows changed and never releases a second copy
	changed, err := s.r.MarkReturned(ctx, loanID, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, makeErr(ErrBookAlreadyReturned)
	}

	if _, err := s.ledger.ReleaseCopy(ctx, loan.BookID); err != nil {
		if rerr := s.r.RevertReturned(ctx, loanID); rerr != nil {
			slog.Error("revert returned mark failed", "loan_id", loanID, "err", rerr)
		}
		return nil, mapLedgerErr(err)
	}

	loan.Returned = true
	loan.ReturnedAt = &at
	return loan, nil
}

func (s *service) Delete(ctx context.Context, loanID uuid.UUID) error {
	loan, err := s.r.ByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan == nil {
		return makeErr(ErrBorrowingNotFound)
	}

	released := false
	if !loan.Returned {
		// compensate before the record disappears so the copy is never
		// permanently lost to a deleted-but-unreturned loan
		if _, err := s.ledger.ReleaseCopy(ctx, loan.BookID); err != nil {
			// a book that was itself removed has nothing left to release
			if inventory.Code(err) != inventory.ErrBookNotFound {
				return mapLedgerErr(err)
			}
		} else {
			released = true
		}
	}

	if err := s.r.Delete(ctx, loanID); err != nil {
		if released {
			if _, rerr := s.ledger.ReserveCopy(ctx, loan.BookID); rerr != nil {
				slog.Error("re-reserve after failed delete", "loan_id", loanID, "err", rerr)
			}
		}
		return err
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.r.ByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, makeErr(ErrBorrowingNotFound)
	}
	return loan, nil
}

func (s *service) ListAll(ctx context.Context) ([]model.Loan, error) {
	return s.r.ListAll(ctx)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.r.ListActiveByUser(ctx, userID)
}

func (s *service) requireUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return makeErr(ErrUserNotFound)
	}
	return nil
}

func mapLedgerErr(err error) error {
	switch inventory.Code(err) {
	case inventory.ErrBookNotFound:
		return makeErr(ErrBookNotFound)
	case inventory.ErrBookNotAvailable:
		return makeErr(ErrBookNotAvailable)
	default:
		return err
	}
}
