package overdue

import (
	"context"
	"time"

	loanrepo "github.com/ilhanozkan/library-management-app/repository/loan"
)

// Row = repository shape
type Row = loanrepo.OverdueRow

type Repo interface {
	ListOverdue(ctx context.Context, now time.Time) ([]Row, error)
	Count(ctx context.Context) (int64, error)
}

// Summary carries the data behind the overdue report. Rendering is the
// caller's concern.
type Summary struct {
	GeneratedAt     time.Time `json:"generated_at"`
	TotalBorrowings int64     `json:"total_borrowings"`
	OverdueCount    int       `json:"overdue_count"`
	Items           []Row     `json:"items"`
}

type Service interface {
	// List returns every loan with returned=false and a due date before
	// now, oldest due date first. Read-only.
	List(ctx context.Context, now time.Time) ([]Row, error)

	// Summary is List plus the borrowing totals the report header needs.
	Summary(ctx context.Context, now time.Time) (*Summary, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) List(ctx context.Context, now time.Time) ([]Row, error) {
	return s.r.ListOverdue(ctx, now)
}

func (s *service) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	items, err := s.r.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	total, err := s.r.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		GeneratedAt:     now,
		TotalBorrowings: total,
		OverdueCount:    len(items),
		Items:           items,
	}, nil
}
