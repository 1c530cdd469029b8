// model/loan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
)

// LoanPeriod is the fixed borrowing window: DueAt = BorrowedAt + LoanPeriod.
const LoanPeriod = 14 * 24 * time.Hour

type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	UserID     uuid.UUID  `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Returned   bool       `json:"returned"`
}

func (l *Loan) Status() LoanStatus {
	if l.Returned {
		return LoanReturned
	}
	return LoanActive
}

func (l *Loan) OverdueAt(now time.Time) bool {
	return !l.Returned && l.DueAt.Before(now)
}
