package model

import (
	"testing"
	"time"
)

func TestLoanStatus(t *testing.T) {
	l := &Loan{}
	if l.Status() != LoanActive {
		t.Fatalf("new loan should be active, got %s", l.Status())
	}
	l.Returned = true
	if l.Status() != LoanReturned {
		t.Fatalf("returned loan should report returned, got %s", l.Status())
	}
}

func TestLoanOverdueAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	active := &Loan{DueAt: now.Add(-time.Minute)}
	if !active.OverdueAt(now) {
		t.Fatal("past-due active loan should be overdue")
	}

	notDue := &Loan{DueAt: now.Add(time.Minute)}
	if notDue.OverdueAt(now) {
		t.Fatal("loan due in the future should not be overdue")
	}

	dueNow := &Loan{DueAt: now}
	if dueNow.OverdueAt(now) {
		t.Fatal("due date equal to now is not yet overdue")
	}

	returned := &Loan{DueAt: now.Add(-time.Minute), Returned: true}
	if returned.OverdueAt(now) {
		t.Fatal("returned loan is never overdue")
	}
}
