// service/lending/lending_service_test.go
package lending

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/service/inventory"
)

// --- mocks ---

type invErr struct{ c inventory.ErrCode }

func (e invErr) Error() string           { return string(e.c) }
func (e invErr) Code() inventory.ErrCode { return e.c }

// ledgerMock tracks one book's counters with the same conditional
// semantics the inventory service guarantees.
type ledgerMock struct {
	mu       sync.Mutex
	book     *model.Book // nil means unknown book
	reserves int
	releases int
}

func (m *ledgerMock) ReserveCopy(_ context.Context, id uuid.UUID) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.book == nil || m.book.ID != id {
		return nil, invErr{inventory.ErrBookNotFound}
	}
	if m.book.AvailableQuantity <= 0 {
		return nil, invErr{inventory.ErrBookNotAvailable}
	}
	m.book.AvailableQuantity--
	m.reserves++
	cp := *m.book
	return &cp, nil
}

func (m *ledgerMock) ReleaseCopy(_ context.Context, id uuid.UUID) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.book == nil || m.book.ID != id {
		return nil, invErr{inventory.ErrBookNotFound}
	}
	if m.book.AvailableQuantity < m.book.Quantity {
		m.book.AvailableQuantity++
	}
	m.releases++
	cp := *m.book
	return &cp, nil
}

func (m *ledgerMock) available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.AvailableQuantity
}

type userDirMock struct {
	users map[uuid.UUID]*model.User
}

func (m *userDirMock) ByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type loanRepoMock struct {
	mu        sync.Mutex
	loans     map[uuid.UUID]*model.Loan
	insertErr error
	deleteErr error
}

func newLoanRepoMock() *loanRepoMock {
	return &loanRepoMock{loans: make(map[uuid.UUID]*model.Loan)}
}

func (m *loanRepoMock) Insert(_ context.Context, l *model.Loan) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.loans[l.ID] = &cp
	return nil
}

func (m *loanRepoMock) ByID(_ context.Context, id uuid.UUID) (*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *loanRepoMock) MarkReturned(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok || l.Returned {
		return false, nil
	}
	l.Returned = true
	t := at
	l.ReturnedAt = &t
	return true, nil
}

func (m *loanRepoMock) RevertReturned(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loans[id]; ok {
		l.Returned = false
		l.ReturnedAt = nil
	}
	return nil
}

func (m *loanRepoMock) Delete(_ context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loans, id)
	return nil
}

func (m *loanRepoMock) ListAll(_ context.Context) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		out = append(out, *l)
	}
	return out, nil
}

func (m *loanRepoMock) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *loanRepoMock) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		if l.UserID == userID && !l.Returned {
			out = append(out, *l)
		}
	}
	return out, nil
}

// --- fixtures ---

func activeUser() *model.User {
	return &model.User{
		ID:       uuid.New(),
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Name:     "Jane",
		Surname:  "Doe",
		Role:     model.RolePatron,
		Status:   model.UserActive,
	}
}

func ledgerWith(quantity, available int) (*ledgerMock, uuid.UUID) {
	id := uuid.New()
	return &ledgerMock{book: &model.Book{
		ID: id, Name: "Dune", ISBN: "9780441172719",
		Quantity: quantity, AvailableQuantity: available,
	}}, id
}

func newService(r Repo, users UserDirectory, ledger Ledger) *service {
	return New(r, users, ledger).(*service)
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()

	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)
	require.Equal(t, bookID, loan.BookID)
	require.Equal(t, u.ID, loan.UserID)
	require.False(t, loan.Returned)
	require.Nil(t, loan.ReturnedAt)
	require.Equal(t, fixed, loan.BorrowedAt)
	require.Equal(t, fixed.Add(model.LoanPeriod), loan.DueAt)
	require.Equal(t, 4, ledger.available())

	stored, err := repo.ByID(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreate_UserNotFound(t *testing.T) {
	ctx := context.Background()
	ledger, bookID := ledgerWith(5, 5)
	svc := newService(newLoanRepoMock(), &userDirMock{users: map[uuid.UUID]*model.User{}}, ledger)

	_, err := svc.Create(ctx, bookID, uuid.New())
	require.Equal(t, ErrUserNotFound, Code(err))
	require.Equal(t, 5, ledger.available())
}

func TestCreate_UserNotActive(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	u.Status = model.UserInactive
	ledger, bookID := ledgerWith(5, 5)
	svc := newService(newLoanRepoMock(), &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	_, err := svc.Create(ctx, bookID, u.ID)
	require.Equal(t, ErrUserNotActive, Code(err))
	require.Equal(t, 0, ledger.reserves)
}

func TestCreate_BookNotFound(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, _ := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	_, err := svc.Create(ctx, uuid.New(), u.ID)
	require.Equal(t, ErrBookNotFound, Code(err))
	require.Empty(t, repo.loans)
}

func TestCreate_BookNotAvailable(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(3, 0)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	_, err := svc.Create(ctx, bookID, u.ID)
	require.Equal(t, ErrBookNotAvailable, Code(err))
	require.Empty(t, repo.loans)
	require.Equal(t, 0, ledger.available())
}

func TestCreate_InsertFailureRevertsReservation(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	repo.insertErr = errors.New("db down")
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	_, err := svc.Create(ctx, bookID, u.ID)
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
	require.Equal(t, 5, ledger.available())
	require.Equal(t, 1, ledger.reserves)
	require.Equal(t, 1, ledger.releases)
}

func TestReturn_RestoresAvailability(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)
	require.Equal(t, 4, ledger.available())

	returned, err := svc.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.True(t, returned.Returned)
	require.NotNil(t, returned.ReturnedAt)
	require.Equal(t, 5, ledger.available())
}

func TestReturn_SecondCallFails(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)
	_, err = svc.Return(ctx, loan.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, loan.ID)
	require.Equal(t, ErrBookAlreadyReturned, Code(err))
	// the second return never double-releases
	require.Equal(t, 5, ledger.available())
	require.Equal(t, 1, ledger.releases)
}

func TestReturn_NotFound(t *testing.T) {
	ctx := context.Background()
	ledger, _ := ledgerWith(5, 5)
	svc := newService(newLoanRepoMock(), &userDirMock{}, ledger)

	_, err := svc.Return(ctx, uuid.New())
	require.Equal(t, ErrBorrowingNotFound, Code(err))
}

func TestReturn_ConcurrentSingleRelease(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Return(ctx, loan.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.Equal(t, ErrBookAlreadyReturned, Code(err))
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, ledger.releases)
	require.Equal(t, 5, ledger.available())
}

func TestDelete_ActiveLoanReleasesCopy(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)
	require.Equal(t, 4, ledger.available())

	require.NoError(t, svc.Delete(ctx, loan.ID))
	require.Equal(t, 5, ledger.available())

	got, err := repo.ByID(ctx, loan.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDelete_ReturnedLoanLeavesCountersAlone(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)
	_, err = svc.Return(ctx, loan.ID)
	require.NoError(t, err)
	releasesBefore := ledger.releases

	require.NoError(t, svc.Delete(ctx, loan.ID))
	require.Equal(t, releasesBefore, ledger.releases)
	require.Equal(t, 5, ledger.available())
}

func TestDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	ledger, _ := ledgerWith(5, 5)
	svc := newService(newLoanRepoMock(), &userDirMock{}, ledger)

	err := svc.Delete(ctx, uuid.New())
	require.Equal(t, ErrBorrowingNotFound, Code(err))
}

func TestDelete_FailureReReservesCopy(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(5, 5)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	loan, err := svc.Create(ctx, bookID, u.ID)
	require.NoError(t, err)

	repo.deleteErr = errors.New("db down")
	err = svc.Delete(ctx, loan.ID)
	require.Error(t, err)
	// the released copy is taken back so counters still match the record
	require.Equal(t, 4, ledger.available())
}

func TestCreate_ConcurrentLastCopy(t *testing.T) {
	ctx := context.Background()
	u := activeUser()
	ledger, bookID := ledgerWith(1, 1)
	repo := newLoanRepoMock()
	svc := newService(repo, &userDirMock{users: map[uuid.UUID]*model.User{u.ID: u}}, ledger)

	const n = 24
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, bookID, u.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, rejects int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.Equal(t, ErrBookNotAvailable, Code(err))
		rejects++
	}
	require.Equal(t, 1, wins)
	require.Equal(t, n-1, rejects)
	require.Equal(t, 0, ledger.available())
	require.Len(t, repo.loans, 1)
}
