package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentory/internal/clock"
	"rentory/internal/domain"
	"rentory/internal/modules/availability"
	"rentory/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) UpdateStatusIf(ctx context.Context, id string, expected, next domain.ReservationStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, expected, next, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Reservation), args.Get(1).(int64), args.Error(2)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) CheckAvailability(ctx context.Context, serviceID string, start, end time.Time, quantity int) (*domain.AvailabilityResult, error) {
	args := m.Called(ctx, serviceID, start, end, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityResult), args.Error(1)
}

func (m *MockAvailability) ExplainShortfall(ctx context.Context, serviceID string, start, end time.Time, quantity int) ([]domain.ConflictDetail, error) {
	args := m.Called(ctx, serviceID, start, end, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConflictDetail), args.Error(1)
}

var (
	testNow  = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	jun1     = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	jun3     = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	customer = "cust-42"
)

func validCreateRequest() CreateReservationRequest {
	return CreateReservationRequest{
		ServiceID:  "svc-1",
		StartDate:  jun1,
		EndDate:    jun3,
		Quantity:   2,
		Type:       domain.TypeBooking,
		CustomerID: &customer,
	}
}

func TestCreate_Success(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)

	avail.On("CheckAvailability", mock.Anything, "svc-1", jun1, jun3, 2).
		Return(&domain.AvailabilityResult{IsAvailable: true, AvailableQuantity: 5}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, avail, clock.NewFixed(testNow))

	res, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, domain.StatusPending, res.Status)
	assert.Equal(t, domain.TypeBooking, res.Type)
	assert.Nil(t, res.ExpiresAt)
	assert.Equal(t, &customer, res.CustomerID)
	assert.Equal(t, testNow, res.CreatedAt)
	repo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_ConfirmOnCreate(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)

	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.AvailabilityResult{IsAvailable: true, AvailableQuantity: 5}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, avail, clock.NewFixed(testNow))

	req := validCreateRequest()
	req.ConfirmOnCreate = true

	res, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Status)
}

func TestCreate_MaintenanceIsConfirmedWithoutCustomer(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)

	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.AvailabilityResult{IsAvailable: true, AvailableQuantity: 5}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, avail, clock.NewFixed(testNow))

	req := validCreateRequest()
	req.Type = domain.TypeMaintenance

	res, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, res.Status)
	assert.Nil(t, res.CustomerID)
	assert.Nil(t, res.ExpiresAt)
}

func TestCreate_SoftHoldGetsDefaultTTL(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)

	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.AvailabilityResult{IsAvailable: true, AvailableQuantity: 5}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, avail, clock.NewFixed(testNow), WithHoldTTL(10*time.Minute))

	req := validCreateRequest()
	req.Type = domain.TypeSoftHold

	res, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, testNow.Add(10*time.Minute), *res.ExpiresAt)
}

func TestCreate_SoftHoldRejectsPastExpiry(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	req := validCreateRequest()
	req.Type = domain.TypeSoftHold
	past := testNow.Add(-time.Minute)
	req.ExpiresAt = &past

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_InsufficientInventory(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)

	conflicts := []domain.ConflictDetail{
		{ReservationID: "r1", Status: domain.StatusConfirmed, StartDate: jun1, EndDate: jun3, QuantityReserved: 5},
	}
	avail.On("CheckAvailability", mock.Anything, "svc-1", jun1, jun3, 2).
		Return(&domain.AvailabilityResult{IsAvailable: false, AvailableQuantity: 0}, nil)
	avail.On("ExplainShortfall", mock.Anything, "svc-1", jun1, jun3, 2).
		Return(conflicts, nil)

	svc := NewService(repo, avail, clock.NewFixed(testNow))

	_, err := svc.Create(context.Background(), validCreateRequest())

	var insufficient *domain.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Requested)
	assert.Equal(t, conflicts, insufficient.Conflicts)

	// Nothing may be written when the commit-time check fails.
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_InvalidArguments(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	req := validCreateRequest()
	req.Quantity = 0
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	req = validCreateRequest()
	req.EndDate = req.StartDate
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	req = validCreateRequest()
	req.Type = "weekend_special"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	avail.AssertNotCalled(t, "CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_LegalSequence(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	sequence := []struct {
		from, to domain.ReservationStatus
	}{
		{domain.StatusPending, domain.StatusConfirmed},
		{domain.StatusConfirmed, domain.StatusInUse},
		{domain.StatusInUse, domain.StatusCompleted},
	}

	for _, step := range sequence {
		repo.ExpectedCalls = nil
		repo.On("GetByID", mock.Anything, "res-1").
			Return(&domain.Reservation{ID: "res-1", Status: step.from}, nil).Once()
		repo.On("UpdateStatusIf", mock.Anything, "res-1", step.from, step.to, testNow).
			Return(true, nil).Once()
		repo.On("GetByID", mock.Anything, "res-1").
			Return(&domain.Reservation{ID: "res-1", Status: step.to}, nil).Once()

		res, err := svc.UpdateStatus(context.Background(), "res-1", step.to)
		require.NoError(t, err, "%s -> %s", step.from, step.to)
		assert.Equal(t, step.to, res.Status)
	}
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	repo.On("GetByID", mock.Anything, "res-1").
		Return(&domain.Reservation{ID: "res-1", Status: domain.StatusPending}, nil)

	_, err := svc.UpdateStatus(context.Background(), "res-1", domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	repo.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := svc.UpdateStatus(context.Background(), "ghost", domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_ConcurrentLoserGetsConflict(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	// The conditional write matches no row: someone else moved the status.
	repo.On("GetByID", mock.Anything, "res-1").
		Return(&domain.Reservation{ID: "res-1", Status: domain.StatusPending}, nil)
	repo.On("UpdateStatusIf", mock.Anything, "res-1", domain.StatusPending, domain.StatusConfirmed, testNow).
		Return(false, nil)

	_, err := svc.UpdateStatus(context.Background(), "res-1", domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancel_AllowedStatuses(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	for _, status := range []domain.ReservationStatus{domain.StatusPending, domain.StatusConfirmed} {
		repo.ExpectedCalls = nil
		repo.On("GetByID", mock.Anything, "res-1").
			Return(&domain.Reservation{ID: "res-1", Status: status}, nil).Once()
		repo.On("UpdateStatusIf", mock.Anything, "res-1", status, domain.StatusCancelled, testNow).
			Return(true, nil).Once()
		repo.On("GetByID", mock.Anything, "res-1").
			Return(&domain.Reservation{ID: "res-1", Status: domain.StatusCancelled}, nil).Once()

		res, err := svc.Cancel(context.Background(), "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, res.Status)
	}
}

func TestCancel_RejectedStatuses(t *testing.T) {
	repo := new(MockReservationRepo)
	avail := new(MockAvailability)
	svc := NewService(repo, avail, clock.NewFixed(testNow))

	for _, status := range []domain.ReservationStatus{
		domain.StatusInUse, domain.StatusCompleted, domain.StatusCancelled, domain.StatusNoShow,
	} {
		repo.ExpectedCalls = nil
		repo.On("GetByID", mock.Anything, "res-1").
			Return(&domain.Reservation{ID: "res-1", Status: status}, nil).Once()

		_, err := svc.Cancel(context.Background(), "res-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "status %s", status)
	}
}

// fakeStore backs the race test with a real in-memory reservation store so
// the capacity re-check inside Create runs against actual writes.
type fakeStore struct {
	mu           sync.Mutex
	reservations []domain.Reservation
	capacity     int
}

func (f *fakeStore) Create(ctx context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = append(f.reservations, *res)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reservations {
		if f.reservations[i].ID == id {
			r := f.reservations[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) UpdateStatusIf(ctx context.Context, id string, expected, next domain.ReservationStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reservations {
		if f.reservations[i].ID == id && f.reservations[i].Status == expected {
			f.reservations[i].Status = next
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) List(ctx context.Context, _ repository.ListFilter) ([]domain.Reservation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, len(f.reservations))
	copy(out, f.reservations)
	return out, int64(len(out)), nil
}

func (f *fakeStore) ListOverlapping(ctx context.Context, serviceID string, start, end time.Time) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for i := range f.reservations {
		r := f.reservations[i]
		if r.ServiceID == serviceID && r.Overlaps(start, end) &&
			r.Status != domain.StatusCancelled && r.Status != domain.StatusNoShow {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByServiceID(ctx context.Context, serviceID string) (*domain.ServiceCapacity, error) {
	return &domain.ServiceCapacity{ServiceID: serviceID, TotalQuantity: f.capacity}, nil
}

func TestCreate_RaceExactlyOneSucceeds(t *testing.T) {
	store := &fakeStore{capacity: 5}
	clk := clock.NewFixed(testNow)

	availSvc := availability.NewService(store, store, clk)
	svc := NewService(store, availSvc, clk)

	req := validCreateRequest()
	req.Quantity = 3

	const attempts = 2
	results := make(chan error, attempts)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := svc.Create(context.Background(), req)
			results <- err
		}()
	}
	start.Done()

	var succeeded, insufficient int
	for i := 0; i < attempts; i++ {
		err := <-results
		if err == nil {
			succeeded++
			continue
		}
		var iiErr *domain.InsufficientInventoryError
		require.ErrorAs(t, err, &iiErr)
		insufficient++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	// Capacity invariant: committed quantity never exceeds the ceiling.
	overlapping, err := store.ListOverlapping(context.Background(), "svc-1", jun1, jun3)
	require.NoError(t, err)
	total := 0
	for _, r := range overlapping {
		total += r.QuantityReserved
	}
	assert.LessOrEqual(t, total, 5)
}
