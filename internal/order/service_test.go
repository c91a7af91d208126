package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kirana-be/internal/sequence"
	"kirana-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		o.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]*Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uint) ([]*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uint, status OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: html})
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// syncRunner executes side effects inline so tests can assert on them.
type syncRunner struct{}

func (syncRunner) Go(_ string, fn func(ctx context.Context) error) {
	_ = fn(context.Background())
}

type recordingCreditor struct {
	mu      sync.Mutex
	credits []credit
	err     error
}

type credit struct {
	UserID uint
	Total  float64
}

func (c *recordingCreditor) CreditForOrder(_ context.Context, userID uint, total float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.credits = append(c.credits, credit{UserID: userID, Total: total})
	return 1, nil
}

type memAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
	fail     bool
}

func (a *memAllocator) Next(_ context.Context, name string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return 0, errors.New("counter unavailable")
	}
	if a.counters == nil {
		a.counters = make(map[string]int64)
	}
	a.counters[name]++
	return a.counters[name], nil
}

type fixture struct {
	repo     *MockRepository
	mailer   *recordingMailer
	creditor *recordingCreditor
	alloc    *memAllocator
	svc      Service
}

func newFixture(policy TransitionPolicy) *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		mailer:   &recordingMailer{},
		creditor: &recordingCreditor{},
		alloc:    &memAllocator{},
	}
	codes := sequence.NewCodeGenerator("GKS", f.alloc)
	f.svc = NewService(
		f.repo, codes, f.mailer, syncRunner{}, f.creditor, nil,
		policy, "Gupta Kirana Store", "admin@store.test",
	)
	return f
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), 0, "admin@store.test", "ADMIN")
}

func customerCtx(id uint) context.Context {
	return utils.SetUserContext(context.Background(), id, "user@store.test", "USER")
}

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		CustomerName: "Ravi Gupta",
		Email:        "ravi@example.com",
		Phone:        "9876543210",
		Address:      "12 Market Road",
		DeliverySlot: "6 PM - 8 PM",
		Items:        []OrderItem{{Name: "Rice", Price: 50, Quantity: 2}},
		ServiceFee:   5,
		DeliveryFee:  10,
	}
}

// --- PlaceOrder ---

func TestPlaceOrder(t *testing.T) {
	f := newFixture(PolicyLenient)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

	o, err := f.svc.PlaceOrder(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, float64(100), o.Subtotal)
	assert.Equal(t, float64(115), o.Total, "total = subtotal + service fee + delivery fee")
	assert.Equal(t, StatusPending, o.Status)
	assert.Regexp(t, `^GKS-\d{6}-\d{3,}$`, o.Code)
	assert.NotEmpty(t, o.BillHTML, "bill snapshot is rendered at creation")
	assert.Contains(t, o.BillHTML, o.Code)

	// Operator gets the new-order alert.
	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "admin@store.test", f.mailer.sent[0].To)

	f.repo.AssertExpectations(t)
}

func TestPlaceOrder_SequentialCodes(t *testing.T) {
	f := newFixture(PolicyLenient)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	first, err := f.svc.PlaceOrder(context.Background(), validInput())
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), validInput())
	require.NoError(t, err)

	stamp := time.Now().UTC().Format("060102")
	assert.Equal(t, "GKS-"+stamp+"-001", first.Code)
	assert.Equal(t, "GKS-"+stamp+"-002", second.Code)
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(PolicyLenient)

	t.Run("NoItems", func(t *testing.T) {
		in := validInput()
		in.Items = nil
		_, err := f.svc.PlaceOrder(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("BadItem", func(t *testing.T) {
		in := validInput()
		in.Items = []OrderItem{{Name: "Rice", Price: 50, Quantity: 0}}
		_, err := f.svc.PlaceOrder(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("MissingContact", func(t *testing.T) {
		in := validInput()
		in.Phone = ""
		_, err := f.svc.PlaceOrder(context.Background(), in)
		assert.ErrorIs(t, err, ErrMissingContact)
	})

	// Rejected payloads never reach the allocator or the store.
	assert.Empty(t, f.alloc.counters)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_AllocationFailureAborts(t *testing.T) {
	f := newFixture(PolicyLenient)
	f.alloc.fail = true

	_, err := f.svc.PlaceOrder(context.Background(), validInput())
	assert.Error(t, err)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.mailer.count())
}

func TestPlaceOrder_PersistFailureSkipsNotification(t *testing.T) {
	f := newFixture(PolicyLenient)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.PlaceOrder(context.Background(), validInput())
	assert.Error(t, err)
	assert.Equal(t, 0, f.mailer.count())
}

// --- UpdateStatus ---

func storedOrder(status OrderStatus, userID *uint) *Order {
	o := sampleOrder()
	o.ID = 1
	o.Status = status
	o.UserID = userID
	o.Email = "ravi@example.com"
	return o
}

func TestUpdateStatus_DeliveredFiresEffectsOnce(t *testing.T) {
	f := newFixture(PolicyLenient)
	userID := uint(7)

	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &userID), nil).Once()
	f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusDelivered).Return(nil)

	o, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
	require.NotNil(t, o.DeliveredAt)

	require.Len(t, f.creditor.credits, 1)
	assert.Equal(t, credit{UserID: 7, Total: 115}, f.creditor.credits[0])
	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "ravi@example.com", f.mailer.sent[0].To)

	// Re-delivering is accepted but fires nothing again.
	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusDelivered, &userID), nil).Once()

	_, err = f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err)
	assert.Len(t, f.creditor.credits, 1, "loyalty credit must apply exactly once")
	assert.Equal(t, 1, f.mailer.count(), "confirmation mail must send exactly once")
}

func TestUpdateStatus_PendingDirectlyToDelivered(t *testing.T) {
	f := newFixture(PolicyLenient)
	userID := uint(3)

	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &userID), nil)
	f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusDelivered).Return(nil)

	o, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, o.DeliveredAt)
	assert.Len(t, f.creditor.credits, 1)
}

func TestUpdateStatus_GuestOrderSkipsLoyalty(t *testing.T) {
	f := newFixture(PolicyLenient)

	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusDispatched, nil), nil)
	f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusDelivered).Return(nil)

	_, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, f.creditor.credits)
	assert.Equal(t, 1, f.mailer.count(), "confirmation still goes to the contact email")
}

func TestUpdateStatus_NoEmailSkipsConfirmation(t *testing.T) {
	f := newFixture(PolicyLenient)
	userID := uint(7)

	o := storedOrder(StatusPending, &userID)
	o.Email = ""
	f.repo.On("GetByID", mock.Anything, uint(1)).Return(o, nil)
	f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusDelivered).Return(nil)

	_, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mailer.count())
	assert.Len(t, f.creditor.credits, 1, "missing email does not block the loyalty credit")
}

func TestUpdateStatus_LoyaltyFailureDoesNotRevert(t *testing.T) {
	f := newFixture(PolicyLenient)
	userID := uint(7)
	f.creditor.err = errors.New("balance write failed")

	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &userID), nil)
	f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusDelivered).Return(nil)

	o, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
	require.NoError(t, err, "side-effect failure never surfaces to the caller")
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	f := newFixture(PolicyLenient)

	_, err := f.svc.UpdateStatus(adminCtx(), 1, OrderStatus("shipped"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_RequiresOperator(t *testing.T) {
	f := newFixture(PolicyLenient)

	_, err := f.svc.UpdateStatus(customerCtx(7), 1, StatusAccepted)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.UpdateStatus(context.Background(), 1, StatusAccepted)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateStatus_StrictPolicy(t *testing.T) {
	f := newFixture(PolicyStrict)
	userID := uint(7)

	t.Run("ForwardStepAllowed", func(t *testing.T) {
		f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &userID), nil).Once()
		f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusAccepted).Return(nil).Once()

		o, err := f.svc.UpdateStatus(adminCtx(), 1, StatusAccepted)
		require.NoError(t, err)
		assert.NotNil(t, o.AcceptedAt)
	})

	t.Run("SkippingStepsRejected", func(t *testing.T) {
		f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &userID), nil).Once()

		_, err := f.svc.UpdateStatus(adminCtx(), 1, StatusDelivered)
		assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	})

	t.Run("CancelFromNonTerminal", func(t *testing.T) {
		f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusDispatched, &userID), nil).Once()
		f.repo.On("UpdateStatus", mock.Anything, uint(1), StatusCancelled).Return(nil).Once()

		_, err := f.svc.UpdateStatus(adminCtx(), 1, StatusCancelled)
		assert.NoError(t, err)
	})

	t.Run("LeavingTerminalRejected", func(t *testing.T) {
		f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusDelivered, &userID), nil).Once()

		_, err := f.svc.UpdateStatus(adminCtx(), 1, StatusAccepted)
		assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	})
}

// --- Listings ---

func TestListForOperator_RequiresOperator(t *testing.T) {
	f := newFixture(PolicyLenient)

	_, err := f.svc.ListForOperator(customerCtx(7))
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.repo.On("ListAll", mock.Anything).Return([]*Order{}, nil)
	_, err = f.svc.ListForOperator(adminCtx())
	assert.NoError(t, err)
}

func TestGetDetail_Ownership(t *testing.T) {
	f := newFixture(PolicyLenient)
	owner := uint(7)

	f.repo.On("GetByID", mock.Anything, uint(1)).Return(storedOrder(StatusPending, &owner), nil)

	_, err := f.svc.GetDetail(customerCtx(7), 1)
	assert.NoError(t, err)

	_, err = f.svc.GetDetail(customerCtx(8), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.GetDetail(adminCtx(), 1)
	assert.NoError(t, err)
}
