package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, page, limit int, status string) ([]Order, int, error) {
	args := m.Called(ctx, page, limit, status)
	return args.Get(0).([]Order), args.Int(1), args.Error(2)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, transactionID string) (*Order, error) {
	args := m.Called(ctx, orderID, paymentStatus, transactionID)
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(*Order), args.Error(1)
}

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		UserID:          "user-1",
		Items:           checkoutItems(),
		ShippingAddress: shippingAddress(),
		PaymentMethod:   "card",
		Subtotal:        20.00,
		Tax:             2.00,
		ShippingCost:    10.00,
		TotalAmount:     32.00,
	}
}

func TestCreateOrder(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()

	mockRepo.On("CreateOrder", ctx, mock.AnythingOfType("*main.Order")).Return(nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.CreateOrder(ctx, validCreateRequest())

	assert.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, OrderPaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 32.00, order.TotalAmount)
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)
	mockRepo.AssertExpectations(t)
}

func TestUpdateOrderStatus_InvalidValue(t *testing.T) {
	mockRepo := new(MockRepository)
	uc := NewOrderUseCase(mockRepo)

	order, err := uc.UpdateOrderStatus(context.Background(), "order-1", "not-a-status")

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	// O repositório não pode ser tocado: o estado permanece inalterado
	mockRepo.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_IllegalTransition(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	delivered := &Order{ID: "order-1", Status: OrderStatusDelivered}

	mockRepo.On("GetOrder", ctx, "order-1").Return(delivered, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.UpdateOrderStatus(ctx, "order-1", OrderStatusConfirmed)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	mockRepo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_SameStatusIsNoOp(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	pending := &Order{ID: "order-1", Status: OrderStatusPending}

	mockRepo.On("GetOrder", ctx, "order-1").Return(pending, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.UpdateOrderStatus(ctx, "order-1", OrderStatusPending)

	assert.NoError(t, err)
	assert.Equal(t, pending, order)
	mockRepo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_ValidTransition(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	pending := &Order{ID: "order-1", Status: OrderStatusPending}
	confirmed := &Order{ID: "order-1", Status: OrderStatusConfirmed}

	mockRepo.On("GetOrder", ctx, "order-1").Return(pending, nil)
	mockRepo.On("UpdateOrderStatus", ctx, "order-1", OrderStatusConfirmed).Return(confirmed, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.UpdateOrderStatus(ctx, "order-1", OrderStatusConfirmed)

	assert.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	mockRepo.AssertExpectations(t)
}

func TestUpdatePaymentStatus_Completed(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	pending := &Order{ID: "order-1", Status: OrderStatusPending, PaymentStatus: OrderPaymentStatusPending}
	paid := &Order{ID: "order-1", Status: OrderStatusPending, PaymentStatus: OrderPaymentStatusCompleted, TransactionID: "TXN_abc"}

	mockRepo.On("GetOrder", ctx, "order-1").Return(pending, nil)
	mockRepo.On("UpdatePaymentStatus", ctx, "order-1", OrderPaymentStatusCompleted, "TXN_abc").Return(paid, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.UpdatePaymentStatus(ctx, "order-1", OrderPaymentStatusCompleted, "TXN_abc")

	assert.NoError(t, err)
	assert.Equal(t, OrderPaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "TXN_abc", order.TransactionID)
	mockRepo.AssertExpectations(t)
}

func TestUpdatePaymentStatus_RedeliveryIsNoOp(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	paid := &Order{ID: "order-1", PaymentStatus: OrderPaymentStatusCompleted, TransactionID: "TXN_abc"}

	mockRepo.On("GetOrder", ctx, "order-1").Return(paid, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.UpdatePaymentStatus(ctx, "order-1", OrderPaymentStatusCompleted, "TXN_abc")

	// Entrega repetida do outbox não falha nem regrava
	assert.NoError(t, err)
	assert.Equal(t, paid, order)
	mockRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_InvalidValue(t *testing.T) {
	mockRepo := new(MockRepository)
	uc := NewOrderUseCase(mockRepo)

	order, err := uc.UpdatePaymentStatus(context.Background(), "order-1", "processing", "")

	// "processing" é status de Payment, não de pedido
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
}

func TestCancelOrder(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	pending := &Order{ID: "order-1", Status: OrderStatusPending, PaymentStatus: OrderPaymentStatusPending}
	cancelled := &Order{ID: "order-1", Status: OrderStatusCancelled, PaymentStatus: OrderPaymentStatusRefunded}

	mockRepo.On("GetOrder", ctx, "order-1").Return(pending, nil)
	mockRepo.On("CancelOrder", ctx, "order-1").Return(cancelled, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.CancelOrder(ctx, "order-1")

	assert.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, OrderPaymentStatusRefunded, order.PaymentStatus)
	mockRepo.AssertExpectations(t)
}

func TestCancelOrder_SecondCallStillSucceeds(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	cancelled := &Order{ID: "order-1", Status: OrderStatusCancelled, PaymentStatus: OrderPaymentStatusRefunded}

	mockRepo.On("GetOrder", ctx, "order-1").Return(cancelled, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.CancelOrder(ctx, "order-1")

	assert.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, OrderPaymentStatusRefunded, order.PaymentStatus)
	mockRepo.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
}

func TestCancelOrder_DeliveredIsRejected(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()
	delivered := &Order{ID: "order-1", Status: OrderStatusDelivered}

	mockRepo.On("GetOrder", ctx, "order-1").Return(delivered, nil)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.CancelOrder(ctx, "order-1")

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetOrder_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	ctx := context.Background()

	mockRepo.On("GetOrder", ctx, "missing").Return((*Order)(nil), ErrOrderNotFound)

	uc := NewOrderUseCase(mockRepo)
	order, err := uc.GetOrder(ctx, "missing")

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_InvalidStatusFilter(t *testing.T) {
	mockRepo := new(MockRepository)
	uc := NewOrderUseCase(mockRepo)

	orders, total, err := uc.ListOrders(context.Background(), 1, 10, "bogus")

	assert.Nil(t, orders)
	assert.Zero(t, total)
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}
