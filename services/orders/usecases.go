package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	UserID          string      `json:"userId" binding:"required"`
	Items           []OrderItem `json:"items" binding:"required,min=1"`
	ShippingAddress Address     `json:"shippingAddress" binding:"required"`
	BillingAddress  Address     `json:"billingAddress"`
	PaymentMethod   string      `json:"paymentMethod" binding:"required"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	ShippingCost    float64     `json:"shippingCost"`
	TotalAmount     float64     `json:"totalAmount" binding:"required"`
}

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	repository Repository
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(repository Repository) *OrderUseCase {
	return &OrderUseCase{
		repository: repository,
	}
}

// CreateOrder cria um novo pedido com status pendente
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	order := NewOrder(uuid.New().String(), req.UserID, req.Items,
		req.ShippingAddress, req.BillingAddress, req.PaymentMethod,
		req.Subtotal, req.Tax, req.ShippingCost, req.TotalAmount)

	if err := uc.repository.CreateOrder(ctx, order); err != nil {
		log.Printf("❌ Failed to create order: %v", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log.Printf("✅ [CREATE ORDER] OrderID: %s | UserID: %s | Total: %.2f", order.ID, order.UserID, order.TotalAmount)
	return order, nil
}

// GetOrder busca um pedido pelo ID
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return uc.repository.GetOrder(ctx, orderID)
}

// ListOrdersByUser busca os pedidos de um usuário, mais recentes primeiro
func (uc *OrderUseCase) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return uc.repository.ListOrdersByUser(ctx, userID)
}

// ListOrders busca pedidos paginados, com filtro opcional de status
func (uc *OrderUseCase) ListOrders(ctx context.Context, page, limit int, status string) ([]Order, int, error) {
	if status != "" && !IsValidOrderStatus(status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, status)
	}
	return uc.repository.ListOrders(ctx, page, limit, status)
}

// UpdateOrderStatus muda o status de um pedido respeitando o grafo de transições
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	if !IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, status)
	}

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == status {
		// No-op idempotente
		return order, nil
	}

	if !order.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	updated, err := uc.repository.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		log.Printf("❌ Failed to update order status: %v", err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	log.Printf("✅ [UPDATE STATUS] OrderID: %s | %s -> %s", orderID, order.Status, status)
	return updated, nil
}

// UpdatePaymentStatus muda o status de pagamento do pedido. É o endpoint de
// reconciliação chamado pelo serviço de pagamentos após a liquidação.
func (uc *OrderUseCase) UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, transactionID string) (*Order, error) {
	if !IsValidOrderPaymentStatus(paymentStatus) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, paymentStatus)
	}

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// A entrega do outbox é at-least-once: repetir o mesmo status é um no-op.
	if order.PaymentStatus == paymentStatus && (transactionID == "" || order.TransactionID == transactionID) {
		return order, nil
	}

	if !order.CanTransitionPayment(paymentStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.PaymentStatus, paymentStatus)
	}

	updated, err := uc.repository.UpdatePaymentStatus(ctx, orderID, paymentStatus, transactionID)
	if err != nil {
		log.Printf("❌ Failed to update payment status: %v", err)
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	log.Printf("✅ [UPDATE PAYMENT STATUS] OrderID: %s | %s -> %s | TXN: %s", orderID, order.PaymentStatus, paymentStatus, transactionID)
	return updated, nil
}

// CancelOrder cancela o pedido e marca o pagamento como reembolsado
// atomicamente. Cancelar um pedido já cancelado é um no-op de sucesso.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == OrderStatusCancelled {
		return order, nil
	}

	if !order.CanTransition(OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, OrderStatusCancelled)
	}

	updated, err := uc.repository.CancelOrder(ctx, orderID)
	if err != nil {
		log.Printf("❌ Failed to cancel order: %v", err)
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	log.Printf("↩️ [CANCEL ORDER] OrderID: %s", orderID)
	return updated, nil
}
