package main

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// OrderItem representa um item do pedido (snapshot do produto no momento da compra)
type OrderItem struct {
	ProductID   string  `json:"productId" db:"product_id"`
	ProductName string  `json:"productName" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Price       float64 `json:"price" db:"price"`
	Discount    float64 `json:"discount" db:"discount"`
}

// Address representa um endereço de entrega ou cobrança
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

// IsZero indica se o endereço está vazio
func (a Address) IsZero() bool {
	return a == Address{}
}

// Order representa um pedido no sistema
type Order struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"userId" db:"user_id"`
	Items           []OrderItem `json:"items" db:"items"`
	ShippingAddress Address     `json:"shippingAddress" db:"shipping_address"`
	BillingAddress  Address     `json:"billingAddress" db:"billing_address"`
	Subtotal        float64     `json:"subtotal" db:"subtotal"`
	Tax             float64     `json:"tax" db:"tax"`
	ShippingCost    float64     `json:"shippingCost" db:"shipping_cost"`
	TotalAmount     float64     `json:"totalAmount" db:"total_amount"`
	Status          string      `json:"status" db:"status"`
	PaymentStatus   string      `json:"paymentStatus" db:"payment_status"`
	PaymentMethod   string      `json:"paymentMethod" db:"payment_method"`
	TransactionID   string      `json:"transactionId,omitempty" db:"transaction_id"`
	Notes           string      `json:"notes,omitempty" db:"notes"`
	TrackingNumber  string      `json:"trackingNumber,omitempty" db:"tracking_number"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// NewOrder cria uma nova instância de Order com status inicial pendente.
// O endereço de cobrança ausente assume o endereço de entrega.
// O total é fixado na criação e nunca recalculado a partir dos itens.
func NewOrder(id, userID string, items []OrderItem, shipping, billing Address, paymentMethod string, subtotal, tax, shippingCost, totalAmount float64) *Order {
	if billing.IsZero() {
		billing = shipping
	}
	now := time.Now()
	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           items,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shippingCost,
		TotalAmount:     totalAmount,
		Status:          OrderStatusPending,
		PaymentStatus:   OrderPaymentStatusPending,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderPaymentStatus representa os possíveis status de pagamento de um pedido
const (
	OrderPaymentStatusPending   = "pending"
	OrderPaymentStatusCompleted = "completed"
	OrderPaymentStatusFailed    = "failed"
	OrderPaymentStatusRefunded  = "refunded"
)

// orderStatusTransitions define o grafo de transições válidas do pedido.
// Cancelamento só é permitido antes da entrega.
var orderStatusTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// paymentStatusTransitions define o grafo de transições do status de pagamento.
// failed pode voltar a completed (nova tentativa de pagamento); refunded é terminal.
var paymentStatusTransitions = map[string][]string{
	OrderPaymentStatusPending:   {OrderPaymentStatusCompleted, OrderPaymentStatusFailed},
	OrderPaymentStatusCompleted: {OrderPaymentStatusRefunded},
	OrderPaymentStatusFailed:    {OrderPaymentStatusCompleted, OrderPaymentStatusRefunded},
	OrderPaymentStatusRefunded:  {},
}

// IsValidOrderStatus verifica se o valor é um status de pedido conhecido
func IsValidOrderStatus(status string) bool {
	_, ok := orderStatusTransitions[status]
	return ok
}

// IsValidOrderPaymentStatus verifica se o valor é um status de pagamento conhecido
func IsValidOrderPaymentStatus(status string) bool {
	_, ok := paymentStatusTransitions[status]
	return ok
}

// CanTransition verifica se o pedido pode mudar para o status informado.
// Transição para o mesmo status é permitida (no-op idempotente).
func (o *Order) CanTransition(status string) bool {
	if o.Status == status {
		return true
	}
	for _, next := range orderStatusTransitions[o.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// CanTransitionPayment verifica se o status de pagamento pode mudar para o informado
func (o *Order) CanTransitionPayment(status string) bool {
	if o.PaymentStatus == status {
		return true
	}
	for _, next := range paymentStatusTransitions[o.PaymentStatus] {
		if next == status {
			return true
		}
	}
	return false
}
