package main

import (
	"errors"
	"time"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDuplicatePayment     = errors.New("payment already exists for order")
	ErrAlreadyRefunded      = errors.New("payment already refunded")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotSettleable        = errors.New("payment is not in processing state")
)

// CardDetails guarda apenas os dados mascarados do cartão.
// O número completo nunca é persistido.
type CardDetails struct {
	LastFour string `json:"lastFour,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// Payment representa um pagamento no sistema
type Payment struct {
	ID                  string      `json:"id" db:"id"`
	OrderID             string      `json:"orderId" db:"order_id"`
	UserID              string      `json:"userId" db:"user_id"`
	Amount              float64     `json:"amount" db:"amount"`
	Currency            string      `json:"currency" db:"currency"`
	PaymentMethod       string      `json:"paymentMethod" db:"payment_method"`
	Status              string      `json:"status" db:"status"`
	TransactionID       string      `json:"transactionId,omitempty" db:"transaction_id"`
	PaymentGateway      string      `json:"paymentGateway" db:"payment_gateway"`
	CardDetails         CardDetails `json:"cardDetails" db:"card_details"`
	FailureReason       string      `json:"failureReason,omitempty" db:"failure_reason"`
	RefundAmount        float64     `json:"refundAmount" db:"refund_amount"`
	RefundTransactionID string      `json:"refundTransactionId,omitempty" db:"refund_transaction_id"`
	CreatedAt           time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time   `json:"updatedAt" db:"updated_at"`
}

// PaymentStatus representa os possíveis status de um pagamento
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// PaymentMethod representa os métodos de pagamento aceitos
const (
	PaymentMethodCard         = "card"
	PaymentMethodPaypal       = "paypal"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWallet       = "wallet"
)

// PaymentGateway representa os gateways de pagamento conhecidos
const (
	PaymentGatewayStripe = "stripe"
	PaymentGatewayPaypal = "paypal"
	PaymentGatewayLocal  = "local"
)

// IsValidPaymentMethod verifica se o método de pagamento é aceito
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodBankTransfer, PaymentMethodWallet:
		return true
	}
	return false
}

// NewPayment cria uma nova instância de Payment em estado processing
func NewPayment(id, orderID, userID string, amount float64, paymentMethod string, card CardDetails) *Payment {
	now := time.Now()
	return &Payment{
		ID:             id,
		OrderID:        orderID,
		UserID:         userID,
		Amount:         amount,
		Currency:       "USD",
		PaymentMethod:  paymentMethod,
		Status:         PaymentStatusProcessing,
		PaymentGateway: PaymentGatewayLocal,
		CardDetails:    card,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete marca o pagamento como liquidado com o transaction id gerado
func (p *Payment) Complete(transactionID string) error {
	if p.Status != PaymentStatusProcessing {
		return ErrNotSettleable
	}
	p.Status = PaymentStatusCompleted
	p.TransactionID = transactionID
	p.UpdatedAt = time.Now()
	return nil
}

// Fail marca o pagamento como falho com o motivo informado
func (p *Payment) Fail(reason string) error {
	if p.Status != PaymentStatusProcessing {
		return ErrNotSettleable
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()
	return nil
}

// Refund marca o pagamento como reembolsado. Sem valor informado, reembolsa
// o valor integral. Reembolsar um pagamento já reembolsado é rejeitado.
func (p *Payment) Refund(refundAmount float64, refundTransactionID string) error {
	if p.Status == PaymentStatusRefunded {
		return ErrAlreadyRefunded
	}
	if refundAmount <= 0 {
		refundAmount = p.Amount
	}
	p.Status = PaymentStatusRefunded
	p.RefundAmount = refundAmount
	p.RefundTransactionID = refundTransactionID
	p.UpdatedAt = time.Now()
	return nil
}

// MaskCard converte os dados brutos do cartão em dados mascarados
func MaskCard(number, brand string) CardDetails {
	lastFour := number
	if len(number) > 4 {
		lastFour = number[len(number)-4:]
	}
	return CardDetails{
		LastFour: lastFour,
		Brand:    brand,
	}
}
