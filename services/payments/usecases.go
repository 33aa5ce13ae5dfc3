package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CardDetailsRequest carrega os dados brutos do cartão recebidos na
// requisição. Só a versão mascarada chega ao banco.
type CardDetailsRequest struct {
	Number string `json:"number"`
	Brand  string `json:"brand"`
}

// ProcessPaymentRequest representa a requisição para processar um pagamento
type ProcessPaymentRequest struct {
	OrderID       string              `json:"orderId" binding:"required"`
	UserID        string              `json:"userId" binding:"required"`
	Amount        float64             `json:"amount" binding:"required,gt=0"`
	PaymentMethod string              `json:"paymentMethod" binding:"required"`
	CardDetails   *CardDetailsRequest `json:"cardDetails"`
}

// RefundPaymentRequest representa a requisição de reembolso
type RefundPaymentRequest struct {
	RefundAmount float64 `json:"refundAmount"`
}

// PaymentUseCase contém a lógica de negócio de pagamentos
type PaymentUseCase struct {
	repository       PaymentRepository
	settlementDelay  time.Duration
	paymentsSettled  metric.Int64Counter
	paymentsRefunded metric.Int64Counter
}

// NewPaymentUseCase cria uma nova instância de PaymentUseCase
func NewPaymentUseCase(repository PaymentRepository, settlementDelay time.Duration) *PaymentUseCase {
	meter := otel.Meter("payments-service")
	paymentsSettled, _ := meter.Int64Counter("payments_settled_total")
	paymentsRefunded, _ := meter.Int64Counter("payments_refunded_total")

	return &PaymentUseCase{
		repository:       repository,
		settlementDelay:  settlementDelay,
		paymentsSettled:  paymentsSettled,
		paymentsRefunded: paymentsRefunded,
	}
}

// ProcessPayment processa o pagamento de um pedido. O order id funciona como
// chave de idempotência: uma segunda chamada para o mesmo pedido devolve o
// pagamento já existente em vez de cobrar de novo.
//
// A liquidação é simulada: depois do delay configurado o pagamento transita
// para completed com um transaction id gerado, e a tarefa de reconciliação é
// gravada no outbox na mesma transação. A entrega ao serviço de pedidos fica
// a cargo do OutboxRelay e não afeta o resultado desta chamada.
func (uc *PaymentUseCase) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*Payment, error) {
	if !IsValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	var card CardDetails
	if req.CardDetails != nil {
		card = MaskCard(req.CardDetails.Number, req.CardDetails.Brand)
	}

	payment := NewPayment(uuid.New().String(), req.OrderID, req.UserID, req.Amount, req.PaymentMethod, card)

	log.Printf("➡️ [PROCESS PAYMENT] OrderID: %s | UserID: %s | Amount: %.2f", req.OrderID, req.UserID, req.Amount)

	err := uc.repository.CreatePayment(ctx, payment)
	if err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			log.Printf("ℹ️ [IDEMPOTENCY] Pagamento já existe para OrderID=%s", req.OrderID)
			return uc.repository.GetPaymentByOrderID(ctx, req.OrderID)
		}
		log.Printf("❌ Failed to create payment: %v", err)
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	// Liquidação simulada (latência do gateway)
	if err := uc.settle(ctx); err != nil {
		return nil, err
	}

	transactionID := "TXN_" + uuid.New().String()
	if err := payment.Complete(transactionID); err != nil {
		return nil, err
	}

	task := ReconciliationTask{
		ID:            uuid.New().String(),
		OrderID:       payment.OrderID,
		PaymentStatus: payment.Status,
		TransactionID: transactionID,
		NextAttemptAt: time.Now(),
	}

	if err := uc.repository.CompletePayment(ctx, payment, task); err != nil {
		log.Printf("❌ Failed to complete payment: %v", err)
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	uc.paymentsSettled.Add(ctx, 1)
	log.Printf("✅ [PAYMENT SETTLED] OrderID: %s | TXN: %s", payment.OrderID, transactionID)
	return payment, nil
}

// settle aguarda o delay de liquidação respeitando o cancelamento do contexto
func (uc *PaymentUseCase) settle(ctx context.Context) error {
	if uc.settlementDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(uc.settlementDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetPayment busca o pagamento de um pedido
func (uc *PaymentUseCase) GetPayment(ctx context.Context, orderID string) (*Payment, error) {
	return uc.repository.GetPaymentByOrderID(ctx, orderID)
}

// ListUserPayments busca os pagamentos de um usuário, mais recentes primeiro
func (uc *PaymentUseCase) ListUserPayments(ctx context.Context, userID string) ([]Payment, error) {
	return uc.repository.ListPaymentsByUser(ctx, userID)
}

// ListPayments busca pagamentos paginados, com filtro opcional de status
func (uc *PaymentUseCase) ListPayments(ctx context.Context, page, limit int, status string) ([]Payment, int, error) {
	return uc.repository.ListPayments(ctx, page, limit, status)
}

// RefundPayment reembolsa o pagamento de um pedido. Sem valor informado,
// reembolsa o valor integral. Um pagamento já reembolsado é rejeitado.
func (uc *PaymentUseCase) RefundPayment(ctx context.Context, orderID string, refundAmount float64) (*Payment, error) {
	payment, err := uc.repository.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	refundTransactionID := "REFUND_" + uuid.New().String()
	if err := payment.Refund(refundAmount, refundTransactionID); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateRefund(ctx, payment); err != nil {
		log.Printf("❌ Failed to refund payment: %v", err)
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	uc.paymentsRefunded.Add(ctx, 1)
	log.Printf("↩️ [REFUND] OrderID: %s | Amount: %.2f | TXN: %s", orderID, payment.RefundAmount, refundTransactionID)
	return payment, nil
}
