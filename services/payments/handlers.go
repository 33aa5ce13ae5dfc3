package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PaymentUseCaseInterface define a interface para o use case
type PaymentUseCaseInterface interface {
	ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*Payment, error)
	GetPayment(ctx context.Context, orderID string) (*Payment, error)
	ListUserPayments(ctx context.Context, userID string) ([]Payment, error)
	ListPayments(ctx context.Context, page, limit int, status string) ([]Payment, int, error)
	RefundPayment(ctx context.Context, orderID string, refundAmount float64) (*Payment, error)
}

// PaymentHandler contém os handlers HTTP para pagamentos
type PaymentHandler struct {
	useCase PaymentUseCaseInterface
	tracer  trace.Tracer
}

// NewPaymentHandler cria uma nova instância de PaymentHandler
func NewPaymentHandler(useCase PaymentUseCaseInterface, tracer trace.Tracer) *PaymentHandler {
	return &PaymentHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// writeError mapeia os erros de negócio para os códigos HTTP da taxonomia
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Payment not found"})
	case errors.Is(err, ErrAlreadyRefunded):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payment already refunded"})
	case errors.Is(err, ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment method", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal error", "error": err.Error()})
	}
}

// ProcessPayment processa o pagamento de um pedido (POST /api/payments/process)
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "process_payment")
	defer span.End()

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields", "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
		attribute.String("user_id", req.UserID),
		attribute.Float64("amount", req.Amount),
		attribute.String("payment_method", req.PaymentMethod),
	)

	payment, err := h.useCase.ProcessPayment(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.String("transaction_id", payment.TransactionID))
	c.JSON(http.StatusCreated, gin.H{"message": "Payment processed successfully", "payment": payment})
}

// GetPayment busca o pagamento de um pedido (GET /api/payments/:orderId)
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_payment")
	defer span.End()

	payment, err := h.useCase.GetPayment(ctx, c.Param("orderId"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListUserPayments busca os pagamentos de um usuário (GET /api/payments/user/:userId)
func (h *PaymentHandler) ListUserPayments(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_user_payments")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", c.Param("userId")))

	payments, err := h.useCase.ListUserPayments(ctx, c.Param("userId"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListPayments busca pagamentos paginados (GET /api/payments)
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_payments")
	defer span.End()

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	payments, total, err := h.useCase.ListPayments(ctx, page, limit, c.Query("status"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pages,
		},
	})
}

// RefundPayment reembolsa o pagamento de um pedido (POST /api/payments/:orderId/refund)
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "refund_payment")
	defer span.End()

	// Corpo opcional: sem refundAmount, reembolsa o valor integral
	var req RefundPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid refund request", "error": err.Error()})
			return
		}
	}

	span.SetAttributes(
		attribute.String("order_id", c.Param("orderId")),
		attribute.Float64("refund_amount", req.RefundAmount),
	)

	payment, err := h.useCase.RefundPayment(ctx, c.Param("orderId"), req.RefundAmount)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment refunded successfully", "payment": payment})
}

// HealthCheck verifica a saúde do serviço
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "payments-service",
		"message": "Payments Service is running",
	})
}
