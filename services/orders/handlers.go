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

// OrderUseCaseInterface define a interface para o use case
type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)
	ListOrders(ctx context.Context, page, limit int, status string) ([]Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, transactionID string) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) (*Order, error)
}

// UpdateStatusRequest representa a requisição para mudar o status do pedido
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest representa a requisição de reconciliação de pagamento
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	TransactionID string `json:"transactionId"`
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// writeError mapeia os erros de negócio para os códigos HTTP da taxonomia
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	case errors.Is(err, ErrInvalidOrderStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status", "error": err.Error()})
	case errors.Is(err, ErrInvalidPaymentStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment status", "error": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status transition", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal error", "error": err.Error()})
	}
}

// CreateOrder cria um novo pedido (POST /api/orders)
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields", "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Float64("total_amount", req.TotalAmount),
		attribute.Int("items", len(req.Items)),
	)

	order, err := h.useCase.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "Order created", "order": order})
}

// GetOrder busca um pedido pelo ID (GET /api/orders/:id)
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_order")
	defer span.End()

	order, err := h.useCase.GetOrder(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListUserOrders busca os pedidos de um usuário (GET /api/orders/user/:userId)
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_user_orders")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", c.Param("userId")))

	orders, err := h.useCase.ListOrdersByUser(ctx, c.Param("userId"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListOrders busca pedidos paginados (GET /api/orders)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_orders")
	defer span.End()

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	status := c.Query("status")

	orders, total, err := h.useCase.ListOrders(ctx, page, limit, status)
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
		"orders": orders,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pages,
		},
	})
}

// UpdateOrderStatus muda o status do pedido (PUT /api/orders/:id/status)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_status")
	defer span.End()

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status", "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", c.Param("id")),
		attribute.String("status", req.Status),
	)

	order, err := h.useCase.UpdateOrderStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// UpdatePaymentStatus recebe a reconciliação do serviço de pagamentos
// (PUT /api/orders/:id/payment-status)
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_payment_status")
	defer span.End()

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment status", "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", c.Param("id")),
		attribute.String("payment_status", req.PaymentStatus),
		attribute.String("transaction_id", req.TransactionID),
	)

	order, err := h.useCase.UpdatePaymentStatus(ctx, c.Param("id"), req.PaymentStatus, req.TransactionID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated", "order": order})
}

// CancelOrder cancela o pedido (PUT /api/orders/:id/cancel)
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "cancel_order")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", c.Param("id")))

	order, err := h.useCase.CancelOrder(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

// HealthCheck verifica a saúde do serviço
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orders-service",
		"message": "Orders Service is running",
	})
}
