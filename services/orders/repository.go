package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pedidos
type Repository interface {
	// CreateOrder cria um novo pedido no banco de dados
	CreateOrder(ctx context.Context, order *Order) error

	// GetOrder busca um pedido pelo ID
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// ListOrdersByUser busca os pedidos de um usuário, mais recentes primeiro
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)

	// ListOrders busca pedidos paginados, com filtro opcional de status
	ListOrders(ctx context.Context, page, limit int, status string) ([]Order, int, error)

	// UpdateOrderStatus atualiza o status de um pedido
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error)

	// UpdatePaymentStatus atualiza o status de pagamento e o transaction id
	UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, transactionID string) (*Order, error)

	// CancelOrder marca o pedido como cancelado e o pagamento como reembolsado
	CancelOrder(ctx context.Context, orderID string) (*Order, error)
}

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	items            JSONB NOT NULL,
	shipping_address JSONB NOT NULL,
	billing_address  JSONB NOT NULL,
	subtotal         DOUBLE PRECISION NOT NULL,
	tax              DOUBLE PRECISION NOT NULL DEFAULT 0,
	shipping_cost    DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_amount     DOUBLE PRECISION NOT NULL,
	status           TEXT NOT NULL,
	payment_status   TEXT NOT NULL,
	payment_method   TEXT NOT NULL,
	transaction_id   TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	tracking_number  TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id, created_at DESC);
`

const orderColumns = `id, user_id, items, shipping_address, billing_address,
	subtotal, tax, shipping_cost, total_amount,
	status, payment_status, payment_method,
	transaction_id, notes, tracking_number, created_at, updated_at`

// OrderRepository implementa Repository usando PostgreSQL
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de OrderRepository
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

// EnsureSchema cria as tabelas do serviço caso não existam
func (r *OrderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, ordersSchema)
	return err
}

// CreateOrder cria um novo pedido no banco de dados
func (r *OrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, order.ID, order.UserID, order.Items, order.ShippingAddress, order.BillingAddress,
		order.Subtotal, order.Tax, order.ShippingCost, order.TotalAmount,
		order.Status, order.PaymentStatus, order.PaymentMethod,
		order.TransactionID, order.Notes, order.TrackingNumber, order.CreatedAt, order.UpdatedAt)
	return err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var order Order
	err := row.Scan(&order.ID, &order.UserID, &order.Items, &order.ShippingAddress, &order.BillingAddress,
		&order.Subtotal, &order.Tax, &order.ShippingCost, &order.TotalAmount,
		&order.Status, &order.PaymentStatus, &order.PaymentMethod,
		&order.TransactionID, &order.Notes, &order.TrackingNumber, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetOrder busca um pedido pelo ID
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

// ListOrdersByUser busca os pedidos de um usuário, mais recentes primeiro
func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ListOrders busca pedidos paginados, com filtro opcional de status
func (r *OrderRepository) ListOrders(ctx context.Context, page, limit int, status string) ([]Order, int, error) {
	offset := (page - 1) * limit

	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+orderColumns+`
	`, status, orderID)
	return scanOrder(row)
}

// UpdatePaymentStatus atualiza o status de pagamento e, se informado, o transaction id
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus, transactionID string) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE orders
		SET payment_status = $1,
		    transaction_id = CASE WHEN $2 = '' THEN transaction_id ELSE $2 END,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING `+orderColumns+`
	`, paymentStatus, transactionID, orderID)
	return scanOrder(row)
}

// CancelOrder marca o pedido como cancelado e o pagamento como reembolsado em um único update
func (r *OrderRepository) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+orderColumns+`
	`, OrderStatusCancelled, OrderPaymentStatusRefunded, orderID)
	return scanOrder(row)
}
