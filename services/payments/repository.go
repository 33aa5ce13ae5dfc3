package main

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation é o código SQLSTATE do Postgres para violação de UNIQUE
const uniqueViolation = "23505"

// ReconciliationTask representa uma linha do outbox de reconciliação:
// a intenção durável de avisar o serviço de pedidos que o pagamento liquidou.
type ReconciliationTask struct {
	ID            string    `json:"id" db:"id"`
	OrderID       string    `json:"orderId" db:"order_id"`
	PaymentStatus string    `json:"paymentStatus" db:"payment_status"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	Attempts      int       `json:"attempts" db:"attempts"`
	NextAttemptAt time.Time `json:"nextAttemptAt" db:"next_attempt_at"`
	LastError     string    `json:"lastError,omitempty" db:"last_error"`
}

// PaymentRepository define a interface para operações de banco de dados de pagamentos
type PaymentRepository interface {
	// CreatePayment cria um novo pagamento. Retorna ErrDuplicatePayment se
	// já existe um pagamento para o mesmo pedido (constraint UNIQUE).
	CreatePayment(ctx context.Context, payment *Payment) error

	// GetPaymentByOrderID busca o pagamento de um pedido
	GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error)

	// ListPaymentsByUser busca os pagamentos de um usuário, mais recentes primeiro
	ListPaymentsByUser(ctx context.Context, userID string) ([]Payment, error)

	// ListPayments busca pagamentos paginados, com filtro opcional de status
	ListPayments(ctx context.Context, page, limit int, status string) ([]Payment, int, error)

	// CompletePayment grava o pagamento como liquidado e insere a tarefa de
	// reconciliação no outbox, na mesma transação.
	CompletePayment(ctx context.Context, payment *Payment, task ReconciliationTask) error

	// UpdateRefund grava os campos de reembolso do pagamento
	UpdateRefund(ctx context.Context, payment *Payment) error

	// DueReconciliations busca as tarefas de reconciliação pendentes e vencidas
	DueReconciliations(ctx context.Context, limit int) ([]ReconciliationTask, error)

	// MarkDelivered marca a tarefa de reconciliação como entregue
	MarkDelivered(ctx context.Context, taskID string) error

	// MarkAttemptFailed registra a falha de entrega e agenda a próxima tentativa
	MarkAttemptFailed(ctx context.Context, taskID string, nextAttemptAt time.Time, lastError string) error
}

const paymentsSchema = `
CREATE TABLE IF NOT EXISTS payments (
	id                    TEXT PRIMARY KEY,
	order_id              TEXT NOT NULL UNIQUE,
	user_id               TEXT NOT NULL,
	amount                DOUBLE PRECISION NOT NULL,
	currency              TEXT NOT NULL DEFAULT 'USD',
	payment_method        TEXT NOT NULL,
	status                TEXT NOT NULL,
	transaction_id        TEXT NOT NULL DEFAULT '',
	payment_gateway       TEXT NOT NULL DEFAULT 'local',
	card_last_four        TEXT NOT NULL DEFAULT '',
	card_brand            TEXT NOT NULL DEFAULT '',
	failure_reason        TEXT NOT NULL DEFAULT '',
	refund_amount         DOUBLE PRECISION NOT NULL DEFAULT 0,
	refund_transaction_id TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS reconciliation_outbox (
	id              TEXT PRIMARY KEY,
	order_id        TEXT NOT NULL,
	payment_status  TEXT NOT NULL,
	transaction_id  TEXT NOT NULL DEFAULT '',
	attempts        INT NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL,
	delivered_at    TIMESTAMPTZ,
	last_error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_outbox_due ON reconciliation_outbox (next_attempt_at) WHERE delivered_at IS NULL;
`

const paymentColumns = `id, order_id, user_id, amount, currency, payment_method, status,
	transaction_id, payment_gateway, card_last_four, card_brand,
	failure_reason, refund_amount, refund_transaction_id, created_at, updated_at`

// PostgresPaymentRepository implementa PaymentRepository usando PostgreSQL
type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository cria uma nova instância de PostgresPaymentRepository
func NewPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

// EnsureSchema cria as tabelas do serviço caso não existam
func (r *PostgresPaymentRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, paymentsSchema)
	return err
}

// CreatePayment cria um novo pagamento no banco de dados
func (r *PostgresPaymentRepository) CreatePayment(ctx context.Context, payment *Payment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Currency,
		payment.PaymentMethod, payment.Status, payment.TransactionID, payment.PaymentGateway,
		payment.CardDetails.LastFour, payment.CardDetails.Brand,
		payment.FailureReason, payment.RefundAmount, payment.RefundTransactionID,
		payment.CreatedAt, payment.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicatePayment
	}
	return err
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var payment Payment
	err := row.Scan(&payment.ID, &payment.OrderID, &payment.UserID, &payment.Amount, &payment.Currency,
		&payment.PaymentMethod, &payment.Status, &payment.TransactionID, &payment.PaymentGateway,
		&payment.CardDetails.LastFour, &payment.CardDetails.Brand,
		&payment.FailureReason, &payment.RefundAmount, &payment.RefundTransactionID,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByOrderID busca o pagamento de um pedido
func (r *PostgresPaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

// ListPaymentsByUser busca os pagamentos de um usuário, mais recentes primeiro
func (r *PostgresPaymentRepository) ListPaymentsByUser(ctx context.Context, userID string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

// ListPayments busca pagamentos paginados, com filtro opcional de status
func (r *PostgresPaymentRepository) ListPayments(ctx context.Context, page, limit int, status string) ([]Payment, int, error) {
	offset := (page - 1) * limit

	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM payments WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *payment)
	}
	return payments, total, rows.Err()
}

// CompletePayment grava a liquidação do pagamento e a tarefa de reconciliação
// na mesma transação: se uma gravação falhar, nenhuma das duas vale.
func (r *PostgresPaymentRepository) CompletePayment(ctx context.Context, payment *Payment, task ReconciliationTask) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE payments
		SET status = $1, transaction_id = $2, updated_at = NOW()
		WHERE id = $3
	`, payment.Status, payment.TransactionID, payment.ID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reconciliation_outbox (id, order_id, payment_status, transaction_id, attempts, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, task.ID, task.OrderID, task.PaymentStatus, task.TransactionID, task.Attempts, task.NextAttemptAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateRefund grava os campos de reembolso do pagamento
func (r *PostgresPaymentRepository) UpdateRefund(ctx context.Context, payment *Payment) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $1, refund_amount = $2, refund_transaction_id = $3, updated_at = NOW()
		WHERE id = $4
	`, payment.Status, payment.RefundAmount, payment.RefundTransactionID, payment.ID)
	return err
}

// DueReconciliations busca as tarefas pendentes cuja próxima tentativa venceu
func (r *PostgresPaymentRepository) DueReconciliations(ctx context.Context, limit int) ([]ReconciliationTask, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, payment_status, transaction_id, attempts, next_attempt_at, last_error
		FROM reconciliation_outbox
		WHERE delivered_at IS NULL AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []ReconciliationTask{}
	for rows.Next() {
		var task ReconciliationTask
		err := rows.Scan(&task.ID, &task.OrderID, &task.PaymentStatus, &task.TransactionID,
			&task.Attempts, &task.NextAttemptAt, &task.LastError)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkDelivered marca a tarefa de reconciliação como entregue
func (r *PostgresPaymentRepository) MarkDelivered(ctx context.Context, taskID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE reconciliation_outbox SET delivered_at = NOW() WHERE id = $1
	`, taskID)
	return err
}

// MarkAttemptFailed registra a falha de entrega e agenda a próxima tentativa
func (r *PostgresPaymentRepository) MarkAttemptFailed(ctx context.Context, taskID string, nextAttemptAt time.Time, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE reconciliation_outbox
		SET attempts = attempts + 1, next_attempt_at = $1, last_error = $2
		WHERE id = $3
	`, nextAttemptAt, lastError, taskID)
	return err
}
