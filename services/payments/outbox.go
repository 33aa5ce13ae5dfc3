package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutboxRelay entrega as tarefas de reconciliação ao serviço de pedidos.
// A entrega é at-least-once: uma tarefa só sai do outbox quando o serviço de
// pedidos confirma o update com 2xx; falhas agendam uma nova tentativa com
// backoff exponencial. O endpoint de destino é idempotente para o mesmo
// status + transaction id, então repetições são inofensivas.
type OutboxRelay struct {
	repository     PaymentRepository
	client         *resty.Client
	ordersURL      string
	pollInterval   time.Duration
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	batchSize      int
	deliveries     metric.Int64Counter
	deliveryErrors metric.Int64Counter
}

// NewOutboxRelay cria uma nova instância de OutboxRelay
func NewOutboxRelay(repository PaymentRepository, ordersURL string, pollInterval time.Duration) *OutboxRelay {
	meter := otel.Meter("payments-service")
	deliveries, _ := meter.Int64Counter("reconciliation_deliveries_total")
	deliveryErrors, _ := meter.Int64Counter("reconciliation_delivery_errors_total")

	return &OutboxRelay{
		repository:     repository,
		client:         resty.New().SetTimeout(10 * time.Second),
		ordersURL:      ordersURL,
		pollInterval:   pollInterval,
		baseBackoff:    2 * time.Second,
		maxBackoff:     5 * time.Minute,
		batchSize:      50,
		deliveries:     deliveries,
		deliveryErrors: deliveryErrors,
	}
}

// Run executa o loop de entrega até o contexto ser cancelado
func (r *OutboxRelay) Run(ctx context.Context) {
	log.Printf("🚀 Outbox relay started | target: %s | poll: %s", r.ordersURL, r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Outbox relay stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			if _, err := r.DeliverDue(ctx); err != nil {
				log.Printf("❌ Outbox poll failed: %v", err)
			}
		}
	}
}

// DeliverDue entrega as tarefas vencidas e retorna quantas foram entregues
func (r *OutboxRelay) DeliverDue(ctx context.Context) (int, error) {
	tasks, err := r.repository.DueReconciliations(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch due reconciliations: %w", err)
	}

	delivered := 0
	for _, task := range tasks {
		if err := r.deliver(ctx, task); err != nil {
			r.deliveryErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("order_id", task.OrderID)))
			log.Printf("❌ [RECONCILE] Delivery failed | OrderID=%s | attempt=%d | %v", task.OrderID, task.Attempts+1, err)

			next := time.Now().Add(r.backoff(task.Attempts))
			if markErr := r.repository.MarkAttemptFailed(ctx, task.ID, next, err.Error()); markErr != nil {
				log.Printf("❌ Failed to record delivery failure: %v", markErr)
			}
			continue
		}

		if err := r.repository.MarkDelivered(ctx, task.ID); err != nil {
			// A tarefa será reentregue no próximo poll; o destino é idempotente.
			log.Printf("❌ Failed to mark reconciliation delivered: %v", err)
			continue
		}

		r.deliveries.Add(ctx, 1)
		delivered++
		log.Printf("✅ [RECONCILE] OrderID=%s | paymentStatus=%s | TXN=%s", task.OrderID, task.PaymentStatus, task.TransactionID)
	}

	return delivered, nil
}

// deliver faz o PUT de reconciliação no serviço de pedidos
func (r *OutboxRelay) deliver(ctx context.Context, task ReconciliationTask) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"paymentStatus": task.PaymentStatus,
			"transactionId": task.TransactionID,
		}).
		Put(fmt.Sprintf("%s/api/orders/%s/payment-status", r.ordersURL, task.OrderID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("orders service returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// backoff calcula o intervalo até a próxima tentativa: base * 2^attempts, com teto
func (r *OutboxRelay) backoff(attempts int) time.Duration {
	d := r.baseBackoff
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= r.maxBackoff {
			return r.maxBackoff
		}
	}
	return d
}
