package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/config"
	"github.com/stacklend-io/risk-engine/internal/observability/metrics"
)

const retryCountHeader = "x-retry-count"

const publishTimeout = 5 * time.Second

// PriceEventHandler processes one decoded price update. A non-nil error
// sends the message through the delayed retry path.
type PriceEventHandler func(ctx context.Context, ev *PriceUpdateEvent) error

type QueueManager struct {
	cfg     *config.QueueConfig
	conn    *amqp.Connection
	channel *amqp.Channel

	quit     chan struct{}
	stopOnce sync.Once
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	conn, err := amqp.Dial(cfg.AmqpURI())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	qm := &QueueManager{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
		quit:    make(chan struct{}),
	}

	if err := qm.declareQueues(); err != nil {
		return nil, err
	}

	return qm, nil
}

func (qm *QueueManager) declareQueues() error {
	for _, name := range []string{
		AssessmentEventsQueue,
		MonitoringReportsQueue,
		EmergencyModeQueue,
		PriceUpdatesQueue,
	} {
		if _, err := qm.channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	// Failed price updates park here until the TTL routes them back to the
	// main queue for another attempt.
	delayArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": PriceUpdatesQueue,
		"x-message-ttl":             qm.cfg.ReQueueDelayTime.Milliseconds(),
	}
	if _, err := qm.channel.QueueDeclare(priceUpdatesDelayQueue, true, false, false, false, delayArgs); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", priceUpdatesDelayQueue, err)
	}

	return nil
}

func (qm *QueueManager) Start() error {
	if qm.conn == nil || qm.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is not open")
	}
	return nil
}

func (qm *QueueManager) PushAssessmentEvent(ev *AssessmentEvent) error {
	return qm.pushEvent(AssessmentEventsQueue, ev)
}

func (qm *QueueManager) PushMonitoringReportEvent(ev *MonitoringReportEvent) error {
	return qm.pushEvent(MonitoringReportsQueue, ev)
}

func (qm *QueueManager) PushEmergencyModeEvent(ev *EmergencyModeEvent) error {
	return qm.pushEvent(EmergencyModeQueue, ev)
}

func (qm *QueueManager) pushEvent(queueName string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", queueName, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := qm.publish(ctx, queueName, body, nil); err != nil {
		metrics.RecordQueueSendError()
		return err
	}
	return nil
}

func (qm *QueueManager) publish(ctx context.Context, queueName string, body []byte, headers amqp.Table) error {
	err := qm.channel.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	return nil
}

// SubscribePriceEvents consumes price updates until ctx is cancelled or the
// manager stops. Each delivery is acked exactly once: after success, after
// exhausting retries, or after its copy lands on the delay queue.
func (qm *QueueManager) SubscribePriceEvents(ctx context.Context, handler PriceEventHandler) error {
	deliveries, err := qm.channel.Consume(PriceUpdatesQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", PriceUpdatesQueue, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-qm.quit:
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				qm.handlePriceDelivery(ctx, delivery, handler)
			}
		}
	}()

	return nil
}

func (qm *QueueManager) handlePriceDelivery(ctx context.Context, delivery amqp.Delivery, handler PriceEventHandler) {
	startTime := time.Now()
	retries := retryCount(delivery)

	var ev PriceUpdateEvent
	err := json.Unmarshal(delivery.Body, &ev)
	if err == nil {
		handlerCtx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
		err = handler(handlerCtx, &ev)
		cancel()
	}

	metrics.RecordPriceEventProcessingDuration(time.Since(startTime), int(retries), err != nil)

	if err == nil {
		qm.ack(ctx, delivery)
		return
	}

	if retries >= qm.cfg.MsgMaxRetryAttempts {
		log.Ctx(ctx).Error().Err(err).
			Str("symbol", ev.Symbol).
			Int32("retries", retries).
			Msg("dropping price update after max retry attempts")
		qm.ack(ctx, delivery)
		return
	}

	requeueCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	headers := amqp.Table{retryCountHeader: retries + 1}
	if pubErr := qm.publish(requeueCtx, priceUpdatesDelayQueue, delivery.Body, headers); pubErr != nil {
		log.Ctx(ctx).Error().Err(pubErr).Msg("failed to park price update on delay queue")
		// Let the broker redeliver immediately rather than lose the message.
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			log.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack price update")
		}
		return
	}

	qm.ack(ctx, delivery)
}

func (qm *QueueManager) ack(ctx context.Context, delivery amqp.Delivery) {
	if err := delivery.Ack(false); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to ack price update")
	}
}

func retryCount(delivery amqp.Delivery) int32 {
	raw, ok := delivery.Headers[retryCountHeader]
	if !ok {
		return 0
	}

	switch v := raw.(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

func (qm *QueueManager) Stop() error {
	qm.stopOnce.Do(func() {
		close(qm.quit)
	})

	if qm.channel != nil && !qm.channel.IsClosed() {
		if err := qm.channel.Close(); err != nil {
			return fmt.Errorf("failed to close rabbitmq channel: %w", err)
		}
	}
	if qm.conn != nil && !qm.conn.IsClosed() {
		if err := qm.conn.Close(); err != nil {
			return fmt.Errorf("failed to close rabbitmq connection: %w", err)
		}
	}
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")
	if err := qm.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop queue manager")
	}
}
