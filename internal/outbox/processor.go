package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bank/internal/domain"
	kafka_infra "bank/internal/infrastructure/kafka"
	"bank/internal/repository/outbox_repo"
)

type Processor struct {
	db            domain.Querier
	tx            domain.Transactor
	outboxRepo    outbox_repo.OutboxRepository
	kafkaProducer kafka_infra.Producer
	pollInterval  time.Duration
	pollTimeout   time.Duration
	batchSize     int
	logger        *zap.Logger
}

func NewProcessor(
	db domain.Querier,
	tx domain.Transactor,
	outboxRepo outbox_repo.OutboxRepository,
	kafkaProducer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	batchSize int,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:            db,
		tx:            tx,
		outboxRepo:    outboxRepo,
		kafkaProducer: kafkaProducer,
		pollInterval:  pollInterval,
		pollTimeout:   pollTimeout,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// Start polls until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor...", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch relays one batch of pending messages and returns how many were
// marked as sent. Produce runs with no transaction open; each sent row is then
// marked in its own short transaction. A message whose produce fails stays
// PENDING for the next poll, so delivery is at least once.
func (p *Processor) ProcessBatch(ctx context.Context) int {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	messages, err := p.outboxRepo.GetPending(queryCtx, p.db, p.batchSize)
	cancel()
	if err != nil {
		p.logger.Error("Failed to fetch pending outbox messages", zap.Error(err))
		return 0
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return 0
	}
	p.logger.Info("Found pending outbox messages", zap.Int("count", len(messages)))

	sent := 0
	for _, msg := range messages {
		if err := p.kafkaProducer.Produce(ctx, msg.Key, msg.Topic, msg.Payload); err != nil {
			p.logger.Error("Failed to send message to Kafka",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			continue
		}

		err := p.tx.WithinTx(ctx, func(ctx context.Context, q domain.Querier) error {
			return p.outboxRepo.MarkSent(ctx, q, msg.ID)
		})
		if err != nil {
			p.logger.Error("Failed to mark outbox message as sent", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		sent++
		p.logger.Debug("Outbox message relayed",
			zap.String("message_id", msg.ID),
			zap.String("message_type", msg.MessageType),
			zap.String("topic", msg.Topic))
	}
	return sent
}
