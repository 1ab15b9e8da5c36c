package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/repository/memory"
)

type fakeProducer struct {
	mu      sync.Mutex
	sent    []string
	failKey string
}

func (f *fakeProducer) Produce(_ context.Context, key, topic string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.failKey {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, topic+"/"+key)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("bank_events", domain.AggregateCard, 12, domain.EventCardDeposit, domain.LedgerEvent{
		Type:   domain.EventCardDeposit,
		CardID: 12,
		Amount: 100,
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, "12", msg.AggregateID)
	require.Equal(t, "card-12", msg.Key)
	require.Equal(t, "card.deposit", msg.MessageType)
	require.Equal(t, domain.OutboxStatusPending, msg.Status)

	var ev domain.LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	require.Equal(t, int64(100), ev.Amount)
}

func TestProcessBatch(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOutboxRepository(store)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		msg, err := NewMessage("bank_events", domain.AggregateCard, id, domain.EventCardEnabled, domain.CardStateEvent{CardID: id})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, nil, msg))
	}

	producer := &fakeProducer{failKey: "card-2"}
	p := NewProcessor(nil, store, repo, producer, time.Second, time.Second, 10, zap.NewNop())

	require.Equal(t, 2, p.ProcessBatch(ctx))
	require.Equal(t, []string{"bank_events/card-1", "bank_events/card-3"}, producer.sent)

	pending, err := repo.GetPending(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "card-2", pending[0].Key)

	producer.failKey = ""
	require.Equal(t, 1, p.ProcessBatch(ctx))
	require.Equal(t, 0, p.ProcessBatch(ctx))
}

func TestStartStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	p := NewProcessor(nil, store, memory.NewOutboxRepository(store), &fakeProducer{}, 10*time.Millisecond, time.Second, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop after cancel")
	}
}

type slowProducer struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (s *slowProducer) Produce(ctx context.Context, _, _ string, _ []byte) error {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	return errors.New("broker unreachable")
}

func (s *slowProducer) Close() error { return nil }

func TestProduceDoesNotHoldStoreTransaction(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOutboxRepository(store)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		msg, err := NewMessage("bank_events", domain.AggregateCard, id, domain.EventCardEnabled, domain.CardStateEvent{CardID: id})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, nil, msg))
	}

	producer := &slowProducer{delay: 300 * time.Millisecond, started: make(chan struct{})}
	p := NewProcessor(nil, store, repo, producer, time.Second, time.Second, 10, zap.NewNop())

	done := make(chan int)
	go func() { done <- p.ProcessBatch(ctx) }()

	<-producer.started
	start := time.Now()
	require.NoError(t, store.WithinTx(ctx, func(context.Context, domain.Querier) error { return nil }))
	require.Less(t, time.Since(start), 100*time.Millisecond)

	require.Zero(t, <-done)
	pending, err := repo.GetPending(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}
