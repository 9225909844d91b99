package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/relay"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository/repotest"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

type producer struct {
	mu   sync.Mutex
	msgs []mq.ProduceMsg
	fail map[string]error
}

func (p *producer) Produce(_ context.Context, msg mq.ProduceMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail[msg.Topic]; err != nil {
		return err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *producer) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Topic
	}
	return out
}

func seed(t *testing.T, store *repotest.Store, topics ...string) {
	t.Helper()
	for _, topic := range topics {
		require.NoError(t, store.OutboxMsgRepository().CreateOutboxMsg(context.Background(), repository.CreateOutboxMsgParams{
			Topic:   topic,
			Payload: json.RawMessage(`{}`),
		}))
	}
}

func newService(store *repotest.Store, p mq.Producer, cfg config.Relay) *relay.Service {
	return relay.NewService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), &repotest.DB{}, store.OutboxMsgRepository(), p)
}

func TestRelayBatch(t *testing.T) {
	cfg := config.Relay{BatchSize: 10, Interval: 10 * time.Millisecond, MaxAttempts: 2}

	t.Run("Should produce every pending message once", func(t *testing.T) {
		store := repotest.NewStore()
		seed(t, store, "a", "b")
		p := &producer{}
		svc := newService(store, p, cfg)

		n, err := svc.RelayBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = svc.RelayBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.ElementsMatch(t, []string{"a", "b"}, p.topics())
	})

	t.Run("Should retry a failed message until max attempts", func(t *testing.T) {
		store := repotest.NewStore()
		seed(t, store, "ok", "broken")
		p := &producer{fail: map[string]error{"broken": errors.New("broker down")}}
		svc := newService(store, p, cfg)

		_, err := svc.RelayBatch(context.Background())
		require.NoError(t, err)
		assert.False(t, store.Outbox[1].Processed)
		assert.Equal(t, int32(1), store.Outbox[1].Attempts)

		_, err = svc.RelayBatch(context.Background())
		require.NoError(t, err)
		assert.True(t, store.Outbox[1].Processed)
		require.NotNil(t, store.Outbox[1].Error)
		assert.Contains(t, *store.Outbox[1].Error, "broker down")

		n, err := svc.RelayBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, []string{"ok"}, p.topics())
	})

	t.Run("Should surface storage errors", func(t *testing.T) {
		store := repotest.NewStore()
		store.Err = errors.New("db down")
		svc := newService(store, &producer{}, cfg)

		_, err := svc.RelayBatch(context.Background())
		require.Error(t, err)
	})
}

func TestDrain(t *testing.T) {
	t.Run("Should relay every batch until the outbox is empty", func(t *testing.T) {
		store := repotest.NewStore()
		seed(t, store, "a", "b", "c", "d", "e")
		p := &producer{}
		svc := newService(store, p, config.Relay{BatchSize: 2, MaxAttempts: 3})

		n, err := svc.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Len(t, p.topics(), 5)
	})

	t.Run("Should stop once failing messages are parked", func(t *testing.T) {
		store := repotest.NewStore()
		seed(t, store, "x", "y")
		p := &producer{fail: map[string]error{"x": errors.New("nope"), "y": errors.New("nope")}}
		svc := newService(store, p, config.Relay{BatchSize: 2, MaxAttempts: 3})

		n, err := svc.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		for _, msg := range store.Outbox {
			assert.True(t, msg.Processed)
			assert.Equal(t, int32(3), msg.Attempts)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Should relay in the background until cleanup", func(t *testing.T) {
		store := repotest.NewStore()
		seed(t, store, "a")
		p := &producer{}
		svc := newService(store, p, config.Relay{BatchSize: 10, Interval: 5 * time.Millisecond, MaxAttempts: 1})

		cleanup := svc.Run(context.Background())
		assert.Eventually(t, func() bool { return len(p.topics()) == 1 }, time.Second, 5*time.Millisecond)
		cleanup()
	})
}
