package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

type memOutbox struct {
	mu     sync.Mutex
	events []sharedDomain.OutboxEvent
}

func (o *memOutbox) AppendOutbox(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, evt)
	return nil
}

func (o *memOutbox) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []sharedDomain.OutboxEvent
	for _, e := range o.events {
		if !e.Processed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (o *memOutbox) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.events {
		if o.events[i].ID == id {
			o.events[i].Processed = true
		}
	}
	return nil
}

type fakeRepublisher struct {
	published []string // routing keys
	fail      bool
}

func (p *fakeRepublisher) Republish(ctx context.Context, exchange, routingKey string, envelope json.RawMessage) error {
	if p.fail {
		return errors.New("broker unreachable")
	}
	p.published = append(p.published, routingKey)
	return nil
}

func pendingEvent(rk string) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:         uuid.New(),
		Exchange:   "order-service-events",
		RoutingKey: rk,
		Envelope:   json.RawMessage(`{"eventId":"00000000-0000-0000-0000-000000000001","eventType":"OrderCreated","payload":{}}`),
		CreatedAt:  time.Now().UTC(),
	}
}

func TestProcessBatch_RepublishesAndMarks(t *testing.T) {
	repo := &memOutbox{}
	repo.AppendOutbox(context.Background(), pendingEvent("order.created"))
	repo.AppendOutbox(context.Background(), pendingEvent("payment.confirmed"))

	pub := &fakeRepublisher{}
	w := NewOutboxWorker(repo, pub, time.Second, 10, zap.NewNop())
	w.ProcessBatch(context.Background())

	assert.Equal(t, []string{"order.created", "payment.confirmed"}, pub.published)
	pending, _ := repo.FetchPendingOutbox(context.Background(), 10)
	assert.Empty(t, pending, "todo marcado como procesado")
}

func TestProcessBatch_BrokerStillDown_KeepsPending(t *testing.T) {
	repo := &memOutbox{}
	repo.AppendOutbox(context.Background(), pendingEvent("order.created"))

	pub := &fakeRepublisher{fail: true}
	w := NewOutboxWorker(repo, pub, time.Second, 10, zap.NewNop())
	w.ProcessBatch(context.Background())

	pending, _ := repo.FetchPendingOutbox(context.Background(), 10)
	assert.Len(t, pending, 1, "sin publicar no se marca: el siguiente ciclo reintenta")
}

func TestProcessBatch_RespectsBatchSize(t *testing.T) {
	repo := &memOutbox{}
	for i := 0; i < 5; i++ {
		repo.AppendOutbox(context.Background(), pendingEvent("order.created"))
	}

	pub := &fakeRepublisher{}
	w := NewOutboxWorker(repo, pub, time.Second, 2, zap.NewNop())
	w.ProcessBatch(context.Background())

	assert.Len(t, pub.published, 2)
}
