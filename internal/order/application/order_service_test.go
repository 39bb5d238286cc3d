package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/order/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func newTestService() (*OrderService, *mocks.InMemoryOrderRepo, *mocks.RecordingPublisher) {
	repo := mocks.NewInMemoryOrderRepo()
	pub := mocks.NewRecordingPublisher()
	return NewOrderService(repo, pub, zap.NewNop()), repo, pub
}

func sampleItems() []domain.OrderItem {
	return []domain.OrderItem{
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: 10.5},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: 4.0},
	}
}

func TestCreateOrder_PublishesOrderCreated(t *testing.T) {
	svc, repo, pub := newTestService()

	order, err := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, order.Status)
	assert.Equal(t, 25.0, order.Total)
	assert.Len(t, repo.Orders, 1)

	published := pub.ByType(events.OrderCreated)
	assert.Len(t, published, 1)
	assert.Equal(t, order.ID.String(), published[0].CorrelationID)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.CreateOrder(context.Background(), uuid.Nil, sampleItems())
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.ValidationFailed))

	_, err = svc.CreateOrder(context.Background(), uuid.New(), nil)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.ValidationFailed))

	_, err = svc.CreateOrder(context.Background(), uuid.New(), []domain.OrderItem{
		{ProductID: uuid.New(), Quantity: 0, UnitPrice: 1},
	})
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.ValidationFailed))

	// Nada persistido, nada publicado.
	assert.Empty(t, pub.Published)
}

func TestConfirmInventory_Idempotent(t *testing.T) {
	svc, _, _ := newTestService()
	order, _ := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())

	confirmed, err := svc.ConfirmInventory(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	// La reentrega del evento no cambia nada ni falla.
	again, err := svc.ConfirmInventory(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, again.Status)
}

func TestConfirmPayment_FullFlow(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())
	_, _ = svc.ConfirmInventory(context.Background(), order.ID)

	paid, err := svc.ConfirmPayment(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	published := pub.ByType(events.PaymentConfirmed)
	assert.Len(t, published, 1)

	// Un segundo pago es un conflicto explícito.
	_, err = svc.ConfirmPayment(context.Background(), order.ID)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.AlreadyPaid))
	assert.Len(t, pub.ByType(events.PaymentConfirmed), 1)
}

func TestConfirmPayment_RejectedOrder(t *testing.T) {
	svc, _, _ := newTestService()
	order, _ := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())
	_, _ = svc.RejectInventory(context.Background(), order.ID, "out of stock")

	_, err := svc.ConfirmPayment(context.Background(), order.ID)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.Conflict))
}

func TestCancelOrder_TerminalGuards(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, "customer request")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Len(t, pub.ByType(events.OrderCancelled), 1)

	_, err = svc.CancelOrder(context.Background(), order.ID, "again")
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.AlreadyCancelled))

	// Un pedido pagado tampoco se puede cancelar.
	paidOrder, _ := svc.CreateOrder(context.Background(), uuid.New(), sampleItems())
	_, _ = svc.ConfirmPayment(context.Background(), paidOrder.ID)
	_, err = svc.CancelOrder(context.Background(), paidOrder.ID, "too late")
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.AlreadyPaid))
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetOrder(context.Background(), uuid.New())
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.NotFound))
	assert.True(t, sharedDomain.Terminal(err))
}
