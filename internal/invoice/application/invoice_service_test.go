package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/invoice/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func newTestService() (*InvoiceService, *mocks.InMemoryInvoiceRepo, *mocks.RecordingPublisher) {
	repo := mocks.NewInMemoryInvoiceRepo()
	pub := mocks.NewRecordingPublisher()
	return NewInvoiceService(repo, pub, zap.NewNop()), repo, pub
}

func TestCreateForOrder_HappyPath(t *testing.T) {
	svc, repo, pub := newTestService()

	inv, err := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 120.5)
	assert.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), inv.ID)
	assert.Equal(t, domain.StatusPaid, stored.Status)
	assert.NotEmpty(t, stored.Number)

	published := pub.ByType(events.InvoiceCreated)
	assert.Len(t, published, 1)
}

func TestCreateForOrder_DuplicateEventSingleInvoice(t *testing.T) {
	svc, repo, pub := newTestService()
	orderID, customerID := uuid.New(), uuid.New()

	first, err := svc.CreateForOrder(context.Background(), orderID, customerID, 80)
	assert.NoError(t, err)

	// La reentrega de payment.confirmed no crea ni numera una segunda vez.
	second, err := svc.CreateForOrder(context.Background(), orderID, customerID, 80)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.Invoices, 1)
	assert.Len(t, pub.ByType(events.InvoiceCreated), 1)
	assert.Equal(t, 1, repo.NumberCalls)
}

func TestCreateForOrder_NumberingFailureGoesToFailed(t *testing.T) {
	svc, repo, pub := newTestService()
	repo.FailNumbering = 1

	inv, err := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 50)
	assert.NoError(t, err) // el registro queda hecho, el consumidor hará ack

	stored, _ := repo.GetByID(context.Background(), inv.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Empty(t, pub.ByType(events.InvoiceCreated))
}

func TestRetryWorker_RecoversFailedInvoice(t *testing.T) {
	svc, repo, pub := newTestService()
	repo.FailNumbering = 1

	inv, _ := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 50)

	worker := NewRetryWorker(repo, svc, 0, 3, 0, zap.NewNop())
	assert.NoError(t, worker.Sweep(context.Background()))

	stored, _ := repo.GetByID(context.Background(), inv.ID)
	assert.Equal(t, domain.StatusPaid, stored.Status)
	assert.NotEmpty(t, stored.Number)
	assert.Len(t, pub.ByType(events.InvoiceCreated), 1)
}

func TestRetryWorker_RespectsRetryBudget(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.FailNumbering = 10 // nunca se recupera dentro del presupuesto

	inv, _ := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 50)

	worker := NewRetryWorker(repo, svc, 0, 3, 0, zap.NewNop())
	for i := 0; i < 5; i++ {
		assert.NoError(t, worker.Sweep(context.Background()))
	}

	// 1 intento en la creación + 2 del sweeper hasta agotar el presupuesto.
	stored, _ := repo.GetByID(context.Background(), inv.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, 3, stored.RetryCount)
	assert.Equal(t, 3, repo.NumberCalls)
}

func TestCreateForOrder_RedeliveryRetriesFailedInvoice(t *testing.T) {
	svc, repo, pub := newTestService()
	repo.FailNumbering = 1
	orderID, customerID := uuid.New(), uuid.New()

	_, _ = svc.CreateForOrder(context.Background(), orderID, customerID, 50)

	// La siguiente entrega del mismo pago reintenta la numeración sobre la
	// factura failed existente; no crea otra.
	inv, err := svc.CreateForOrder(context.Background(), orderID, customerID, 50)
	assert.NoError(t, err)
	assert.Len(t, repo.Invoices, 1)

	stored, _ := repo.GetByID(context.Background(), inv.ID)
	assert.Equal(t, domain.StatusPaid, stored.Status)
	assert.Len(t, pub.ByType(events.InvoiceCreated), 1)
}

func TestCancel_Guards(t *testing.T) {
	svc, repo, pub := newTestService()

	paid, _ := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 30)
	_, err := svc.Cancel(context.Background(), paid.ID)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.AlreadyPaid))

	// Una factura pendiente sí se puede cancelar.
	repo.FailNumbering = 1
	failed, _ := svc.CreateForOrder(context.Background(), uuid.New(), uuid.New(), 30)
	cancelled, err := svc.Cancel(context.Background(), failed.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Len(t, pub.ByType(events.InvoiceCancelled), 1)

	_, err = svc.Cancel(context.Background(), failed.ID)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.AlreadyCancelled))
}
