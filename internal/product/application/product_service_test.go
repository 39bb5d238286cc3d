package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	productDomain "github.com/davicafu/eventshop/internal/product/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func newTestService() (*ProductService, *mocks.InMemoryProductRepo, *mocks.RecordingPublisher) {
	repo := mocks.NewInMemoryProductRepo()
	pub := mocks.NewRecordingPublisher()
	return NewProductService(repo, mocks.NewDummyCache(), pub, zap.NewNop()), repo, pub
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.CreateProduct(context.Background(), "SKU-1", "Teclado", 49.9, 10)
	assert.NoError(t, err)
	assert.Len(t, pub.ByType(events.ProductCreated), 1)

	_, err = svc.CreateProduct(context.Background(), "SKU-1", "Otro teclado", 59.9, 5)
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.Conflict))
	assert.Len(t, pub.ByType(events.ProductCreated), 1)
}

func TestReserveForOrder_Success(t *testing.T) {
	svc, repo, pub := newTestService()
	p, _ := svc.CreateProduct(context.Background(), "SKU-1", "Teclado", 49.9, 10)

	orderID := uuid.New()
	res, err := svc.ReserveForOrder(context.Background(), orderID, []productDomain.ReservationItem{
		{ProductID: p.ID, Quantity: 3},
	})
	assert.NoError(t, err)
	assert.Equal(t, orderID, res.OrderID)
	assert.Equal(t, 7, repo.Products[p.ID].Stock)
	assert.Len(t, pub.ByType(events.InventoryReserved), 1)
}

func TestReserveForOrder_IdempotentByOrderID(t *testing.T) {
	svc, repo, pub := newTestService()
	p, _ := svc.CreateProduct(context.Background(), "SKU-1", "Teclado", 49.9, 10)

	orderID := uuid.New()
	items := []productDomain.ReservationItem{{ProductID: p.ID, Quantity: 3}}

	first, err := svc.ReserveForOrder(context.Background(), orderID, items)
	assert.NoError(t, err)

	// La reentrega del evento devuelve la misma reserva sin descontar más.
	second, err := svc.ReserveForOrder(context.Background(), orderID, items)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 7, repo.Products[p.ID].Stock)
	assert.Len(t, pub.ByType(events.InventoryReserved), 1)
}

func TestReserveForOrder_OutOfStock(t *testing.T) {
	svc, repo, pub := newTestService()
	a, _ := svc.CreateProduct(context.Background(), "SKU-A", "A", 10, 5)
	b, _ := svc.CreateProduct(context.Background(), "SKU-B", "B", 10, 1)

	_, err := svc.ReserveForOrder(context.Background(), uuid.New(), []productDomain.ReservationItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	})
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.OutOfStock))

	// Sin descuentos parciales.
	assert.Equal(t, 5, repo.Products[a.ID].Stock)
	assert.Equal(t, 1, repo.Products[b.ID].Stock)

	// El rechazo se publica para que order reaccione.
	assert.Len(t, pub.ByType(events.InventoryRejected), 1)
	assert.Empty(t, pub.ByType(events.InventoryReserved))
}

// Un producto inexistente no es falta de stock: el error es not_found, no
// se publica rechazo de inventario y el resto de líneas no se descuenta.
func TestReserveForOrder_UnknownProductIsNotFound(t *testing.T) {
	svc, repo, pub := newTestService()
	a, _ := svc.CreateProduct(context.Background(), "SKU-A", "A", 10, 5)

	_, err := svc.ReserveForOrder(context.Background(), uuid.New(), []productDomain.ReservationItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.NotFound))
	assert.False(t, sharedDomain.IsKind(err, sharedDomain.OutOfStock))

	assert.Equal(t, 5, repo.Products[a.ID].Stock)
	assert.Empty(t, pub.ByType(events.InventoryRejected))
	assert.Empty(t, pub.ByType(events.InventoryReserved))
}

func TestGetProduct_UsesCache(t *testing.T) {
	repo := mocks.NewInMemoryProductRepo()
	cache := mocks.NewDummyCache()
	svc := NewProductService(repo, cache, mocks.NewRecordingPublisher(), zap.NewNop())

	p, _ := svc.CreateProduct(context.Background(), "SKU-1", "Teclado", 49.9, 10)

	// Siembra la caché con un nombre distinto: si el servicio la usa, lo
	// devuelve tal cual sin tocar el repositorio.
	cached := *p
	cached.Name = "Desde caché"
	assert.NoError(t, cache.Set(context.Background(), productDomain.CacheKeyByID(p.ID), cached, 60))

	got, err := svc.GetProduct(context.Background(), p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Desde caché", got.Name)
}
