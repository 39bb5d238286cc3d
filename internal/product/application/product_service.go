package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	productDomain "github.com/davicafu/eventshop/internal/product/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/platform/cache"
)

const serviceName = "product"

// ProductService define los casos de uso del contexto product, incluida la
// reserva de inventario que dispara order.created.
type ProductService struct {
	repo   productDomain.ProductRepository
	cache  cache.Cache
	events productDomain.EventPublisher
	log    *zap.Logger
}

func NewProductService(repo productDomain.ProductRepository, c cache.Cache, events productDomain.EventPublisher, log *zap.Logger) *ProductService {
	return &ProductService{repo: repo, cache: c, events: events, log: log}
}

func (s *ProductService) CreateProduct(ctx context.Context, sku, name string, price float64, stock int) (*productDomain.Product, error) {
	if sku == "" || name == "" {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "sku and name are required")
	}
	if price < 0 || stock < 0 {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "price and stock must be non-negative")
	}

	now := time.Now().UTC()
	product := &productDomain.Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Add(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductCreated, product.ID, events.ProductCreatedPayload{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.Stock,
	})

	return product, nil
}

// GetProduct obtiene un producto (primero intenta desde cache).
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*productDomain.Product, error) {
	if s.cache != nil {
		var p productDomain.Product
		if ok, _ := s.cache.Get(ctx, productDomain.CacheKeyByID(id), &p); ok {
			return &p, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(p *productDomain.Product) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, productDomain.CacheKeyByID(p.ID), p, 60)
		}(product)
	}

	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]*productDomain.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *ProductService) UpdateProduct(ctx context.Context, p *productDomain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	if s.cache != nil {
		go func() { _ = s.cache.Delete(context.Background(), productDomain.CacheKeyByID(p.ID)) }()
	}
	return nil
}

// ReserveForOrder reserva el inventario de un pedido. Idempotente por
// OrderID: la reentrega de order.created devuelve la reserva existente sin
// volver a descontar stock. Publica inventory.reserved o inventory.rejected
// según el resultado, siempre después de persistir.
func (s *ProductService) ReserveForOrder(ctx context.Context, orderID uuid.UUID, items []productDomain.ReservationItem) (*productDomain.Reservation, error) {
	if orderID == uuid.Nil || len(items) == 0 {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "order id and items are required")
	}

	// Buscar antes de crear: la clave natural es el OrderID.
	existing, err := s.repo.GetReservationByOrderID(ctx, orderID)
	if err == nil {
		s.log.Info("Duplicate order.created ignored, reservation exists",
			zap.String("order_id", orderID.String()),
			zap.String("reservation_id", existing.ID.String()),
		)
		return existing, nil
	}
	if !errors.Is(err, productDomain.ErrReservationNotFound) {
		return nil, err
	}

	reservation := &productDomain.Reservation{
		ID:        uuid.New(),
		OrderID:   orderID,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Reserve(ctx, reservation); err != nil {
		if sharedDomain.IsKind(err, sharedDomain.OutOfStock) {
			s.publish(ctx, events.InventoryRejected, orderID, events.InventoryRejectedPayload{
				OrderID: orderID,
				Reason:  "insufficient stock",
			})
		}
		return nil, err
	}

	s.publish(ctx, events.InventoryReserved, orderID, events.InventoryReservedPayload{
		OrderID:       orderID,
		ReservationID: reservation.ID,
	})

	return reservation, nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, correlationID uuid.UUID, payload interface{}) {
	env, err := events.NewEnvelope(eventType, serviceName, correlationID.String(), payload)
	if err != nil {
		s.log.Error("Could not build event envelope",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}
	_ = s.events.Publish(ctx, env)
}
