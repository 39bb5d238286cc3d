package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/order/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

const serviceName = "order"

// OrderService define los casos de uso del contexto order. Los eventos se
// publican SIEMPRE después de persistir: la única ventana de pérdida es un
// crash entre commit y publish, y esa la cubre el log/outbox del publisher,
// nunca un rollback de la mutación.
type OrderService struct {
	repo   domain.OrderRepository
	events domain.EventPublisher
	log    *zap.Logger
}

func NewOrderService(repo domain.OrderRepository, events domain.EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{repo: repo, events: events, log: log}
}

func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, items []domain.OrderItem) (*domain.Order, error) {
	if customerID == uuid.Nil {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "customer id is required")
	}
	if len(items) == 0 {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "order needs at least one item")
	}
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice < 0 {
			return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "invalid item quantity or price")
		}
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items:      items,
		Status:     domain.StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.ComputeTotal()

	if err := s.repo.Add(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderCreated, order.ID, events.OrderCreatedPayload{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      toEventItems(order.Items),
		Total:      order.Total,
		CreatedAt:  order.CreatedAt,
	})

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}

// ConfirmInventory avanza el pedido a Confirmed al consumir
// inventory.reserved. Idempotente: un pedido ya confirmado es un no-op.
func (s *OrderService) ConfirmInventory(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusConfirmed {
		return order, nil // evento duplicado
	}
	if order.Status != domain.StatusCreated {
		return nil, s.terminalFailure(order)
	}

	order.Status = domain.StatusConfirmed
	order.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// RejectInventory marca el pedido Rejected al consumir inventory.rejected.
func (s *OrderService) RejectInventory(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusRejected {
		return order, nil
	}
	if order.Terminal() {
		return nil, s.terminalFailure(order)
	}

	order.Status = domain.StatusRejected
	order.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.log.Warn("Order rejected by inventory",
		zap.String("order_id", orderID.String()), zap.String("reason", reason))
	return order, nil
}

// ConfirmPayment marca el pedido como pagado y publica payment.confirmed,
// que aguas abajo dispara la factura.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusPaid {
		return nil, sharedDomain.NewFailure(sharedDomain.AlreadyPaid, "order is already paid")
	}
	if order.Status == domain.StatusCancelled {
		return nil, sharedDomain.NewFailure(sharedDomain.AlreadyCancelled, "order is cancelled")
	}
	if order.Status == domain.StatusRejected {
		return nil, sharedDomain.NewFailure(sharedDomain.Conflict, "order was rejected by inventory")
	}

	order.Status = domain.StatusPaid
	order.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PaymentConfirmed, order.ID, events.PaymentConfirmedPayload{
		OrderID:    order.ID,
		PaymentID:  uuid.New(),
		CustomerID: order.CustomerID,
		Amount:     order.Total,
		PaidAt:     order.UpdatedAt,
	})

	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, s.terminalFailure(order)
	}

	order.Status = domain.StatusCancelled
	order.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderCancelled, order.ID, events.OrderCancelledPayload{
		OrderID: order.ID,
		Reason:  reason,
	})

	return order, nil
}

// ---------------- Helpers ----------------

func (s *OrderService) terminalFailure(order *domain.Order) error {
	if order.Status == domain.StatusPaid {
		return sharedDomain.NewFailure(sharedDomain.AlreadyPaid, "order is already paid")
	}
	return sharedDomain.NewFailure(sharedDomain.AlreadyCancelled, "order is cancelled")
}

func (s *OrderService) publish(ctx context.Context, eventType string, orderID uuid.UUID, payload interface{}) {
	env, err := events.NewEnvelope(eventType, serviceName, orderID.String(), payload)
	if err != nil {
		// Un payload no serializable es un bug, no un fallo de transporte.
		s.log.Error("Could not build event envelope",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}
	_ = s.events.Publish(ctx, env)
}

func toEventItems(items []domain.OrderItem) []events.OrderItem {
	out := make([]events.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, events.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}
