package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	orderDomain "github.com/davicafu/eventshop/internal/order/domain"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	sharedUtils "github.com/davicafu/eventshop/internal/shared/infra/utils"
)

// OrderService es lo que el consumidor necesita de la capa de aplicación.
type OrderService interface {
	ConfirmInventory(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error)
	RejectInventory(ctx context.Context, orderID uuid.UUID, reason string) (*orderDomain.Order, error)
}

// OrderConsumer reacciona a los eventos de inventario del servicio product
// para avanzar el estado del pedido.
type OrderConsumer struct {
	service OrderService
	log     *zap.Logger
}

func NewOrderConsumer(service OrderService, log *zap.Logger) *OrderConsumer {
	return &OrderConsumer{service: service, log: log}
}

// Bindings declara los patrones a los que se suscribe esta cola. Un tipo de
// evento no enlazado aquí jamás llega a los handlers.
func (c *OrderConsumer) Bindings() []broker.Binding {
	return []broker.Binding{
		{Pattern: "inventory.reserved", Handler: c.handleInventoryReserved},
		{Pattern: "inventory.rejected", Handler: c.handleInventoryRejected},
	}
}

func (c *OrderConsumer) handleInventoryReserved(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.InventoryReservedPayload) error {
		_, err := c.service.ConfirmInventory(ctx, evt.OrderID)
		if err != nil {
			return err
		}
		c.log.Info("Order confirmed via inventory.reserved",
			zap.String("order_id", evt.OrderID.String()),
			zap.String("event_id", env.EventID.String()),
		)
		return nil
	})
	if !ok {
		return nil // payload malformado, ya registrado
	}
	return err
}

func (c *OrderConsumer) handleInventoryRejected(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.InventoryRejectedPayload) error {
		_, err := c.service.RejectInventory(ctx, evt.OrderID, evt.Reason)
		return err
	})
	if !ok {
		return nil
	}
	return err
}
