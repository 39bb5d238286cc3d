package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	productDomain "github.com/davicafu/eventshop/internal/product/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	sharedUtils "github.com/davicafu/eventshop/internal/shared/infra/utils"
)

type ProductService interface {
	ReserveForOrder(ctx context.Context, orderID uuid.UUID, items []productDomain.ReservationItem) (*productDomain.Reservation, error)
}

// ProductConsumer reacciona a order.created reservando inventario.
type ProductConsumer struct {
	service ProductService
	log     *zap.Logger
}

func NewProductConsumer(service ProductService, log *zap.Logger) *ProductConsumer {
	return &ProductConsumer{service: service, log: log}
}

func (c *ProductConsumer) Bindings() []broker.Binding {
	return []broker.Binding{
		{Pattern: "order.created", Handler: c.handleOrderCreated},
	}
}

func (c *ProductConsumer) handleOrderCreated(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.OrderCreatedPayload) error {
		items := make([]productDomain.ReservationItem, 0, len(evt.Items))
		for _, it := range evt.Items {
			items = append(items, productDomain.ReservationItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		_, rerr := c.service.ReserveForOrder(ctx, evt.OrderID, items)
		if rerr != nil {
			// Sin stock ya se publicó inventory.rejected: el evento está
			// procesado, no hay nada que reintentar.
			if sharedDomain.IsKind(rerr, sharedDomain.OutOfStock) {
				c.log.Warn("Reservation rejected, out of stock",
					zap.String("order_id", evt.OrderID.String()))
				return nil
			}
			return rerr
		}

		c.log.Info("Inventory reserved via order.created",
			zap.String("order_id", evt.OrderID.String()),
			zap.String("event_id", env.EventID.String()),
		)
		return nil
	})
	if !ok {
		return nil
	}
	return err
}
