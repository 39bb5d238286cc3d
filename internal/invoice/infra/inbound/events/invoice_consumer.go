package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	invoiceDomain "github.com/davicafu/eventshop/internal/invoice/domain"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	sharedUtils "github.com/davicafu/eventshop/internal/shared/infra/utils"
)

// InvoiceService es lo que el consumidor necesita de la capa de aplicación.
type InvoiceService interface {
	CreateForOrder(ctx context.Context, orderID, customerID uuid.UUID, amount float64) (*invoiceDomain.Invoice, error)
}

// InvoiceConsumer emite facturas al consumir los pagos confirmados del
// servicio order.
type InvoiceConsumer struct {
	service InvoiceService
	log     *zap.Logger
}

func NewInvoiceConsumer(service InvoiceService, log *zap.Logger) *InvoiceConsumer {
	return &InvoiceConsumer{service: service, log: log}
}

func (c *InvoiceConsumer) Bindings() []broker.Binding {
	return []broker.Binding{
		{Pattern: "payment.confirmed", Handler: c.handlePaymentConfirmed},
	}
}

func (c *InvoiceConsumer) handlePaymentConfirmed(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.PaymentConfirmedPayload) error {
		inv, err := c.service.CreateForOrder(ctx, evt.OrderID, evt.CustomerID, evt.Amount)
		if err != nil {
			return err
		}
		c.log.Info("📬 payment.confirmed procesado",
			zap.String("invoice_id", inv.ID.String()),
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
