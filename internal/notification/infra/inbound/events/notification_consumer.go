package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	notificationDomain "github.com/davicafu/eventshop/internal/notification/domain"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	sharedUtils "github.com/davicafu/eventshop/internal/shared/infra/utils"
)

// NotificationService es lo que el consumidor necesita de la capa de
// aplicación.
type NotificationService interface {
	RecordFromEvent(ctx context.Context, eventID uuid.UUID, eventType, recipient, subject, body string) (*notificationDomain.Notification, error)
}

// NotificationConsumer escucha los eventos de negocio que merecen un aviso
// al cliente. Una misma cola consume de varios exchanges; la deduplicación
// por EventID vive en la capa de aplicación.
type NotificationConsumer struct {
	service NotificationService
	log     *zap.Logger
}

func NewNotificationConsumer(service NotificationService, log *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{service: service, log: log}
}

func (c *NotificationConsumer) Bindings() []broker.Binding {
	return []broker.Binding{
		{Pattern: "order.created", Handler: c.handleOrderCreated},
		{Pattern: "invoice.created", Handler: c.handleInvoiceCreated},
		{Pattern: "auth.passwordreset", Handler: c.handlePasswordReset},
	}
}

func (c *NotificationConsumer) handleOrderCreated(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.OrderCreatedPayload) error {
		subject := "Hemos recibido tu pedido"
		body := fmt.Sprintf("Tu pedido %s por %.2f€ está en proceso.", evt.OrderID, evt.Total)
		_, err := c.service.RecordFromEvent(ctx, env.EventID, env.EventType,
			customerRecipient(evt.CustomerID), subject, body)
		return err
	})
	if !ok {
		return nil // payload malformado, ya registrado
	}
	return err
}

func (c *NotificationConsumer) handleInvoiceCreated(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.InvoiceCreatedPayload) error {
		subject := "Tu factura " + evt.InvoiceNumber
		body := fmt.Sprintf("Factura %s emitida por tu pedido %s: %.2f€.",
			evt.InvoiceNumber, evt.OrderID, evt.Amount)
		_, err := c.service.RecordFromEvent(ctx, env.EventID, env.EventType,
			customerRecipient(evt.CustomerID), subject, body)
		return err
	})
	if !ok {
		return nil
	}
	return err
}

func (c *NotificationConsumer) handlePasswordReset(ctx context.Context, env sharedEvents.Envelope) error {
	ok, err := sharedUtils.UnmarshalAndHandle(c.log, env.Payload, func(evt sharedEvents.PasswordResetPayload) error {
		subject := "Restablece tu contraseña"
		body := fmt.Sprintf("Se ha solicitado un restablecimiento de contraseña (solicitud %s).", evt.RequestID)
		_, err := c.service.RecordFromEvent(ctx, env.EventID, env.EventType, evt.Email, subject, body)
		return err
	})
	if !ok {
		return nil
	}
	return err
}

// customerRecipient resuelve el destinatario a partir del cliente. No hay
// directorio de clientes en este contexto, así que el destinatario queda
// referenciado por id.
func customerRecipient(customerID uuid.UUID) string {
	return "customer:" + customerID.String()
}
