package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	"github.com/davicafu/eventshop/internal/shared/infra/utils"
)

// DeliveryLog registra cada entrega procesada por los consumidores en
// ClickHouse, para análisis operacional (tasas de requeue, dead-letter,
// latencia de reentrega). Implementa broker.Auditor y es best-effort: los
// fallos se registran y no afectan al procesamiento.
type DeliveryLog struct {
	db  *sql.DB
	log *zap.Logger
}

func NewDeliveryLog(addr, dbName string, log *zap.Logger) (*DeliveryLog, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	// ClickHouse puede tardar en aceptar conexiones al arrancar el stack.
	err := utils.Retry(context.Background(), 3, 2*time.Second, conn.Ping)
	if err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &DeliveryLog{db: conn, log: log}, nil
}

func (l *DeliveryLog) RecordDelivery(ctx context.Context, d broker.Delivery) {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_deliveries (queue, routing_key, event_id, event_type, outcome, redelivery, handled_at)
		 VALUES (?,?,?,?,?,?,?)`,
		d.Queue, d.RoutingKey, d.EventID, d.EventType, d.Outcome, d.Redelivery, d.HandledAt,
	)
	if err != nil {
		l.log.Warn("⚠️ Could not record delivery in clickhouse", zap.Error(err))
	}
}

func (l *DeliveryLog) Close() error {
	return l.db.Close()
}

var _ broker.Auditor = (*DeliveryLog)(nil)
