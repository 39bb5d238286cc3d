package broker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/shared/infra/utils"
)

const (
	reconnectAttempts = 5
	probeInterval     = 15 * time.Second
)

// Status es la instantánea del estado de conexión que exponen los health
// checks. Un broker caído es Degraded, no Unhealthy: el servicio sigue
// sirviendo HTTP y solo el fan-out asíncrono está afectado.
type Status struct {
	IsConnected     bool       `json:"isConnected"`
	ConnectionType  string     `json:"connectionType"`
	EventsPublished uint64     `json:"eventsPublished"`
	PublishFailures uint64     `json:"publishFailures"`
	LastConnectedAt *time.Time `json:"lastConnectedAt,omitempty"`
	LastFailureAt   *time.Time `json:"lastFailureAt,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
}

// dialFunc permite inyectar el dial en tests.
type dialFunc func(ctx context.Context, network, addr string) (*kafka.Conn, error)

// Connection es el adaptador de transporte: un único objeto de conexión
// propio, detrás de un mutex, en vez de campos nullable mutados desde
// varios callbacks. La reconexión sustituye el estado bajo el lock.
type Connection struct {
	brokers []string
	log     *zap.Logger
	dial    dialFunc

	mu          sync.Mutex
	connected   bool
	lastConn    time.Time
	lastFailure time.Time
	lastErr     error

	// Contadores atómicos: los publishers corren en paralelo.
	published uint64
	failures  uint64
}

func NewConnection(brokers []string, log *zap.Logger) *Connection {
	return &Connection{
		brokers: brokers,
		log:     log,
		dial:    kafka.DialContext,
	}
}

// Connect intenta abrir la conexión inicial. El fallo NO es fatal: el
// servicio arranca igualmente, queda en estado degradado y el monitor
// seguirá reintentando.
func (c *Connection) Connect(ctx context.Context) error {
	if err := c.probe(ctx); err != nil {
		c.markDown(err)
		c.log.Error("💥 Broker unreachable at startup, continuing degraded",
			zap.Strings("brokers", c.brokers), zap.Error(err))
		return err
	}
	c.markUp()
	c.log.Info("✅ Broker conectado", zap.Strings("brokers", c.brokers))
	return nil
}

// probe abre una conexión corta contra el primer broker alcanzable y lee
// los metadatos de particiones como prueba de vida.
func (c *Connection) probe(ctx context.Context) error {
	var err error
	for _, addr := range c.brokers {
		var conn *kafka.Conn
		conn, err = c.dial(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		_, err = conn.ReadPartitions()
		conn.Close()
		if err == nil {
			return nil
		}
	}
	return err
}

// Monitor vigila la conexión y, al detectar una caída, reintenta con
// backoff exponencial (2^intento segundos, reconnectAttempts como máximo).
// Se lanza como goroutine desde main.
func (c *Connection) Monitor(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("🛑 Broker monitor detenido")
			return
		case <-ticker.C:
			if err := c.probe(ctx); err != nil {
				wasUp := c.IsConnected()
				c.markDown(err)
				if wasUp {
					c.log.Warn("⚠️ Conexión con el broker perdida", zap.Error(err))
				}
				c.reconnect(ctx)
			} else if !c.IsConnected() {
				c.markUp()
				c.log.Info("✅ Broker reconectado")
			}
		}
	}
}

func (c *Connection) reconnect(ctx context.Context) {
	attempt := 0
	err := utils.RetryBackoff(ctx, reconnectAttempts, func() error {
		attempt++
		if err := c.probe(ctx); err != nil {
			c.markDown(err)
			c.log.Warn("⚠️ Reintento de conexión fallido",
				zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		c.log.Error("💥 Reconexión agotada, el monitor volverá a intentarlo en el siguiente ciclo")
		return
	}
	c.markUp()
	c.log.Info("✅ Broker reconectado", zap.Int("attempt", attempt))
}

func (c *Connection) markUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	c.lastConn = time.Now().UTC()
	c.lastErr = nil
}

func (c *Connection) markDown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.lastFailure = time.Now().UTC()
	c.lastErr = err
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connection) recordPublish()       { atomic.AddUint64(&c.published, 1) }
func (c *Connection) recordPublishFailure(err error) {
	atomic.AddUint64(&c.failures, 1)
	c.markDown(err)
}

// GetStatus devuelve la instantánea para /health.
func (c *Connection) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		IsConnected:     c.connected,
		ConnectionType:  "kafka",
		EventsPublished: atomic.LoadUint64(&c.published),
		PublishFailures: atomic.LoadUint64(&c.failures),
	}
	if !c.lastConn.IsZero() {
		t := c.lastConn
		st.LastConnectedAt = &t
	}
	if !c.lastFailure.IsZero() {
		t := c.lastFailure
		st.LastFailureAt = &t
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}
