package main

import (
	"context"
	"database/sql"

	authApp "github.com/davicafu/eventshop/internal/auth/application"
	authHttp "github.com/davicafu/eventshop/internal/auth/infra/inbound/http"
	authRepo "github.com/davicafu/eventshop/internal/auth/infra/outbound/db/sqlite"
	config "github.com/davicafu/eventshop/internal/config"
	invoiceApp "github.com/davicafu/eventshop/internal/invoice/application"
	invoiceDomainPort "github.com/davicafu/eventshop/internal/invoice/domain"
	invoiceEvents "github.com/davicafu/eventshop/internal/invoice/infra/inbound/events"
	invoiceHttp "github.com/davicafu/eventshop/internal/invoice/infra/inbound/http"
	invoiceRepoPg "github.com/davicafu/eventshop/internal/invoice/infra/outbound/db/postgre"
	invoiceRepo "github.com/davicafu/eventshop/internal/invoice/infra/outbound/db/sqlite"
	notificationApp "github.com/davicafu/eventshop/internal/notification/application"
	notificationEvents "github.com/davicafu/eventshop/internal/notification/infra/inbound/events"
	notificationHttp "github.com/davicafu/eventshop/internal/notification/infra/inbound/http"
	notificationRepo "github.com/davicafu/eventshop/internal/notification/infra/outbound/db/sqlite"
	orderApp "github.com/davicafu/eventshop/internal/order/application"
	orderDomainPort "github.com/davicafu/eventshop/internal/order/domain"
	orderEvents "github.com/davicafu/eventshop/internal/order/infra/inbound/events"
	orderHttp "github.com/davicafu/eventshop/internal/order/infra/inbound/http"
	orderRepoPg "github.com/davicafu/eventshop/internal/order/infra/outbound/db/postgre"
	orderRepo "github.com/davicafu/eventshop/internal/order/infra/outbound/db/sqlite"
	productApp "github.com/davicafu/eventshop/internal/product/application"
	productEvents "github.com/davicafu/eventshop/internal/product/infra/inbound/events"
	productHttp "github.com/davicafu/eventshop/internal/product/infra/inbound/http"
	productRepo "github.com/davicafu/eventshop/internal/product/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/internal/shared/infra/analytics/clickhouse"
	"github.com/davicafu/eventshop/internal/shared/infra/broker"
	outboxMongo "github.com/davicafu/eventshop/internal/shared/infra/db/mongodb"
	outboxPg "github.com/davicafu/eventshop/internal/shared/infra/db/postgres"
	outboxSqlite "github.com/davicafu/eventshop/internal/shared/infra/db/sqlite"
	"github.com/davicafu/eventshop/internal/shared/infra/http/middleware"
	sharedCache "github.com/davicafu/eventshop/internal/shared/infra/platform/cache"
	"github.com/davicafu/eventshop/internal/shared/infra/relayer"
	"github.com/davicafu/eventshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.ServiceName)
	log := logger.Logger()
	defer log.Sync()

	ctx := context.Background()

	// ---------------- DB ----------------
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open SQLite", zap.Error(err))
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping SQLite", zap.Error(err))
	}

	for _, init := range []func(*sql.DB) error{
		outboxSqlite.InitSchema,
		orderRepo.InitSchema,
		productRepo.InitSchema,
		invoiceRepo.InitSchema,
		authRepo.InitSchema,
		notificationRepo.InitSchema,
	} {
		if err := init(db); err != nil {
			log.Fatal("failed to initialize SQLite schema", zap.Error(err))
		}
	}

	// PostgreSQL opcional para los agregados de order e invoice.
	var pgdb *sql.DB
	if cfg.UsePostgres {
		pgdb, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open PostgreSQL", zap.Error(err))
		}
		defer pgdb.Close()
		if err := pgdb.PingContext(ctx); err != nil {
			log.Fatal("failed to ping PostgreSQL", zap.Error(err))
		}
		log.Info("✅ PostgreSQL conectado")
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	redisUp := rdb.Ping(ctx).Err() == nil
	if redisUp {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	} else {
		log.Warn("⚠️ Redis no disponible, cache en memoria")
		cacheInstance = sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	}

	// ---------------- Broker ----------------
	broker.RegisterMetrics()

	conn := broker.NewConnection(cfg.KafkaBrokers, log)
	if err := conn.Connect(ctx); err != nil {
		// El broker caído no impide arrancar: los eventos van al registro
		// de recuperación hasta que vuelva.
		log.Warn("⚠️ Broker no disponible en el arranque", zap.Error(err))
	}
	go conn.Monitor(ctx)

	// Registro de recuperación: SQLite por defecto, PostgreSQL o MongoDB
	// según despliegue.
	var outboxRepository sharedDomain.OutboxRepository
	switch {
	case cfg.UseMongoOutbox:
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(ctx)
		outboxRepository = outboxMongo.NewOutboxRepoMongoDB(mongoClient, "eventshop")
		log.Info("✅ Outbox sobre MongoDB")
	case cfg.UsePostgres:
		outboxRepository = outboxPg.NewOutboxRepoPostgres(pgdb)
	default:
		outboxRepository = outboxSqlite.NewOutboxRepoSQLite(db)
	}

	// Un publisher por servicio emisor, cada uno atado a su exchange.
	orderPublisher := broker.NewPublisher(cfg.KafkaBrokers, "order", conn, outboxRepository, cfg.ConfirmTimeout, log)
	productPublisher := broker.NewPublisher(cfg.KafkaBrokers, "product", conn, outboxRepository, cfg.ConfirmTimeout, log)
	invoicePublisher := broker.NewPublisher(cfg.KafkaBrokers, "invoice", conn, outboxRepository, cfg.ConfirmTimeout, log)
	authPublisher := broker.NewPublisher(cfg.KafkaBrokers, "auth", conn, outboxRepository, cfg.ConfirmTimeout, log)

	// Auditoría de entregas en ClickHouse (opcional).
	var auditor broker.Auditor
	if cfg.ClickHouseAddr != "" {
		deliveryLog, err := clickhouse.NewDeliveryLog(cfg.ClickHouseAddr, "eventshop", log)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, sin auditoría de entregas", zap.Error(err))
		} else {
			auditor = deliveryLog
			defer deliveryLog.Close()
		}
	}

	// --------------- Servicios --------------
	var orderRepository orderDomainPort.OrderRepository = orderRepo.NewOrderRepoSQLite(db)
	var invoiceRepository invoiceDomainPort.InvoiceRepository = invoiceRepo.NewInvoiceRepoSQLite(db)
	if cfg.UsePostgres {
		orderRepository = orderRepoPg.NewOrderRepoPostgres(pgdb)
		invoiceRepository = invoiceRepoPg.NewInvoiceRepoPostgres(pgdb)
	}

	orderService := orderApp.NewOrderService(orderRepository, orderPublisher, log)
	productService := productApp.NewProductService(productRepo.NewProductRepoSQLite(db), cacheInstance, productPublisher, log)
	invoiceService := invoiceApp.NewInvoiceService(invoiceRepository, invoicePublisher, log)
	authService := authApp.NewAuthService(authRepo.NewUserRepoSQLite(db), authPublisher, log)
	notificationService := notificationApp.NewNotificationService(notificationRepo.NewNotificationRepoSQLite(db), log)

	// ------------- Consumidores -------------
	orderConsumer := orderEvents.NewOrderConsumer(orderService, log)
	productConsumer := productEvents.NewProductConsumer(productService, log)
	invoiceConsumer := invoiceEvents.NewInvoiceConsumer(invoiceService, log)
	notificationConsumer := notificationEvents.NewNotificationConsumer(notificationService, log)

	// El group ID lleva el prefijo configurado para poder desplegar varias
	// instancias del monolito sin que sus colas colisionen.
	subscribe := func(exchange, queue string, bindings []broker.Binding) {
		sub := broker.NewSubscriber(broker.SubscriberConfig{
			Brokers:         cfg.KafkaBrokers,
			Exchange:        exchange,
			Queue:           cfg.ConsumerGroup + "." + queue,
			Bindings:        bindings,
			Prefetch:        cfg.Prefetch,
			MaxRedeliveries: cfg.MaxRedeliveries,
			Audit:           auditor,
		}, log)
		sub.Start(ctx)
	}

	// order reacciona al inventario; product e invoice escuchan a order.
	subscribe(sharedEvents.ExchangeFor("product"), "order-service", orderConsumer.Bindings())
	subscribe(sharedEvents.ExchangeFor("order"), "product-service", productConsumer.Bindings())
	subscribe(sharedEvents.ExchangeFor("order"), "invoice-service", invoiceConsumer.Bindings())

	// notification escucha varios exchanges con la misma cola lógica; los
	// patrones no enlazados en cada uno se descartan con ack.
	for _, src := range []string{"order", "invoice", "auth"} {
		subscribe(sharedEvents.ExchangeFor(src), "notification-service", notificationConsumer.Bindings())
	}

	// ------------- Workers -------------
	// Un solo relayer drena el registro de recuperación de todos los
	// servicios: el destino viaja en cada evento.
	outboxWorker := relayer.NewOutboxWorker(outboxRepository, orderPublisher, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go outboxWorker.Start(ctx)

	invoiceRetryWorker := invoiceApp.NewRetryWorker(invoiceRepository, invoiceService, cfg.InvoiceSweep, cfg.MaxRetryCount, cfg.OutboxLimit, log)
	go invoiceRetryWorker.Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.Default()
	if redisUp {
		router.Use(middleware.Idempotency(rdb))
	}

	orderHttp.RegisterOrderRoutes(router, orderHttp.NewOrderHandler(orderService))
	productHttp.RegisterProductRoutes(router, productHttp.NewProductHandler(productService))
	invoiceHttp.RegisterInvoiceRoutes(router, invoiceHttp.NewInvoiceHandler(invoiceService))
	authHttp.RegisterAuthRoutes(router, authHttp.NewAuthHandler(authService))
	notificationHttp.RegisterNotificationRoutes(router, notificationHttp.NewNotificationHandler(notificationService))

	// /health refleja el estado del broker sin dejar de responder 200: el
	// servicio sigue operativo aunque el broker esté caído.
	router.GET("/health", func(c *gin.Context) {
		status := conn.GetStatus()
		state := "ok"
		if !status.IsConnected {
			state = "degraded"
		}
		c.JSON(200, gin.H{
			"status": state,
			"broker": status,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
