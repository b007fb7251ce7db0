package bootstrap

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"central-ai-web/internal/config"
	"central-ai-web/internal/controller"
	"central-ai-web/internal/handler"
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/internal/service"
	"central-ai-web/internal/websocket"
	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/dashboard"
	"central-ai-web/pkg/events"
	"central-ai-web/pkg/guard"
	pktNats "central-ai-web/pkg/nats"
	"central-ai-web/pkg/session"
	"central-ai-web/pkg/wizard"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	// Middleware dependencies
	Guard        *guard.Guard
	SessionStore *session.Store

	// Controllers
	HomeController         controller.IHomeController
	AuthController         controller.IAuthController
	SupportController      controller.ISupportController
	ConversationController controller.IConversationController
	DashboardController    controller.IDashboardController
	AdminController        controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	SessionEventService service.ISessionEventService // nil without NATS

	// WebSockets
	RefreshHandler *handler.RefreshHandler
	WebSocketHub   *websocket.Hub

	closers []func()
}

func NewContainer(cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	validate := validator.New()
	api := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure (optional brokers)
	rdb := connectRedis(cfg.Broker.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Broker.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Broker.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. Session
	var kv session.KeyValue
	switch {
	case cfg.Session.Backend == "redis" && rdb != nil:
		kv = session.NewRedisKeyValue(rdb, cfg.Session.TTL)
	case cfg.Session.Backend == "redis":
		log.Printf("[WARN] SESSION_BACKEND=redis but Redis is unavailable, sessions are kept in memory")
		kv = session.NewMemoryKeyValue(cfg.Session.TTL)
	default:
		kv = session.NewMemoryKeyValue(cfg.Session.TTL)
	}
	store := session.NewStore(kv, api, publisher, sysLogger, cfg.Session.DefaultRole)
	routeGuard := guard.New(guard.DefaultRules(), guard.DefaultLandings())

	conversations := conversation.NewRegistry(cfg.Session.ConversationIdle)
	wizards := wizard.NewRegistry(cfg.Session.ConversationIdle)
	reset := controller.SessionReset{
		Store:         store,
		Conversations: conversations,
		Wizards:       wizards,
		Logger:        sysLogger,
	}

	// 5. WebSocket Hub and refresh pipeline
	wsLogger := logger.NewIsolatedLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "websocket.log"))
	wsHub := websocket.NewHub(rdb, uuid.NewString(), wsLogger)

	publisherService := service.NewPublisherService(cfg.Broker.RefreshTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Broker.RefreshTopic, wsHub, sysLogger)

	if cfg.Broker.NatsURL != "" {
		natsSub, err := pktNats.NewSubscriber(cfg.Broker.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.SessionEventService = service.NewSessionEventService(natsSub, reset, sysLogger)
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 6. Domain
	aggregator := dashboard.NewAggregator(api, sysLogger)

	// 7. Controllers
	c.Guard = routeGuard
	c.SessionStore = store
	c.HomeController = controller.NewHomeController(routeGuard)
	c.AuthController = controller.NewAuthController(store, routeGuard, reset, validate)
	c.SupportController = controller.NewSupportController(api, wizards, validate, sysLogger)
	c.ConversationController = controller.NewConversationController(api, conversations, store, publisherService, reset, validate, sysLogger)
	c.DashboardController = controller.NewDashboardController(aggregator, reset)
	c.AdminController = controller.NewAdminController(aggregator, publisherService, reset, validate, sysLogger)
	c.ConsumerService = consumerService
	c.RefreshHandler = handler.NewRefreshHandler(wsHub, wsLogger)
	c.WebSocketHub = wsHub

	return c
}

// connectRedis returns nil when no URL is configured or the server does not
// answer.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
