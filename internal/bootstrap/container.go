package bootstrap

import (
	"context"
	"log"

	"mesh-explorer-be/internal/config"
	"mesh-explorer-be/internal/controller"
	"mesh-explorer-be/internal/pkg/logger"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/internal/service"
	"mesh-explorer-be/internal/websocket"

	pkgNats "mesh-explorer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	SessionController controller.ISessionController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub    *websocket.Hub
	PipelineHandler *websocket.PipelineHandler
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket hub with its own log file; pipeline chatter would drown the
	// application log otherwise.
	wsLogger := logger.NewIsolatedLogger("logs/pipeline.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Pipeline.SegmentTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Pipeline.SegmentTopic,
		uowFactory,
		natsPub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, cfg.Auth)
	sessionService := service.NewSessionService(uowFactory)
	pipelineService := service.NewPipelineService(uowFactory, publisherService, sysLogger)
	queryService := service.NewQueryService(uowFactory)

	pipelineHandler := websocket.NewPipelineHandler(
		wsHub,
		sessionService,
		pipelineService,
		queryService,
		cfg.Pipeline,
		wsLogger,
	)

	// 4. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService),
		SessionController: controller.NewSessionController(sessionService),

		ConsumerService: consumerService,

		WebSocketHub:    wsHub,
		PipelineHandler: pipelineHandler,
	}
}
