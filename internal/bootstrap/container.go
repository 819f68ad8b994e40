package bootstrap

import (
	"context"
	"log"
	"time"

	"prd-builder-be/internal/config"
	"prd-builder-be/internal/controller"
	"prd-builder-be/internal/pkg/logger"
	"prd-builder-be/internal/pkg/serverutils"
	"prd-builder-be/internal/repository/cache"
	"prd-builder-be/internal/repository/contract"
	"prd-builder-be/internal/repository/memory"
	"prd-builder-be/internal/repository/unitofwork"
	"prd-builder-be/internal/service"

	pktNats "prd-builder-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PrdController           controller.IPrdController
	QuestionnaireController controller.IQuestionnaireController

	// Services
	PrdService           service.IPrdService
	QuestionnaireService service.IQuestionnaireService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	return Build(db, cfg, sysLogger, auditLogger)
}

// Build wires the application around already constructed loggers.
func Build(db *gorm.DB, cfg *config.Config, sysLogger, auditLogger logger.ILogger) *Container {
	c := &Container{Logger: sysLogger}

	// 1. Persistence
	uowFactory := unitofwork.NewRepositoryFactory(db)
	drafts := c.newDraftRepository(cfg)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var forwarder service.EventForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub, forwarder, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, auditLogger)

	// 3. Services
	c.PrdService = service.NewPrdService(uowFactory, publisherService, sysLogger)
	c.QuestionnaireService = service.NewQuestionnaireService(drafts, c.PrdService, sysLogger)

	// 4. Controllers
	jwt := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	c.PrdController = controller.NewPrdController(c.PrdService, jwt)
	c.QuestionnaireController = controller.NewQuestionnaireController(c.QuestionnaireService, jwt)

	return c
}

func (c *Container) newDraftRepository(cfg *config.Config) contract.DraftRepository {
	if cfg.Drafts.RedisURL == "" {
		log.Printf("[INFO] Using in-memory draft storage (ttl %s)", cfg.Drafts.TTL)
		return memory.NewDraftRepository(cfg.Drafts.TTL)
	}

	opt, err := redis.ParseURL(cfg.Drafts.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Drafts.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory drafts", err)
		_ = rdb.Close()
		return memory.NewDraftRepository(cfg.Drafts.TTL)
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	log.Printf("[INFO] Using Redis draft storage (ttl %s)", cfg.Drafts.TTL)
	return cache.NewDraftRepository(rdb, cfg.Drafts.TTL)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
