package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/user-service/internal/api/http"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/identity"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/persistence"
	"github.com/spec-kit/user-service/internal/readmodel"
	"github.com/spec-kit/user-service/internal/repository"
	"github.com/spec-kit/user-service/internal/service"
	"github.com/spec-kit/user-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	deps := map[string]handlers.Pinger{}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	deps["postgres"] = pg

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, cfg.Cache, logger)
	defer redis.Close()
	if redis.Client != nil {
		deps["redis"] = redis
	}

	store := openReadStore(ctx, cfg.Mongo, logger, deps)
	cache := readmodel.NewCache(redis.Client, cfg.Cache.TTL(), cfg.Cache.Prefix, logger)
	projector := readmodel.NewProjector(store, cache, logger)

	rabbit, err := persistence.NewRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Fatal("failed to connect rabbitmq", zap.Error(err))
	}
	defer rabbit.Close()

	sup := worker.NewSupervisor(logger)
	var publisher events.Publisher
	if rabbit != nil {
		deps["rabbitmq"] = rabbit
		rp := events.NewRabbitPublisher(rabbit.Conn, cfg.RabbitMQ.Exchange, logger, metrics)
		defer rp.Close() //nolint:errcheck
		publisher = rp
		worker.StartProjectionConsumers(ctx, sup, rabbit.Conn, cfg.RabbitMQ.Exchange, projector.Handlers(), logger, metrics)
	} else {
		bus := events.NewBus(logger, metrics)
		worker.SubscribeProjections(bus, projector.Handlers())
		publisher = bus
	}

	pool := pg.PoolHandle()
	keycloak := identity.NewClient(cfg.Keycloak, logger)

	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		UserRepo:     repository.NewUserRepository(pool),
		RoleRepo:     repository.NewRoleRepository(pool),
		ActivityRepo: repository.NewActivityRepository(pool),
		Provider:     keycloak,
		Publisher:    publisher,
		Notifier:     service.NewNotificationService(cfg.Notification, logger),
		Hasher:       auth.NewBcryptHasher(cfg.Auth.BcryptCost),
	}, logger)
	roleService := service.NewRoleService(keycloak, logger)
	queryService := service.NewQueryService(store, cache)

	verifier, err := auth.NewJWKSVerifier(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to load signing keys", zap.Error(err))
	}
	defer verifier.Close()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:          handlers.NewUsersHandler(userService, queryService),
		Roles:          handlers.NewRolesHandler(roleService, queryService),
		AuthMiddleware: auth.NewAuthMiddleware(verifier).Handle,
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sup.Wait()
}

// openReadStore connects the document read store, falling back to memory
// when no Mongo URI is configured.
func openReadStore(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger, deps map[string]handlers.Pinger) readmodel.Store {
	if cfg.URI == "" {
		logger.Warn("MONGO_URI not provided; using in-memory read store")
		return readmodel.NewMemoryStore()
	}

	mongo, err := persistence.NewMongo(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	deps["mongo"] = mongo

	store := readmodel.NewMongoStore(mongo.Database, logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to create read store indexes", zap.Error(err))
	}
	if err := store.SeedCatalog(ctx); err != nil {
		logger.Fatal("failed to seed role catalog", zap.Error(err))
	}
	return store
}
