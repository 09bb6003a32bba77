package container

import (
	"context"
	"time"

	"athena-be/internal/config"
	"athena-be/internal/handler"
	"athena-be/internal/repository"
	"athena-be/internal/service"
	"athena-be/internal/service/auth"
	"athena-be/pkg/database"
	"athena-be/pkg/events"
	"athena-be/pkg/logger"
	"athena-be/pkg/mutex"
	"athena-be/pkg/pinata"
	"athena-be/pkg/redis"
	"athena-be/pkg/retry"
	"athena-be/pkg/validator"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Pinata      *pinata.Client
	RedisClient *redis.Client
	DB          *database.PostgresDB
	Publisher   events.Publisher
	Services    *service.Services
}

// New creates a new dependency injection container. Redis, Postgres and
// RabbitMQ are optional: a missing or unreachable one is logged and the
// matching component falls back to its in-process variant.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
		Pinata: pinata.NewClient(pinata.Config{
			JWT:       cfg.PinataJWT,
			Gateway:   cfg.PinataGateway,
			GroupID:   cfg.PinataGroupID,
			APIURL:    cfg.PinataAPIURL,
			UploadURL: cfg.PinataUploadURL,
		}, log),
		Publisher: events.NopPublisher{},
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to database, proceeding without registration ledger")
		} else {
			c.DB = db
			log.Info("Registration ledger connected")
		}
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to RabbitMQ, events are disabled")
		} else {
			c.Publisher = publisher
			log.WithField("exchange", cfg.RabbitMQExchange).Info("Event publisher connected")
		}
	}

	c.Services = c.buildServices()
	return c, nil
}

func (c *Container) buildServices() *service.Services {
	cfg, log := c.Config, c.Logger
	v := validator.New()

	cache := service.NewCacheService(c.RedisClient, log.Logger, cfg.HackathonCacheTTL)

	var locker service.Locker = mutex.NewKeyedMutex()
	if c.RedisClient != nil {
		// a shared lock lets several instances register against one store
		locker = redis.NewLocker(c.RedisClient, cfg.RegistrationTimeout)
	}

	repos := &repository.Repositories{
		Hackathons: repository.NewHackathonRepository(c.Pinata, log),
		Projects:   repository.NewProjectRepository(c.Pinata, log),
		Teams:      repository.NewTeamRepository(c.Pinata, log),
		Scores:     repository.NewScoreRepository(c.Pinata, log),
	}
	if c.DB != nil {
		repos.Ledger = repository.NewRegistrationRepository(c.DB)
	}

	return &service.Services{
		Hackathons: service.NewHackathonService(repos.Hackathons, cache, c.Publisher, v, log),
		Registration: service.NewRegistrationCoordinator(repos.Hackathons, repos.Ledger, locker, cache, c.Publisher, v,
			service.RegistrationConfig{
				Policy:      retry.LinearPolicy(cfg.RegistrationMaxAttempts, cfg.RegistrationBaseDelay),
				Timeout:     cfg.RegistrationTimeout,
				LockTimeout: cfg.LockTimeout,
			}, log),
		Projects: service.NewProjectService(repos.Projects, v, log),
		Teams:    service.NewTeamService(repos.Teams, v, log),
		Scores:   service.NewScoreService(repos.Scores, log),
		Storage:  service.NewStorageService(c.Pinata, retry.ExponentialPolicy(cfg.UpdateMaxAttempts, cfg.UpdateBaseDelay, 0.3), log),
		Cache:    cache,
		Auth:     auth.NewService(cfg.AuthJWTSecret, log),
	}
}

// HealthChecks returns a probe per configured backing service
func (c *Container) HealthChecks() map[string]handler.HealthCheck {
	checks := make(map[string]handler.HealthCheck)
	if c.RedisClient != nil {
		checks["redis"] = c.Services.Cache.HealthCheck
	}
	if c.DB != nil {
		checks["database"] = c.DB.Health
	}
	return checks
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasLedger returns true if the Postgres registration ledger is available
func (c *Container) HasLedger() bool {
	return c.DB != nil
}

// Close releases the backing service connections
func (c *Container) Close(ctx context.Context) []error {
	var errs []error

	if err := c.Publisher.Close(); err != nil {
		c.Logger.WithError(err).Error("Failed to close event publisher")
		errs = append(errs, err)
	}

	if c.RedisClient != nil {
		healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.RedisClient.Health(healthCtx); err != nil {
			c.Logger.WithError(err).Warn("Redis health check failed before closing")
		}
		cancel()
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, err)
		} else {
			c.Logger.Info("Redis connection closed successfully")
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection pool closed successfully")
	}
	return errs
}
