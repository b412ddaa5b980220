// Package container builds the long-lived clients, repositories and services
// from configuration and hands them to the router and the command binaries.
package container

import (
	"context"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/cache"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-task-manager/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/search"
	gcsinfra "github.com/oksasatya/go-task-manager/internal/infrastructure/storage"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

const pingTimeout = 3 * time.Second

// Container owns every shared dependency. Optional clients are nil when their
// backend is not configured or unreachable at startup.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher
	JWT    *helpers.JWTManager

	UserRepo repository.UserRepository
	TaskRepo repository.TaskRepository

	Users    *application.UserService
	Sessions *application.SessionService
	Tasks    *application.TaskService

	closers []func()
}

// New connects to the configured backends. Only the primary store is
// mandatory; Redis, GCS, Elasticsearch and RabbitMQ degrade to disabled.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, JWT: helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)}

	if cfg.UsesMemoryStorage() {
		store := memory.NewStore()
		c.UserRepo, c.TaskRepo = store.Users(), store.Tasks()
		logger.Warn("using in-memory storage; data is lost on restart")
	} else {
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		c.closers = append(c.closers, pool.Close)
		c.UserRepo, c.TaskRepo = pginfra.NewUserRepository(pool), pginfra.NewTaskRepository(pool)
	}

	c.connectRedis(ctx)
	c.connectGCS(ctx)
	c.connectES()
	c.connectRabbit()

	c.wire()
	return c, nil
}

// NewWithRepositories builds a container around ready repositories with no
// external clients. Used by tests and the memory driver tooling.
func NewWithRepositories(cfg *config.Config, logger *logrus.Logger, users repository.UserRepository, tasks repository.TaskRepository) *Container {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		JWT:      helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		UserRepo: users,
		TaskRepo: tasks,
	}
	c.wire()
	return c
}

func (c *Container) wire() {
	cfg := c.Config

	var index application.TaskIndex
	if c.ES != nil {
		index = search.NewTaskIndex(c.ES, cfg.ESTasksIndex)
	}
	opts := application.UserOptions{
		BcryptCost:     cfg.BcryptCost,
		AvatarMaxBytes: cfg.AvatarMaxBytes,
		AvatarSize:     cfg.AvatarSize,
		Index:          index,
		MailEnabled:    cfg.MailSendEnabled,
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		SupportURL:     cfg.SupportURL,
	}
	if c.Redis != nil {
		opts.Cache = cache.NewAvatarCache(c.Redis, cache.DefaultAvatarTTL)
	}
	if c.GCS != nil {
		opts.Avatars = gcsinfra.NewAvatarStore(c.GCS, cfg.GCSBucket)
	}
	if c.Rabbit != nil {
		opts.Mail = c.Rabbit
	}

	c.Users = application.NewUserService(c.UserRepo, c.Logger, opts)
	c.Sessions = application.NewSessionService(c.UserRepo, c.JWT, c.Logger)
	c.Tasks = application.NewTaskService(c.TaskRepo, index, c.Logger)
}

func (c *Container) connectRedis(ctx context.Context) {
	if c.Config.RedisAddr == "" {
		return
	}
	rdb := helpers.NewRedisClient(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		c.Logger.WithError(err).Warn("redis unavailable; avatar cache and rate limits disabled")
		_ = rdb.Close()
		return
	}
	c.Redis = rdb
	c.closers = append(c.closers, func() { _ = rdb.Close() })
}

func (c *Container) connectGCS(ctx context.Context) {
	if c.Config.GCSBucket == "" {
		return
	}
	client, err := helpers.NewGCSClient(ctx, c.Config.GCSCredentialsJSONPath)
	if err != nil {
		c.Logger.WithError(err).Warn("gcs unavailable; avatar mirror disabled")
		return
	}
	c.GCS = client
	c.closers = append(c.closers, func() { _ = client.Close() })
}

func (c *Container) connectES() {
	es, err := helpers.NewESClient(c.Config.ESAddrs(), c.Config.ElasticsearchUser, c.Config.ElasticsearchPass)
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch unavailable; task search disabled")
		return
	}
	c.ES = es
}

func (c *Container) connectRabbit() {
	if !c.Config.MailSendEnabled || c.Config.RabbitMQURL == "" {
		return
	}
	pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQEmailQueue)
	if err != nil {
		c.Logger.WithError(err).Warn("rabbitmq unavailable; account emails disabled")
		return
	}
	c.Rabbit = pub
	c.closers = append(c.closers, pub.Close)
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
