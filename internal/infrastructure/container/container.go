package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickerwatch/internal/application/port"
	"tickerwatch/internal/infrastructure/config"
	"tickerwatch/internal/infrastructure/storage"
	"tickerwatch/internal/infrastructure/storage/composite"
	pgrepo "tickerwatch/internal/infrastructure/storage/postgres"
	redisrepo "tickerwatch/internal/infrastructure/storage/redis"
	sqliterepo "tickerwatch/internal/infrastructure/storage/sqlite"
)

// Container 持有行情日志的全部存储后端
// 每个开启的后端都会写同一份数据；都没开启时退回内存仓储
type Container struct {
	cfg *config.Config

	redisClient *redis.Client
	sqliteRepo  *sqliterepo.Repo
	pgRepo      *pgrepo.Repo
	memRepo     *storage.InMemoryRepo

	repos []port.QuoteRepository
	repo  port.QuoteRepository

	closeOnce   sync.Once
	closerChain []func() error
}

// backend 描述一个可选存储后端
type backend struct {
	name    string
	enabled bool
	open    func() (port.QuoteRepository, func() error, error)
}

// New 按配置打开存储后端，任一失败则关闭已打开的部分并返回错误
func New(cfg *config.Config) (*Container, error) {
	c := &Container{cfg: cfg}

	for _, b := range c.backends() {
		if !b.enabled {
			continue
		}
		repo, closer, err := b.open()
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("%s init failed: %w", b.name, err)
		}
		c.repos = append(c.repos, repo)
		name := b.name
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Str("backend", name).Msg("closing storage")
			return closer()
		})
		log.Info().Str("backend", name).Msg("storage initialized")
	}

	if len(c.repos) == 0 {
		c.memRepo = storage.NewInMemoryRepo()
		c.repo = c.memRepo
		log.Info().Msg("no storage enabled, journal kept in memory")
		return c, nil
	}
	c.repo = composite.New(c.repos...)
	return c, nil
}

func (c *Container) backends() []backend {
	st := c.cfg.Storage
	return []backend{
		{name: "sqlite", enabled: st.SQLite.Enabled, open: c.openSQLite},
		{name: "postgres", enabled: st.Postgres.Enabled, open: c.openPostgres},
		{name: "redis", enabled: st.Redis.Enabled, open: c.openRedis},
	}
}

func (c *Container) openSQLite() (port.QuoteRepository, func() error, error) {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return nil, nil, err
	}
	c.sqliteRepo = repo
	log.Debug().Str("path", c.cfg.Storage.SQLite.Path).Msg("sqlite opened")
	return repo, repo.Close, nil
}

func (c *Container) openPostgres() (port.QuoteRepository, func() error, error) {
	repo, err := pgrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	c.pgRepo = repo
	return repo, repo.Close, nil
}

func (c *Container) openRedis() (port.QuoteRepository, func() error, error) {
	rc := c.cfg.Storage.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	// 启动时探活，连不上直接失败
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	c.redisClient = rdb
	log.Debug().Str("addr", rc.Addr).Int("db", rc.DB).Str("prefix", rc.Prefix).Msg("redis connected")
	// repo.Close 会关闭 rdb
	repo := redisrepo.New(rdb, rc.Prefix, c.cfg.RedisTTL(), rc.Channel)
	return repo, repo.Close, nil
}

func (c *Container) Config() *config.Config { return c.cfg }

// Repository 返回组合后的仓储；生命周期归容器管理，调用方不要 Close
func (c *Container) Repository() port.QuoteRepository { return c.repo }

// Backends 开启的后端数量，0 表示内存仓储
func (c *Container) Backends() int { return len(c.repos) }

func (c *Container) RedisClient() *redis.Client { return c.redisClient }

func (c *Container) SQLiteRepo() *sqliterepo.Repo { return c.sqliteRepo }

// MemoryRepo is non-nil only when no backend is enabled
func (c *Container) MemoryRepo() *storage.InMemoryRepo { return c.memRepo }

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
	})
	return err
}
