package svc

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	appcontainer "tickerwatch/internal/application/container"
	"tickerwatch/internal/application/port"
	"tickerwatch/internal/application/service"
	"tickerwatch/internal/application/usecase/monitor"
	"tickerwatch/internal/application/usecase/tracker"
	"tickerwatch/internal/infrastructure/config"
	infracontainer "tickerwatch/internal/infrastructure/container"
	"tickerwatch/internal/infrastructure/lookup"
	"tickerwatch/internal/infrastructure/websocket"
	"tickerwatch/internal/interfaces/console"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	storage  *infracontainer.Container
	dialer   port.StreamDialer
	searcher port.SymbolSearcher

	// 输出端口
	Sink     *console.Sink
	Notifier *console.Notifier

	// 应用组件（依赖基础设施）
	services *appcontainer.Container
	engine   *tracker.Engine
	monitor  *monitor.Service
	shell    *console.Shell

	// 资源管理
	closerChain []func() error
}

// Overrides 测试时替换网络依赖
type Overrides struct {
	Dialer   port.StreamDialer
	Searcher port.SymbolSearcher
	Sink     *console.Sink
	Clock    tracker.Clock
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	return NewWithOverrides(ctx, cfg, Overrides{})
}

func NewWithOverrides(ctx context.Context, cfg *config.Config, ov Overrides) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Sink:        ov.Sink,
		dialer:      ov.Dialer,
		searcher:    ov.Searcher,
		closerChain: make([]func() error, 0),
	}
	if sc.Sink == nil {
		sc.Sink = console.NewSink()
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(ov.Clock); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 初始化所有应用组件
func (sc *ServiceContext) initializeComponents(clock tracker.Clock) error {
	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return err
	}
	sc.services = appcontainer.New(sc.storage.Repository(), sc.Config.Journal.Buffer)

	// 1. 网络
	if sc.dialer == nil {
		sc.dialer = websocket.NewDialer(websocket.Options{
			ReadTimeout:  sc.Config.ReadTimeout(),
			PingInterval: sc.Config.PingInterval(),
		})
	}
	if sc.searcher == nil {
		sc.searcher = lookup.NewClient(sc.Config.Lookup.BaseURL, sc.Config.LookupTimeout())
	}

	// 2. 引擎和界面
	sc.Notifier = console.NewNotifier(sc.Sink, false)
	sc.engine = tracker.NewEngine(tracker.EngineDeps{
		Dialer:   sc.dialer,
		Searcher: sc.searcher,
		Notifier: sc.Notifier,
		Recorder: sc.services.Journal(),
	}, tracker.EngineOptions{
		Session: tracker.SessionConfig{
			URL:            sc.Config.Stream.URL,
			ReconnectDelay: sc.Config.ReconnectDelay(),
			DialTimeout:    sc.Config.DialTimeout(),
		},
		Debounce: tracker.DebouncerConfig{
			Delay:   sc.Config.DebounceDelay(),
			Timeout: sc.Config.LookupTimeout(),
		},
		Clock: clock,
	})
	sc.monitor = monitor.NewService(monitor.ServiceDeps{
		Store:       sc.engine.Store(),
		Sink:        sc.Sink,
		Formatter:   monitor.NewFormatter(false),
		RenderEvery: sc.Config.RenderEvery(),
	})
	sc.shell = console.NewShell(sc.engine, sc.Notifier)

	log.Info().
		Str("stream", sc.Config.Stream.URL).
		Str("lookup", sc.Config.Lookup.BaseURL).
		Msg("all components initialized")
	return nil
}

// initializeStorage 初始化存储层 (Redis / SQLite / Postgres)
func (sc *ServiceContext) initializeStorage() error {
	c, err := infracontainer.New(sc.Config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}
	sc.storage = c
	sc.closerChain = append(sc.closerChain, c.Close)
	return nil
}

func (sc *ServiceContext) Engine() *tracker.Engine { return sc.engine }

func (sc *ServiceContext) Monitor() *monitor.Service { return sc.monitor }

func (sc *ServiceContext) Shell() *console.Shell { return sc.shell }

func (sc *ServiceContext) Journal() *service.Journal { return sc.services.Journal() }

func (sc *ServiceContext) Storage() *infracontainer.Container { return sc.storage }

// Close 关闭 ServiceContext 中的所有资源
// 应该在引擎和日志 goroutine 都退出之后调用
func (sc *ServiceContext) Close() error {
	// 按照相反的顺序关闭所有资源
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
