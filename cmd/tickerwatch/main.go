package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tickerwatch/internal/infrastructure/config"
	"tickerwatch/internal/infrastructure/logger"
	"tickerwatch/internal/infrastructure/svc"
	"tickerwatch/internal/interfaces/console"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	logger.Setup("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}

	log.Info().
		Str("config", *configPath).
		Str("stream", cfg.Stream.URL).
		Bool("storage", cfg.AnyStorage()).
		Msg("tickerwatch started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sc.Engine().Run(gctx) })
	g.Go(func() error { return sc.Journal().Run(gctx) })
	g.Go(func() error { return sc.Monitor().Run(gctx) })
	g.Go(func() error {
		// stdin EOF 不退出，继续渲染直到收到信号
		return sc.Shell().Run(gctx, os.Stdin)
	})

	err = g.Wait()
	_ = sc.Sink.NewLine()
	switch {
	case err == nil, errors.Is(err, console.ErrQuit), errors.Is(err, context.Canceled):
		log.Info().Msg("exit")
	default:
		log.Error().Err(err).Msg("tickerwatch exited")
	}

	if err := sc.Close(); err != nil {
		log.Error().Err(err).Msg("close failed")
	}
}
