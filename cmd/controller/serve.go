package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/delivery"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/generate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/httpapi"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/rpc"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/signals"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/websocket and gRPC servers",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// #region serve
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	rt, err := newRouter(cfg)
	if err != nil {
		return err
	}

	var producer *signals.Producer
	if cfg.Labels.Path != "" {
		labels, err := signals.LoadLabelMap(cfg.Labels.Path)
		if err != nil {
			return err
		}
		producer = signals.NewProducer(labels)
		logger.Info("label map loaded", zap.Int("labels", len(labels)))
	}

	var store *transcript.Store
	if cfg.Transcript.DB != "" {
		store, err = transcript.NewStore(cfg.Transcript.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("recording sessions", zap.String("db", cfg.Transcript.DB))
	}

	dlv := delivery.NewClient(cfg.Delivery, logger)
	defer dlv.Wait()

	api := httpapi.New(httpapi.Deps{
		Router:    rt,
		Pipeline:  cfg.Pipeline(),
		Producer:  producer,
		Store:     store,
		Deliverer: dlv,
		Generator: generate.New(cfg.Generation, logger),
		Logger:    logger,
	})
	grpcSrv := rpc.NewServer(rpc.NewService(rt, logger), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Run(ctx, cfg.Server.HTTPAddr) })
	g.Go(func() error { return rpc.Run(ctx, grpcSrv, cfg.Server.GRPCAddr, logger) })
	if cfg.Templates.Path != "" && cfg.Templates.Watch {
		w := templates.NewWatcher(rt.Bank(), cfg.Templates.Path, logger)
		g.Go(func() error { return w.Run(ctx) })
	}

	logger.Info("controller ready",
		zap.String("http", cfg.Server.HTTPAddr),
		zap.String("grpc", cfg.Server.GRPCAddr),
		zap.Bool("delivery", cfg.Delivery.Enabled),
		zap.Bool("generation", cfg.Generation.Enabled),
	)
	err = g.Wait()
	logger.Info("controller stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// #endregion serve
