package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"creditdash/internal/agent"
	"creditdash/internal/cache"
	"creditdash/internal/config"
	cronrunner "creditdash/internal/cron"
	"creditdash/internal/db"
	"creditdash/internal/handler"
	gormrepository "creditdash/internal/repository/gorm"
	"creditdash/internal/service"
	"creditdash/internal/session"

	_ "creditdash/docs"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Sync()
	return serve(cmd.Context(), cfg, log)
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close(dbConn)

	store, err := gormrepository.New(dbConn.Gorm, cfg.Warehouse.Schema)
	if err != nil {
		return err
	}

	kv, mem, err := cache.Open(ctx, cfg.Cache, cfg.Redis)
	if err != nil {
		return err
	}
	if c, ok := kv.(io.Closer); ok {
		defer c.Close()
	}

	tokens, err := session.NewTokens(cfg.Session.Secret, cfg.Session.TokenTTL)
	if err != nil {
		return err
	}
	sessions := session.NewManager(kv, cfg.Session.IdleTTL)

	dashboard := &service.DashboardService{
		Repo:          store,
		Cache:         cache.NewResultCache(kv, cfg.Cache.ResultTTL, log),
		Logger:        log,
		Location:      cfg.Warehouse.Location(),
		QueryTimeout:  cfg.Warehouse.QueryTimeout,
		TopDealsLimit: cfg.Warehouse.TopDealsLimit,
	}

	chat := &service.ChatService{Logger: log}
	if agentClient, err := agent.New(cfg.Agent, agent.WithLogger(log)); err != nil {
		log.Warn("analyst agent disabled", zap.Error(err))
	} else {
		chat.Agent = agentClient
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := handler.NewRouter(handler.Deps{
		DB:             dbConn,
		Dashboard:      dashboard,
		Filters:        &service.FilterResolver{Dashboard: dashboard},
		Chat:           chat,
		Sessions:       sessions,
		Tokens:         tokens,
		Logger:         log,
		OriginPatterns: cfg.Server.AllowedOrigins,
	})

	if cfg.Cron.Enabled {
		runner := cronrunner.New(log, ctx)
		jobs := cronrunner.Jobs{
			Warehouse: store,
			Location:  cfg.Warehouse.Location(),
			Timeout:   cfg.Warehouse.QueryTimeout,
			Logger:    log,
		}
		if mem != nil {
			jobs.Cache = mem
		}
		if err := cronrunner.Register(runner, cfg.Cron, jobs); err != nil {
			return err
		}
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case serveErr = <-errCh:
		log.Error("server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return serveErr
}
