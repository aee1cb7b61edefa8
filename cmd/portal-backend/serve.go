package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/handler"
	"github.com/ashwinyue/tool-portal/internal/router"
	"github.com/ashwinyue/tool-portal/internal/service"
)

func newServeCmd(bootstrap *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Prepare the database and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, bootstrap, opts.envFile)
		},
	}
}

func serve(ctx context.Context, bootstrap *zap.Logger, envFile string) error {
	a, err := initApp(ctx, bootstrap, envFile)
	if err != nil {
		return err
	}
	defer a.close()

	// 设置 Gin 模式
	gin.SetMode(a.cfg.Server.Mode)

	services, err := service.NewServices(ctx, a.repos, a.db, a.cfg, a.log)
	if err != nil {
		return err
	}
	r := router.SetupRouter(handler.NewHandlers(services), services)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         a.cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.log.Info("server exited")
	return nil
}
