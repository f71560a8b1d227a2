package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/handler"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, config.AutoMigrate)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	services, err := service.NewServices(ctx, st)
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler.NewRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s", config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
