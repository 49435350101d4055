package cli

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apihttp "bankassist/internal/http"
)

var serveIngest bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API on API_PORT.

The similarity index must have been built with "bankassist ingest", or pass
--ingest to rebuild it before accepting requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveIngest, "ingest", false, "rebuild the similarity index from DATA_DIR before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	setupLogging(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.validateEmbeddings(ctx); err != nil {
		return err
	}
	if err := a.preloadModel(ctx); err != nil {
		return err
	}
	if err := a.seedCredentials(ctx); err != nil {
		return err
	}
	if serveIngest {
		if _, err := a.pipeline().Run(ctx, cfg.DataDir); err != nil {
			return err
		}
	}

	sessions, closeSessions, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeSessions()
	}()

	router := apihttp.NewRouter(&apihttp.Deps{
		Assistant:      a.assistant(sessions, cfg.JWTSecret),
		VectorStore:    a.store,
		IngestRuns:     a.ingestRuns,
		CollectionName: cfg.QdrantCollection,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
