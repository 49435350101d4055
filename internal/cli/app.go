package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"bankassist/internal/auth"
	"bankassist/internal/config"
	"bankassist/internal/corpus"
	"bankassist/internal/indexer"
	"bankassist/internal/llm"
	"bankassist/internal/rag"
	"bankassist/internal/service"
	"bankassist/internal/session"
	"bankassist/internal/storage"
	"bankassist/internal/vectorstore"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg        *config.Config
	db         *sql.DB
	store      vectorstore.VectorStore
	embedder   *llm.EmbeddingsClient
	generator  *llm.Client
	index      *corpus.Index
	customers  *storage.CustomerRepo
	ingestRuns *storage.IngestRunRepo
	closers    []func() error
}

// newApp opens the database and the similarity index backend.
func newApp(c *config.Config) (*app, error) {
	db, err := storage.New(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", c.DBPath)

	a := &app{
		cfg:        c,
		db:         db,
		customers:  storage.NewCustomerRepo(db),
		ingestRuns: storage.NewIngestRunRepo(db),
		closers:    []func() error{db.Close},
	}

	switch c.IndexBackend {
	case config.IndexBackendSQLite:
		store, err := vectorstore.NewSQLiteStore(db)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.store = store
	default:
		store, err := vectorstore.NewQdrantStore(c.QdrantURL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	}
	slog.Info("Similarity index backend ready", "backend", c.IndexBackend, "collection", c.QdrantCollection)

	a.embedder = llm.NewEmbeddingsClient(c.EmbeddingBaseURL, c.LLMAPIKey, c.EmbeddingModelName, c.VectorSize)
	a.generator = llm.NewClient(c.LLMBaseURL, c.LLMAPIKey, c.LLMModelName, c.LLMMaxTokens)
	a.index = corpus.NewIndex(a.embedder, a.store, c.QdrantCollection, c.VectorSize, c.RetrievalK)

	return a, nil
}

// Close releases everything newApp opened, last opened first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// validateEmbeddings fails fast when the embeddings service is unreachable
// or produces vectors of the wrong size.
func (a *app) validateEmbeddings(ctx context.Context) error {
	if err := a.embedder.Probe(ctx); err != nil {
		return err
	}
	slog.Info("Embedding client validated", "vector_size", a.cfg.VectorSize)
	return nil
}

// preloadModel asks the llama.cpp router to load the generation model.
func (a *app) preloadModel(ctx context.Context) error {
	if !a.cfg.LLMAutoload {
		return nil
	}
	loader := llm.NewModelLoader(a.cfg.LLMBaseURL)
	if err := loader.LoadModel(ctx, a.cfg.LLMModelName, nil); err != nil {
		return fmt.Errorf("failed to load model %s: %w", a.cfg.LLMModelName, err)
	}
	return nil
}

// pipeline returns the ingestion pipeline over the app's index.
func (a *app) pipeline() *indexer.Pipeline {
	return indexer.NewPipeline(a.index, a.ingestRuns, a.cfg.IndexBackend, a.cfg.EmbeddingModelName)
}

// seedCredentials loads CREDENTIALS_FILE when present. Without one, an empty
// customer table gets the demo customers.
func (a *app) seedCredentials(ctx context.Context) error {
	path := a.cfg.CredentialsFile
	if _, err := os.Stat(path); err == nil {
		file, err := auth.LoadSeedFile(path)
		if err != nil {
			return err
		}
		_, err = auth.Seed(ctx, a.customers, file, bcrypt.DefaultCost)
		return err
	}

	n, err := a.customers.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	slog.Warn("No credentials file, seeding demo customers", "path", path)
	_, err = auth.Seed(ctx, a.customers, auth.DemoSeed(), bcrypt.DefaultCost)
	return err
}

// sessionStore opens the configured session store. The returned close
// function is never nil.
func (a *app) sessionStore(ctx context.Context) (session.Store, func() error, error) {
	if a.cfg.SessionStore == config.SessionStoreRedis {
		store, err := session.NewRedisStore(ctx, a.cfg.RedisAddr, a.cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Redis session store connected", "addr", a.cfg.RedisAddr)
		return store, store.Close, nil
	}
	return session.NewMemoryStore(a.cfg.SessionTTL), func() error { return nil }, nil
}

// assistant wires the assistant service over the app's collaborators.
func (a *app) assistant(sessions session.Store, secret string) service.AssistantService {
	return service.NewAssistantService(
		auth.NewSQLCredentialStore(a.customers),
		auth.NewTokenIssuer(secret, a.cfg.SessionTTL),
		sessions,
		rag.NewOrchestrator(a.index, a.generator),
	)
}
