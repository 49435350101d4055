package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bankassist/internal/contextutil"
	"bankassist/internal/storage"
	"bankassist/internal/vectorstore"
)

// IngestRunReader reports the most recent ingestion.
type IngestRunReader interface {
	Latest(ctx context.Context) (*storage.IngestRun, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        vectorstore.VectorStore
	ingestRuns         IngestRunReader
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. ingestRuns may be nil.
func NewHealthHandler(vectorStore vectorstore.VectorStore, ingestRuns IngestRunReader, collectionName string) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		ingestRuns:         ingestRuns,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Records in the similarity index, when known
	Records int `json:"records,omitempty"`

	// Index version of the last ingestion, when one was recorded
	IndexVersion string `json:"index_version,omitempty"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 when healthy or degraded, 503 when the similarity index is unreachable.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}
	httpStatus := http.StatusOK

	records, ok := h.checkVectorStore(checkCtx, logger)
	switch {
	case !ok:
		response.Checks["vector_store"] = "error"
		response.Issues = append(response.Issues, "vector_store_unavailable")
		response.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case records == 0:
		response.Checks["vector_store"] = "empty"
		response.Issues = append(response.Issues, "index_empty")
		response.Status = "degraded"
	default:
		response.Checks["vector_store"] = "ok"
		response.Records = records
	}

	if h.ingestRuns != nil {
		run, err := h.ingestRuns.Latest(checkCtx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.Checks["ingest"] = "never_run"
		case err != nil:
			logger.WarnContext(ctx, "ingest run lookup failed", "error", err)
			response.Checks["ingest"] = "error"
		default:
			response.Checks["ingest"] = "ok"
			response.IndexVersion = run.IndexVersion
		}
	}

	writeJSON(ctx, w, httpStatus, response)
}

// checkVectorStore reports the collection's point count and whether it is reachable.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return 0, false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collectionName)
		return 0, false
	}

	info, err := h.vectorStore.CollectionInfo(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store info failed", "error", err)
		return 0, false
	}
	return info.PointsCount, true
}
