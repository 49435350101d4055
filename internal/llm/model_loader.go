package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bankassist/internal/contextutil"
)

// ModelLoader asks a llama.cpp router server to load a model through its
// /models endpoints, so the first chat turn does not pay the load time.
type ModelLoader struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxPolls     int
}

// NewModelLoader creates a new model loader.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       newHTTPClient(),
		pollInterval: time.Second,
		maxPolls:     60,
	}
}

// LoadModelRequest represents the request payload for loading a model.
type LoadModelRequest struct {
	Model     string   `json:"model"`
	ExtraArgs []string `json:"extra_args,omitempty"`
}

// LoadModelResponse represents the response from the load model endpoint.
type LoadModelResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ModelStatus represents the status of a model from the /models endpoint.
type ModelStatus struct {
	ID      string `json:"id"`
	InCache bool   `json:"in_cache"`
	Status  struct {
		Value    string `json:"value"`
		ExitCode *int   `json:"exit_code,omitempty"`
		Failed   *bool  `json:"failed,omitempty"`
	} `json:"status"`
}

// ModelsResponse represents the response from the /models endpoint.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

func (ml *ModelLoader) status(ctx context.Context, modelName string) (*ModelStatus, error) {
	var models ModelsResponse
	if err := getJSON(ctx, ml.client, ml.baseURL+"/models", &models); err != nil {
		return nil, err
	}
	for i := range models.Data {
		if models.Data[i].ID == modelName {
			return &models.Data[i], nil
		}
	}
	return nil, nil
}

// IsModelLoaded reports whether modelName is loaded (in cache).
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, modelName string) (bool, error) {
	st, err := ml.status(ctx, modelName)
	if err != nil {
		return false, fmt.Errorf("failed to check model status: %w", err)
	}
	return st != nil && st.InCache, nil
}

// LoadModel loads modelName unless it is already in cache, then polls until
// the server reports it loaded, failed, or the poll budget runs out.
func (ml *ModelLoader) LoadModel(ctx context.Context, modelName string, extraArgs []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	loaded, err := ml.IsModelLoaded(ctx, modelName)
	if err != nil {
		logger.WarnContext(ctx, "model status unavailable, loading anyway", "model", modelName, "error", err)
	} else if loaded {
		logger.DebugContext(ctx, "model already loaded", "model", modelName)
		return nil
	}

	var loadResp LoadModelResponse
	payload := LoadModelRequest{Model: modelName, ExtraArgs: extraArgs}
	if err := postJSON(ctx, ml.client, ml.baseURL+"/models/load", "", payload, &loadResp); err != nil {
		return err
	}
	if !loadResp.Success {
		return fmt.Errorf("model load failed: %s", loadResp.Error)
	}

	// /models/load returns before the model is ready.
	ticker := time.NewTicker(ml.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < ml.maxPolls; attempt++ {
		st, err := ml.status(ctx, modelName)
		if err == nil && st != nil {
			if st.InCache {
				logger.InfoContext(ctx, "model loaded", "model", modelName)
				return nil
			}
			if st.Status.Failed != nil && *st.Status.Failed {
				exitCode := 0
				if st.Status.ExitCode != nil {
					exitCode = *st.Status.ExitCode
				}
				return fmt.Errorf("model load failed with exit code %d", exitCode)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return fmt.Errorf("model did not load within timeout period")
}
