package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8080", "test-key", "test-model", 384)
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v, want http://localhost:8080", client.BaseURL)
	}
	if client.ExpectedSize != 384 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 384", client.ExpectedSize)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantCount    int
	}{
		{
			name:         "successful embedding",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				resp := EmbeddingsResponse{
					Data: []EmbeddingData{
						{Index: 0, Embedding: make([]float64, 4)},
						{Index: 1, Embedding: make([]float64, 4)},
					},
				}
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantCount: 2,
		},
		{
			name:         "empty input",
			texts:        []string{},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called for empty input")
			},
			wantErr: true,
		},
		{
			name:         "wrong embedding count",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 4)}},
				})
			},
			wantErr: true,
		},
		{
			name:         "wrong vector size",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 3)}},
				})
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", tt.expectedSize)
			got, err := client.EmbedTexts(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d vectors, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_EmbedTexts_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []EmbeddingData{
				{Index: 1, Embedding: []float64{0, 1}},
				{Index: 0, Embedding: []float64{1, 0}},
			},
		})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "test-model", 2)
	got, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if got[0][0] != 1 || got[1][1] != 1 {
		t.Errorf("EmbedTexts() = %v, want vectors placed by index", got)
	}
}

func TestEmbeddingsClient_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []EmbeddingData{{Embedding: []float64{0.5, 0.25, 0.125}}},
		})
	}))
	defer server.Close()

	if err := NewEmbeddingsClient(server.URL, "", "m", 3).Probe(context.Background()); err != nil {
		t.Errorf("Probe() error = %v", err)
	}
	if err := NewEmbeddingsClient(server.URL, "", "m", 384).Probe(context.Background()); err == nil {
		t.Error("Probe() expected size mismatch error")
	}
}
