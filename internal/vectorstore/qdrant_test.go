package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "default HTTP port",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:     "no port specified",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "no hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcEndpoint(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcEndpoint() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcEndpoint() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid")
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestQdrantStore_Upsert_EmptyPoints(t *testing.T) {
	// Returns before touching the client.
	store := &QdrantStore{}

	if err := store.Upsert(context.Background(), "customer_records", []Point{}); err != nil {
		t.Errorf("Upsert() with empty points should return early without error, got: %v", err)
	}
}

func TestQdrantStore_Search_InvalidK(t *testing.T) {
	store := &QdrantStore{}
	ctx := context.Background()

	if _, err := store.Search(ctx, "customer_records", []float32{1.0, 2.0}, 0); err == nil {
		t.Error("Search() with k=0 should return error")
	}
	if _, err := store.Search(ctx, "customer_records", []float32{1.0, 2.0}, -1); err == nil {
		t.Error("Search() with k=-1 should return error")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil || len(result) != 0 {
		t.Errorf("convertPayloadToMap(nil) = %v, want empty map", result)
	}

	payload := qdrant.NewValueMap(map[string]any{
		"text":        "Customer ID: CUST1001",
		"customer_id": "CUST1001",
		"block_index": 2,
	})
	got := convertPayloadToMap(payload)

	if got["text"] != "Customer ID: CUST1001" {
		t.Errorf("text = %v", got["text"])
	}
	if got["customer_id"] != "CUST1001" {
		t.Errorf("customer_id = %v", got["customer_id"])
	}
	if got["block_index"] != int64(2) {
		t.Errorf("block_index = %#v, want int64(2)", got["block_index"])
	}
}
