package importclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/asset-maintenance/internal/csvimport"
	"github.com/ukydev/asset-maintenance/internal/models"
)

func sampleRows() []csvimport.AssetRow {
	return []csvimport.AssetRow{
		{Row: 2, Asset: models.Asset{Name: "Pump A", Type: "Pump", Manufacturer: "Acme", Model: "P-100", Location: "Plant 1"}},
		{Row: 3, Asset: models.Asset{Name: "Pump B", Type: "Pump", Manufacturer: "Acme", Model: "P-100", Location: "Plant 1"}},
	}
}

func TestClient_Import(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ImportPath, r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Assets []csvimport.AssetRow `json:"assets"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Assets, 2)
		assert.Equal(t, 3, body.Assets[1].Row)

		json.NewEncoder(w).Encode(models.ImportResult{
			BatchID:  "batch-1",
			Imported: 1,
			Total:    2,
			Warnings: []models.ImportWarning{{Row: 3, Message: "Skipped: serial number X already exists"}},
		})
	}))
	defer server.Close()

	result := New(server.URL+"/", "secret-token").Import(context.Background(), sampleRows())

	assert.Empty(t, result.Error)
	assert.Equal(t, "batch-1", result.BatchID)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 3, result.Warnings[0].Row)
}

func TestClient_Import_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
	}))
	defer server.Close()

	result := New(server.URL, "token").Import(context.Background(), sampleRows())

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Total)
	assert.Contains(t, result.Error, "403")
	assert.Contains(t, result.Error, "Insufficient permissions")
}

func TestClient_Import_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	result := New(url, "token").Import(context.Background(), sampleRows())

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Total)
	assert.Contains(t, result.Error, "request failed")
}

func TestClient_Import_BadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	result := New(server.URL, "").Import(context.Background(), sampleRows())

	assert.Equal(t, 0, result.Imported)
	assert.Contains(t, result.Error, "failed to decode response")
}
