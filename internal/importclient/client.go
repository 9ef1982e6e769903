// Package importclient submits validated asset rows to the import API.
package importclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/csvimport"
	"github.com/ukydev/asset-maintenance/internal/models"
)

const (
	ImportPath     = "/api/assets/import"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the asset import endpoint
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client for the API at baseURL authenticating with token
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Import posts rows to the server. It never returns an error: transport and
// server failures are reported in the result with nothing imported.
func (c *Client) Import(ctx context.Context, rows []csvimport.AssetRow) models.ImportResult {
	total := len(rows)
	fail := func(format string, args ...interface{}) models.ImportResult {
		msg := fmt.Sprintf(format, args...)
		log.WithField("total", total).Warn("Import failed: " + msg)
		return models.ImportResult{Total: total, Error: msg}
	}

	data, err := json.Marshal(map[string]interface{}{"assets": rows})
	if err != nil {
		return fail("failed to encode assets: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ImportPath, bytes.NewReader(data))
	if err != nil {
		return fail("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fail("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result models.ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fail("failed to decode response: %v", err)
	}
	if result.Total == 0 {
		result.Total = total
	}

	log.WithFields(log.Fields{
		"batch_id": result.BatchID,
		"imported": result.Imported,
		"total":    result.Total,
		"warnings": len(result.Warnings),
	}).Info("Assets imported")
	return result
}
