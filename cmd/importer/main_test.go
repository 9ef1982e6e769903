package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/asset-maintenance/internal/importclient"
	"github.com/ukydev/asset-maintenance/internal/models"
)

const (
	goodCSV = "name,type,manufacturer,model,location,serialNumber\n" +
		"Pump A,Pump,Acme,P-100,Plant 1,SN-1\n" +
		"Pump B,Pump,Acme,P-100,Plant 1,SN-2\n"
	badCSV = "name,type,manufacturer,model,location,serialNumber\n" +
		"Pump A,Pump,Acme,P-100,Plant 1,SN-1\n" +
		",Pump,Acme,P-100,Plant 1,SN-2\n"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplateCmd(t *testing.T) {
	out, err := run(t, "template")
	require.NoError(t, err)
	assert.Contains(t, out, "name,type,manufacturer")

	path := filepath.Join(t.TempDir(), "template.csv")
	_, err = run(t, "template", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, goodCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 2  valid: 2  warnings: 0  errors: 0")

	out, err = run(t, "validate", writeFile(t, badCSV))
	assert.ErrorIs(t, err, errImportBlocked)
	assert.Contains(t, out, "row 3 (Row 3) [error]: Missing required field: name")

	out, err = run(t, "validate", "--json", writeFile(t, goodCSV))
	require.NoError(t, err)
	var result models.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Summary.ValidRows)
}

func TestValidateCmd_ParseFailure(t *testing.T) {
	_, err := run(t, "validate", writeFile(t, "name,type\n"))
	assert.Error(t, err)

	_, err = run(t, "validate", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestUploadCmd(t *testing.T) {
	var received int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, importclient.ImportPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body struct {
			Assets []json.RawMessage `json:"assets"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received = len(body.Assets)
		json.NewEncoder(w).Encode(models.ImportResult{BatchID: "b-1", Imported: 2, Total: 2})
	}))
	defer server.Close()

	out, err := run(t, "upload", "--api-url", server.URL, "--token", "tok", writeFile(t, goodCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, received)
	assert.Contains(t, out, "Imported 2 of 2 assets (batch b-1)")
}

func TestUploadCmd_BlockedByErrors(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := run(t, "upload", "--api-url", server.URL, writeFile(t, badCSV))
	assert.ErrorIs(t, err, errImportBlocked)
	assert.False(t, called)
}

func TestUploadCmd_ServerUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	out, err := run(t, "upload", "--api-url", url, writeFile(t, goodCSV))
	assert.Error(t, err)
	assert.Contains(t, out, "Import failed")
}
