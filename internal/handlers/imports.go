package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/csvimport"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/models"
)

const (
	templateFilename = "asset_import_template.csv"
	// room for multipart boundaries and part headers on top of the file itself
	multipartOverhead = 1 << 20
)

var (
	errNotCSV       = errors.New("upload must be a CSV file")
	errUploadTooBig = fmt.Errorf("%w: limit is %d bytes", csvimport.ErrFileTooLarge, csvimport.MaxFileSize)
)

// ImportHandler serves the bulk asset import endpoints
type ImportHandler struct {
	assets db.AssetCollection
	schema csvimport.Schema
	now    func() time.Time
}

// NewImportHandler creates a new import handler for the asset schema
func NewImportHandler(assets db.AssetCollection) *ImportHandler {
	return &ImportHandler{
		assets: assets,
		schema: csvimport.AssetSchema(),
		now:    time.Now,
	}
}

type validateResponse struct {
	*models.ValidationResult
	CanImport bool `json:"can_import"`
}

type importRequest struct {
	Assets []csvimport.AssetRow `json:"assets"`
}

// Template returns a CSV file with every supported column and one sample row
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	template, err := csvimport.Template(h.schema)
	if err != nil {
		log.WithError(err).Error("Failed to build import template")
		http.Error(w, "Failed to build template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", templateFilename))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, template)
}

// Validate parses an uploaded CSV and returns the validation report
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, _, ok := h.parseUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		ValidationResult: result,
		CanImport:        csvimport.CanImport(result),
	})
}

// Import stores assets. It accepts either a CSV upload, which is validated
// and rejected as a whole if any row has errors, or a JSON body of rows that
// were already validated by the client. Rows that conflict with stored
// assets are skipped and reported as warnings.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rows []csvimport.AssetRow
	if isJSON(r) {
		r.Body = http.MaxBytesReader(w, r.Body, csvimport.MaxFileSize+multipartOverhead)
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rows = req.Assets
	} else {
		result, parsed, ok := h.parseUpload(w, r)
		if !ok {
			return
		}
		if !csvimport.CanImport(result) {
			writeJSON(w, http.StatusUnprocessableEntity, validateResponse{ValidationResult: result})
			return
		}
		rows = csvimport.ToAssets(parsed)
	}

	if len(rows) == 0 {
		http.Error(w, "No assets to import", http.StatusBadRequest)
		return
	}
	if len(rows) > csvimport.MaxRows {
		http.Error(w, csvimport.ErrTooManyRows.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	result, err := h.store(r, rows)
	if err != nil {
		log.WithError(err).Error("Failed to import assets")
		http.Error(w, "Failed to import assets", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"batch_id": result.BatchID,
		"imported": result.Imported,
		"total":    result.Total,
		"warnings": len(result.Warnings),
	}).Info("Assets imported")
	writeJSON(w, http.StatusOK, result)
}

// store applies the server-side checks and inserts the surviving rows
func (h *ImportHandler) store(r *http.Request, rows []csvimport.AssetRow) (*models.ImportResult, error) {
	ctx := r.Context()
	result := &models.ImportResult{
		BatchID:  uuid.NewString(),
		Total:    len(rows),
		Warnings: []models.ImportWarning{},
	}

	var serials []string
	var ids []int
	for _, row := range rows {
		if row.Asset.SerialNumber != "" {
			serials = append(serials, row.Asset.SerialNumber)
		}
		if row.Asset.ID != 0 {
			ids = append(ids, row.Asset.ID)
		}
	}

	storedSerials, err := h.assets.ExistingSerials(ctx, serials)
	if err != nil {
		return nil, fmt.Errorf("failed to check serial numbers: %w", err)
	}
	storedIDs, err := h.assets.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check asset ids: %w", err)
	}
	if storedSerials == nil {
		storedSerials = map[string]bool{}
	}
	if storedIDs == nil {
		storedIDs = map[int]bool{}
	}
	nextID, err := h.assets.MaxAssetID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset ids: %w", err)
	}

	warn := func(row int, format string, args ...interface{}) {
		result.Warnings = append(result.Warnings, models.ImportWarning{Row: row, Message: fmt.Sprintf(format, args...)})
	}

	now := h.now().UTC()
	accepted := make([]models.Asset, 0, len(rows))
	for _, row := range rows {
		a := row.Asset
		if problem := csvimport.CheckAsset(a); problem != "" {
			warn(row.Row, "Skipped: %s", problem)
			continue
		}
		if a.SerialNumber != "" && storedSerials[a.SerialNumber] {
			warn(row.Row, "Skipped: serial number %s already exists", a.SerialNumber)
			continue
		}
		if a.ID != 0 && storedIDs[a.ID] {
			warn(row.Row, "Skipped: asset id %d already exists", a.ID)
			continue
		}
		// Claim the keys only once the row is accepted.
		if a.SerialNumber != "" {
			storedSerials[a.SerialNumber] = true
		}
		if a.ID != 0 {
			storedIDs[a.ID] = true
		}
		accepted = append(accepted, a)
	}

	// Assign ids after the explicit ones are known so generated ids never
	// collide with ids later in the batch.
	for _, a := range accepted {
		if a.ID > nextID {
			nextID = a.ID
		}
	}
	for i := range accepted {
		a := &accepted[i]
		if a.ID == 0 {
			nextID++
			a.ID = nextID
		}
		a.Status = strings.ToLower(a.Status)
		if a.Status == "" {
			a.Status = models.AssetStatusOperational
		}
		a.CreatedAt = now
		a.UpdatedAt = now
	}

	if len(accepted) > 0 {
		if err := h.assets.InsertAssets(ctx, accepted); err != nil {
			return nil, fmt.Errorf("failed to insert assets: %w", err)
		}
	}
	result.Imported = len(accepted)
	return result, nil
}

// parseUpload reads the CSV from the request, parses and validates it. It
// writes the error response itself and reports whether the caller should
// continue.
func (h *ImportHandler) parseUpload(w http.ResponseWriter, r *http.Request) (*models.ValidationResult, *csvimport.Parsed, bool) {
	raw, err := readCSVUpload(w, r)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, errNotCSV):
			status = http.StatusUnsupportedMediaType
		case errors.Is(err, csvimport.ErrFileTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return nil, nil, false
	}

	parsed, err := csvimport.Parse(raw, h.schema)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, csvimport.ErrFileTooLarge) || errors.Is(err, csvimport.ErrTooManyRows) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return nil, nil, false
	}

	return csvimport.Validate(parsed, h.schema, h.now()), parsed, true
}

// readCSVUpload accepts a raw text/csv body or a multipart form with a
// "file" part whose name ends in .csv or whose type is text/csv.
func readCSVUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", errNotCSV
	}

	switch mediaType {
	case "text/csv", "application/csv":
		r.Body = http.MaxBytesReader(w, r.Body, csvimport.MaxFileSize)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", errUploadTooBig
			}
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		return string(data), nil

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, csvimport.MaxFileSize+multipartOverhead)
		if err := r.ParseMultipartForm(csvimport.MaxFileSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", errUploadTooBig
			}
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()

		partType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") && partType != "text/csv" {
			return "", errNotCSV
		}
		if header.Size > csvimport.MaxFileSize {
			return "", errUploadTooBig
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		return string(data), nil
	}

	return "", errNotCSV
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
