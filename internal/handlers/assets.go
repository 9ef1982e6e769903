package handlers

import (
	"net/http"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// AssetHandler serves the asset register
type AssetHandler struct {
	assets db.AssetCollection
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(assets db.AssetCollection) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// List returns assets ordered by ID. The status, industry, type and location
// query parameters narrow the result to exact matches.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := bson.M{}
	if status := strings.ToLower(q.Get("status")); status != "" {
		if !models.IsValidAssetStatus(status) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		filter["status"] = status
	}
	if industry := strings.ToLower(q.Get("industry")); industry != "" {
		if !models.IsValidIndustry(industry) {
			http.Error(w, "Invalid industry filter", http.StatusBadRequest)
			return
		}
		filter["industry"] = industry
	}
	for _, field := range []string{"type", "location"} {
		if v := strings.TrimSpace(q.Get(field)); v != "" {
			filter[field] = v
		}
	}

	assets, err := h.assets.FindAssets(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to load assets")
		http.Error(w, "Failed to load assets", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	sort.SliceStable(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	writeJSON(w, http.StatusOK, assets)
}
