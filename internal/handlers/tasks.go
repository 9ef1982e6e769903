package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/asset-maintenance/internal/db"
	"github.com/ukydev/asset-maintenance/internal/middleware"
	"github.com/ukydev/asset-maintenance/internal/models"
	"github.com/ukydev/asset-maintenance/internal/urgency"
	"go.mongodb.org/mongo-driver/bson"
)

// TaskHandler serves the scored maintenance task views
type TaskHandler struct {
	assets   db.AssetCollection
	tasks    db.TaskCollection
	settings db.SettingsCollection
	scorer   *urgency.Scorer
	now      func() time.Time
}

// NewTaskHandler creates a new task handler. settings may be nil, in which
// case lists default to urgency order.
func NewTaskHandler(assets db.AssetCollection, tasks db.TaskCollection, settings db.SettingsCollection, scorer *urgency.Scorer) *TaskHandler {
	return &TaskHandler{
		assets:   assets,
		tasks:    tasks,
		settings: settings,
		scorer:   scorer,
		now:      time.Now,
	}
}

// List returns scored tasks, filtered by status and priority and sorted by
// the requested key
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	sortParam := q.Get("sort")
	if sortParam == "" {
		sortParam = h.defaultSort(r)
	}
	key, err := urgency.ParseSortKey(sortParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	scored, ok := h.score(r.Context(), w)
	if !ok {
		return
	}

	filtered := urgency.Filter(scored, urgency.Criteria{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	})
	urgency.Sort(filtered, key)

	writeJSON(w, http.StatusOK, filtered)
}

// Stats returns the dashboard counters for all tasks
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scored, ok := h.score(r.Context(), w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, urgency.ComputeStats(scored))
}

// Complete marks the task given by the id query parameter as completed by
// the calling user
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	var completeReq struct {
		Notes string `json:"notes"`
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &completeReq); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	err = h.tasks.CompleteTask(r.Context(), id, claims.Username, completeReq.Notes, h.now())
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to complete task")
		http.Error(w, "Failed to complete task", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"task_id": id, "username": claims.Username}).Info("Task completed")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task completed successfully"})
}

// score loads every asset and task and runs them through the scorer. It
// writes the error response itself and reports whether the caller should
// continue.
func (h *TaskHandler) score(ctx context.Context, w http.ResponseWriter) ([]models.TaskWithAsset, bool) {
	assets, err := h.assets.FindAssets(ctx, bson.M{})
	if err != nil {
		log.WithError(err).Error("Failed to load assets")
		http.Error(w, "Failed to load assets", http.StatusInternalServerError)
		return nil, false
	}
	tasks, err := h.tasks.FindTasks(ctx, bson.M{})
	if err != nil {
		log.WithError(err).Error("Failed to load tasks")
		http.Error(w, "Failed to load tasks", http.StatusInternalServerError)
		return nil, false
	}

	scored, skipped := h.scorer.ScoreAvailable(assets, tasks, h.now())
	for _, e := range skipped {
		log.WithFields(log.Fields{"task_id": e.TaskID, "field": e.Field}).Warn("Skipping unscorable task")
	}
	return scored, true
}

func (h *TaskHandler) defaultSort(r *http.Request) string {
	if h.settings == nil {
		return ""
	}
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return ""
	}
	settings, err := h.settings.GetSettings(r.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithError(err).Warn("Failed to load settings, using urgency order")
		}
		return ""
	}
	return settings.DefaultSort
}
