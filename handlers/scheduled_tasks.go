package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/scheduler"
)

type settingsStore interface {
	Load() (config.Settings, error)
	Save(config.Settings) error
}

type taskRunner interface {
	GetTaskStatus() []config.ScheduledTask
	RunTaskNow(taskID string) error
}

// ScheduledTasksHandler handles scheduled tasks API endpoints
type ScheduledTasksHandler struct {
	configManager    settingsStore
	schedulerService taskRunner
}

// NewScheduledTasksHandler creates a new scheduled tasks handler
func NewScheduledTasksHandler(configManager settingsStore, schedulerService taskRunner) *ScheduledTasksHandler {
	return &ScheduledTasksHandler{
		configManager:    configManager,
		schedulerService: schedulerService,
	}
}

// ListTasks returns all scheduled tasks with current status
// GET /JellyfinEnhanced/tasks
func (h *ScheduledTasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.schedulerService.GetTaskStatus()
	if tasks == nil {
		tasks = []config.ScheduledTask{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}

// UpdateTask changes a task's name, frequency or enabled flag
// PUT /JellyfinEnhanced/tasks/{taskID}
func (h *ScheduledTasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var req struct {
		Name      string                        `json:"name"`
		Frequency config.ScheduledTaskFrequency `json:"frequency"`
		Enabled   *bool                         `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	settings, err := h.configManager.Load()
	if err != nil {
		writeJSONError(w, "Failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var updatedTask *config.ScheduledTask
	for i := range settings.ScheduledTasks.Tasks {
		t := &settings.ScheduledTasks.Tasks[i]
		if t.ID != taskID {
			continue
		}
		if req.Name != "" {
			t.Name = req.Name
		}
		if req.Frequency != "" {
			t.Frequency = req.Frequency
		}
		if req.Enabled != nil {
			t.Enabled = *req.Enabled
		}
		updatedTask = t
		break
	}
	if updatedTask == nil {
		writeJSONError(w, "Task not found", http.StatusNotFound)
		return
	}

	if err := h.configManager.Save(settings); err != nil {
		writeJSONError(w, "Failed to save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    updatedTask,
	})
}

// RunTask triggers immediate execution of a task
// POST /JellyfinEnhanced/tasks/{taskID}/run
func (h *ScheduledTasksHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	err := h.schedulerService.RunTaskNow(taskID)
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, scheduler.ErrTaskAlreadyRunning):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Task started",
	})
}
