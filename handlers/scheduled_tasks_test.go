package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/handlers"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/scheduler"
)

type fakeTasks struct {
	tasks  []config.ScheduledTask
	runErr error
	ran    []string
}

func (f *fakeTasks) GetTaskStatus() []config.ScheduledTask { return f.tasks }

func (f *fakeTasks) RunTaskNow(id string) error {
	f.ran = append(f.ran, id)
	return f.runErr
}

func serveTasks(h *handlers.ScheduledTasksHandler, req *http.Request) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{taskID}", h.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{taskID}/run", h.RunTask).Methods(http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListTasks(t *testing.T) {
	tasks := &fakeTasks{tasks: []config.ScheduledTask{{ID: "t1", LastStatus: config.ScheduledTaskStatusRunning, Progress: 40}}}
	h := handlers.NewScheduledTasksHandler(&fakeSettings{}, tasks)

	rec := serveTasks(h, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tasks []config.ScheduledTask `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, float64(40), body.Tasks[0].Progress)
}

func TestListTasksEmpty(t *testing.T) {
	h := handlers.NewScheduledTasksHandler(&fakeSettings{}, &fakeTasks{})
	rec := serveTasks(h, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.JSONEq(t, `{"tasks":[]}`, rec.Body.String())
}

func TestRunTask(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"started", nil, http.StatusAccepted},
		{"unknown", scheduler.ErrTaskNotFound, http.StatusNotFound},
		{"busy", scheduler.ErrTaskAlreadyRunning, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks := &fakeTasks{runErr: tc.err}
			h := handlers.NewScheduledTasksHandler(&fakeSettings{}, tasks)
			rec := serveTasks(h, httptest.NewRequest(http.MethodPost, "/tasks/t1/run", nil))
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, []string{"t1"}, tasks.ran)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	s := config.DefaultSettings()
	id := s.ScheduledTasks.Tasks[0].ID
	store := &fakeSettings{settings: s}
	h := handlers.NewScheduledTasksHandler(store, &fakeTasks{})

	rec := serveTasks(h, httptest.NewRequest(http.MethodPut, "/tasks/"+id,
		strings.NewReader(`{"frequency":"hourly","enabled":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.saved)
	task := store.saved.ScheduledTasks.Tasks[0]
	assert.Equal(t, config.ScheduledTaskFrequencyHourly, task.Frequency)
	assert.False(t, task.Enabled)

	rec = serveTasks(h, httptest.NewRequest(http.MethodPut, "/tasks/missing", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serveTasks(h, httptest.NewRequest(http.MethodPut, "/tasks/"+id, strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
