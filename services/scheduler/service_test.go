package scheduler_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/requestsync"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/scheduler"
)

type stubSyncer struct {
	started chan struct{}
	release chan struct{}
	summary requestsync.Summary
}

func (s *stubSyncer) Run(ctx context.Context, progress requestsync.ProgressFunc) requestsync.Summary {
	progress(50)
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			s.summary.Cancelled = true
		}
	}
	progress(100)
	return s.summary
}

func newManager(t *testing.T) (*config.Manager, config.ScheduledTask) {
	t.Helper()
	mgr := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	settings, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, settings.ScheduledTasks.Tasks, 1)
	return mgr, settings.ScheduledTasks.Tasks[0]
}

func TestRunTaskNowRecordsSuccess(t *testing.T) {
	mgr, task := newManager(t)
	syncer := &stubSyncer{summary: requestsync.Summary{Added: 2, AddedToPending: 1}}
	svc := scheduler.NewService(mgr, func(config.Settings) (scheduler.RequestsSyncer, error) { return syncer, nil })

	require.NoError(t, svc.RunTaskNow(task.ID))
	svc.Wait()

	tasks := svc.GetTaskStatus()
	require.Len(t, tasks, 1)
	assert.Equal(t, config.ScheduledTaskStatusSuccess, tasks[0].LastStatus)
	assert.Equal(t, 3, tasks[0].ItemsImported)
	assert.NotNil(t, tasks[0].LastRunAt)
	assert.Empty(t, tasks[0].LastError)
	assert.False(t, svc.IsTaskRunning(task.ID))
}

func TestRunTaskNowReportsProgressWhileRunning(t *testing.T) {
	mgr, task := newManager(t)
	syncer := &stubSyncer{started: make(chan struct{}), release: make(chan struct{})}
	svc := scheduler.NewService(mgr, func(config.Settings) (scheduler.RequestsSyncer, error) { return syncer, nil })

	require.NoError(t, svc.RunTaskNow(task.ID))
	<-syncer.started

	tasks := svc.GetTaskStatus()
	require.Len(t, tasks, 1)
	assert.Equal(t, config.ScheduledTaskStatusRunning, tasks[0].LastStatus)
	assert.Equal(t, float64(50), tasks[0].Progress)
	assert.ErrorIs(t, svc.RunTaskNow(task.ID), scheduler.ErrTaskAlreadyRunning)

	close(syncer.release)
	svc.Wait()
	assert.Equal(t, float64(0), svc.GetTaskStatus()[0].Progress)
}

func TestRunTaskNowUnknownTask(t *testing.T) {
	mgr, _ := newManager(t)
	svc := scheduler.NewService(mgr, nil)
	assert.ErrorIs(t, svc.RunTaskNow("nope"), scheduler.ErrTaskNotFound)
}

func TestFactoryErrorIsRecorded(t *testing.T) {
	mgr, task := newManager(t)
	svc := scheduler.NewService(mgr, func(config.Settings) (scheduler.RequestsSyncer, error) {
		return nil, errors.New("no library")
	})

	require.NoError(t, svc.RunTaskNow(task.ID))
	svc.Wait()

	tasks := svc.GetTaskStatus()
	assert.Equal(t, config.ScheduledTaskStatusError, tasks[0].LastStatus)
	assert.Contains(t, tasks[0].LastError, "no library")
}

func TestStartRunsDueTasksAndStopCancels(t *testing.T) {
	mgr, task := newManager(t)
	syncer := &stubSyncer{started: make(chan struct{}), release: make(chan struct{})}
	svc := scheduler.NewService(mgr, func(config.Settings) (scheduler.RequestsSyncer, error) { return syncer, nil })

	require.NoError(t, svc.Start(context.Background()))
	select {
	case <-syncer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled task did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	tasks := svc.GetTaskStatus()
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, config.ScheduledTaskStatusError, tasks[0].LastStatus)
	assert.Contains(t, tasks[0].LastError, "context canceled")
}
